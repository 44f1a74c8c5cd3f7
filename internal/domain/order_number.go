package domain

import (
	"fmt"
	"strconv"
)

// OrderNumber builds a customer-facing order reference from a millisecond
// timestamp and a caller-supplied random value: "ORD-" followed by the
// trailing six digits of the timestamp and a zero-padded three digit suffix.
func OrderNumber(unixMilli int64, random int) string {
	millis := strconv.FormatInt(unixMilli, 10)
	if len(millis) > 6 {
		millis = millis[len(millis)-6:]
	}
	if random < 0 {
		random = -random
	}
	return fmt.Sprintf("ORD-%s%03d", millis, random%1000)
}
