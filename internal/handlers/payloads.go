package handlers

import (
	"strings"

	domain "github.com/artel-market/api/internal/domain"
)

type productPayload struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Featured    bool   `json:"featured"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

func buildProductPayload(product domain.Product) productPayload {
	return productPayload{
		ID:          product.ID,
		Name:        product.Name,
		Price:       product.Price,
		Stock:       product.Stock,
		Category:    product.Category,
		Description: product.Description,
		Image:       product.Image,
		Featured:    product.Featured,
		CreatedAt:   formatTime(product.CreatedAt),
		UpdatedAt:   formatTime(product.UpdatedAt),
	}
}

func buildProductPayloads(products []domain.Product) []productPayload {
	payloads := make([]productPayload, 0, len(products))
	for _, product := range products {
		payloads = append(payloads, buildProductPayload(product))
	}
	return payloads
}

type lineAttributesPayload struct {
	Size     string `json:"size,omitempty"`
	Color    string `json:"color,omitempty"`
	Material string `json:"material,omitempty"`
	Seller   string `json:"seller,omitempty"`
}

type cartLinePayload struct {
	ID           string                `json:"id"`
	ProductID    string                `json:"productId"`
	Name         string                `json:"name"`
	Price        int64                 `json:"price"`
	Image        string                `json:"image,omitempty"`
	Quantity     int                   `json:"quantity"`
	StockCeiling int                   `json:"stockCeiling"`
	Total        int64                 `json:"total"`
	Attributes   lineAttributesPayload `json:"attributes"`
	AddedAt      string                `json:"addedAt,omitempty"`
	UpdatedAt    string                `json:"updatedAt,omitempty"`
}

type cartPayload struct {
	UserID    string            `json:"userId"`
	Lines     []cartLinePayload `json:"lines"`
	ItemCount int               `json:"itemCount"`
	Subtotal  int64             `json:"subtotal"`
	UpdatedAt string            `json:"updatedAt,omitempty"`
}

func buildCartPayload(cart domain.Cart) cartPayload {
	lines := make([]cartLinePayload, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		lines = append(lines, cartLinePayload{
			ID:           line.ID,
			ProductID:    line.ProductID,
			Name:         line.Name,
			Price:        line.Price,
			Image:        line.Image,
			Quantity:     line.Quantity,
			StockCeiling: line.StockCeiling,
			Total:        line.Price * int64(line.Quantity),
			Attributes:   buildAttributesPayload(line.Attributes),
			AddedAt:      formatTime(line.AddedAt),
			UpdatedAt:    formatTimePointer(line.UpdatedAt),
		})
	}
	return cartPayload{
		UserID:    strings.TrimSpace(cart.UserID),
		Lines:     lines,
		ItemCount: cart.ItemCount(),
		Subtotal:  cart.Subtotal(),
		UpdatedAt: formatTime(cart.UpdatedAt),
	}
}

func buildAttributesPayload(attrs domain.LineAttributes) lineAttributesPayload {
	return lineAttributesPayload{
		Size:     attrs.Size,
		Color:    attrs.Color,
		Material: attrs.Material,
		Seller:   attrs.Seller,
	}
}

type savedItemPayload struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Image     string `json:"image,omitempty"`
	Category  string `json:"category,omitempty"`
	SavedAt   string `json:"savedAt,omitempty"`
}

func buildSavedItemPayloads(items []domain.SavedItem) []savedItemPayload {
	payloads := make([]savedItemPayload, 0, len(items))
	for _, item := range items {
		payloads = append(payloads, savedItemPayload{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Image:     item.Image,
			Category:  item.Category,
			SavedAt:   formatTime(item.SavedAt),
		})
	}
	return payloads
}

type wishlistItemPayload struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Image     string `json:"image,omitempty"`
	AddedAt   string `json:"addedAt,omitempty"`
}

func buildWishlistItemPayload(item domain.WishlistItem) wishlistItemPayload {
	return wishlistItemPayload{
		ProductID: item.ProductID,
		Name:      item.Name,
		Price:     item.Price,
		Image:     item.Image,
		AddedAt:   formatTime(item.AddedAt),
	}
}

func buildWishlistPayloads(items []domain.WishlistItem) []wishlistItemPayload {
	payloads := make([]wishlistItemPayload, 0, len(items))
	for _, item := range items {
		payloads = append(payloads, buildWishlistItemPayload(item))
	}
	return payloads
}

type orderTotalsPayload struct {
	Subtotal int64 `json:"subtotal"`
	Shipping int64 `json:"shipping"`
	Tax      int64 `json:"tax"`
	Discount int64 `json:"discount"`
	Total    int64 `json:"total"`
}

type orderLinePayload struct {
	ProductID  string                `json:"productId"`
	Name       string                `json:"name"`
	Price      int64                 `json:"price"`
	Image      string                `json:"image,omitempty"`
	Quantity   int                   `json:"quantity"`
	Total      int64                 `json:"total"`
	Attributes lineAttributesPayload `json:"attributes"`
}

type billingPayload struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type orderPayload struct {
	ID            string             `json:"id"`
	OrderNumber   string             `json:"orderNumber"`
	UserID        string             `json:"userId"`
	Lines         []orderLinePayload `json:"lines"`
	Totals        orderTotalsPayload `json:"totals"`
	Status        string             `json:"status"`
	Billing       billingPayload     `json:"billing"`
	PaymentMethod string             `json:"paymentMethod,omitempty"`
	CouponCode    string             `json:"couponCode,omitempty"`
	CreatedAt     string             `json:"createdAt,omitempty"`
	UpdatedAt     string             `json:"updatedAt,omitempty"`
}

func buildOrderPayload(order domain.Order) orderPayload {
	lines := make([]orderLinePayload, 0, len(order.Lines))
	for _, line := range order.Lines {
		lines = append(lines, orderLinePayload{
			ProductID:  line.ProductID,
			Name:       line.Name,
			Price:      line.Price,
			Image:      line.Image,
			Quantity:   line.Quantity,
			Total:      line.Total,
			Attributes: buildAttributesPayload(line.Attributes),
		})
	}
	return orderPayload{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Lines:       lines,
		Totals: orderTotalsPayload{
			Subtotal: order.Totals.Subtotal,
			Shipping: order.Totals.Shipping,
			Tax:      order.Totals.Tax,
			Discount: order.Totals.Discount,
			Total:    order.Totals.Total,
		},
		Status: string(order.Status),
		Billing: billingPayload{
			FirstName:  order.Billing.FirstName,
			LastName:   order.Billing.LastName,
			Email:      order.Billing.Email,
			Address:    order.Billing.Address,
			City:       order.Billing.City,
			PostalCode: order.Billing.PostalCode,
			Country:    order.Billing.Country,
		},
		PaymentMethod: order.PaymentMethod,
		CouponCode:    order.CouponCode,
		CreatedAt:     formatTime(order.CreatedAt),
		UpdatedAt:     formatTime(order.UpdatedAt),
	}
}

func buildOrderPayloads(orders []domain.Order) []orderPayload {
	payloads := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		payloads = append(payloads, buildOrderPayload(order))
	}
	return payloads
}
