package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

const defaultSignedURLExpiry = 15 * time.Minute

// Content types accepted for product image uploads.
var defaultAllowedContentTypes = []string{"image/jpeg", "image/png", "image/webp"}

var (
	errNoSigner           = errors.New("storage: signer is required")
	errInvalidBucket      = errors.New("storage: bucket name is required")
	errInvalidObject      = errors.New("storage: object name is required")
	errContentTypeMissing = errors.New("storage: content type is required for uploads")
	// ErrContentTypeNotAllowed reports an upload content type outside the allow list.
	ErrContentTypeNotAllowed = errors.New("storage: content type not allowed")
)

// Client generates signed upload URLs backed by a Signer.
type Client struct {
	signer       Signer
	bucket       string
	scheme       storage.SigningScheme
	expiry       time.Duration
	allowedTypes []string
	now          func() time.Time
}

// ClientOption customises client behaviour.
type ClientOption func(*Client)

// WithSigningScheme overrides the signing scheme (defaults to V4).
func WithSigningScheme(scheme storage.SigningScheme) ClientOption {
	return func(c *Client) {
		if scheme != 0 {
			c.scheme = scheme
		}
	}
}

// WithUploadExpiry overrides how long generated upload URLs remain valid.
func WithUploadExpiry(expiry time.Duration) ClientOption {
	return func(c *Client) {
		if expiry > 0 {
			c.expiry = expiry
		}
	}
}

// WithAllowedContentTypes overrides the accepted upload content types.
func WithAllowedContentTypes(types []string) ClientOption {
	return func(c *Client) {
		if len(types) > 0 {
			c.allowedTypes = types
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) ClientOption {
	return func(c *Client) {
		if clock != nil {
			c.now = clock
		}
	}
}

// NewClient constructs a new storage signed URL client bound to a bucket.
func NewClient(signer Signer, bucket string, opts ...ClientOption) (*Client, error) {
	if signer == nil || strings.TrimSpace(signer.Email()) == "" {
		return nil, errNoSigner
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errInvalidBucket
	}

	client := &Client{
		signer:       signer,
		bucket:       bucket,
		scheme:       storage.SigningSchemeV4,
		expiry:       defaultSignedURLExpiry,
		allowedTypes: defaultAllowedContentTypes,
		now:          time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// UploadURL describes a generated signed upload URL.
type UploadURL struct {
	URL       string
	Method    string
	ExpiresAt time.Time
	Headers   map[string]string
}

// SignUpload creates a signed PUT URL for uploading the object with the given content type.
func (c *Client) SignUpload(ctx context.Context, object, contentType string) (UploadURL, error) {
	if c == nil {
		return UploadURL{}, errNoSigner
	}
	if ctx == nil {
		return UploadURL{}, errors.New("storage: context is required")
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return UploadURL{}, errInvalidObject
	}
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return UploadURL{}, errContentTypeMissing
	}
	if !contentTypeAllowed(contentType, c.allowedTypes) {
		return UploadURL{}, ErrContentTypeNotAllowed
	}

	expiresAt := c.now().Add(c.expiry)
	urlOpts := storage.SignedURLOptions{
		GoogleAccessID: c.signer.Email(),
		Scheme:         c.scheme,
		Method:         "PUT",
		ContentType:    contentType,
		Expires:        expiresAt,
		SignBytes: func(payload []byte) ([]byte, error) {
			return c.signer.SignBytes(ctx, payload)
		},
	}

	signedURL, err := storage.SignedURL(c.bucket, object, &urlOpts)
	if err != nil {
		return UploadURL{}, fmt.Errorf("storage: sign upload url: %w", err)
	}

	return UploadURL{
		URL:       signedURL,
		Method:    "PUT",
		ExpiresAt: expiresAt,
		Headers:   map[string]string{"Content-Type": contentType},
	}, nil
}

func contentTypeAllowed(contentType string, allowed []string) bool {
	normalized := strings.ToLower(strings.TrimSpace(contentType))
	for _, candidate := range allowed {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if candidate == "" {
			continue
		}
		if candidate == "*" {
			return true
		}
		if strings.HasSuffix(candidate, "/*") {
			prefix := strings.TrimSuffix(candidate, "*")
			if strings.HasPrefix(normalized, strings.TrimSuffix(prefix, "/")) {
				return true
			}
			continue
		}
		if normalized == candidate {
			return true
		}
	}
	return false
}
