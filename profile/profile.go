package profile

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no document exists for the identifier.
var ErrNotFound = errors.New("profile not found")

// Document is the stored profile body. The identifier is the store key, not a field.
type Document struct {
	Username string `json:"username" bson:"username"`
	Email    string `json:"email" bson:"email"`
}

// Store reads and writes profile documents keyed by user identifier.
type Store interface {
	Get(ctx context.Context, id string) (Document, error)
	Set(ctx context.Context, id string, doc Document) error
}
