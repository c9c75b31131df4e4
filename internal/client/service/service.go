package service

import (
	"context"
)

// Service is the client side of an ingestgate server.
type Service interface {
	Close() error
	Upload(ctx context.Context, u Upload) (*Result, error)
	Health(ctx context.Context) (string, error)
}
