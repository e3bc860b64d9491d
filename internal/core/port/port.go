package port

import (
	"context"
	"errors"

	"github.com/niksmo/producthub/internal/core/domain"
)

var (
	ErrKeyNotFound     = errors.New("key not found")
	ErrProductNotFound = errors.New("product not found")
)

type closer interface {
	Close()
}

// KV is the durable local key-value storage used by the persisted stores.
//
// Get returns [ErrKeyNotFound] when the key has never been written.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// CatalogSource is the upstream catalog. Product returns
// [ErrProductNotFound] for an unknown id.
type CatalogSource interface {
	Categories(context.Context) ([]string, error)
	Products(context.Context) ([]domain.Product, error)
	Product(ctx context.Context, id int) (domain.Product, error)
}

type CatalogLoader interface {
	LoadCatalog(context.Context) (domain.Catalog, error)
}

type ProductLoader interface {
	Product(ctx context.Context, id int) (domain.Product, error)
}

type ClientEventsSender interface {
	SendEvents(context.Context, ...domain.ClientEvent) error
}

type ClientEventsProducer interface {
	ClientEventsSender
	closer
}

type EventTracker interface {
	Track(context.Context, domain.ClientEvent)
}
