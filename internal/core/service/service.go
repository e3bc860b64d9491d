package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/niksmo/producthub/internal/core/dates"
	"github.com/niksmo/producthub/internal/core/domain"
	"github.com/niksmo/producthub/internal/core/port"
)

var _ port.CatalogLoader = (*Service)(nil)
var _ port.ProductLoader = (*Service)(nil)
var _ port.EventTracker = (*Service)(nil)

const (
	catalogKey = "catalog"

	defaultTrackTimeout = 5 * time.Second
	maxInFlightEvents   = 64
)

type Opt func(*Service)

// WithCacheTTL keeps a loaded catalog for ttl. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Opt {
	return func(s *Service) {
		s.cacheTTL = ttl
	}
}

func WithClock(now func() time.Time) Opt {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithEventsSender(sender port.ClientEventsSender) Opt {
	return func(s *Service) {
		s.events = sender
	}
}

// WithTrackTimeout bounds a single event delivery.
func WithTrackTimeout(d time.Duration) Opt {
	return func(s *Service) {
		if d > 0 {
			s.trackTimeout = d
		}
	}
}

type Service struct {
	source   port.CatalogSource
	events   port.ClientEventsSender
	now      func() time.Time
	cacheTTL time.Duration

	trackTimeout time.Duration
	trackSlots   chan struct{}
	trackWG      sync.WaitGroup

	group    singleflight.Group
	mu       sync.RWMutex
	cached   domain.Catalog
	cachedOK bool
}

func New(source port.CatalogSource, opts ...Opt) *Service {
	s := &Service{
		source:       source,
		now:          time.Now,
		trackTimeout: defaultTrackTimeout,
		trackSlots:   make(chan struct{}, maxInFlightEvents),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadCatalog returns the enriched catalog. Categories and products are
// fetched concurrently and a failure of either fails the whole load.
// Concurrent callers share a single upstream round trip.
func (s *Service) LoadCatalog(ctx context.Context) (domain.Catalog, error) {
	const op = "Service.LoadCatalog"

	if err := ctx.Err(); err != nil {
		return domain.Catalog{}, fmt.Errorf("%s: %w", op, err)
	}

	if c, ok := s.cachedCatalog(); ok {
		return c, nil
	}

	ch := s.group.DoChan(catalogKey, func() (any, error) {
		return s.fetchCatalog(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return domain.Catalog{}, fmt.Errorf("%s: %w", op, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return domain.Catalog{}, fmt.Errorf("%s: %w", op, res.Err)
		}
		return res.Val.(domain.Catalog), nil
	}
}

func (s *Service) fetchCatalog(ctx context.Context) (domain.Catalog, error) {
	const op = "Service.fetchCatalog"
	log := slog.With("op", op)

	var (
		categories []string
		products   []domain.Product
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = s.source.Categories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.source.Products(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		log.Warn("failed to fetch catalog", "err", err)
		return domain.Catalog{}, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	c := domain.Catalog{
		Products:   dates.Enrich(products, now),
		Categories: categories,
		FetchedAt:  now,
	}

	s.mu.Lock()
	s.cached = c
	s.cachedOK = true
	s.mu.Unlock()

	log.Info("catalog loaded",
		"nProducts", len(c.Products), "nCategories", len(c.Categories),
	)
	return c, nil
}

func (s *Service) cachedCatalog() (domain.Catalog, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.cachedOK || s.cacheTTL <= 0 {
		return domain.Catalog{}, false
	}
	if s.now().Sub(s.cached.FetchedAt) >= s.cacheTTL {
		return domain.Catalog{}, false
	}
	return s.cached, true
}

// Product fetches one product and enriches it. While a catalog is cached
// its fetch instant is reused so list and detail show the same date.
func (s *Service) Product(ctx context.Context, id int) (domain.Product, error) {
	const op = "Service.Product"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.source.Product(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	if c, ok := s.cachedCatalog(); ok {
		now = c.FetchedAt
	}
	return dates.EnrichOne(p, now), nil
}

// Track forwards evt to the analytics stream, if one is configured.
// Delivery runs in the background with its own timeout, detached from ctx
// cancellation, so a slow broker never delays the caller. Failures are
// logged and never returned to views. Events are dropped while
// maxInFlightEvents deliveries are pending.
func (s *Service) Track(ctx context.Context, evt domain.ClientEvent) {
	const op = "Service.Track"

	if s.events == nil {
		return
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = s.now()
	}

	select {
	case s.trackSlots <- struct{}{}:
	default:
		slog.Warn("client event dropped, too many pending deliveries",
			"op", op, "kind", evt.Kind,
		)
		return
	}

	sendCtx, cancel := context.WithTimeout(
		context.WithoutCancel(ctx), s.trackTimeout,
	)
	s.trackWG.Add(1)
	go func() {
		defer s.trackWG.Done()
		defer func() { <-s.trackSlots }()
		defer cancel()

		if err := s.events.SendEvents(sendCtx, evt); err != nil {
			slog.Warn("failed to send client event",
				"op", op, "kind", evt.Kind, "err", err,
			)
		}
	}()
}

// Flush waits for pending event deliveries or until ctx is done.
func (s *Service) Flush(ctx context.Context) error {
	const op = "Service.Flush"

	done := make(chan struct{})
	go func() {
		s.trackWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
}
