package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"
	"golang.org/x/sync/errgroup"

	"github.com/umputun/mediascope/pkg/domain"
)

// Builder is the cache-backed catalog build the warmer drives
type Builder interface {
	Build(ctx context.Context, catalogID string, f Filters) (*domain.Catalog, error)
}

// Warmer periodically pre-builds configured catalogs so the first user
// request after a cache expiry hits warm data
type Warmer struct {
	builder    Builder
	catalogIDs []string
	interval   time.Duration
	maxWorkers int
	wg         sync.WaitGroup
	cancel     context.CancelFunc
}

// WarmerConfig holds warmer configuration
type WarmerConfig struct {
	CatalogIDs []string
	Interval   time.Duration
	MaxWorkers int
}

// NewWarmer creates a warmer instance
func NewWarmer(builder Builder, cfg WarmerConfig) *Warmer {
	if cfg.Interval == 0 {
		cfg.Interval = 25 * time.Minute
	}
	if cfg.MaxWorkers == 0 {
		cfg.MaxWorkers = 3
	}
	if len(cfg.CatalogIDs) == 0 {
		for _, v := range Variants() {
			cfg.CatalogIDs = append(cfg.CatalogIDs, v.ID)
		}
	}
	return &Warmer{
		builder:    builder,
		catalogIDs: cfg.CatalogIDs,
		interval:   cfg.Interval,
		maxWorkers: cfg.MaxWorkers,
	}
}

// Start begins the warming loop
func (w *Warmer) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.run(ctx)
	lgr.Printf("[INFO] cache warmer started, %d catalogs every %v", len(w.catalogIDs), w.interval)
}

// Stop gracefully stops the warmer
func (w *Warmer) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	lgr.Printf("[INFO] cache warmer stopped")
}

func (w *Warmer) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// warm immediately on start
	w.warmAll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.warmAll(ctx)
		}
	}
}

// warmAll builds every configured catalog with first-page defaults
func (w *Warmer) warmAll(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.maxWorkers)

	for _, id := range w.catalogIDs {
		g.Go(func() error {
			if _, err := w.builder.Build(gctx, id, Filters{}); err != nil {
				lgr.Printf("[WARN] failed to warm catalog %s: %v", id, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		lgr.Printf("[WARN] catalog warming interrupted: %v", err)
	}
	lgr.Printf("[DEBUG] catalog warming pass completed")
}
