package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sr"

	"github.com/niksmo/producthub/config"
	"github.com/niksmo/producthub/internal/adapter/catalog"
	"github.com/niksmo/producthub/internal/adapter/httphandler"
	"github.com/niksmo/producthub/internal/adapter/kafka"
	"github.com/niksmo/producthub/internal/adapter/metrics"
	"github.com/niksmo/producthub/internal/adapter/storage"
	"github.com/niksmo/producthub/internal/core/browse"
	"github.com/niksmo/producthub/internal/core/port"
	"github.com/niksmo/producthub/internal/core/service"
	"github.com/niksmo/producthub/pkg/schema"
)

type App struct {
	ctx        context.Context
	cfg        config.Config
	kv         storage.KV
	metrics    *metrics.Metrics
	events     port.ClientEventsProducer
	service    *service.Service
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initStorage()
	app.initEvents()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initStorage() {
	const op = "App.initStorage"

	kv, err := storage.Open(app.ctx, storage.Config{
		Driver:     app.cfg.Storage.Driver,
		Dir:        app.cfg.Storage.Dir,
		RedisAddr:  app.cfg.Storage.RedisAddr,
		SQLitePath: app.cfg.Storage.SQLitePath,
	})
	if err != nil {
		app.fallDown(op, err)
	}
	app.kv = kv
}

// initEvents connects the client events stream. Without seed brokers the
// dashboard runs with tracking disabled.
func (app *App) initEvents() {
	const op = "App.initEvents"
	log := slog.With("op", op)

	ecfg := app.cfg.Events
	if !ecfg.Enabled() {
		log.Info("client events stream is disabled")
		return
	}

	var (
		srOpts = []sr.ClientOpt{sr.URLs(ecfg.SchemaRegistryURLs...)}
		kgOpts []kgo.Opt
	)
	if ecfg.TLS.Enabled() {
		tlsCfg, err := kafka.MakeTLSConfig(
			ecfg.TLS.CAFile, ecfg.TLS.CertFile, ecfg.TLS.KeyFile,
		)
		if err != nil {
			app.fallDown(op, err)
		}
		srOpts = append(srOpts, sr.DialTLSConfig(tlsCfg))
		kgOpts = append(kgOpts, kgo.DialTLSConfig(tlsCfg))
	}

	srClient, err := sr.NewClient(srOpts...)
	if err != nil {
		app.fallDown(op, err)
	}

	serde, err := schema.NewSerdeClientEventV1(
		app.ctx,
		schema.SubjectOpt(ecfg.Topic+"-value"),
		schema.SchemaIdentifierOpt(schema.NewSchemaCreater(srClient)),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	producer, err := kafka.NewClientEventsProducer(
		kafka.ProducerClientOpt(app.ctx, ecfg.SeedBrokers, ecfg.Topic, kgOpts...),
		kafka.ProducerEncoderOpt(serde),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.events = producer
}

func (app *App) initCoreService() {
	const op = "App.initCoreService"

	app.metrics = metrics.New()

	ccfg := app.cfg.Catalog
	client, err := catalog.New(ccfg.BaseURL,
		catalog.WithLimit(ccfg.Limit),
		catalog.WithTimeout(ccfg.Timeout),
		catalog.WithObserver(app.metrics),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	opts := []service.Opt{service.WithCacheTTL(ccfg.CacheTTL)}
	if app.events != nil {
		opts = append(opts, service.WithEventsSender(app.events))
	}
	app.service = service.New(client, opts...)
}

func (app *App) initInboundAdapters() {
	const op = "App.initInboundAdapters"

	loc, err := app.cfg.Location()
	if err != nil {
		app.fallDown(op, err)
	}

	views, err := httphandler.NewViews()
	if err != nil {
		app.fallDown(op, err)
	}

	h := httphandler.NewHandler(httphandler.Deps{
		Catalog:  app.service,
		Products: app.service,
		Tracker:  app.service,
		KV:       app.kv,
		Views:    views,
		List: browse.ListConfig{
			PageSize:       app.cfg.PageSize,
			SearchDebounce: app.cfg.SearchDebounce,
			Location:       loc,
		},
	})

	router := httphandler.NewRouter(h, httphandler.RouterConfig{
		RateLimit:  app.cfg.HTTP.RateLimit,
		Production: app.cfg.HTTP.Production,
		Metrics:    app.metrics,
	})

	app.httpServer = httphandler.NewHTTPServer(
		app.cfg.HTTPServerAddr, router, app.cfg.HTTP.RequestTimeout,
	)
}

func (app *App) Run(stopFn context.CancelFunc) {
	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	if err := app.service.Flush(ctx); err != nil {
		slog.Warn("pending client events are lost", "err", err)
	}
	if app.events != nil {
		app.events.Close()
	}
	app.kv.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
