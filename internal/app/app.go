package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/internal/adapter/apiclient"
	"github.com/niksmo/storefront/internal/adapter/console"
	"github.com/niksmo/storefront/internal/adapter/kafka"
	"github.com/niksmo/storefront/internal/adapter/sessionfile"
	"github.com/niksmo/storefront/internal/core/batch"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/niksmo/storefront/internal/core/session"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sr"
)

type adapters struct {
	api      *apiclient.Client
	roles    port.RoleStore
	producer *kafka.EventsProducer
}

type App struct {
	ctx       context.Context
	cfg       config.Config
	sessionID string
	adapters  adapters
	service   *service.Service
	console   *console.Console
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg, sessionID: uuid.NewString()}

	app.initLogger()
	app.initOutboundAdapters()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger.With("session", app.sessionID))
}

func (app *App) initOutboundAdapters() {
	const op = "App.initOutboundAdapters"

	api, err := apiclient.New(
		app.cfg.API.BaseURL,
		apiclient.TimeoutOpt(app.cfg.API.Timeout),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.adapters.api = api
	app.adapters.roles = sessionfile.New(app.cfg.SessionFile)

	if app.cfg.Events.Enabled {
		app.adapters.producer = app.initProducer()
	}
}

func (app *App) initProducer() *kafka.EventsProducer {
	const op = "App.initProducer"
	ctx := app.ctx
	events := app.cfg.Events

	srOpts := []sr.ClientOpt{sr.URLs(events.SchemaRegistryURLs...)}
	var kgoOpts []kgo.Opt
	if events.TLS.Enabled() {
		tlsCfg, err := adapter.MakeTLSConfig(
			events.TLS.CAFile, events.TLS.CertFile, events.TLS.KeyFile,
		)
		if err != nil {
			app.fallDown(op, err)
		}
		srOpts = append(srOpts, sr.DialTLSConfig(tlsCfg))
		kgoOpts = append(kgoOpts, kgo.DialTLSConfig(tlsCfg))
	}

	srClient, err := sr.NewClient(srOpts...)
	if err != nil {
		app.fallDown(op, err)
	}

	serde, err := schema.NewSerdeSessionEventV1(
		ctx,
		schema.SubjectOpt(events.Topic+"-value"),
		schema.SchemaIdentifierOpt(schema.NewRegistry(srClient)),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	producer, err := kafka.NewEventsProducer(
		kafka.ProducerClientOpt(ctx, events.SeedBrokers, events.Topic, kgoOpts...),
		kafka.ProducerEncoderOpt(serde),
		kafka.ProducerSessionOpt(app.sessionID),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	return producer
}

func (app *App) initCoreService() {
	concurrency := batch.WithConcurrency(app.cfg.API.BatchConcurrency)

	var publisher port.EventPublisher
	if app.adapters.producer != nil {
		publisher = app.adapters.producer
	}

	app.service = service.New(
		session.NewGate(app.adapters.api, app.adapters.roles),
		batch.NewProductsManager(app.adapters.api, concurrency),
		batch.NewCustomersManager(app.adapters.api, concurrency),
		publisher,
	)
}

func (app *App) initInboundAdapters() {
	app.console = console.New(app.service, os.Stdin, os.Stdout)
}

// Run loads the session state and serves the console. stopFn is called
// when the console exits.
func (app *App) Run(stopFn context.CancelFunc) {
	const op = "App.Run"
	log := slog.With("op", op)

	if err := app.service.Start(app.ctx); err != nil {
		log.Error("failed to load session state", "err", err)
	}

	go func() {
		defer stopFn()
		if err := app.console.Run(app.ctx); err != nil {
			log.Error("console stopped", "err", err)
		}
	}()

	log.Info("application is running", "role", app.service.Role())
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	if app.adapters.producer != nil {
		app.adapters.producer.Close(ctx)
	}

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
