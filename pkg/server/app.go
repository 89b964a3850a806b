package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "SignalDesk/internal/domain/repository"
	"SignalDesk/internal/usecase"
	pkgch "SignalDesk/pkg/clickhouse"
	"SignalDesk/pkg/config"
	xhttp "SignalDesk/pkg/http"
	pkgkafka "SignalDesk/pkg/kafka"
	applogger "SignalDesk/pkg/logger"
)

// App encapsulates the entire application lifecycle: the ticker collector,
// the detection scanner, the validator loop, the optional candle backfiller
// and consumer, and the HTTP API.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	collector  *usecase.TickerCollector
	scanner    *usecase.Scanner
	validator  *usecase.SignalValidator
	backfiller *usecase.Backfiller
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	publisher  domrepo.AlertPublisher
	chClient   *pkgch.Client

	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.TickerCollector,
	scanner *usecase.Scanner,
	validator *usecase.SignalValidator,
	backfiller *usecase.Backfiller,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	publisher domrepo.AlertPublisher,
	chClient *pkgch.Client,
	httpHandler xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		log:         log,
		collector:   collector,
		scanner:     scanner,
		validator:   validator,
		backfiller:  backfiller,
		consumer:    consumer,
		kh:          kh,
		publisher:   publisher,
		chClient:    chClient,
		httpHandler: httpHandler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.log.Error("ticker collector error", applogger.Error(err))
			}
		}()
		a.log.Info("ticker collector started", applogger.Strings("symbols", a.cfg.Exchange.Symbols))
	}

	if a.backfiller != nil && a.cfg.Backfill.Enabled {
		go func() {
			if err := a.backfiller.Run(ctx); err != nil && err != context.Canceled {
				a.log.Error("backfiller stopped", applogger.Error(err))
			}
		}()
		a.log.Info("candle backfiller started")
	}

	go func() {
		if err := a.scanner.Run(ctx); err != nil && err != context.Canceled {
			a.log.Error("scanner stopped", applogger.Error(err))
		}
	}()
	a.log.Info("detection scanner started",
		applogger.Duration("interval", a.cfg.Scanner.Interval))

	go a.validationLoop(ctx)
	a.log.Info("signal validator started",
		applogger.Duration("interval", a.validatorInterval()))

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

func (a *App) validatorInterval() time.Duration {
	if a.cfg.Validator.Interval > 0 {
		return a.cfg.Validator.Interval
	}
	return time.Minute
}

func (a *App) validationLoop(ctx context.Context) {
	ticker := time.NewTicker(a.validatorInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.validator.ValidateAll(ctx, time.Now().UTC())
			if err != nil {
				a.log.Error("validation run error", applogger.Error(err))
			}
			if n > 0 {
				a.log.Info("validation run resolved signals", applogger.Int("resolved", n))
			}
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.log.Warn("collector stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
