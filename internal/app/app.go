// Package app provides the top-level application lifecycle: it wires the
// market data source, orderbook store, strategy engine, and execution gateway
// together and runs them until shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quantfall/quantbot/internal/cache/redis"
	"github.com/quantfall/quantbot/internal/config"
	"github.com/quantfall/quantbot/internal/domain"
	"github.com/quantfall/quantbot/internal/execution"
	"github.com/quantfall/quantbot/internal/marketdata"
	"github.com/quantfall/quantbot/internal/orderbook"
	"github.com/quantfall/quantbot/internal/platform/binance"
	"github.com/quantfall/quantbot/internal/store/postgres"
	"github.com/quantfall/quantbot/internal/strategy"
)

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates an App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies, starts ingestion and execution, and blocks
// until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	sym := a.cfg.Symbol()
	a.logger.InfoContext(ctx, "starting application",
		slog.String("symbol", sym.String()),
		slog.String("strategy", a.cfg.Trading.StrategyName),
		slog.Bool("auto_execute", a.cfg.Trading.AutoExecute),
	)

	// Exchange clients.
	rest := binance.NewClient(a.cfg.Binance.RestHost)
	newStream := func(s domain.Symbol) marketdata.Streamer {
		return binance.NewStreamClient(a.cfg.Binance.WsHost, s)
	}

	// Core components.
	books := orderbook.NewStore()
	source := marketdata.NewSource(newStream, rest, a.logger)

	signalCh := make(chan domain.TradingSignal, 32)
	registry := strategy.NewRegistry()
	registry.Register(strategy.NewMeanReversion(a.cfg.Strategy, a.logger))
	registry.Register(strategy.NewMomentum(a.cfg.Strategy, a.logger))
	registry.Register(strategy.NewRSI(a.cfg.Strategy, a.logger))
	engine := strategy.NewEngine(registry, signalCh, a.logger)

	gateway := execution.NewGateway(rest, a.logger)
	gateway.SetRiskLimits(a.cfg.Risk)

	// Optional snapshot mirror.
	var mirror *redis.SnapshotMirror
	if a.cfg.Redis.Enabled {
		rc, err := redis.New(ctx, redis.ClientConfig{
			Addr:       a.cfg.Redis.Addr,
			Password:   a.cfg.Redis.Password,
			DB:         a.cfg.Redis.DB,
			PoolSize:   a.cfg.Redis.PoolSize,
			MaxRetries: a.cfg.Redis.MaxRetries,
			TLSEnabled: a.cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return fmt.Errorf("app: redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = rc.Close() })
		mirror = redis.NewSnapshotMirror(rc)
	}

	// Optional signal audit trail.
	var signals *postgres.SignalStore
	if a.cfg.Postgres.Enabled {
		pc, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      a.cfg.Postgres.DSN,
			Host:     a.cfg.Postgres.Host,
			Port:     a.cfg.Postgres.Port,
			Database: a.cfg.Postgres.Database,
			User:     a.cfg.Postgres.User,
			Password: a.cfg.Postgres.Password,
			SSLMode:  a.cfg.Postgres.SSLMode,
			MaxConns: a.cfg.Postgres.PoolMaxConns,
			MinConns: a.cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			return fmt.Errorf("app: postgres: %w", err)
		}
		a.closers = append(a.closers, pc.Close)
		signals = postgres.NewSignalStore(pc.Pool())
		if err := signals.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	// Gateway connection, only needed when orders will actually be sent.
	if a.cfg.Trading.AutoExecute {
		gateway.SetCredentials(a.cfg.Binance.ApiKey, a.cfg.Binance.ApiSecret)
		if err := gateway.Connect(ctx); err != nil {
			return fmt.Errorf("app: %w", err)
		}
	}

	// Strategy engine.
	if err := engine.SetStrategy(a.cfg.Trading.StrategyName, a.cfg.Strategy); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := engine.Start(); err != nil {
		return fmt.Errorf("app: %w", err)
	}

	// Ingestion callback: every snapshot updates the store, feeds the engine,
	// and (when enabled) refreshes the Redis mirror.
	source.SetCallback(func(snap domain.OrderbookSnapshot) {
		if err := books.Update(snap); err != nil {
			a.logger.Warn("store update failed", slog.String("error", err.Error()))
			return
		}
		engine.Process(snap)
		if mirror != nil {
			pubCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			if err := mirror.Publish(pubCtx, snap); err != nil {
				a.logger.Debug("mirror publish failed", slog.String("error", err.Error()))
			}
			cancel()
		}
	})

	if err := source.Start(sym); err != nil {
		return fmt.Errorf("app: start market data: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.executeSignals(gctx, signalCh, gateway, signals)
	})
	g.Go(func() error {
		<-gctx.Done()
		source.Stop()
		engine.Stop()
		gateway.Disconnect()
		return gctx.Err()
	})

	return g.Wait()
}

// executeSignals drains the signal channel: each signal is recorded (when
// persistence is enabled) and submitted to the exchange when auto-execution
// is on.
func (a *App) executeSignals(ctx context.Context, signalCh <-chan domain.TradingSignal, gateway *execution.Gateway, signals *postgres.SignalStore) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig := <-signalCh:
			a.logger.Info("signal received",
				slog.String("signal_id", sig.ID),
				slog.String("kind", sig.Kind.String()),
				slog.String("symbol", sig.Symbol.String()),
				slog.Float64("price", sig.Price),
			)

			if signals != nil {
				if err := signals.Insert(ctx, sig); err != nil {
					a.logger.Warn("signal persist failed", slog.String("error", err.Error()))
				}
			}

			if !a.cfg.Trading.AutoExecute {
				continue
			}

			side := domain.OrderSideBuy
			if sig.Kind == domain.SignalSell {
				side = domain.OrderSideSell
			}
			// Market order: strategies price off the mid, which is not a
			// fillable limit level.
			result := gateway.SubmitOrder(ctx, sig.Symbol, side, 0, sig.Quantity)
			if result.Status == domain.ExecFailed {
				a.logger.Warn("order failed",
					slog.String("signal_id", sig.ID),
					slog.String("message", result.Message),
				)
				continue
			}
			a.logger.Info("order placed",
				slog.String("signal_id", sig.ID),
				slog.Uint64("order_id", result.OrderID),
				slog.String("status", result.Status.String()),
			)
		}
	}
}

// Close tears down all resources in reverse registration order. Safe to call
// multiple times.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
