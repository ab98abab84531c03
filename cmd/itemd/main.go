package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/itemd/internal/config"
	"github.com/mdouchement/itemd/internal/database"
	"github.com/mdouchement/itemd/internal/logger"
	"github.com/mdouchement/itemd/internal/metrics"
	"github.com/mdouchement/itemd/internal/server"
	"github.com/muesli/coral"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"

	cfg    string
	dotenv string
)

func main() {
	c := &coral.Command{
		Use:     "itemd",
		Short:   "Items CRUD server",
		Version: fmt.Sprintf("%s - build %.7s @ %s - %s", version, revision, date, runtime.Version()),
		Args:    coral.ExactArgs(0),
	}
	c.PersistentFlags().StringVarP(&cfg, "config", "c", "", "Configuration file")
	c.PersistentFlags().StringVarP(&dotenv, "env", "e", ".env", "Dotenv file")

	c.AddCommand(initCmd)
	c.AddCommand(reindexCmd)
	c.AddCommand(purgeCmd)
	c.AddCommand(serverCmd)

	if err := c.Execute(); err != nil {
		logrus.Fatalf("%+v", err)
	}
}

func load() (*config.Config, *logrus.Logger, error) {
	konf, err := config.Load(cfg, dotenv)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.New(logger.Options{
		Level:  konf.Log.Level,
		Format: konf.Log.Format,
		File:   konf.Log.File,
	})
	return konf, log, err
}

var (
	initCmd = &coral.Command{
		Use:   "init",
		Short: "Init the database",
		Args:  coral.ExactArgs(0),
		RunE: func(_ *coral.Command, _ []string) error {
			konf, _, err := load()
			if err != nil {
				return err
			}

			return database.StormInit(konf.DatabaseOptions())
		},
	}

	//
	reindexCmd = &coral.Command{
		Use:   "reindex",
		Short: "Reindex the database",
		Args:  coral.ExactArgs(0),
		RunE: func(_ *coral.Command, _ []string) error {
			konf, _, err := load()
			if err != nil {
				return err
			}

			return database.StormReIndex(konf.DatabaseOptions())
		},
	}

	//
	purgeCmd = &coral.Command{
		Use:   "purge",
		Short: "Remove expired items",
		Args:  coral.ExactArgs(0),
		RunE: func(_ *coral.Command, _ []string) error {
			konf, log, err := load()
			if err != nil {
				return err
			}

			db, err := database.StormOpen(konf.DatabaseOptions())
			if err != nil {
				return errors.Wrap(err, "could not open database")
			}
			defer db.Close()

			n, err := db.DeleteItemsCreatedBefore(context.Background(), time.Now().Add(-konf.Database.Retention))
			if err != nil {
				return err
			}

			log.WithField("count", n).Info("Removed expired items")
			return nil
		},
	}

	//
	//
	serverCmd = &coral.Command{
		Use:   "server",
		Short: "Start server",
		Args:  coral.ExactArgs(0),
		RunE: func(_ *coral.Command, _ []string) error {
			konf, log, err := load()
			if err != nil {
				return err
			}

			gateway := database.NewGateway(konf.DatabaseOptions(), log)
			gateway.OnExpire(metrics.AddExpired)

			engine := server.EchoEngine(server.IOC{
				Version: version,
				Gateway: gateway,
				Logger:  log,
			})
			server.PrintRoutes(engine)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, engine, gateway, fmt.Sprintf(":%d", konf.Port), konf.Server.ShutdownTimeout, log)
		},
	}
)

// serve runs the engine until ctx is done or the server fails.
// Once ctx is done, in-flight requests are drained within timeout and the gateway is closed.
func serve(ctx context.Context, engine *echo.Echo, gateway *database.Gateway, address string, timeout time.Duration, log logrus.FieldLogger) error {
	errc := make(chan error, 2)

	go func() {
		log.Infof("Server listening on %s", address)
		if err := engine.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- errors.Wrap(err, "could not run server")
		}
	}()

	go func() {
		// Prime the database handle, requests connect lazily until then.
		if _, err := gateway.Connect(ctx); err != nil && ctx.Err() == nil {
			errc <- errors.Wrap(err, "failed to connect to database on startup")
		}
	}()

	select {
	case err := <-errc:
		engine.Close()
		gateway.Close()
		return err
	case <-ctx.Done():
	}

	log.Info("Termination signal received. Closing server and database connection...")

	sctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := engine.Shutdown(sctx); err != nil {
		log.WithError(err).Warn("In-flight requests abandoned")
	}

	return gateway.Close()
}
