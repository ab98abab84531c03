package main

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/itemd/internal/database"
	"github.com/mdouchement/itemd/internal/server"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeDrainsAndClosesOnCancel(t *testing.T) {
	engine, gateway, log := setup(t, options(t))
	defer gateway.Close()

	entered := make(chan struct{})
	engine.GET("/slow", func(c echo.Context) error {
		close(entered)
		time.Sleep(200 * time.Millisecond)
		return c.String(http.StatusOK, "done")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, engine, gateway, "127.0.0.1:0", 5*time.Second, log)
	}()

	require.Eventually(t, func() bool {
		return engine.ListenerAddr() != nil && gateway.Connected()
	}, 5*time.Second, 10*time.Millisecond)

	type response struct {
		code int
		body string
		err  error
	}
	responses := make(chan response, 1)
	go func() {
		rs, err := http.Get("http://" + engine.ListenerAddr().String() + "/slow")
		if err != nil {
			responses <- response{err: err}
			return
		}
		defer rs.Body.Close()

		body, err := io.ReadAll(rs.Body)
		responses <- response{code: rs.StatusCode, body: string(body), err: err}
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("request never reached the handler")
	}

	// Same path as SIGINT and SIGTERM.
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	rs := <-responses
	require.NoError(t, rs.err)
	assert.Equal(t, http.StatusOK, rs.code)
	assert.Equal(t, "done", rs.body)

	_, err := gateway.Connect(context.Background())
	assert.ErrorIs(t, err, database.ErrClosed)
}

func TestServeStartupConnectFailure(t *testing.T) {
	opts := options(t)

	// Hold the database file so that the startup connect times out on the file lock.
	holder := database.NewGateway(opts, discard())
	_, err := holder.Connect(context.Background())
	require.NoError(t, err)
	defer holder.Close()

	opts.ConnectTimeout = 50 * time.Millisecond
	engine, gateway, log := setup(t, opts)

	err = serve(context.Background(), engine, gateway, "127.0.0.1:0", time.Second, log)
	assert.ErrorContains(t, err, "failed to connect to database on startup")

	_, err = gateway.Connect(context.Background())
	assert.ErrorIs(t, err, database.ErrClosed)
}

func options(t *testing.T) database.Options {
	return database.Options{
		URI:              t.TempDir(),
		Name:             "itemd",
		ConnectTimeout:   time.Second,
		OperationTimeout: time.Second,
		PoolSize:         4,
	}
}

func discard() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func setup(t *testing.T, opts database.Options) (*echo.Echo, *database.Gateway, logrus.FieldLogger) {
	log := discard()
	gateway := database.NewGateway(opts, log)

	engine := server.EchoEngine(server.IOC{
		Version: "test",
		Gateway: gateway,
		Logger:  log,
	})
	engine.HidePort = true

	return engine, gateway, log
}
