package database

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrClosed is returned by Connect once the gateway has been closed.
var ErrClosed = errors.New("database gateway is closed")

// A Gateway owns the shared database handle.
// The first Connect opens the database, concurrent callers wait for that same attempt.
type Gateway struct {
	opts   Options
	log    logrus.FieldLogger
	open   func(Options) (Client, error)
	expire func(int)

	mu     sync.Mutex
	client Client
	closed bool
	reaper *reaper
}

// NewGateway returns a Gateway that connects lazily with the given options.
func NewGateway(opts Options, log logrus.FieldLogger) *Gateway {
	return &Gateway{
		opts:   opts,
		log:    log,
		open:   StormOpen,
		expire: func(int) {},
	}
}

// OnExpire registers fn to be called with the number of items removed by each expiration run.
func (g *Gateway) OnExpire(fn func(n int)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.expire = fn
}

// Connect returns the database handle, opening it on first call.
func (g *Gateway) Connect(ctx context.Context) (Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, ErrClosed
	}
	if g.client != nil {
		return g.client, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, err := g.open(g.opts)
	if err != nil {
		return nil, err
	}
	g.client = client

	if g.opts.Retention > 0 && g.opts.ReapInterval > 0 {
		g.reaper = newReaper(client, g.opts.Retention, g.opts.ReapInterval, g.log, g.expire)
		go g.reaper.run()
	}

	g.log.WithField("database", g.opts.Filename()).Info("Successfully connected to database")
	return client, nil
}

// Connected returns true if the database handle has been opened and not closed.
func (g *Gateway) Connected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.client != nil
}

// Close releases the database handle. It is safe to call even if never connected.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil
	}
	g.closed = true

	if g.reaper != nil {
		g.reaper.stop()
		g.reaper = nil
	}

	if g.client == nil {
		return nil
	}

	err := g.client.Close()
	g.client = nil
	return errors.Wrap(err, "could not close database")
}

//
// Expiration
//

type reaper struct {
	client    Client
	retention time.Duration
	interval  time.Duration
	log       logrus.FieldLogger
	expire    func(int)

	done    chan struct{}
	stopped chan struct{}
}

func newReaper(client Client, retention, interval time.Duration, log logrus.FieldLogger, expire func(int)) *reaper {
	return &reaper{
		client:    client,
		retention: retention,
		interval:  interval,
		log:       log,
		expire:    expire,
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

func (r *reaper) run() {
	defer close(r.stopped)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.reap()
		}
	}
}

func (r *reaper) reap() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-r.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	n, err := r.client.DeleteItemsCreatedBefore(ctx, time.Now().Add(-r.retention))
	if err != nil {
		r.log.WithError(err).Warn("Could not remove expired items")
		return
	}

	if n > 0 {
		r.log.WithField("count", n).Debug("Removed expired items")
	}
	r.expire(n)
}

func (r *reaper) stop() {
	close(r.done)
	<-r.stopped
}
