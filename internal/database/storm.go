package database

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/asdine/storm/v3/q"
	"github.com/mdouchement/itemd/internal/model"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/sync/semaphore"
)

// ErrPoolTimeout is returned when no operation slot could be acquired in time.
var ErrPoolTimeout = errors.New("timed out waiting for a database operation slot")

type strm struct {
	db      *storm.DB
	slots   *semaphore.Weighted
	timeout time.Duration
}

// StormInit initializes Storm database and its item indexes.
func StormInit(opts Options) error {
	db, err := stormOpen(opts)
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.Init(&model.Item{})
	return errors.Wrap(err, "could not init item index")
}

// StormReIndex reindex Storm database.
func StormReIndex(opts Options) error {
	db, err := stormOpen(opts)
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.ReIndex(&model.Item{})
	return errors.Wrap(err, "could not ReIndex items")
}

// StormOpen returns a new Storm database connection with initialized item indexes.
func StormOpen(opts Options) (Client, error) {
	db, err := stormOpen(opts)
	if err != nil {
		return nil, err
	}

	if err = db.Init(&model.Item{}); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "could not init item index")
	}

	size := opts.PoolSize
	if size <= 0 {
		size = 1
	}

	return &strm{
		db:      db,
		slots:   semaphore.NewWeighted(int64(size)),
		timeout: opts.OperationTimeout,
	}, nil
}

func stormOpen(opts Options) (*storm.DB, error) {
	filename := opts.Filename()
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return nil, errors.Wrap(err, "could not create database directory")
	}

	format, err := lookupCodec(opts.Codec)
	if err != nil {
		return nil, err
	}

	db, err := storm.Open(filename, storm.Codec(format), storm.BoltOptions(0o600, &bolt.Options{
		Timeout: opts.ConnectTimeout,
	}))
	return db, errors.Wrap(err, "could not get database connection")
}

// acquire reserves an operation slot. The returned function releases it.
func (c *strm) acquire(ctx context.Context) (func(), error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	if err := c.slots.Acquire(ctx, 1); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrPoolTimeout
		}
		return nil, err
	}
	return func() { c.slots.Release(1) }, nil
}

// stamp gives a new record its identity and creation date, and refreshes its update date.
func stamp(m model.Model, t time.Time) {
	if m.GetID() == "" {
		m.SetID(model.NewID())
	}
	if m.GetCreatedAt().IsZero() {
		m.SetCreatedAt(t)
	}
	m.SetUpdatedAt(t)
}

// Ping checks that the database is still usable.
func (c *strm) Ping(ctx context.Context) error {
	release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	err = c.db.Bolt.View(func(*bolt.Tx) error {
		return nil
	})
	return errors.Wrap(err, "ping")
}

// Close the database.
func (c *strm) Close() error {
	return c.db.Close()
}

// IsNotFound returns true if err is a not found error.
func (c *strm) IsNotFound(err error) bool {
	return errors.Cause(err) == storm.ErrNotFound
}

// IsAlreadyExists returns true if err is a uniqueness violation.
func (c *strm) IsAlreadyExists(err error) bool {
	return errors.Cause(err) == storm.ErrAlreadyExists
}

// CreateItem inserts the given item, assigning its ID and timestamps.
func (c *strm) CreateItem(ctx context.Context, item *model.Item) error {
	release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	item.SetID("")
	item.SetCreatedAt(time.Time{})
	stamp(item, time.Now().UTC())

	return errors.Wrap(c.db.Save(item), "could not save the item")
}

// FindItems returns all items, the most recently created first.
func (c *strm) FindItems(ctx context.Context) ([]*model.Item, error) {
	release, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	items := make([]*model.Item, 0)
	err = c.db.Select().OrderBy("CreatedAt").Reverse().Find(&items)
	if err != nil && !c.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not find items")
	}
	return items, nil
}

// FindItem returns the item for the given id.
func (c *strm) FindItem(ctx context.Context, id string) (*model.Item, error) {
	release, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	var item model.Item
	if err := c.db.One("ID", id, &item); err != nil {
		return nil, errors.Wrap(err, "could not find item")
	}
	return &item, nil
}

// ReplaceItem overwrites name, description and quantity of the stored item
// having the same ID and refreshes its update date.
// The creation date of the given item is filled from the stored one.
func (c *strm) ReplaceItem(ctx context.Context, item *model.Item) error {
	release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	tx, err := c.db.Begin(true)
	if err != nil {
		return errors.Wrap(err, "could not begin transaction")
	}
	defer tx.Rollback()

	var stored model.Item
	if err = tx.One("ID", item.ID, &stored); err != nil {
		return errors.Wrap(err, "could not find item")
	}

	stored.Name = item.Name
	stored.Description = item.Description
	stored.Quantity = item.Quantity
	stamp(&stored, time.Now().UTC())

	if err = tx.Save(&stored); err != nil {
		return errors.Wrap(err, "could not save the item")
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "could not commit transaction")
	}

	*item = stored
	return nil
}

// DeleteItem deletes the item for the given id.
func (c *strm) DeleteItem(ctx context.Context, id string) error {
	release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	tx, err := c.db.Begin(true)
	if err != nil {
		return errors.Wrap(err, "could not begin transaction")
	}
	defer tx.Rollback()

	var item model.Item
	if err = tx.One("ID", id, &item); err != nil {
		return errors.Wrap(err, "could not find item")
	}

	if err = tx.DeleteStruct(&item); err != nil {
		return errors.Wrap(err, "could not delete item")
	}
	return errors.Wrap(tx.Commit(), "could not commit transaction")
}

// DeleteItemsCreatedBefore deletes all items created before t and returns how many were removed.
func (c *strm) DeleteItemsCreatedBefore(ctx context.Context, t time.Time) (int, error) {
	release, err := c.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	tx, err := c.db.Begin(true)
	if err != nil {
		return 0, errors.Wrap(err, "could not begin transaction")
	}
	defer tx.Rollback()

	items := make([]*model.Item, 0)
	err = tx.Select(q.Lt("CreatedAt", t)).Find(&items)
	if err != nil {
		if c.IsNotFound(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "could not find expired items")
	}

	for _, item := range items {
		if err = tx.DeleteStruct(item); err != nil {
			return 0, errors.Wrap(err, "could not delete expired item")
		}
	}
	return len(items), errors.Wrap(tx.Commit(), "could not commit transaction")
}
