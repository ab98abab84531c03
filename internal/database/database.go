package database

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/mdouchement/itemd/internal/model"
)

type (
	// A Client can interacts with the database.
	Client interface {
		// Ping checks that the database is still usable.
		Ping(ctx context.Context) error
		// Close the database.
		Close() error
		// IsNotFound returns true if err is a not found error.
		IsNotFound(err error) bool
		// IsAlreadyExists returns true if err is a uniqueness violation.
		IsAlreadyExists(err error) bool

		ItemInteraction
	}

	// An ItemInteraction defines all the methods used to interact with item records.
	ItemInteraction interface {
		// CreateItem inserts the given item, assigning its ID and timestamps.
		CreateItem(ctx context.Context, item *model.Item) error
		// FindItems returns all items, the most recently created first.
		FindItems(ctx context.Context) ([]*model.Item, error)
		// FindItem returns the item for the given id.
		FindItem(ctx context.Context, id string) (*model.Item, error)
		// ReplaceItem overwrites name, description and quantity of the stored item
		// having the same ID and refreshes its update date.
		ReplaceItem(ctx context.Context, item *model.Item) error
		// DeleteItem deletes the item for the given id.
		DeleteItem(ctx context.Context, id string) error
		// DeleteItemsCreatedBefore deletes all items created before t and returns how many were removed.
		DeleteItemsCreatedBefore(ctx context.Context, t time.Time) (int, error)
	}

	// Options are the database connection parameters.
	Options struct {
		// URI is the directory holding the database files.
		URI string
		// Name is the database name, used as filename.
		Name string
		// Codec is the records encoding (msgpack, cbor or binc).
		// It must not change once the database holds records.
		Codec string
		// ConnectTimeout bounds the time spent acquiring the database file.
		ConnectTimeout time.Duration
		// OperationTimeout bounds the time an operation waits for a pool slot.
		OperationTimeout time.Duration
		// PoolSize is the maximum number of concurrent operations.
		PoolSize int
		// Retention is the lifetime of an item from its creation date.
		Retention time.Duration
		// ReapInterval is the delay between two expired items removals.
		ReapInterval time.Duration
	}
)

// Filename returns the path of the database file.
func (o Options) Filename() string {
	dir := strings.TrimPrefix(o.URI, "file://")
	return filepath.Join(dir, o.Name+".db")
}
