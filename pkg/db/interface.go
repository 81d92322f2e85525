package db

import (
	"context"
	"errors"
	"fmt"

	v1 "github.com/byxorna/orderpane/pkg/types/v1"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("transaction conflict")
)

// Visibility controls when a committed transaction becomes queryable.
type Visibility string

const (
	VisibilitySync  Visibility = "sync"
	VisibilityAsync Visibility = "async"
)

// Query selects every document of one type. Projection is backend specific;
// backends that store whole documents ignore it.
type Query struct {
	Type       string
	Projection string
}

// Transaction is applied as a unit: either every patch lands or none does.
type Transaction struct {
	Tag        string
	Visibility Visibility
	Patches    []v1.Patch
}

func (t Transaction) String() string {
	return fmt.Sprintf("%s (%d patches, %s)", t.Tag, len(t.Patches), t.Visibility)
}

// Fetcher returns the raw, un-deduplicated documents of a type.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) ([]v1.Record, error)
}

// Committer applies a transaction atomically.
type Committer interface {
	Commit(ctx context.Context, tx Transaction) error
}

// Backend is the interface any storage provider satisfies.
type Backend interface {
	Fetcher
	Committer

	Name() string
	Status() v1.SyncStatus
	Close() error
}

// Seeder is implemented by local backends that can be loaded with documents.
type Seeder interface {
	Seed(ctx context.Context, records []v1.Record) error
}
