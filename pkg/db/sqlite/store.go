// Package sqlite keeps documents in a single sqlite table. Transactions map
// onto sql transactions.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	sq "github.com/Masterminds/squirrel"
	"github.com/byxorna/orderpane/pkg/db"
	v1 "github.com/byxorna/orderpane/pkg/types/v1"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	Name  = "sqlite"
	table = "documents"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		id         TEXT PRIMARY KEY,
		type       TEXT NOT NULL,
		order_rank TEXT,
		fields     TEXT NOT NULL DEFAULT '{}'
	)`,
	`CREATE INDEX IF NOT EXISTS documents_type_rank ON documents (type, order_rank)`,
}

type Store struct {
	db  *sql.DB
	log *zap.Logger

	mu     sync.Mutex
	status v1.SyncStatus
}

// New opens the database at path and creates the schema if needed.
func New(ctx context.Context, path string, log *zap.Logger) (*Store, error) {
	expandedPath, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", expandedPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", expandedPath, err)
	}
	// sqlite serialises writers anyway; one connection avoids SQLITE_BUSY
	conn.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	return &Store{db: conn, log: log.Named(Name), status: v1.StatusOK}, nil
}

func (s *Store) Name() string { return Name }
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Status() v1.SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Store) setStatus(status v1.SyncStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

func (s *Store) Fetch(ctx context.Context, q db.Query) ([]v1.Record, error) {
	query, args, err := sq.Select("id", "type", "order_rank", "fields").
		From(table).
		Where(sq.Eq{"type": q.Type}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.setStatus(v1.StatusError)
		return nil, fmt.Errorf("query %s: %w", q.Type, err)
	}
	defer rows.Close()

	out := []v1.Record{}
	for rows.Next() {
		var (
			r      v1.Record
			rank   sql.NullString
			fields string
		)
		if err := rows.Scan(&r.ID, &r.Type, &rank, &fields); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		r.Rank = rank.String
		if err := json.Unmarshal([]byte(fields), &r.Fields); err != nil {
			return nil, fmt.Errorf("decode fields of %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	s.setStatus(v1.StatusOK)
	return out, nil
}

// Commit runs every patch in one sql transaction. An update that matches no
// row rolls everything back with db.ErrNotFound.
func (s *Store) Commit(ctx context.Context, t db.Transaction) (err error) {
	s.setStatus(v1.StatusSynchronizing)
	defer func() {
		if err != nil {
			s.setStatus(v1.StatusError)
			return
		}
		s.setStatus(v1.StatusOK)
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.log.Warn("rollback failed", zap.Error(rbErr))
			}
		}
	}()

	for _, p := range t.Patches {
		update := sq.Update(table).Where(sq.Eq{"id": p.TargetID})
		var (
			paths  []string
			values []any
		)
		for _, field := range sortedKeys(p.Set) {
			if field == v1.RankField {
				update = update.Set("order_rank", p.Set[field])
				continue
			}
			paths = append(paths, "?, ?")
			values = append(values, "$."+field, p.Set[field])
		}
		if len(paths) > 0 {
			update = update.Set("fields", sq.Expr("json_set(fields, "+strings.Join(paths, ", ")+")", values...))
		}

		query, args, err := update.ToSql()
		if err != nil {
			return fmt.Errorf("build patch %s: %w", p.TargetID, err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("patch %s: %w", p.TargetID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("patch %s: %w", p.TargetID, err)
		}
		if n == 0 {
			return fmt.Errorf("patch %s: %w", p.TargetID, db.ErrNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.log.Debug("committed transaction", zap.String("tag", t.Tag), zap.Int("patches", len(t.Patches)))
	return nil
}

// Seed upserts documents by id.
func (s *Store) Seed(ctx context.Context, records []v1.Record) error {
	if len(records) == 0 {
		return nil
	}

	insert := sq.Insert(table).Columns("id", "type", "order_rank", "fields")
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("invalid document %q: %w", r.ID, err)
		}
		fields := r.Fields
		if fields == nil {
			fields = map[string]any{}
		}
		b, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("encode fields of %s: %w", r.ID, err)
		}
		var rank any
		if r.Ranked() {
			rank = r.Rank
		}
		insert = insert.Values(r.ID, r.Type, rank, string(b))
	}

	query, args, err := insert.
		Suffix("ON CONFLICT (id) DO UPDATE SET type = excluded.type, order_rank = excluded.order_rank, fields = excluded.fields").
		ToSql()
	if err != nil {
		return fmt.Errorf("build seed: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
