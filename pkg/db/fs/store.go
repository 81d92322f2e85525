// Package fs stores a dataset as a single YAML file. Commits rewrite the file
// through a temp file and rename, so a transaction lands completely or not at
// all.
package fs

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/byxorna/orderpane/pkg/db"
	v1 "github.com/byxorna/orderpane/pkg/types/v1"
	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const Name = "fs"

type dataset struct {
	Documents []v1.Record `yaml:"documents"`
}

type Store struct {
	*sync.Mutex
	Path   string        `validate:"required"`
	status v1.SyncStatus `validate:"required"`
	log    *zap.Logger

	// fnv hash of the last content we wrote, so our own writes do not show
	// up as external changes
	lastWritten uint64
	watcher     *fsnotify.Watcher
	changes     chan struct{}
	done        chan struct{}
}

// New opens (creating if missing) the dataset file at path.
func New(path string, log *zap.Logger) (*Store, error) {
	expandedPath, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	expandedPath, err = filepath.Abs(expandedPath)
	if err != nil {
		return nil, err
	}

	x := Store{
		Mutex:   &sync.Mutex{},
		Path:    expandedPath,
		status:  v1.StatusUninitialized,
		log:     log.Named(Name),
		changes: make(chan struct{}, 1),
	}

	if err := x.Validate(); err != nil {
		return nil, fmt.Errorf("error validating storage provider: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(expandedPath), 0700); err != nil {
		return nil, fmt.Errorf("error creating %s: %w", filepath.Dir(expandedPath), err)
	}

	if _, err := os.Stat(expandedPath); os.IsNotExist(err) {
		if err := x.write(dataset{}); err != nil {
			return nil, err
		}
	}

	x.status = v1.StatusOK
	return &x, nil
}

func (x *Store) Validate() error {
	validate := validator.New()
	return validate.Struct(*x)
}

func (x *Store) Name() string             { return Name }
func (x *Store) Status() v1.SyncStatus    { return x.status }
func (x *Store) Changes() <-chan struct{} { return x.changes }

// Fetch rereads the file and returns every document of q.Type in file order.
func (x *Store) Fetch(ctx context.Context, q db.Query) ([]v1.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	x.Lock()
	defer x.Unlock()

	ds, err := x.read()
	if err != nil {
		x.status = v1.StatusError
		return nil, err
	}

	out := []v1.Record{}
	for _, r := range ds.Documents {
		if r.Type == q.Type {
			out = append(out, r)
		}
	}
	x.status = v1.StatusOK
	return out, nil
}

// Commit applies every patch or none. A patch targeting a missing document
// fails the whole transaction with db.ErrNotFound.
func (x *Store) Commit(ctx context.Context, tx db.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	x.Lock()
	defer x.Unlock()

	x.status = v1.StatusSynchronizing
	ds, err := x.read()
	if err != nil {
		x.status = v1.StatusError
		return err
	}

	index := make(map[string]int, len(ds.Documents))
	for i, r := range ds.Documents {
		index[r.ID] = i
	}

	for _, p := range tx.Patches {
		i, ok := index[p.TargetID]
		if !ok {
			x.status = v1.StatusOK
			return fmt.Errorf("patch %s: %w", p.TargetID, db.ErrNotFound)
		}
		doc := ds.Documents[i]
		for field, value := range p.Set {
			if field == v1.RankField {
				doc.Rank = value
				continue
			}
			if doc.Fields == nil {
				doc.Fields = map[string]any{}
			}
			doc.Fields[field] = value
		}
		ds.Documents[i] = doc
	}

	if err := x.write(ds); err != nil {
		x.status = v1.StatusError
		return err
	}

	x.log.Debug("committed transaction", zap.String("tag", tx.Tag), zap.Int("patches", len(tx.Patches)))
	x.status = v1.StatusOK
	return nil
}

// Seed inserts or replaces documents by id.
func (x *Store) Seed(ctx context.Context, records []v1.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	x.Lock()
	defer x.Unlock()

	ds, err := x.read()
	if err != nil {
		return err
	}

	index := make(map[string]int, len(ds.Documents))
	for i, r := range ds.Documents {
		index[r.ID] = i
	}
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("invalid document %q: %w", r.ID, err)
		}
		r.HasPublished = false
		if i, ok := index[r.ID]; ok {
			ds.Documents[i] = r
			continue
		}
		index[r.ID] = len(ds.Documents)
		ds.Documents = append(ds.Documents, r)
	}
	sort.Stable(v1.ByID(ds.Documents))

	return x.write(ds)
}

// Watch starts notifying Changes() whenever something other than this store
// rewrites the dataset file. The directory is watched because commits
// replace the file.
func (x *Store) Watch() error {
	x.Lock()
	defer x.Unlock()

	if x.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(x.Path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("unable to watch %s: %w", dir, err)
	}
	x.watcher = watcher
	x.done = make(chan struct{})

	go x.watchLoop(watcher, x.done)
	return nil
}

func (x *Store) watchLoop(watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != x.Path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if x.writtenByUs() {
				continue
			}
			select {
			case x.changes <- struct{}{}:
			default:
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			x.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (x *Store) writtenByUs() bool {
	x.Lock()
	defer x.Unlock()
	b, err := os.ReadFile(x.Path)
	if err != nil {
		return false
	}
	return hash(b) == x.lastWritten
}

func (x *Store) Close() error {
	x.Lock()
	watcher, done := x.watcher, x.done
	x.watcher = nil
	x.Unlock()

	if watcher == nil {
		return nil
	}
	err := watcher.Close()
	<-done
	return err
}

func (x *Store) read() (dataset, error) {
	var ds dataset
	b, err := os.ReadFile(x.Path)
	if err != nil {
		return ds, fmt.Errorf("unable to read %s: %w", x.Path, err)
	}
	if err := yaml.Unmarshal(b, &ds); err != nil {
		return ds, fmt.Errorf("unable to deserialize %s: %w", x.Path, err)
	}
	return ds, nil
}

func (x *Store) write(ds dataset) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(ds); err != nil {
		return fmt.Errorf("unable to marshal dataset: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(x.Path), ".orderpane-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return fmt.Errorf("unable to write dataset: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("unable to sync dataset: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	x.lastWritten = hash(buf.Bytes())
	return os.Rename(f.Name(), x.Path)
}

func hash(b []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
