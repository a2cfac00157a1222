// Package memdrive is an in-process drive.Provider. Every opened client shares
// one object store, which makes it useful for local development and tests.
// Contents are lost on restart.
package memdrive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/docdrive/internal/server/drive"
	"github.com/dmitrijs2005/docdrive/internal/server/vault"
	"github.com/google/uuid"
)

const Name = "memory"

// Operations that can be made to fail with FailOn.
const (
	OpOpen         = "open"
	OpCreate       = "create"
	OpGetMedia     = "get"
	OpDelete       = "delete"
	OpList         = "list"
	OpCreateFolder = "folder"
)

var ErrObjectNotFound = errors.New("object not found")

const uploadChunk = 32 << 10

type object struct {
	drive.Object
	parent string
	owner  string
	data   []byte
}

// Store is both the Provider and the shared backing store.
type Store struct {
	mu       sync.Mutex
	objects  map[string]*object
	failures map[string]error

	paceChunk int
	paceDelay time.Duration
}

func New() *Store {
	return &Store{objects: map[string]*object{}, failures: map[string]error{}}
}

func (s *Store) Name() string { return Name }

// FailOn makes every later call of op return err. A nil err clears it.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) fail(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return drive.Wrap(op, err)
	}
	s.mu.Lock()
	err := s.failures[op]
	s.mu.Unlock()
	if err != nil {
		return drive.Wrap(op, err)
	}
	return nil
}

// Pace makes downloads hand out at most chunk bytes per read and wait delay
// before each one, like a slow network. A zero delay turns pacing off.
func (s *Store) Pace(chunk int, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paceChunk, s.paceDelay = chunk, delay
}

// Has reports whether an object with id exists.
func (s *Store) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[id]
	return ok
}

// Content returns a copy of the stored bytes of id.
func (s *Store) Content(id string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.objects[id]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), o.data...), true
}

// Len returns the number of stored objects, folders included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

func (s *Store) Open(ctx context.Context, sa *vault.ServiceAccount) (drive.Client, error) {
	if err := s.fail(ctx, OpOpen); err != nil {
		return nil, err
	}
	return &client{s: s, owner: sa.ClientEmail}, nil
}

type client struct {
	s     *Store
	owner string
}

func (c *client) put(name, mimeType, parent string, data []byte) *drive.Object {
	now := time.Now().UTC()
	o := &object{
		Object: drive.Object{
			ID:         uuid.NewString(),
			Name:       name,
			MimeType:   mimeType,
			Size:       int64(len(data)),
			CreatedAt:  now,
			ModifiedAt: now,
		},
		parent: parent,
		owner:  c.owner,
		data:   data,
	}
	c.s.mu.Lock()
	c.s.objects[o.ID] = o
	c.s.mu.Unlock()
	obj := o.Object
	return &obj
}

func (c *client) Create(ctx context.Context, r io.Reader, name, mimeType, parent string) (*drive.Object, error) {
	if err := c.s.fail(ctx, OpCreate); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := drive.CopyChunks(ctx, &buf, r, uploadChunk); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return c.put(name, mimeType, parent, buf.Bytes()), nil
}

func (c *client) GetMedia(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := c.s.fail(ctx, OpGetMedia); err != nil {
		return nil, err
	}
	data, ok := c.s.Content(id)
	if !ok {
		return nil, drive.Wrap("get media", ErrObjectNotFound)
	}
	c.s.mu.Lock()
	chunk, delay := c.s.paceChunk, c.s.paceDelay
	c.s.mu.Unlock()
	if delay <= 0 {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return io.NopCloser(&pacedReader{ctx: ctx, data: data, chunk: chunk, delay: delay}), nil
}

func (c *client) Delete(ctx context.Context, id string) error {
	if err := c.s.fail(ctx, OpDelete); err != nil {
		return err
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if _, ok := c.s.objects[id]; !ok {
		return drive.Wrap("delete", ErrObjectNotFound)
	}
	delete(c.s.objects, id)
	return nil
}

// List orders folders first, then by name.
func (c *client) List(ctx context.Context, parent string, limit int) ([]*drive.Object, error) {
	if err := c.s.fail(ctx, OpList); err != nil {
		return nil, err
	}
	c.s.mu.Lock()
	out := []*drive.Object{}
	for _, o := range c.s.objects {
		if parent == "" || o.parent == parent {
			obj := o.Object
			out = append(out, &obj)
		}
	}
	c.s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].IsFolder() != out[j].IsFolder() {
			return out[i].IsFolder()
		}
		return out[i].Name < out[j].Name
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *client) CreateFolder(ctx context.Context, name, parent string) (*drive.Object, error) {
	if err := c.s.fail(ctx, OpCreateFolder); err != nil {
		return nil, err
	}
	return c.put(name, drive.FolderMimeType, parent, nil), nil
}

type pacedReader struct {
	ctx   context.Context
	data  []byte
	chunk int
	delay time.Duration
}

func (r *pacedReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	t := time.NewTimer(r.delay)
	defer t.Stop()
	select {
	case <-r.ctx.Done():
		return 0, drive.Wrap("get media", r.ctx.Err())
	case <-t.C:
	}

	n := len(p)
	if r.chunk > 0 && r.chunk < n {
		n = r.chunk
	}
	n = copy(p[:n], r.data)
	r.data = r.data[n:]
	return n, nil
}
