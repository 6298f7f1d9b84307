package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/skillsenselab/vbdiar/component"
	"github.com/skillsenselab/vbdiar/storage"
	"github.com/skillsenselab/vbdiar/testutil"
)

// object is one stored artifact.
type object struct {
	data    []byte
	modTime time.Time
}

func (o *object) clone() *object {
	return &object{data: append([]byte(nil), o.data...), modTime: o.modTime}
}

// Component is the in-memory artifact store. The zero map state before
// Start mirrors the real component, whose backend does not exist until
// the registry starts it.
type Component struct {
	mu      sync.RWMutex
	objects map[string]*object
	started bool
}

var (
	_ component.Component    = (*Component)(nil)
	_ testutil.TestComponent = (*Component)(nil)
	_ storage.Storage        = (*Component)(nil)
)

// NewComponent builds an empty store; Start allocates it.
func NewComponent() *Component {
	return &Component{}
}

// Storage mirrors the real component's accessor: nil until Start.
func (c *Component) Storage() storage.Storage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.started {
		return nil
	}
	return c
}

// --- lifecycle ---

func (c *Component) Name() string { return "storage-test" }

func (c *Component) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return fmt.Errorf("component already started")
	}
	c.objects = make(map[string]*object)
	c.started = true
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects = nil
	c.started = false
	return nil
}

func (c *Component) Health(_ context.Context) component.Health {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.started {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// --- fixture control ---

func (c *Component) Reset(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return fmt.Errorf("component not started")
	}
	c.objects = make(map[string]*object)
	return nil
}

func (c *Component) Snapshot(_ context.Context) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.started {
		return nil, fmt.Errorf("component not started")
	}
	snap := make(map[string]*object, len(c.objects))
	for path, o := range c.objects {
		snap[path] = o.clone()
	}
	return snap, nil
}

func (c *Component) Restore(_ context.Context, snap interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return fmt.Errorf("component not started")
	}
	s, ok := snap.(map[string]*object)
	if !ok {
		return fmt.Errorf("invalid snapshot type: %T", snap)
	}
	c.objects = make(map[string]*object, len(s))
	for path, o := range s {
		c.objects[path] = o.clone()
	}
	return nil
}

// --- storage.Storage ---

func (c *Component) Upload(_ context.Context, path string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read upload data: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[path] = &object{data: data, modTime: time.Now()}
	return nil
}

func (c *Component) Download(_ context.Context, path string) (io.ReadCloser, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, ok := c.objects[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(o.data)), nil
}

func (c *Component) Delete(_ context.Context, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.objects, path)
	return nil
}

func (c *Component) Exists(_ context.Context, path string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.objects[path]
	return ok, nil
}

func (c *Component) URL(_ context.Context, path string) (string, error) {
	return "mem://" + path, nil
}

func (c *Component) List(_ context.Context, prefix string) ([]storage.FileInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var infos []storage.FileInfo
	for path, o := range c.objects {
		if strings.HasPrefix(path, prefix) {
			infos = append(infos, storage.FileInfo{
				Path:         path,
				Size:         int64(len(o.data)),
				LastModified: o.modTime,
			})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos, nil
}
