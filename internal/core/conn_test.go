package core

import (
	"encoding/json"
	"sync"
)

// fakeConn records delivered frames for assertions.
type fakeConn struct {
	mu     sync.Mutex
	frames []Frame
	closed bool
	full   bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{}
}

func (c *fakeConn) TrySend(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return ErrFakeFull
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// decoded returns every frame as a generic JSON object.
func (c *fakeConn) decoded() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.frames))
	for _, f := range c.frames {
		var m map[string]any
		_ = json.Unmarshal(f, &m)
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

type fakeFullError struct{}

func (fakeFullError) Error() string { return "send buffer full" }

var ErrFakeFull = fakeFullError{}
