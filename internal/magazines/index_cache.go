package magazines

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// IndexCache holds the issue viewer's index.html and reloads it when the
// file's modification time changes.
type IndexCache struct {
	path string

	mu      sync.Mutex
	modTime time.Time
	content []byte
}

func NewIndexCache(path string) *IndexCache {
	return &IndexCache{path: path}
}

// Get returns the current file content, reading it again only when its mtime
// differs from the cached one.
func (c *IndexCache) Get() ([]byte, error) {
	info, err := os.Stat(c.path)
	if err != nil {
		return nil, fmt.Errorf("stat index: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.content != nil && info.ModTime().Equal(c.modTime) {
		return c.content, nil
	}

	content, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	c.content = content
	c.modTime = info.ModTime()
	return content, nil
}
