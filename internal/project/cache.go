package project

import (
	"context"
	"sync"

	"github.com/Sumatoshi-tech/pymove/pkg/pytree"
)

// DefaultCacheSize bounds the parse cache at 64 MB of source text.
const DefaultCacheSize = 64 * 1024 * 1024

// ParseCache memoizes parsed files by path, evicting least recently
// used trees when the summed source size exceeds the limit. A move
// resolves the same files repeatedly (once to find references, again to
// apply edits), so keeping trees around avoids reparsing. Every tree
// the cache hands out stays valid until Close: dropped entries are
// retired, not freed, since callers may still hold them.
type ParseCache struct {
	mu      sync.Mutex
	parser  *pytree.Parser
	entries map[string]*cacheEntry
	head    *cacheEntry // Most recently used.
	tail    *cacheEntry // Least recently used.
	retired []*pytree.File
	maxSize int64
	size    int64
}

type cacheEntry struct {
	path string
	file *pytree.File
	size int64
	prev *cacheEntry
	next *cacheEntry
}

// NewParseCache returns a cache bounded at maxSize bytes of source;
// non-positive means DefaultCacheSize.
func NewParseCache(maxSize int64) *ParseCache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}

	return &ParseCache{
		parser:  pytree.NewParser(),
		entries: make(map[string]*cacheEntry),
		maxSize: maxSize,
	}
}

// Parse returns the parsed form of path/src, reusing a cached tree when
// the source is unchanged.
func (c *ParseCache) Parse(ctx context.Context, path string, src []byte) (*pytree.File, error) {
	c.mu.Lock()

	if e, ok := c.entries[path]; ok && string(e.file.Source) == string(src) {
		c.moveToFront(e)
		c.mu.Unlock()

		return e.file, nil
	}

	c.mu.Unlock()

	file, err := c.parser.Parse(ctx, path, src)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[path]; ok {
		c.retire(old)
	}

	e := &cacheEntry{path: path, file: file, size: int64(len(src))}
	c.entries[path] = e
	c.pushFront(e)
	c.size += e.size

	for c.size > c.maxSize && c.tail != nil && c.tail != e {
		c.retire(c.tail)
	}

	return file, nil
}

// Invalidate drops one path from the cache. The tree stays usable by
// existing holders until Close.
func (c *ParseCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[path]; ok {
		c.retire(e)
	}
}

// Close releases every tree the cache ever produced. No File obtained
// from Parse may be used afterwards.
func (c *ParseCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries {
		e.file.Close()
	}

	for _, f := range c.retired {
		f.Close()
	}

	c.entries = make(map[string]*cacheEntry)
	c.head, c.tail, c.size = nil, nil, 0
	c.retired = nil
}

// retire unlinks an entry but keeps its tree alive for callers that
// still reference it.
func (c *ParseCache) retire(e *cacheEntry) {
	c.remove(e)
	c.retired = append(c.retired, e.file)
}

func (c *ParseCache) pushFront(e *cacheEntry) {
	e.prev = nil
	e.next = c.head

	if c.head != nil {
		c.head.prev = e
	}

	c.head = e

	if c.tail == nil {
		c.tail = e
	}
}

func (c *ParseCache) remove(e *cacheEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}

	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}

	delete(c.entries, e.path)
	c.size -= e.size
}

func (c *ParseCache) moveToFront(e *cacheEntry) {
	if c.head == e {
		return
	}

	if e.prev != nil {
		e.prev.next = e.next
	}

	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}

	c.pushFront(e)
}
