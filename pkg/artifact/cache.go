package artifact

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hodei/pipelines/pkg/log"
)

const metadataFile = "artifact_metadata.txt"

// Cache is the worker-side content-addressed artifact store. Entries live
// under <baseDir>/hodei-artifacts-<workerID>/ as <artifactID>.artifact files
// with a line-oriented metadata index beside them. The index survives worker
// restarts; corrupt lines are skipped, not fatal.
type Cache struct {
	dir     string
	mu      sync.Mutex
	entries map[string]cacheEntry
	logger  zerolog.Logger
}

type cacheEntry struct {
	checksum string
	size     int64
	cachedAt time.Time
}

// NewCache opens (or creates) the cache directory for a worker and loads the
// metadata index.
func NewCache(baseDir, workerID string) (*Cache, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	dir := filepath.Join(baseDir, "hodei-artifacts-"+workerID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact cache dir: %w", err)
	}

	c := &Cache{
		dir:     dir,
		entries: make(map[string]cacheEntry),
		logger:  log.WithComponent("artifact-cache"),
	}
	if err := c.loadIndex(); err != nil {
		return nil, err
	}
	return c, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// Has reports whether the artifact is cached with a matching checksum.
func (c *Cache) Has(artifactID, checksum string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[artifactID]
	return ok && e.checksum == checksum
}

// Get returns the cached payload.
func (c *Cache) Get(artifactID string) ([]byte, error) {
	c.mu.Lock()
	_, ok := c.entries[artifactID]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("artifact %s not cached", artifactID)
	}

	data, err := os.ReadFile(c.path(artifactID))
	if err != nil {
		return nil, fmt.Errorf("failed to read cached artifact %s: %w", artifactID, err)
	}
	return data, nil
}

// Put stores the payload and appends an index line.
func (c *Cache) Put(artifactID, checksum string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.WriteFile(c.path(artifactID), payload, 0644); err != nil {
		return fmt.Errorf("failed to write cached artifact %s: %w", artifactID, err)
	}

	entry := cacheEntry{
		checksum: checksum,
		size:     int64(len(payload)),
		cachedAt: time.Now(),
	}
	if err := c.appendIndex(artifactID, entry); err != nil {
		return err
	}
	c.entries[artifactID] = entry
	return nil
}

// Evict removes an artifact and rewrites the index.
func (c *Cache) Evict(artifactID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[artifactID]; !ok {
		return nil
	}
	if err := os.Remove(c.path(artifactID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to evict artifact %s: %w", artifactID, err)
	}
	delete(c.entries, artifactID)
	return c.rewriteIndex()
}

// Len returns the number of cached artifacts.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) path(artifactID string) string {
	return filepath.Join(c.dir, artifactID+".artifact")
}

// loadIndex parses the metadata file. Each line is id|sha256|size|cachedAtMs.
func (c *Cache) loadIndex() error {
	f, err := os.Open(filepath.Join(c.dir, metadataFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open artifact index: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) != 4 {
			c.logger.Warn().Str("line", line).Msg("skipping corrupt artifact index line")
			continue
		}
		size, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			c.logger.Warn().Str("line", line).Msg("skipping corrupt artifact index line")
			continue
		}
		cachedMs, err := strconv.ParseInt(parts[3], 10, 64)
		if err != nil {
			c.logger.Warn().Str("line", line).Msg("skipping corrupt artifact index line")
			continue
		}
		if _, err := os.Stat(c.path(parts[0])); err != nil {
			c.logger.Warn().Str("artifact_id", parts[0]).Msg("index entry without blob, skipping")
			continue
		}
		c.entries[parts[0]] = cacheEntry{
			checksum: parts[1],
			size:     size,
			cachedAt: time.UnixMilli(cachedMs),
		}
	}
	return scanner.Err()
}

func (c *Cache) appendIndex(artifactID string, e cacheEntry) error {
	f, err := os.OpenFile(filepath.Join(c.dir, metadataFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open artifact index: %w", err)
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "%s|%s|%d|%d\n", artifactID, e.checksum, e.size, e.cachedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to append artifact index: %w", err)
	}
	return nil
}

func (c *Cache) rewriteIndex() error {
	var sb strings.Builder
	for id, e := range c.entries {
		fmt.Fprintf(&sb, "%s|%s|%d|%d\n", id, e.checksum, e.size, e.cachedAt.UnixMilli())
	}
	if err := os.WriteFile(filepath.Join(c.dir, metadataFile), []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to rewrite artifact index: %w", err)
	}
	return nil
}
