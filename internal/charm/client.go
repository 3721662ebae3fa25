// ABOUTME: Charm KV client wrapper for exist storage.
// ABOUTME: Provides thread-safe initialization and automatic cloud sync.
package charm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/harperreed/exist/internal/storage"
)

const (
	DBName           = "exist"
	DefaultCharmHost = "charm.2389.dev"

	UserPrefix          = "user:"
	GroupPrefix         = "group:"
	AttributePrefix     = "attribute:"
	ServicePrefix       = "service:"
	ProfilePrefix       = "profile:"
	UserAttributePrefix = "user_attribute:"
	DataPrefix          = "data:"
	EventPrefix         = "event:"
	LogPrefix           = "log:"
)

// ErrReadOnly is returned by writes while another process holds the lock.
var ErrReadOnly = errors.New("cannot write: database is locked by another process (MCP server?)")

var (
	globalClient *Client
	clientOnce   sync.Once
	clientErr    error
)

// store is the subset of *kv.KV the client relies on.
type store interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Keys() ([][]byte, error)
	Sync() error
	Reset() error
	Close() error
	IsReadOnly() bool
}

// Compile-time checks.
var (
	_ store              = (*kv.KV)(nil)
	_ storage.Repository = (*Client)(nil)
)

// Client implements storage.Repository on a Charm KV store.
type Client struct {
	kv       store
	autoSync bool
	mu       sync.RWMutex
}

// Options configures the global client.
type Options struct {
	Host     string
	DataDir  string
	AutoSync bool
}

// InitClient initializes the global Charm client.
// Thread-safe; later calls return the first client regardless of opts.
func InitClient(opts Options) (*Client, error) {
	clientOnce.Do(func() {
		// Set server before opening KV
		if err := SetEnv(opts); err != nil {
			clientErr = err
			return
		}

		db, err := kv.OpenWithDefaultsFallback(DBName)
		if err != nil {
			clientErr = fmt.Errorf("open charm kv: %w", err)
			return
		}

		globalClient = newClient(db, opts.AutoSync)

		// Pull remote data on startup (skip in read-only mode)
		if !db.IsReadOnly() {
			_ = db.Sync()
		}
	})

	return globalClient, clientErr
}

// SetEnv points the charm libraries at the configured host and data directory.
// The kv maintenance functions (Repair, Reset, Wipe) read the same settings.
func SetEnv(opts Options) error {
	host := opts.Host
	if host == "" {
		host = DefaultCharmHost
	}
	if err := os.Setenv("CHARM_HOST", host); err != nil {
		return err
	}
	if opts.DataDir != "" {
		return os.Setenv("CHARM_DATA_DIR", opts.DataDir)
	}
	return nil
}

func newClient(s store, autoSync bool) *Client {
	return &Client{kv: s, autoSync: autoSync}
}

// Close closes the KV database connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv != nil {
		return c.kv.Close()
	}
	return nil
}

// IsReadOnly returns true if the database is open in read-only mode.
// This happens when another process (like an MCP server) holds the lock.
func (c *Client) IsReadOnly() bool {
	return c.kv.IsReadOnly()
}

// Sync synchronizes local state with Charm Cloud.
func (c *Client) Sync() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.kv.IsReadOnly() {
		return nil
	}
	return c.kv.Sync()
}

// syncIfEnabled calls Sync if autoSync is enabled.
func (c *Client) syncIfEnabled() {
	if c.autoSync && !c.kv.IsReadOnly() {
		_ = c.kv.Sync()
	}
}

// SetAutoSync enables or disables automatic sync after writes.
func (c *Client) SetAutoSync(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoSync = enabled
}

// ID returns the Charm user ID for the current account.
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", fmt.Errorf("create charm client: %w", err)
	}
	return cc.ID()
}

// Reset wipes local data and rebuilds from Charm Cloud.
func (c *Client) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kv.Reset()
}

// put marshals v and stores it under key.
func (c *Client) put(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv.IsReadOnly() {
		return ErrReadOnly
	}
	if err := c.kv.Set([]byte(key), data); err != nil {
		return err
	}
	c.syncIfEnabled()
	return nil
}

// insert is put that refuses to overwrite an existing key.
func (c *Client) insert(key string, v any) error {
	exists, err := c.exists(key)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("insert %s: %w", key, storage.ErrConflict)
	}
	return c.put(key, v)
}

func (c *Client) exists(key string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys, err := c.kv.Keys()
	if err != nil {
		return false, err
	}
	target := []byte(key)
	for _, k := range keys {
		if bytes.Equal(k, target) {
			return true, nil
		}
	}
	return false, nil
}

// get returns the value stored at key, or storage.ErrNotFound.
func (c *Client) get(key string) ([]byte, error) {
	exists, err := c.exists(key)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("get %s: %w", key, storage.ErrNotFound)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.kv.Get([]byte(key))
}

// listByPrefix returns all values with keys matching the given prefix.
func (c *Client) listByPrefix(prefix string) ([][]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var results [][]byte
	prefixBytes := []byte(prefix)

	keys, err := c.kv.Keys()
	if err != nil {
		return nil, err
	}

	for _, key := range keys {
		if bytes.HasPrefix(key, prefixBytes) {
			val, err := c.kv.Get(key)
			if err != nil {
				return nil, err
			}
			results = append(results, val)
		}
	}

	return results, nil
}

// listAll decodes every record under prefix, skipping invalid entries.
func listAll[T any](c *Client, prefix string) ([]*T, error) {
	raw, err := c.listByPrefix(prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", strings.TrimSuffix(prefix, ":"), err)
	}
	items := make([]*T, 0, len(raw))
	for _, data := range raw {
		item, err := unmarshalJSON[T](data)
		if err != nil {
			continue // Skip invalid entries
		}
		items = append(items, item)
	}
	return items, nil
}

// findOne returns the first record under prefix matching keep.
func findOne[T any](c *Client, prefix, what, name string, keep func(*T) bool) (*T, error) {
	items, err := listAll[T](c, prefix)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if keep(item) {
			return item, nil
		}
	}
	return nil, fmt.Errorf("get %s %s: %w", what, name, storage.ErrNotFound)
}

// unmarshalJSON is a helper to unmarshal JSON data.
func unmarshalJSON[T any](data []byte) (*T, error) {
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// extractID extracts the ID portion from a prefixed key.
func extractID(key, prefix string) string {
	return strings.TrimPrefix(key, prefix)
}
