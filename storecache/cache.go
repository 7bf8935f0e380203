package storecache

import (
	"context"
	"fmt"
	"log/slog"
)

// Cache stores values with an expiry in a Storage. Every value is kept as an
// Entry JSON document so that entries written by other processes sharing the
// store can be read and expired too.
type Cache struct {
	store  Storage
	cfg    *Config
	logger *slog.Logger
}

// New creates a cache over store and removes the entries that are already
// expired. Sweep failures are logged and do not fail construction.
func New(store Storage, cfg *Config) (*Cache, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: storage is required", ErrInvalidConfig)
	}

	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Cache{
		store:  store,
		cfg:    cfg,
		logger: cfg.Logger.With(slog.String("component", "storecache")),
	}

	if n, err := c.ClearExpired(context.Background()); err != nil {
		c.logger.Warn("sweeping expired entries", slog.String("error", err.Error()))
	} else if n > 0 {
		c.logger.Debug("swept expired entries", slog.Int("count", n))
	}

	return c, nil
}

// lookup returns the live entry under key. Expired and unreadable entries are
// deleted and reported as missing.
func (c *Cache) lookup(ctx context.Context, key string) (Entry, bool, error) {
	raw, ok, err := c.store.GetItem(ctx, key)
	if err != nil || !ok {
		return Entry{}, false, err
	}

	entry, err := parseEntry(raw)
	if err != nil {
		c.logger.Debug("removing unreadable entry",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return Entry{}, false, c.store.RemoveItem(ctx, key)
	}

	if entry.Expired(c.cfg.Now()) {
		c.logger.Debug("removing expired entry", slog.String("key", key))
		return Entry{}, false, c.store.RemoveItem(ctx, key)
	}

	return entry, true, nil
}

// decode unmarshals the entry value into out. A value the codec cannot read
// is handled like a corrupt entry.
func (c *Cache) decode(ctx context.Context, key string, entry Entry, out any) (bool, error) {
	if out == nil {
		return true, nil
	}

	if err := c.cfg.Codec.Unmarshal(entry.Val, out); err != nil {
		c.logger.Debug("removing undecodable value",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return false, c.store.RemoveItem(ctx, key)
	}

	return true, nil
}

// Get decodes the value under key into out. It reports false when the key is
// missing, expired or corrupt. Only storage failures are returned as errors.
// A nil out only checks presence.
func (c *Cache) Get(ctx context.Context, key string, out any) (bool, error) {
	entry, ok, err := c.lookup(ctx, key)
	if err != nil || !ok {
		return false, err
	}

	return c.decode(ctx, key, entry, out)
}

// Touch behaves like Get and restarts the entry's expiry clock.
func (c *Cache) Touch(ctx context.Context, key string, out any) (bool, error) {
	entry, ok, err := c.lookup(ctx, key)
	if err != nil || !ok {
		return false, err
	}

	found, err := c.decode(ctx, key, entry, out)
	if err != nil || !found {
		return false, err
	}

	entry.CacheOption.TimeStart = c.cfg.Now().UnixMilli()
	if err := c.write(ctx, key, entry); err != nil {
		return false, err
	}

	return true, nil
}

// GetAs is Get for a value of type T.
func GetAs[T any](ctx context.Context, c *Cache, key string) (T, bool, error) {
	var v T
	ok, err := c.Get(ctx, key, &v)
	return v, ok, err
}

// Set stores val under key. The timeout defaults to the cache's configured
// timeout when omitted or zero.
func (c *Cache) Set(ctx context.Context, key string, val any, timeout ...Timeout) error {
	data, err := c.cfg.Codec.Marshal(val)
	if err != nil {
		return err
	}

	return c.write(ctx, key, Entry{
		Key: key,
		Val: data,
		CacheOption: Option{
			TimeStart: c.cfg.Now().UnixMilli(),
			Timeout:   c.timeout(timeout),
		},
	})
}

// Add stores val only if key is absent or expired. It reports whether it wrote.
func (c *Cache) Add(ctx context.Context, key string, val any, timeout ...Timeout) (bool, error) {
	_, ok, err := c.lookup(ctx, key)
	if err != nil {
		return false, err
	}

	if ok {
		return false, nil
	}

	if err := c.Set(ctx, key, val, timeout...); err != nil {
		return false, err
	}

	return true, nil
}

// Del removes key unconditionally.
func (c *Cache) Del(ctx context.Context, key string) error {
	return c.store.RemoveItem(ctx, key)
}

// ClearExpired deletes every entry that parses and is expired. Entries that do
// not parse are left alone. It returns the number of deleted entries.
func (c *Cache) ClearExpired(ctx context.Context) (int, error) {
	keys, err := c.store.Keys(ctx)
	if err != nil {
		return 0, err
	}

	now := c.cfg.Now()
	removed := 0

	for _, key := range keys {
		raw, ok, err := c.store.GetItem(ctx, key)
		if err != nil {
			c.logger.Warn("reading entry during sweep",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			continue
		}
		if !ok {
			continue
		}

		entry, err := parseEntry(raw)
		if err != nil || !entry.Expired(now) {
			continue
		}

		if err := c.store.RemoveItem(ctx, key); err != nil {
			c.logger.Warn("removing expired entry during sweep",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			continue
		}

		removed++
	}

	return removed, nil
}

func (c *Cache) timeout(timeout []Timeout) Timeout {
	if len(timeout) > 0 && timeout[0] != 0 {
		return timeout[0]
	}
	return c.cfg.Timeout
}

func (c *Cache) write(ctx context.Context, key string, entry Entry) error {
	entry.Key = key

	data, err := encodeEntry(entry)
	if err != nil {
		return err
	}

	return c.store.SetItem(ctx, key, data)
}

// DefaultTimeout returns the timeout applied when Set or Add get none.
func (c *Cache) DefaultTimeout() Timeout {
	return c.cfg.Timeout
}
