package storecache

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Davincible/rx-utils/env"
	"github.com/Davincible/rx-utils/utils"
)

// natsKeyPrefix marks keys written by NATSStorage. The KV key alphabet is
// restricted, so cache keys are stored base64url encoded behind it.
const natsKeyPrefix = "rx_"

// NATSConfig configures a JetStream KeyValue backed Storage. Durations in
// its JSON form accept day units, e.g. "ttl": "7d".
type NATSConfig struct {
	URL            string         `json:"url"`             // Server URL
	Bucket         string         `json:"bucket"`          // KV bucket, created when missing
	TTL            utils.Duration `json:"ttl"`             // Bucket level TTL for newly created buckets, 0 keeps forever
	ConnectTimeout utils.Duration `json:"connect_timeout"` // Dial timeout, 5s when unset
}

// NATSConfigFromEnv reads <prefix>_NATS_URL, <prefix>_NATS_BUCKET,
// <prefix>_NATS_TTL and <prefix>_NATS_CONNECT_TIMEOUT.
func NATSConfigFromEnv(prefix string) NATSConfig {
	return NATSConfig{
		URL:            env.GetEnv(prefix+"_NATS_URL", nats.DefaultURL),
		Bucket:         env.GetEnv(prefix + "_NATS_BUCKET"),
		TTL:            utils.Duration(env.GetEnvDuration(prefix + "_NATS_TTL")),
		ConnectTimeout: utils.Duration(env.GetEnvDuration(prefix+"_NATS_CONNECT_TIMEOUT", 5*time.Second)),
	}
}

// NATSStorage is a Storage on top of a NATS JetStream KeyValue bucket.
type NATSStorage struct {
	kv   nats.KeyValue
	conn *nats.Conn
}

// NewNATSStorage wraps an existing KeyValue bucket. The caller keeps
// ownership of the underlying connection.
func NewNATSStorage(kv nats.KeyValue) *NATSStorage {
	return &NATSStorage{kv: kv}
}

// ConnectNATS dials cfg.URL and opens cfg.Bucket, creating it if needed.
// Close releases the connection.
func ConnectNATS(cfg NATSConfig) (*NATSStorage, error) {
	if cfg.URL == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: NATS url and bucket are required", ErrInvalidConfig)
	}

	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = utils.Duration(5 * time.Second)
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Timeout(time.Duration(cfg.ConnectTimeout)),
		nats.PingInterval(time.Second),
		nats.MaxPingsOutstanding(3),
	)
	if err != nil {
		return nil, WrapStorageError("connect", cfg.URL, err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, WrapStorageError("jetstream", cfg.URL, err)
	}

	kv, err := js.KeyValue(cfg.Bucket)
	if err != nil && errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:  cfg.Bucket,
			Storage: nats.FileStorage,
			TTL:     time.Duration(cfg.TTL),
		})
		if err != nil {
			nc.Close()
			return nil, WrapStorageError("create bucket", cfg.Bucket, err)
		}
	} else if err != nil {
		nc.Close()
		return nil, WrapStorageError("open bucket", cfg.Bucket, err)
	}

	return &NATSStorage{kv: kv, conn: nc}, nil
}

// Close drains the connection opened by ConnectNATS. It is a no-op for
// storages created with NewNATSStorage.
func (s *NATSStorage) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Drain()
}

func encodeNATSKey(key string) string {
	return natsKeyPrefix + base64.RawURLEncoding.EncodeToString([]byte(key))
}

func decodeNATSKey(raw string) (string, bool) {
	if !strings.HasPrefix(raw, natsKeyPrefix) {
		return "", false
	}

	b, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(raw, natsKeyPrefix))
	if err != nil {
		return "", false
	}

	return string(b), true
}

// Keys lists the decoded keys. Keys not written by NATSStorage are skipped.
func (s *NATSStorage) Keys(ctx context.Context) ([]string, error) {
	raw, err := s.kv.Keys(nats.Context(ctx))
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return []string{}, nil
		}
		return nil, WrapStorageError("keys", s.kv.Bucket(), err)
	}

	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		if key, ok := decodeNATSKey(k); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	return keys, nil
}

func (s *NATSStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	entry, err := s.kv.Get(encodeNATSKey(key))
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) {
			return "", false, nil
		}
		return "", false, WrapStorageError("get", key, err)
	}

	return string(entry.Value()), true, nil
}

func (s *NATSStorage) SetItem(ctx context.Context, key, val string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.kv.Put(encodeNATSKey(key), []byte(val)); err != nil {
		return WrapStorageError("put", key, err)
	}

	return nil
}

func (s *NATSStorage) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.kv.Delete(encodeNATSKey(key)); err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return WrapStorageError("delete", key, err)
	}

	return nil
}

var _ Storage = (*NATSStorage)(nil)
