// Package storecache is a TTL cache on top of a persistent string keyed
// Storage.
//
// Values are serialized by a Codec and stored inside a small JSON document:
//
//	{"key":"user","val":"{\"id\":1}","cacheOption":{"timeStart":1700000000000,"timeout":60000}}
//
// A timeout of "TimeoutInfinite" never expires. Entries are checked on every
// read and expired ones are deleted. Entries that cannot be read are deleted
// too and reported as missing, so a damaged store heals itself. Creating a
// Cache sweeps the store once and removes entries that are known to be
// expired.
//
// Three Storage implementations are provided: MemoryStorage, FileStorage
// (a MessagePack file, optionally brotli compressed) and NATSStorage (a
// JetStream KeyValue bucket).
//
//	store, err := storecache.OpenFile(storecache.FileConfig{Path: "cache.db", Compress: true})
//	if err != nil {
//		return err
//	}
//
//	cfg := storecache.DefaultConfig()
//	cfg.Timeout = storecache.Timeout(10 * time.Minute)
//
//	c, err := storecache.New(store, cfg)
//	if err != nil {
//		return err
//	}
//
//	_ = c.Set(ctx, "user", User{ID: 1})
//	u, ok, err := storecache.GetAs[User](ctx, c, "user")
package storecache
