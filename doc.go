// Package rxutils provides caching and async control flow helpers for Go
// services.
//
// This module contains the following packages:
//
// CACHING & STORAGE:
//
//   - memcache: Bounded in-memory cache with pluggable eviction (FIFO, LFU, LRU),
//     deterministic tie-breaking and Prometheus metrics
//   - storecache: TTL cache on top of a persistent key/value Storage, with
//     memory, MessagePack file (optional brotli) and NATS JetStream KeyValue
//     backends, self-healing reads and memoization helpers
//
// CONCURRENCY:
//
//   - asyncfn: Wrappers that change when a function runs and which results its
//     callers see: Limiting, MergeMap, SwitchMap, ConcatMap, Batch, Locker,
//     Once, Memoize, Debounce, Throttle, Retry and Timeout
//   - taskrunner: Runs named tasks under a concurrency limit, collecting errors
//     or stopping at the first one
//   - safemap: Thread-safe generic map
//
// UTILITIES & HELPERS:
//
//   - env: Environment variables with _FILE and /run/secrets fallbacks
//   - jsonutil: JSON decoding helpers and canonical argument keys
//   - utils: Duration parsing with day units
//
// Packages can be used independently. Everything that blocks takes a
// context.Context.
package rxutils
