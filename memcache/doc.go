// Package memcache provides bounded in-memory caches with a pluggable
// eviction policy.
//
// A Cache holds at most Limit keys. Inserting a new key into a full cache
// evicts the worst ranked keys first, where the ranking is owned by a Policy:
//
//   - FIFO ranks by insertion order
//   - LFU ranks by number of read hits
//   - LRU ranks by the stamp of the most recent read or write
//
// Keys with equal rank are evicted in insertion order. Get and Has both count
// as reads. Custom policies can be supplied through NewWithPolicy.
package memcache
