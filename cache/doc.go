// Package cache memoizes analysis results by query text.
//
// Keys are normalized before use: surrounding whitespace is trimmed,
// internal runs of whitespace collapse to one space, and case is folded,
// so "Find  John" and "find john" share an entry. Entries are evicted
// least-recently-used once the cache is full and expire after a TTL.
// A ResultCache is safe for concurrent use.
package cache
