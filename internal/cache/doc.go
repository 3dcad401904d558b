// Package cache implements a single-owner, in-memory key–value cache with TTL expiration.
//
// Layout of the package:
//   - a map from key to entry for O(1) lookup
//   - an insertion index (FIFO of key/version tokens) that bounds Prune to the expired prefix
//   - a running byte counter kept equal to the sum of key and value sizes
//
// Cache does no locking. Callers that share one Cache between goroutines must
// serialize every call, readers included.
package cache
