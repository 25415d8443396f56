// Package resource implements the Controller for memory and IO budgets.
//
// The Controller manages two resource types:
//
//   - Memory: Track and limit buffer page allocation (non-blocking, fail-fast)
//   - IO: Rate-limit blob reads during loads (token bucket)
//
// # Memory Management
//
// Memory tracking uses a weighted semaphore for hard limits and atomic counters
// for usage tracking. AcquireMemory is non-blocking and returns immediately
// with ErrMemoryLimitExceeded if the limit would be exceeded:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30, // 1GB limit
//	})
//
//	if err := rc.AcquireMemory(pageBytes); err != nil {
//	    // ErrMemoryLimitExceeded - nothing was allocated
//	}
//	defer rc.ReleaseMemory(pageBytes)
//
// Memory that must exist regardless of the limit (clones, loaded blobs) is
// recorded with TrackMemory and forgotten with UntrackMemory.
//
// # IO Rate Limiting
//
//	rc := resource.NewController(resource.Config{
//	    IOLimitBytesPerSec: 100 * 1024 * 1024, // 100MB/s
//	})
//	reader := resource.NewRateLimitedReader(ctx, blobReader, rc)
//
// # Nil Safety
//
// All methods handle nil Controller gracefully - they become no-ops.
// This allows optional resource limiting without nil checks everywhere.
package resource
