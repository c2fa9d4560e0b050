// Package lazy provides memoized deferred loading.
//
// A Ref wraps a single producer; an Arena holds a fixed number of entries
// addressed by integer index and shares one indexed producer between them.
// Both guarantee:
//   - No work happens before the first Get.
//   - A successful result is cached for the lifetime of the Ref or Arena.
//   - Concurrent Gets during a load share that load (one producer call).
//   - A failed load is not cached; the next Get retries.
//
// # Usage
//
//	nodes := lazy.NewArena(3, func(ctx context.Context, i int) (*modules.Module, error) {
//	    return loader.Load(ctx, i, names[i], "")
//	})
//
//	leaf, err := nodes.Get(ctx, 2)
package lazy
