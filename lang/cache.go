package lang

import (
	"context"
	"encoding/binary"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"github.com/zeebo/xxh3"
)

// globalCache stores compiled documents keyed by a hash of the source text
// and the options that affect the result.
var globalCache sync.Map

// entry compiles its source exactly once.
type entry struct {
	once sync.Once
	doc  *Document
	err  error
}

// hashOptions hashes the options fields that change compilation output.
func hashOptions(o options) uint64 {
	var buf [9]byte

	binary.LittleEndian.PutUint64(buf[:8], uint64(o.maxDepth))

	if o.normalize {
		buf[8] = 1
	}

	return xxh3.Hash(buf[:])
}

func cacheKey(src string, o options) string {
	sum := xxh3.HashString(src) ^ hashOptions(o)

	return strconv.FormatUint(sum, 36)
}

// compileCached returns the cached document for src, compiling it on first
// use. Concurrent callers with the same key wait for one compilation. A
// caller whose own context is live does not inherit the cancellation of the
// caller that ran the compilation; it compiles again.
func compileCached(ctx context.Context, src string, o options) (*Document, error) {
	key := cacheKey(src, o)

	for {
		value, hit := globalCache.LoadOrStore(key, new(entry))

		e, ok := value.(*entry)
		if !ok {
			return compile(ctx, src, o)
		}

		o.logger.TraceContext(ctx, "cache lookup",
			slog.String("key", key),
			slog.Bool("cache_hit", hit),
		)

		e.once.Do(func() {
			e.doc, e.err = compile(ctx, src, o)
		})

		if e.err == nil {
			return e.doc, nil
		}

		// Failed compilations are not retained.
		globalCache.CompareAndDelete(key, e)

		if !isContextError(e.err) || ctx.Err() != nil {
			return nil, e.err
		}

		o.logger.TraceContext(ctx, "cache retry",
			slog.String("key", key),
			slog.Any("error", e.err),
		)
	}
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// ClearCache discards every cached document.
func ClearCache() {
	globalCache.Clear()
}
