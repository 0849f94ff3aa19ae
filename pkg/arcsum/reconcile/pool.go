package reconcile

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/davidhaslett/arcsum/pkg/arcsum/digest"
	"github.com/davidhaslett/arcsum/pkg/arcsum/types"
	"golang.org/x/sync/errgroup"
)

// fileResult is the tagged outcome of one digest task: either a digest
// or the reason the file could not be read. Collecting these centrally
// keeps the fan-in total even under partial failure.
type fileResult struct {
	digest string
	err    error
}

// tracker feeds the progress sink with cumulative counters. The done and
// bytes counters are incremented atomically by concurrent digest tasks;
// only the final totals are meaningful to observers.
type tracker struct {
	fn    ProgressFunc
	total int64
	done  atomic.Int64
	bytes atomic.Int64
}

func newTracker(fn ProgressFunc, total int) *tracker {
	return &tracker{fn: fn, total: int64(total)}
}

// tick records one processed file and notifies the sink, if any.
func (t *tracker) tick(path string, size int64) {
	done := t.done.Add(1)
	bytes := t.bytes.Add(size)
	if t.fn != nil {
		t.fn(Progress{Done: done, Total: t.total, Bytes: bytes, Path: path})
	}
}

// digestFiles hashes files through a worker pool bounded by
// opts.Workers. Results land in a slot array addressed by the input
// index, so callers observe enumeration order no matter how the
// scheduler interleaves task completion. Per-file read failures are
// recorded in the result slot, never propagated as task errors; only
// context cancellation stops the batch early.
func (e *Engine) digestFiles(ctx context.Context, files []types.FileInfo, tr *tracker) ([]fileResult, error) {
	results := make([]fileResult, len(files))

	// One hasher (and therefore one read buffer) per live worker,
	// reused across files. The first is constructed eagerly so a bad
	// buffer size fails the batch instead of surfacing inside a worker.
	first, err := digest.NewHasher(e.opts.BufferSize)
	if err != nil {
		return nil, err
	}
	hashers := sync.Pool{
		New: func() interface{} {
			// Same size as first, which constructed successfully.
			h, _ := digest.NewHasher(e.opts.BufferSize)
			return h
		},
	}
	hashers.Put(first)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)

	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			h := hashers.Get().(*digest.Hasher)
			sum, err := h.Sum(f.Path)
			hashers.Put(h)

			results[i] = fileResult{digest: sum, err: err}
			tr.tick(f.Path, f.Size)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
