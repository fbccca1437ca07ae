// Package harness implements C1, the bounded-parallel processing harness
// used by every multi-item stage of the pipeline (C6 reference fetch, C7
// asset download, C8 probing, C9-C11 import). It runs up to parallelLimit
// concurrent invocations of a caller-supplied function, preserves input
// order in its results, classifies each outcome (valid/notFound/error),
// and reports progress as each item completes.
package harness

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/artemis/kontent-migrate/internal/kerrors"
	"github.com/artemis/kontent-migrate/internal/observability"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Outcome classifies how a single item's processing concluded (§4.1).
type Outcome int

const (
	OutcomeValid Outcome = iota
	OutcomeNotFound
	OutcomeCancelled
	OutcomeError
)

// Result is one slot of ProcessItems' output, in input order.
type Result[R any] struct {
	Output  R
	Outcome Outcome
	Err     error
}

// ProcessFunc does the work for one item. Returning an error wrapped with
// kerrors.ErrNotFound classifies the slot as OutcomeNotFound rather than
// OutcomeError — callers rely on this to tolerate 404s during reference
// resolution (§4.6) while still treating other failures as errors.
type ProcessFunc[T, R any] func(ctx context.Context, item T) (R, error)

// ItemInfoFunc renders a human label for progress logging.
type ItemInfoFunc[T any] func(item T) string

// Options configures ProcessItems.
type Options struct {
	ParallelLimit int
	FailOnError   bool
	Stage         string // metrics/progress label, e.g. "export_items"
	Logger        *observability.Logger
}

// ProcessItems runs process over items with up to opts.ParallelLimit
// concurrent invocations. Exceptions (panics are not caught; Go errors
// returned by process are) are classified per §4.1 and recorded in the
// matching result slot; processing continues for the remaining items
// unless opts.FailOnError is set, in which case the first error cancels
// the batch and is returned alongside the partial results gathered so far.
func ProcessItems[T, R any](ctx context.Context, items []T, opts Options, itemInfo ItemInfoFunc[T], process ProcessFunc[T, R]) ([]Result[R], error) {
	if opts.ParallelLimit <= 0 {
		opts.ParallelLimit = 1
	}
	total := len(items)
	results := make([]Result[R], total)
	if total == 0 {
		return results, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := semaphore.NewWeighted(int64(opts.ParallelLimit))
	var wg sync.WaitGroup
	var mu sync.Mutex
	var processed int
	var firstErr error

	for i, item := range items {
		if err := sem.Acquire(runCtx, 1); err != nil {
			// context was cancelled (either by the caller or by a prior
			// failOnError failure): mark remaining slots cancelled.
			mu.Lock()
			results[i] = Result[R]{Outcome: OutcomeCancelled, Err: runCtx.Err()}
			mu.Unlock()
			continue
		}

		wg.Add(1)
		go func(idx int, it T) {
			defer wg.Done()
			defer sem.Release(1)

			out, err := process(runCtx, it)
			result := classify(out, err)
			results[idx] = result

			mu.Lock()
			processed++
			pct := int(math.Round(float64(processed) / float64(total) * 100))
			mu.Unlock()

			if opts.Logger != nil {
				logItemResult(opts.Logger, opts.Stage, pct, itemInfo(it), result)
			}
			observability.ItemsProcessed.WithLabelValues(opts.Stage, outcomeLabel(result.Outcome)).Inc()

			if result.Outcome == OutcomeError && opts.FailOnError {
				mu.Lock()
				if firstErr == nil {
					firstErr = result.Err
					cancel()
				}
				mu.Unlock()
			}
		}(i, item)
	}

	wg.Wait()

	if opts.FailOnError && firstErr != nil {
		return results, firstErr
	}
	return results, nil
}

func classify[R any](out R, err error) Result[R] {
	if err == nil {
		return Result[R]{Output: out, Outcome: OutcomeValid}
	}
	if kerrors.IsNotFound(err) {
		return Result[R]{Outcome: OutcomeNotFound, Err: err}
	}
	return Result[R]{Outcome: OutcomeError, Err: err}
}

func outcomeLabel(o Outcome) string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeCancelled:
		return "cancelled"
	default:
		return "error"
	}
}

func logItemResult[R any](logger *observability.Logger, stage string, pct int, info string, result Result[R]) {
	prefix := fmt.Sprintf("%d%%", pct)
	switch result.Outcome {
	case OutcomeValid:
		logger.Info(prefix+" processed item", zap.String("stage", stage), zap.String("item", info))
	case OutcomeNotFound:
		logger.Warn(prefix+" item not found", zap.String("stage", stage), zap.String("item", info))
	case OutcomeCancelled:
		logger.Warn(prefix+" item cancelled", zap.String("stage", stage), zap.String("item", info))
	default:
		// Remote errors can carry request context (a URL, a header dump)
		// that embeds the caller's credentials; ErrorRedacted scrubs the
		// message text the same way a leaked secret in a log line would be.
		logger.ErrorRedacted(prefix+" item failed", zap.String("stage", stage), zap.String("item", info), zap.String("error", result.Err.Error()))
	}
}
