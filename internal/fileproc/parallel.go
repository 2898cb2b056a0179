// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/qalab/qametrics/pkg/models"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ProcessingError) Unwrap() error {
	return e.Err
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Len returns the number of collected errors.
func (e *ProcessingErrors) Len() int {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors)
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// Unwrap returns the individual errors so errors.Is sees through the
// collection.
func (e *ProcessingErrors) Unwrap() []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	errs := make([]error, len(e.Errors))
	for i, pe := range e.Errors {
		errs[i] = pe
	}
	return errs
}

// sortByPath orders the errors by path so reports are deterministic.
func (e *ProcessingErrors) sortByPath() {
	e.mu.Lock()
	sort.SliceStable(e.Errors, func(i, j int) bool {
		return e.Errors[i].Path < e.Errors[j].Path
	})
	e.mu.Unlock()
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// 2x suits the mix of file I/O and regex work done per file.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

// ErrorFunc is called when a file processing error occurs.
// Receives the file path and the error.
type ErrorFunc func(path string, err error)

// Workers resolves a configured worker count; values <= 0 select the
// default of 2x NumCPU.
func Workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU() * DefaultWorkerMultiplier
	}
	return n
}

// ForEachFileN processes files with a bounded pool. Results keep the order of
// files; files whose fn fails are omitted and recorded in the returned
// ProcessingErrors, which is nil when every file succeeded. Cancelling ctx
// stops scheduling: files not yet started are recorded with ctx.Err().
func ForEachFileN[T any](
	ctx context.Context,
	files []string,
	maxWorkers int,
	fn func(string) (T, error),
	onProgress ProgressFunc,
	onError ErrorFunc,
) ([]T, *ProcessingErrors) {
	if len(files) == 0 {
		return nil, nil
	}

	slots := make([]T, len(files))
	ok := make([]bool, len(files))
	errs := &ProcessingErrors{}

	fail := func(path string, err error) {
		errs.Add(path, err)
		if onError != nil {
			onError(path, err)
		}
	}

	p := pool.New().WithMaxGoroutines(Workers(maxWorkers))
	for i, path := range files {
		if ctx.Err() != nil {
			fail(path, ctx.Err())
			continue
		}
		p.Go(func() {
			defer func() {
				if onProgress != nil {
					onProgress()
				}
			}()

			if err := ctx.Err(); err != nil {
				fail(path, err)
				return
			}

			result, err := fn(path)
			if err != nil {
				fail(path, err)
				return
			}

			// Each goroutine owns its index, so no lock is needed.
			slots[i] = result
			ok[i] = true
		})
	}
	p.Wait()

	results := make([]T, 0, len(files))
	for i := range slots {
		if ok[i] {
			results = append(results, slots[i])
		}
	}

	if !errs.HasErrors() {
		return results, nil
	}
	errs.sortByPath()
	return results, errs
}

// ParseFunc analyzes one file.
type ParseFunc func(path string) (*models.SourceFile, error)

// ParseFilesWith runs parse over files in parallel, such as a parser's
// ParseFile or a cache lookup in front of it. Results keep input order.
func ParseFilesWith(
	ctx context.Context,
	parse ParseFunc,
	files []string,
	maxWorkers int,
	onProgress ProgressFunc,
	onError ErrorFunc,
) ([]*models.SourceFile, *ProcessingErrors) {
	return ForEachFileN(ctx, files, maxWorkers, func(path string) (*models.SourceFile, error) {
		return parse(path)
	}, onProgress, onError)
}
