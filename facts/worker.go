package facts

import (
	"runtime"
	"sync"
)

// FilterRequest carries one filter pass by value: the worker reads rows and
// terms, writes nothing, and has no side effects.
type FilterRequest struct {
	Rows    []FactRow
	Pills   []string
	Live    string
	Visible map[string]bool
}

// FilterResult is one completed pass, tagged with the generation of the
// request that produced it.
type FilterResult struct {
	Gen  uint64
	Rows []FactRow
}

// AsyncFilter offloads filter passes to background goroutines so a large
// snapshot never blocks the caller between keystrokes. There is no
// cancellation: a newer Submit supersedes older in-flight passes, and only
// the newest generation's result is ever delivered (last-write-wins, keyed
// by generation, deterministic).
type AsyncFilter struct {
	mu      sync.Mutex
	gen     uint64
	results chan FilterResult
}

// NewAsyncFilter creates a worker. Results arrive on Results(); the channel
// holds only the most recent result, older ones are replaced, not queued.
func NewAsyncFilter() *AsyncFilter {
	return &AsyncFilter{results: make(chan FilterResult, 1)}
}

// Submit starts a filter pass and returns its generation. The result is
// delivered on Results() only if no newer Submit happened in the meantime.
func (a *AsyncFilter) Submit(req FilterRequest) uint64 {
	a.mu.Lock()
	a.gen++
	gen := a.gen
	a.mu.Unlock()

	go func() {
		rows := ApplyParallel(req.Rows, req.Pills, req.Live, req.Visible)

		a.mu.Lock()
		defer a.mu.Unlock()
		if gen != a.gen {
			return // superseded while matching
		}
		// Replace any undelivered older result.
		select {
		case <-a.results:
		default:
		}
		a.results <- FilterResult{Gen: gen, Rows: rows}
	}()
	return gen
}

// Results returns the delivery channel. Consumers should still compare
// Gen against the value returned by their latest Submit.
func (a *AsyncFilter) Results() <-chan FilterResult { return a.results }

// parallelThreshold is the row count below which chunked matching is not
// worth the goroutine overhead.
const parallelThreshold = 4096

// ApplyParallel runs the same pipeline as Apply, splitting the match loop
// across CPUs for large row sets. Each row's match is independent and
// read-only, so chunks are concatenated back in input order and the output
// is identical to the sequential pass. Small row sets fall through to Apply.
func ApplyParallel(rows []FactRow, pills []string, live string, visible map[string]bool) []FactRow {
	n := len(rows)
	workers := runtime.GOMAXPROCS(0)
	if n < parallelThreshold || workers < 2 {
		return Apply(rows, pills, live, visible)
	}

	chunk := (n + workers - 1) / workers
	parts := make([][]FactRow, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		if lo >= n {
			break
		}
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			parts[w] = Apply(rows[lo:hi], pills, live, visible)
		}(w, lo, hi)
	}
	wg.Wait()

	out := make([]FactRow, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
