package crawler

import (
	"slices"
	"sync"

	"github.com/nao1215/pagebinder/internal/model"
)

// Frontier holds the visited and pending location sets of one crawl.
// It is safe for concurrent use by the workers of a wave.
//
// Invariant: a location is never in both sets once Add returns, and a
// claimed location is never pending again.
type Frontier struct {
	mu      sync.Mutex
	visited map[model.Location]struct{}
	pending map[model.Location]struct{}

	// limit caps the number of claims. 0 means unlimited.
	limit int
}

// NewFrontier creates an empty frontier. A positive limit caps how many
// locations can ever be claimed.
func NewFrontier(limit int) *Frontier {
	return &Frontier{
		visited: make(map[model.Location]struct{}),
		pending: make(map[model.Location]struct{}),
		limit:   limit,
	}
}

// Add queues locations that have not been visited and returns how many were
// newly queued.
func (f *Frontier) Add(locs ...model.Location) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	added := 0
	for _, loc := range locs {
		if _, seen := f.visited[loc]; seen {
			continue
		}
		if _, queued := f.pending[loc]; queued {
			continue
		}
		f.pending[loc] = struct{}{}
		added++
	}
	return added
}

// NextWave removes and returns all pending locations except those visited
// meanwhile. The result is sorted so logs are stable; processing order is
// still concurrent.
func (f *Frontier) NextWave() []model.Location {
	f.mu.Lock()
	defer f.mu.Unlock()

	wave := make([]model.Location, 0, len(f.pending))
	for loc := range f.pending {
		if _, seen := f.visited[loc]; !seen {
			wave = append(wave, loc)
		}
	}
	clear(f.pending)
	slices.Sort(wave)
	return wave
}

// Claim marks loc visited and reports whether the caller owns it.
// It returns false if loc was already visited or the claim limit is reached.
func (f *Frontier) Claim(loc model.Location) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, seen := f.visited[loc]; seen {
		return false
	}
	if f.limit > 0 && len(f.visited) >= f.limit {
		return false
	}
	f.visited[loc] = struct{}{}
	delete(f.pending, loc)
	return true
}

// MarkVisited records loc as visited even when the claim limit is reached.
// It is used for redirect targets, which are fetched on behalf of an already
// claimed location. It reports false if loc was already visited.
func (f *Frontier) MarkVisited(loc model.Location) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, seen := f.visited[loc]; seen {
		return false
	}
	f.visited[loc] = struct{}{}
	delete(f.pending, loc)
	return true
}

// Visited reports whether loc has been claimed.
func (f *Frontier) Visited(loc model.Location) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.visited[loc]
	return ok
}

// Len returns the number of pending locations.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// VisitedCount returns the number of claimed locations.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// Full reports whether the claim limit has been reached.
func (f *Frontier) Full() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.limit > 0 && len(f.visited) >= f.limit
}
