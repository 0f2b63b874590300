package crawler

import "sync"

// frontier holds the crawl queue and the visited set.
//
// Invariants, checked at every unlock:
//   - a URL is in at most one of queued and visited
//   - a URL enters visited exactly once, when it is dequeued
//   - the crawl is over when the queue is empty and nothing is in flight
//
// Design decision: We use a mutex and sync.Cond rather than a channel
// because:
//  1. Termination depends on two values (queue length and in-flight count)
//     that must be read together
//  2. Dequeue and mark-visited must be one critical section
//  3. The queue grows without bound, which a buffered channel cannot do
type frontier struct {
	mu   sync.Mutex
	cond *sync.Cond

	queue   []string
	queued  map[string]struct{}
	visited map[string]struct{}

	// inflight counts URLs handed out by next and not yet released by done.
	inflight int

	// maxPages stops dequeuing once visited reaches it. 0 means no limit.
	maxPages int

	closed    bool
	truncated bool
}

func newFrontier(maxPages int) *frontier {
	f := &frontier{
		queued:   make(map[string]struct{}),
		visited:  make(map[string]struct{}),
		maxPages: maxPages,
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// push enqueues the URLs that are neither visited nor queued.
// It returns the number of URLs added.
func (f *frontier) push(urls ...string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	added := 0
	for _, u := range urls {
		if _, ok := f.visited[u]; ok {
			continue
		}
		if _, ok := f.queued[u]; ok {
			continue
		}
		f.queued[u] = struct{}{}
		f.queue = append(f.queue, u)
		added++
	}
	if added > 0 {
		f.cond.Broadcast()
	}
	return added
}

// next blocks until a URL is available and returns it, already marked
// visited and counted as in flight. It returns false when the crawl is
// over: the queue is empty with nothing in flight, the page limit is
// reached, or the frontier was closed.
func (f *frontier) next() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		if f.closed {
			return "", false
		}
		if len(f.queue) > 0 {
			if f.maxPages > 0 && len(f.visited) >= f.maxPages {
				f.truncated = true
				f.closeLocked()
				return "", false
			}
			u := f.queue[0]
			f.queue[0] = ""
			f.queue = f.queue[1:]
			delete(f.queued, u)
			f.visited[u] = struct{}{}
			f.inflight++
			return u, true
		}
		if f.inflight == 0 {
			f.closeLocked()
			return "", false
		}
		f.cond.Wait()
	}
}

// done releases a URL returned by next. Links found on the page must be
// pushed before done is called, or another worker may see an empty
// frontier and stop early.
func (f *frontier) done() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.inflight--
	if f.inflight == 0 || f.closed {
		f.cond.Broadcast()
	}
}

// close wakes every waiting worker and makes next return false.
func (f *frontier) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeLocked()
}

func (f *frontier) closeLocked() {
	if !f.closed {
		f.closed = true
		f.cond.Broadcast()
	}
}

// visitedCount returns the size of the visited set.
func (f *frontier) visitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// wasTruncated reports whether the page limit stopped the crawl.
func (f *frontier) wasTruncated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.truncated
}
