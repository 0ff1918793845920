package tracking

import "sync"

// Revision numbers source edits. Zero means "no edit yet".
type Revision uint64

// DefaultMaxHistory is the default number of source revisions retained.
const DefaultMaxHistory = 32

// sourceStore keeps the most recent source texts by revision.
type sourceStore struct {
	mu         sync.RWMutex
	sources    map[Revision]string
	maxEntries int
	oldest     Revision
}

func newSourceStore(maxEntries int) *sourceStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxHistory
	}
	return &sourceStore{
		sources:    make(map[Revision]string),
		maxEntries: maxEntries,
	}
}

// Add stores the source for rev, evicting the oldest entries over capacity.
// Revisions are added in increasing order, so eviction walks forward from
// the oldest.
func (s *sourceStore) Add(rev Revision, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sources[rev] = source
	if s.oldest == 0 || rev < s.oldest {
		s.oldest = rev
	}
	for len(s.sources) > s.maxEntries {
		delete(s.sources, s.oldest)
		s.oldest++
	}
}

// Get returns the source recorded for rev.
func (s *sourceStore) Get(rev Revision) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[rev]
	return src, ok
}

// Len returns the number of stored revisions.
func (s *sourceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sources)
}
