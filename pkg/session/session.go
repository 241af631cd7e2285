// Package session holds per-visitor state: the uploaded image and the last
// extraction result. Sessions are in memory only and end on request or
// after an idle timeout.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"ocrpipeline/pkg/ocr"
	"ocrpipeline/pkg/upload"
)

// Session is one visitor's isolated state.
type Session struct {
	ID        string
	CreatedAt time.Time

	// work serializes state-changing requests within a session
	work sync.Mutex

	mu       sync.Mutex
	ended    bool
	lastSeen time.Time
	image    *upload.UploadedImage
	result   *ocr.Result
}

// Snapshot is a consistent copy of a session's state for rendering.
type Snapshot struct {
	ID     string
	Image  *upload.UploadedImage
	Result *ocr.Result
}

// SetImage stores a newly uploaded image and clears the previous result.
// It is a no-op once the session has ended.
func (s *Session) SetImage(img *upload.UploadedImage) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return
	}
	s.image = img
	s.result = nil
	s.mu.Unlock()
}

// Image returns the current image or nil.
func (s *Session) Image() *upload.UploadedImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image
}

// SetResult replaces the last result. A result arriving after the session
// ended is dropped.
func (s *Session) SetResult(r ocr.Result) {
	s.mu.Lock()
	if !s.ended {
		s.result = &r
	}
	s.mu.Unlock()
}

// Reject records a failed upload: the previous image is dropped and the
// failure becomes the last result.
func (s *Session) Reject(r ocr.Result) {
	s.mu.Lock()
	s.image = nil
	if !s.ended {
		s.result = &r
	}
	s.mu.Unlock()
}

// Result returns the last result or nil.
func (s *Session) Result() *ocr.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Snapshot returns the image and result as one consistent view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{ID: s.ID, Image: s.image, Result: s.result}
}

// Lock blocks until no other upload, extraction or end request is running
// for this session.
func (s *Session) Lock() { s.work.Lock() }

// Unlock releases the lock taken by Lock.
func (s *Session) Unlock() { s.work.Unlock() }

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) teardown() {
	s.mu.Lock()
	s.ended = true
	s.image = nil
	s.result = nil
	s.mu.Unlock()
}

// Store keeps live sessions keyed by id.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore returns a store whose sessions expire after ttl of inactivity.
// A non-positive ttl disables expiry.
func NewStore(ttl time.Duration) *Store {
	return &Store{ttl: ttl, now: time.Now, sessions: make(map[string]*Session)}
}

// Create starts a new session.
func (st *Store) Create() *Session {
	now := st.now()
	s := &Session{ID: uuid.NewString(), CreatedAt: now, lastSeen: now}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get returns a live session and marks it as seen.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, false
	}
	now := st.now()
	if st.ttl > 0 && now.Sub(s.idleSince()) > st.ttl {
		st.End(id)
		return nil, false
	}
	s.touch(now)
	return s, true
}

// End tears a session down. Unknown ids are ignored.
func (st *Store) End(id string) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		s.teardown()
	}
}

// Sweep ends every session idle longer than the ttl and returns how many were ended.
func (st *Store) Sweep(now time.Time) int {
	if st.ttl <= 0 {
		return 0
	}
	var expired []string
	st.mu.RLock()
	for id, s := range st.sessions {
		if now.Sub(s.idleSince()) > st.ttl {
			expired = append(expired, id)
		}
	}
	st.mu.RUnlock()
	for _, id := range expired {
		st.End(id)
	}
	return len(expired)
}

// Run sweeps expired sessions every interval until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			if n := st.Sweep(t); n > 0 {
				log.Printf("session sweep ended %d idle sessions (live=%d)", n, st.Len())
			}
		}
	}
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
