package repo

import (
	"context"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/shipchat-core/server/internal/agent/model"
	logx "github.com/shipchat-core/server/pkg/logger"
)

// threadKey identifies a conversation thread.
type threadKey struct {
	userID    string
	sessionID string
}

// thread holds one conversation's messages and its eviction clock.
type thread struct {
	messages   []*schema.Message
	lastAccess time.Time
}

// ThreadStore is an in-memory ConversationRepository with TTL eviction.
// A single mutex guards the backing map: request goroutines and the periodic
// sweeper both mutate it. The lock is held for the whole sweep, which is fine
// for the bounded store sizes this service sees; a large deployment would
// want incremental sweeping instead.
type ThreadStore struct {
	mu      sync.Mutex
	threads map[threadKey]*thread
	ttl     time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewThreadStore creates an empty store. Threads idle longer than ttl are
// removed by Sweep.
func NewThreadStore(ttl time.Duration) *ThreadStore {
	return &ThreadStore{
		threads: make(map[threadKey]*thread),
		ttl:     ttl,
		now:     time.Now,
	}
}

// getOrCreate returns the thread for key, creating it when absent, and
// refreshes its last-access time. Caller must hold the lock.
func (s *ThreadStore) getOrCreate(key threadKey) *thread {
	t, ok := s.threads[key]
	if !ok {
		t = &thread{}
		s.threads[key] = t
	}
	t.lastAccess = s.now()
	return t
}

// AddMessage appends to the thread, creating it when absent, and touches the
// last-access time.
func (s *ThreadStore) AddMessage(_ context.Context, userID, sessionID string, message *schema.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.getOrCreate(threadKey{userID, sessionID})
	t.messages = append(t.messages, message)
	return nil
}

// LoadHistory returns a copy of the thread's messages. A narrow race with the
// sweeper is accepted: a thread evicted between being returned and first use
// merely loses history, it does not corrupt state.
func (s *ThreadStore) LoadHistory(_ context.Context, userID, sessionID string) (*model.ConversationHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.getOrCreate(threadKey{userID, sessionID})
	msgs := make([]*schema.Message, len(t.messages))
	copy(msgs, t.messages)

	return &model.ConversationHistory{
		UserID:    userID,
		SessionID: sessionID,
		Messages:  msgs,
	}, nil
}

// ClearHistory drops the thread entirely.
func (s *ThreadStore) ClearHistory(_ context.Context, userID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.threads, threadKey{userID, sessionID})
	return nil
}

// MessageCount returns the number of messages without touching last-access
// for absent threads.
func (s *ThreadStore) MessageCount(_ context.Context, userID, sessionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[threadKey{userID, sessionID}]
	if !ok {
		return 0, nil
	}
	return len(t.messages), nil
}

// Sweep removes threads whose last access is older than the TTL relative to
// now, returning the number evicted.
func (s *ThreadStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, t := range s.threads {
		if now.Sub(t.lastAccess) > s.ttl {
			delete(s.threads, key)
			evicted++
		}
	}
	if evicted > 0 {
		logx.Debug().Int("evicted", evicted).Int("remaining", len(s.threads)).Msg("Thread sweep complete")
	}
	return evicted
}

// Len returns the number of live threads.
func (s *ThreadStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.threads)
}

// StartSweeper runs Sweep on the given interval until ctx is done.
func (s *ThreadStore) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.Sweep(now)
			}
		}
	}()
}

var _ model.ConversationRepository = (*ThreadStore)(nil)
