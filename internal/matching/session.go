package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/campusbot/faq-engine/internal/cache"
)

// SessionState holds the per-session negation memory: topics the user has
// told the bot not to bring up again.
type SessionState struct {
	BlockedKeywords []string  `json:"blocked_keywords"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SessionStore persists session negation state.
type SessionStore interface {
	// Blocked returns the blocked terms for a session. A missing session
	// yields an empty slice, not an error.
	Blocked(ctx context.Context, sessionID string) ([]string, error)
	// Block adds a term to the session's blocked set.
	Block(ctx context.Context, sessionID, term string) error
	// Reset clears all blocked terms for a session.
	Reset(ctx context.Context, sessionID string) error
}

// BlockedTerm reports the first blocked term that appears as a substring of
// the message. Terms are checked longest first so the reported term is the
// most specific match.
func BlockedTerm(message string, blocked []string) (string, bool) {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" || len(blocked) == 0 {
		return "", false
	}
	set := make(map[string]struct{}, len(blocked))
	for _, t := range blocked {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			set[t] = struct{}{}
		}
	}
	for _, t := range sortByLengthDesc(set) {
		if strings.Contains(msg, t) {
			return t, true
		}
	}
	return "", false
}

// BlockableRemainder strips a leading negation word from the message and
// returns the remainder if it is substantial enough to block. A remainder
// of one rune or less means the user negated without naming a topic.
func BlockableRemainder(message, negationWord string) (string, bool) {
	msg := strings.ToLower(strings.TrimSpace(message))
	rest := strings.TrimSpace(strings.TrimPrefix(msg, negationWord))
	if utf8.RuneCountInString(rest) <= 1 {
		return "", false
	}
	return rest, true
}

// MemoryStore is an in-process SessionStore. A zero TTL keeps sessions
// until an explicit reset.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]memorySession
	ttl      time.Duration
}

type memorySession struct {
	state     SessionState
	expiresAt time.Time // zero means no expiration
}

// NewMemoryStore creates an in-process session store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]memorySession),
		ttl:      ttl,
	}
}

// Blocked returns the blocked terms for a session.
func (s *MemoryStore) Blocked(ctx context.Context, sessionID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	if !sess.expiresAt.IsZero() && time.Now().After(sess.expiresAt) {
		return nil, nil
	}

	out := make([]string, len(sess.state.BlockedKeywords))
	copy(out, sess.state.BlockedKeywords)
	return out, nil
}

// Block adds a term to the session's blocked set.
func (s *MemoryStore) Block(ctx context.Context, sessionID, term string) error {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || (!sess.expiresAt.IsZero() && time.Now().After(sess.expiresAt)) {
		sess = memorySession{}
	}
	for _, t := range sess.state.BlockedKeywords {
		if t == term {
			sess.state.UpdatedAt = time.Now()
			s.touch(sessionID, sess)
			return nil
		}
	}
	sess.state.BlockedKeywords = append(sess.state.BlockedKeywords, term)
	sess.state.UpdatedAt = time.Now()
	s.touch(sessionID, sess)
	return nil
}

// Reset clears all blocked terms for a session.
func (s *MemoryStore) Reset(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

func (s *MemoryStore) touch(sessionID string, sess memorySession) {
	if s.ttl > 0 {
		sess.expiresAt = time.Now().Add(s.ttl)
	}
	s.sessions[sessionID] = sess
}

// CacheStore persists session state in a cache backend so sessions survive
// process restarts and are shared between instances.
type CacheStore struct {
	client cache.Client
	ttl    time.Duration
}

// NewCacheStore creates a cache-backed session store.
func NewCacheStore(client cache.Client, ttl time.Duration) *CacheStore {
	return &CacheStore{client: client, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return cache.Key("session", "negation", sessionID)
}

// Blocked returns the blocked terms for a session.
func (s *CacheStore) Blocked(ctx context.Context, sessionID string) ([]string, error) {
	raw, err := s.client.Get(ctx, sessionKey(sessionID))
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var state SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("session decode: %w", err)
	}
	return state.BlockedKeywords, nil
}

// Block adds a term to the session's blocked set.
func (s *CacheStore) Block(ctx context.Context, sessionID, term string) error {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}

	existing, err := s.Blocked(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, t := range existing {
		if t == term {
			return nil
		}
	}

	state := SessionState{
		BlockedKeywords: append(existing, term),
		UpdatedAt:       time.Now(),
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sessionID), raw, s.ttl); err != nil {
		return fmt.Errorf("session set: %w", err)
	}
	return nil
}

// Reset clears all blocked terms for a session.
func (s *CacheStore) Reset(ctx context.Context, sessionID string) error {
	if err := s.client.Delete(ctx, sessionKey(sessionID)); err != nil {
		return fmt.Errorf("session reset: %w", err)
	}
	return nil
}

// DualStore writes session state to a primary and a fallback store and
// merges their blocked sets on read. A write failure in one backend does
// not lose the term as long as the other accepted it.
type DualStore struct {
	primary  SessionStore
	fallback SessionStore
}

// NewDualStore combines a primary and fallback session store.
func NewDualStore(primary, fallback SessionStore) *DualStore {
	return &DualStore{primary: primary, fallback: fallback}
}

// Blocked returns the union of blocked terms from both stores. A read
// failure in one store degrades to the other's view.
func (s *DualStore) Blocked(ctx context.Context, sessionID string) ([]string, error) {
	primaryTerms, primaryErr := s.primary.Blocked(ctx, sessionID)
	fallbackTerms, fallbackErr := s.fallback.Blocked(ctx, sessionID)
	if primaryErr != nil && fallbackErr != nil {
		return nil, primaryErr
	}

	seen := make(map[string]struct{}, len(primaryTerms)+len(fallbackTerms))
	merged := make([]string, 0, len(primaryTerms)+len(fallbackTerms))
	for _, t := range primaryTerms {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			merged = append(merged, t)
		}
	}
	for _, t := range fallbackTerms {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			merged = append(merged, t)
		}
	}
	sort.Strings(merged)
	return merged, nil
}

// Block writes the term to both stores.
func (s *DualStore) Block(ctx context.Context, sessionID, term string) error {
	primaryErr := s.primary.Block(ctx, sessionID, term)
	fallbackErr := s.fallback.Block(ctx, sessionID, term)
	if primaryErr != nil {
		return primaryErr
	}
	return fallbackErr
}

// Reset clears the session in both stores.
func (s *DualStore) Reset(ctx context.Context, sessionID string) error {
	primaryErr := s.primary.Reset(ctx, sessionID)
	fallbackErr := s.fallback.Reset(ctx, sessionID)
	if primaryErr != nil {
		return primaryErr
	}
	return fallbackErr
}
