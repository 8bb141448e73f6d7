package auth

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/smolfy/internal/models"
	gocache "github.com/patrickmn/go-cache"
)

// TokenPersister is the durable half of the token store.
//
// Implemented by repositories.TokenRepository; tests substitute in-memory fakes.
type TokenPersister interface {
	Save(rec *models.TokenRecord) error
	Load() (*models.TokenRecord, error)
	Delete() error
}

// Store owns the process-wide token record: an in-memory cache backed by
// durable storage. Constructed once at startup and passed by handle to every
// component that needs token state.
//
// Persistence is write-through, not best-effort: Set and Clear return only
// after the durable copy agrees with memory, so callers may rely on the
// record surviving a restart.
type Store struct {
	mu     sync.RWMutex
	rec    *models.TokenRecord
	repo   TokenPersister
	logger *log.Logger
	now    func() time.Time
}

// NewStore creates a token store backed by the given persister.
func NewStore(repo TokenPersister, logger *log.Logger) *Store {
	return &Store{repo: repo, logger: logger, now: time.Now}
}

// Get returns a copy of the current record if one is present in memory or
// durable storage and unexpired, else nil. An expired or absent record clears
// the in-memory cache. Never triggers network activity; token refresh is
// deliberately not attempted here.
func (s *Store) Get() *models.TokenRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.rec.Valid(now) {
		rec := *s.rec
		return &rec
	}

	s.rec = nil

	if s.repo == nil {
		return nil
	}

	loaded, err := s.repo.Load()
	if err != nil {
		s.logger.Warnf("failed to load token from storage: %v", err)
		return nil
	}

	if !loaded.Valid(now) {
		if loaded != nil {
			s.logger.Debug("stored token expired")
		}
		return nil
	}

	s.logger.Debug("token retrieved from storage")
	s.rec = loaded
	rec := *loaded
	return &rec
}

// Set overwrites the durable copy first, then the in-memory one, so no reader
// observes a token that would vanish on restart.
func (s *Store) Set(rec *models.TokenRecord) error {
	if rec == nil || rec.AccessToken == "" {
		return fmt.Errorf("refusing to store empty token record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.Save(rec); err != nil {
			return fmt.Errorf("failed to persist token: %w", err)
		}
	}

	cp := *rec
	s.rec = &cp
	return nil
}

// Clear removes the record from durable storage and memory entirely.
//
// Policy note: an unauthorized response clears the refresh token along with
// the access token. Refresh-based renewal is unimplemented, so a retained
// refresh token could never be redeemed and a full re-login is required
// either way.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.Delete(); err != nil {
			return fmt.Errorf("failed to clear stored token: %w", err)
		}
	}

	s.rec = nil
	return nil
}

// VerifierStore holds PKCE verifiers between the redirect request and its
// callback. Entries are keyed by the OAuth state parameter, expire on a TTL,
// and are removed on first read, so each one is single-use and time-boxed.
type VerifierStore struct {
	// mu makes Take's read-then-delete atomic; the cache alone would let two
	// replayed callbacks both redeem the same verifier.
	mu sync.Mutex
	c  *gocache.Cache
}

// DefaultVerifierTTL bounds how long an authentication attempt may stay pending.
const DefaultVerifierTTL = 10 * time.Minute

// NewVerifierStore creates an ephemeral verifier store with the given TTL.
func NewVerifierStore(ttl time.Duration) *VerifierStore {
	if ttl <= 0 {
		ttl = DefaultVerifierTTL
	}
	return &VerifierStore{c: gocache.New(ttl, time.Minute)}
}

// Put stores a verifier under the given state key.
func (v *VerifierStore) Put(state, verifier string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.c.Set(state, verifier, gocache.DefaultExpiration)
}

// Take retrieves and deletes the verifier for the given state key. At most
// one caller per key ever succeeds.
func (v *VerifierStore) Take(state string) (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	raw, ok := v.c.Get(state)
	if !ok {
		return "", false
	}
	v.c.Delete(state)
	verifier, ok := raw.(string)
	return verifier, ok
}

// Drop removes a verifier without reading it, for failure paths.
func (v *VerifierStore) Drop(state string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.c.Delete(state)
}
