package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/devlongs/solesub"
	"github.com/devlongs/solesub/credential"
	"github.com/devlongs/solesub/plan"
	"github.com/devlongs/solesub/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps every entity in process memory. It is the default backend for
// tests and single-node deployments.
type Store struct {
	mu sync.RWMutex

	// Credential storage
	credentials map[uint64]*credential.Credential
	byHolder    map[string]uint64
	lastID      uint64

	// Plan storage
	plan *plan.Plan

	closed bool
}

func New() *Store {
	return &Store{
		credentials: make(map[uint64]*credential.Credential),
		byHolder:    make(map[string]uint64),
	}
}

// Credential Store implementation
func (s *Store) Create(_ context.Context, c *credential.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return solesub.ErrStoreClosed
	}
	if _, exists := s.credentials[c.ID]; exists {
		return solesub.ErrInvalidIdentifier
	}
	if _, enrolled := s.byHolder[c.Holder]; enrolled {
		return solesub.ErrAlreadyEnrolled
	}

	s.credentials[c.ID] = c.Clone()
	s.byHolder[c.Holder] = c.ID
	if c.ID > s.lastID {
		s.lastID = c.ID
	}
	return nil
}

func (s *Store) Get(_ context.Context, credID uint64) (*credential.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, solesub.ErrStoreClosed
	}

	if c, ok := s.credentials[credID]; ok {
		return c.Clone(), nil
	}
	return nil, solesub.ErrCredentialNotFound
}

func (s *Store) GetByHolder(_ context.Context, holder string) (*credential.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, solesub.ErrStoreClosed
	}

	if credID, ok := s.byHolder[holder]; ok {
		return s.credentials[credID].Clone(), nil
	}
	return nil, solesub.ErrNoCredential
}

func (s *Store) List(_ context.Context, opts credential.ListOpts) ([]*credential.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, solesub.ErrStoreClosed
	}

	result := make([]*credential.Credential, 0)
	for _, c := range s.credentials {
		if opts.Holder != "" && c.Holder != opts.Holder {
			continue
		}
		if !opts.IncludeRevoked && c.Revoked() {
			continue
		}
		result = append(result, c.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	if opts.Offset > 0 {
		if opts.Offset >= len(result) {
			return []*credential.Credential{}, nil
		}
		result = result[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (s *Store) Extend(_ context.Context, credID uint64, expiresAt, renewedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return solesub.ErrStoreClosed
	}

	c, ok := s.credentials[credID]
	if !ok || c.Revoked() {
		return solesub.ErrCredentialNotFound
	}
	c.ExpiresAt = expiresAt
	c.RenewedAt = &renewedAt
	c.Renewals++
	return nil
}

func (s *Store) Revoke(_ context.Context, credID uint64, revokedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return solesub.ErrStoreClosed
	}

	c, ok := s.credentials[credID]
	if !ok || c.Revoked() {
		return solesub.ErrCredentialNotFound
	}
	c.RevokedAt = &revokedAt
	c.ExpiresAt = time.Time{}
	delete(s.byHolder, c.Holder)
	return nil
}

func (s *Store) LastID(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, solesub.ErrStoreClosed
	}
	return s.lastID, nil
}

// Plan Store implementation
func (s *Store) GetPlan(_ context.Context) (*plan.Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, solesub.ErrStoreClosed
	}

	if s.plan == nil {
		return nil, solesub.ErrPlanNotFound
	}
	p := *s.plan
	return &p, nil
}

func (s *Store) SavePlan(_ context.Context, p *plan.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return solesub.ErrStoreClosed
	}

	cp := *p
	s.plan = &cp
	return nil
}

// Core methods
func (s *Store) Migrate(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return solesub.ErrStoreClosed
	}
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return solesub.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
