package store

import (
	"context"
	"sync"

	"github.com/claimsift/claimsift/internal/model"
)

// Memory is an in-process Store used when no database is configured. Safe
// for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	sources map[string][]model.Source
	claims  map[string][]model.Claim
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sources: make(map[string][]model.Source),
		claims:  make(map[string][]model.Claim),
	}
}

func (m *Memory) SaveSources(_ context.Context, subject string, sources []model.Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[subject] = append(m.sources[subject], sources...)
	return nil
}

func (m *Memory) SaveClaims(_ context.Context, subject string, claims []model.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claims[subject] = append(m.claims[subject], claims...)
	return nil
}

func (m *Memory) Sources(_ context.Context, subject string) ([]model.Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored, ok := m.sources[subject]
	if !ok {
		return nil, ErrSubjectNotFound
	}
	out := make([]model.Source, len(stored))
	copy(out, stored)
	return out, nil
}

func (m *Memory) Claims(_ context.Context, subject string) ([]model.Claim, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored, ok := m.claims[subject]
	if !ok {
		return nil, ErrSubjectNotFound
	}
	out := make([]model.Claim, len(stored))
	copy(out, stored)
	return out, nil
}

func (m *Memory) UpdateVerification(_ context.Context, results []model.VerificationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byID := make(map[string]model.VerificationResult, len(results))
	for _, r := range results {
		byID[r.ClaimID] = r
	}

	for subject, claims := range m.claims {
		for i := range claims {
			if r, ok := byID[claims[i].ID]; ok {
				claims[i].Confidence = r.VerificationScore
				claims[i].CorroborationCount = r.SupportingCount()
			}
		}
		m.claims[subject] = claims
	}
	return nil
}

func (m *Memory) Close() {}
