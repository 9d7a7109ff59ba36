// Package store persists research subjects, their crawled sources and the
// claims extracted from them. A verification pass reads everything for a
// subject up front and writes back per-claim confidence and corroboration
// once scoring is done.
package store

import (
	"context"

	"github.com/claimsift/claimsift/internal/model"
	"github.com/m-mizutani/goerr/v2"
)

// ErrSubjectNotFound is returned when a subject slug has no stored data.
var ErrSubjectNotFound = goerr.New("subject not found")

// Store is the persistence collaborator for a verification pass.
type Store interface {
	// SaveSources stores sources for a subject, creating the subject if
	// needed.
	SaveSources(ctx context.Context, subject string, sources []model.Source) error

	// SaveClaims stores extracted claims for a subject.
	SaveClaims(ctx context.Context, subject string, claims []model.Claim) error

	// Sources returns all sources stored for a subject.
	Sources(ctx context.Context, subject string) ([]model.Source, error)

	// Claims returns all claims stored for a subject.
	Claims(ctx context.Context, subject string) ([]model.Claim, error)

	// UpdateVerification writes each result's verification score into the
	// claim's confidence and records its supporting-source count.
	UpdateVerification(ctx context.Context, results []model.VerificationResult) error

	// Close releases any underlying connections.
	Close()
}
