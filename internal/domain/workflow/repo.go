package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/corlab/corlab/internal/domain/cases"
)

// CaseStateRepository is the workflow view of a case: ownership and lifecycle
// columns only. The claim/release updates are row-guarded so two concurrent
// doctors cannot both succeed.
type CaseStateRepository interface {
	Get(ctx context.Context, caseID uuid.UUID) (*cases.Case, error)
	// ClaimOwner sets the owner and moves the case to PROCESSING, but only
	// when no owner is set. Returns false when the guard fails.
	ClaimOwner(ctx context.Context, caseID, doctorID uuid.UUID) (bool, error)
	// ReleaseOwner clears the owner and moves the case back to CREATED, but
	// only when doctorID currently owns it.
	ReleaseOwner(ctx context.Context, caseID, doctorID uuid.UUID) (bool, error)
	// Close stamps the closing date and moves the case to COMPLETED.
	Close(ctx context.Context, caseID uuid.UUID, closedAt time.Time) error
}

type ReportRepository interface {
	// GetByCase loads the case's report with diagnoses and signatures,
	// diagnoses ordered by creation time. ErrNotFound when the case has no
	// report yet.
	GetByCase(ctx context.Context, caseID uuid.UUID) (*Report, error)
	Create(ctx context.Context, r *Report) error
	Update(ctx context.Context, r *Report) error
	AddDiagnosis(ctx context.Context, d *Diagnosis) error
	GetDiagnosis(ctx context.Context, id uuid.UUID) (*Diagnosis, error)
	AddSignature(ctx context.Context, sig *Signature) error
}
