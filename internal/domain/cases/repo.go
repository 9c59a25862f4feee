package cases

import (
	"context"

	"github.com/google/uuid"
)

type CaseRepository interface {
	// Create inserts the case. A case-code collision with a concurrent
	// writer surfaces as ErrDuplicateCaseCode.
	Create(ctx context.Context, c *Case) error
	GetByID(ctx context.Context, id uuid.UUID) (*Case, error)
	GetByCode(ctx context.Context, code string) (*Case, error)
	ListCodes(ctx context.Context) ([]string, error)
	CodeInUse(ctx context.Context, code string, excludeID uuid.UUID) (bool, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Case, int, error)
	Update(ctx context.Context, c *Case) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type SampleRepository interface {
	Create(ctx context.Context, s *Sample) error
	GetByID(ctx context.Context, id uuid.UUID) (*Sample, error)
	// ListByCase returns samples ordered by sample number.
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]*Sample, error)
	Update(ctx context.Context, s *Sample) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type CassetteRepository interface {
	Create(ctx context.Context, cs *Cassette) error
	GetByID(ctx context.Context, id uuid.UUID) (*Cassette, error)
	// ListBySample returns cassettes ordered by cassette number.
	ListBySample(ctx context.Context, sampleID uuid.UUID) ([]*Cassette, error)
	Update(ctx context.Context, cs *Cassette) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type GlassRepository interface {
	Create(ctx context.Context, g *Glass) error
	GetByID(ctx context.Context, id uuid.UUID) (*Glass, error)
	// ListByCassette returns glasses ordered by glass number.
	ListByCassette(ctx context.Context, cassetteID uuid.UUID) ([]*Glass, error)
	Update(ctx context.Context, g *Glass) error
	Delete(ctx context.Context, id uuid.UUID) error
}
