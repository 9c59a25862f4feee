package cases

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TxRunner executes fn inside a transaction. Repositories invoked with the
// context fn receives share that transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// caseCodeRetries bounds how often a create is retried when a concurrent
// writer grabs the same case code (surfaced by the unique constraint).
const caseCodeRetries = 5

type Service struct {
	cases     CaseRepository
	samples   SampleRepository
	cassettes CassetteRepository
	glasses   GlassRepository
	propagate *StatusPropagator
	runTx     TxRunner

	now func() time.Time
}

func NewService(cr CaseRepository, sr SampleRepository, csr CassetteRepository, gr GlassRepository, tx TxRunner) *Service {
	if tx == nil {
		tx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{
		cases:     cr,
		samples:   sr,
		cassettes: csr,
		glasses:   gr,
		propagate: NewStatusPropagator(cr, sr, csr, gr),
		runTx:     tx,
		now:       time.Now,
	}
}

// CreateCaseBatch creates numCases cases for a patient, each with numSamples
// initial samples; every sample starts with one cassette and one glass. Each
// case is created in its own transaction so a code collision only retries
// that case.
func (s *Service) CreateCaseBatch(ctx context.Context, patientID uuid.UUID, numCases, numSamples int, urgency UrgencyType, material MaterialType) ([]*Case, error) {
	if !urgency.Valid() {
		return nil, ErrInvalidUrgency
	}
	if !material.Valid() {
		return nil, ErrInvalidMaterial
	}
	if numCases < 1 {
		numCases = 1
	}
	if numSamples < 1 {
		numSamples = 1
	}

	created := make([]*Case, 0, numCases)
	for i := 0; i < numCases; i++ {
		c, err := s.createCase(ctx, patientID, numSamples, urgency, material)
		if err != nil {
			return created, err
		}
		created = append(created, c)
	}
	return created, nil
}

// createCase allocates the next case code for the current year and inserts
// the case with its initial sample chains. The scan-then-insert is raced by
// concurrent creators; the case_code unique constraint is the backstop and a
// collision restarts the transaction with a fresh scan.
func (s *Service) createCase(ctx context.Context, patientID uuid.UUID, numSamples int, urgency UrgencyType, material MaterialType) (*Case, error) {
	var created *Case

	for attempt := 0; attempt < caseCodeRetries; attempt++ {
		err := s.runTx(ctx, func(ctx context.Context) error {
			codes, err := s.cases.ListCodes(ctx)
			if err != nil {
				return fmt.Errorf("list case codes: %w", err)
			}

			now := s.now()
			year := YearShort(now)
			code, err := FormatCaseCode(urgency, year, material, NextCaseSequence(codes, year))
			if err != nil {
				return err
			}

			c := &Case{
				ID:                uuid.New(),
				PatientID:         patientID,
				CaseCode:          code,
				CreationDate:      now,
				Urgency:           urgency,
				Material:          material,
				GrossingStatus:    StatusCreated,
				IsPrintedCassette: true,
				IsPrintedGlass:    true,
				CreatedAt:         now,
				UpdatedAt:         now,
			}
			if err := s.cases.Create(ctx, c); err != nil {
				return err
			}

			for j := 0; j < numSamples; j++ {
				if _, err := s.insertSampleChain(ctx, c); err != nil {
					return err
				}
			}
			if err := s.cases.Update(ctx, c); err != nil {
				return fmt.Errorf("update case counters: %w", err)
			}
			if err := s.propagate.RefreshCaseAggregates(ctx, c.ID); err != nil {
				return err
			}

			created, err = s.loadCaseTree(ctx, c.ID)
			return err
		})
		if errors.Is(err, ErrDuplicateCaseCode) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return created, nil
	}
	return nil, fmt.Errorf("allocate case code: %w", ErrDuplicateCaseCode)
}

// insertSampleChain creates one sample with its first cassette and glass
// beneath c, bumping c's counters in memory. The caller persists c.
func (s *Service) insertSampleChain(ctx context.Context, c *Case) (*Sample, error) {
	existing, err := s.samples.ListByCase(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("list samples for case %s: %w", c.ID, err)
	}
	numbers := make([]string, len(existing))
	for i, sm := range existing {
		numbers[i] = sm.SampleNumber
	}

	now := s.now()
	letter := NextSampleLetter(numbers)
	sample := &Sample{
		ID:            uuid.New(),
		CaseID:        c.ID,
		SampleNumber:  letter,
		CassetteCount: 1,
		GlassCount:    1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.samples.Create(ctx, sample); err != nil {
		return nil, fmt.Errorf("create sample %s: %w", letter, err)
	}

	cassette := &Cassette{
		ID:             uuid.New(),
		SampleID:       sample.ID,
		CassetteNumber: letter + "1",
		GlassCount:     1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.cassettes.Create(ctx, cassette); err != nil {
		return nil, fmt.Errorf("create cassette %s: %w", cassette.CassetteNumber, err)
	}

	glass := &Glass{
		ID:         uuid.New(),
		CassetteID: cassette.ID,
		Staining:   StainingHE,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.glasses.Create(ctx, glass); err != nil {
		return nil, fmt.Errorf("create glass for cassette %s: %w", cassette.CassetteNumber, err)
	}

	c.BankCount++
	c.CassetteCount++
	c.GlassCount++
	return sample, nil
}

// AddSamples appends count new samples (each with one cassette and glass) to
// a case, continuing the letter sequence.
func (s *Service) AddSamples(ctx context.Context, caseID uuid.UUID, count int) ([]*Sample, error) {
	if count < 1 {
		count = 1
	}

	var added []*Sample
	err := s.runTx(ctx, func(ctx context.Context) error {
		c, err := s.cases.GetByID(ctx, caseID)
		if err != nil {
			return err
		}
		if c.GrossingStatus == StatusCompleted {
			return ErrCaseCompleted
		}

		for i := 0; i < count; i++ {
			sample, err := s.insertSampleChain(ctx, c)
			if err != nil {
				return err
			}
			added = append(added, sample)
		}
		if err := s.cases.Update(ctx, c); err != nil {
			return fmt.Errorf("update case counters: %w", err)
		}
		return s.propagate.RefreshCaseAggregates(ctx, caseID)
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// AddCassettes appends count cassettes to a sample, each with one glass.
// Cassette ordinals continue past the highest already used.
func (s *Service) AddCassettes(ctx context.Context, sampleID uuid.UUID, count int) ([]*Cassette, error) {
	if count < 1 {
		count = 1
	}

	var added []*Cassette
	err := s.runTx(ctx, func(ctx context.Context) error {
		sample, err := s.samples.GetByID(ctx, sampleID)
		if err != nil {
			return err
		}
		c, err := s.cases.GetByID(ctx, sample.CaseID)
		if err != nil {
			return err
		}
		if c.GrossingStatus == StatusCompleted {
			return ErrCaseCompleted
		}

		existing, err := s.cassettes.ListBySample(ctx, sampleID)
		if err != nil {
			return fmt.Errorf("list cassettes for sample %s: %w", sampleID, err)
		}
		numbers := make([]string, len(existing))
		for i, cs := range existing {
			numbers[i] = cs.CassetteNumber
		}
		ordinal := NextCassetteOrdinal(numbers, sample.SampleNumber)

		now := s.now()
		for i := 0; i < count; i++ {
			cassette := &Cassette{
				ID:             uuid.New(),
				SampleID:       sample.ID,
				CassetteNumber: sample.SampleNumber + strconv.Itoa(ordinal+i),
				GlassCount:     1,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := s.cassettes.Create(ctx, cassette); err != nil {
				return fmt.Errorf("create cassette %s: %w", cassette.CassetteNumber, err)
			}
			glass := &Glass{
				ID:         uuid.New(),
				CassetteID: cassette.ID,
				Staining:   StainingHE,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := s.glasses.Create(ctx, glass); err != nil {
				return fmt.Errorf("create glass for cassette %s: %w", cassette.CassetteNumber, err)
			}
			added = append(added, cassette)
		}

		sample.CassetteCount += count
		sample.GlassCount += count
		if err := s.samples.Update(ctx, sample); err != nil {
			return fmt.Errorf("update sample counters: %w", err)
		}
		c.CassetteCount += count
		c.GlassCount += count
		if err := s.cases.Update(ctx, c); err != nil {
			return fmt.Errorf("update case counters: %w", err)
		}

		if err := s.propagate.OnCassettePrintChanged(ctx, sampleID); err != nil {
			return err
		}
		return s.propagate.OnGlassPrintChanged(ctx, sampleID)
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// AddGlasses appends count glasses to a cassette, filling the smallest unused
// glass numbers.
func (s *Service) AddGlasses(ctx context.Context, cassetteID uuid.UUID, count int, staining StainingType) ([]*Glass, error) {
	if count < 1 {
		count = 1
	}
	if staining == "" {
		staining = StainingHE
	}
	if !staining.Valid() {
		return nil, ErrInvalidStaining
	}

	var added []*Glass
	err := s.runTx(ctx, func(ctx context.Context) error {
		cassette, err := s.cassettes.GetByID(ctx, cassetteID)
		if err != nil {
			return err
		}
		sample, err := s.samples.GetByID(ctx, cassette.SampleID)
		if err != nil {
			return err
		}
		c, err := s.cases.GetByID(ctx, sample.CaseID)
		if err != nil {
			return err
		}
		if c.GrossingStatus == StatusCompleted {
			return ErrCaseCompleted
		}

		existing, err := s.glasses.ListByCassette(ctx, cassetteID)
		if err != nil {
			return fmt.Errorf("list glasses for cassette %s: %w", cassetteID, err)
		}
		numbers := make([]int, len(existing))
		for i, g := range existing {
			numbers[i] = g.GlassNumber
		}

		now := s.now()
		for i := 0; i < count; i++ {
			n := NextGlassNumber(numbers)
			numbers = append(numbers, n)
			glass := &Glass{
				ID:          uuid.New(),
				CassetteID:  cassette.ID,
				GlassNumber: n,
				Staining:    staining,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := s.glasses.Create(ctx, glass); err != nil {
				return fmt.Errorf("create glass %d: %w", n, err)
			}
			added = append(added, glass)
		}

		cassette.GlassCount += count
		if err := s.cassettes.Update(ctx, cassette); err != nil {
			return fmt.Errorf("update cassette counters: %w", err)
		}
		sample.GlassCount += count
		if err := s.samples.Update(ctx, sample); err != nil {
			return fmt.Errorf("update sample counters: %w", err)
		}
		c.GlassCount += count
		if err := s.cases.Update(ctx, c); err != nil {
			return fmt.Errorf("update case counters: %w", err)
		}

		return s.propagate.OnGlassPrintChanged(ctx, sample.ID)
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}

// DeleteGlasses removes glasses by id. Counters along the ancestor chain are
// decremented and printed aggregates recomputed without the removed leaves.
// Missing ids are reported, not fatal.
func (s *Service) DeleteGlasses(ctx context.Context, ids []uuid.UUID) (*DeleteResult, error) {
	res := &DeleteResult{}
	err := s.runTx(ctx, func(ctx context.Context) error {
		for _, id := range ids {
			g, err := s.glasses.GetByID(ctx, id)
			if errors.Is(err, ErrNotFound) {
				res.NotFoundIDs = append(res.NotFoundIDs, id)
				continue
			}
			if err != nil {
				return err
			}

			cassette, err := s.cassettes.GetByID(ctx, g.CassetteID)
			if err != nil {
				return err
			}
			sample, err := s.samples.GetByID(ctx, cassette.SampleID)
			if err != nil {
				return err
			}
			c, err := s.cases.GetByID(ctx, sample.CaseID)
			if err != nil {
				return err
			}

			if err := s.glasses.Delete(ctx, id); err != nil {
				return err
			}
			cassette.GlassCount--
			if err := s.cassettes.Update(ctx, cassette); err != nil {
				return err
			}
			sample.GlassCount--
			if err := s.samples.Update(ctx, sample); err != nil {
				return err
			}
			c.GlassCount--
			if err := s.cases.Update(ctx, c); err != nil {
				return err
			}
			if err := s.propagate.OnGlassPrintChanged(ctx, sample.ID); err != nil {
				return err
			}
			res.DeletedCount++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// DeleteCassettes removes cassettes (and their glasses, by cascade) by id.
func (s *Service) DeleteCassettes(ctx context.Context, ids []uuid.UUID) (*DeleteResult, error) {
	res := &DeleteResult{}
	err := s.runTx(ctx, func(ctx context.Context) error {
		for _, id := range ids {
			cassette, err := s.cassettes.GetByID(ctx, id)
			if errors.Is(err, ErrNotFound) {
				res.NotFoundIDs = append(res.NotFoundIDs, id)
				continue
			}
			if err != nil {
				return err
			}

			sample, err := s.samples.GetByID(ctx, cassette.SampleID)
			if err != nil {
				return err
			}
			c, err := s.cases.GetByID(ctx, sample.CaseID)
			if err != nil {
				return err
			}

			if err := s.cassettes.Delete(ctx, id); err != nil {
				return err
			}
			sample.CassetteCount--
			sample.GlassCount -= cassette.GlassCount
			if err := s.samples.Update(ctx, sample); err != nil {
				return err
			}
			c.CassetteCount--
			c.GlassCount -= cassette.GlassCount
			if err := s.cases.Update(ctx, c); err != nil {
				return err
			}
			if err := s.propagate.OnCassettePrintChanged(ctx, sample.ID); err != nil {
				return err
			}
			if err := s.propagate.OnGlassPrintChanged(ctx, sample.ID); err != nil {
				return err
			}
			res.DeletedCount++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// DeleteSamples removes samples (and their whole subtrees, by cascade) by id.
func (s *Service) DeleteSamples(ctx context.Context, ids []uuid.UUID) (*DeleteResult, error) {
	res := &DeleteResult{}
	err := s.runTx(ctx, func(ctx context.Context) error {
		for _, id := range ids {
			sample, err := s.samples.GetByID(ctx, id)
			if errors.Is(err, ErrNotFound) {
				res.NotFoundIDs = append(res.NotFoundIDs, id)
				continue
			}
			if err != nil {
				return err
			}

			c, err := s.cases.GetByID(ctx, sample.CaseID)
			if err != nil {
				return err
			}

			if err := s.samples.Delete(ctx, id); err != nil {
				return err
			}
			c.BankCount--
			c.CassetteCount -= sample.CassetteCount
			c.GlassCount -= sample.GlassCount
			if err := s.cases.Update(ctx, c); err != nil {
				return err
			}
			if err := s.propagate.RefreshCaseAggregates(ctx, c.ID); err != nil {
				return err
			}
			res.DeletedCount++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// DeleteCase removes a case and its whole subtree.
func (s *Service) DeleteCase(ctx context.Context, id uuid.UUID) error {
	return s.runTx(ctx, func(ctx context.Context) error {
		if _, err := s.cases.GetByID(ctx, id); err != nil {
			return err
		}
		return s.cases.Delete(ctx, id)
	})
}

// GetCase returns a case with its samples, cassettes and glasses, each level
// sorted by its number.
func (s *Service) GetCase(ctx context.Context, id uuid.UUID) (*Case, error) {
	return s.loadCaseTree(ctx, id)
}

// GetCaseByCode looks a case up by its 9-character code.
func (s *Service) GetCaseByCode(ctx context.Context, code string) (*Case, error) {
	c, err := s.cases.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.loadCaseTree(ctx, c.ID)
}

// ListCasesByPatient returns a page of the patient's cases plus the total.
func (s *Service) ListCasesByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Case, int, error) {
	return s.cases.ListByPatient(ctx, patientID, limit, offset)
}

// GetSample returns a sample with its cassettes and glasses sorted.
func (s *Service) GetSample(ctx context.Context, id uuid.UUID) (*Sample, error) {
	sample, err := s.samples.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.loadSampleChildren(ctx, sample); err != nil {
		return nil, err
	}
	return sample, nil
}

func (s *Service) loadCaseTree(ctx context.Context, id uuid.UUID) (*Case, error) {
	c, err := s.cases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	samples, err := s.samples.ListByCase(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, sample := range samples {
		if err := s.loadSampleChildren(ctx, sample); err != nil {
			return nil, err
		}
	}
	c.Samples = samples
	return c, nil
}

func (s *Service) loadSampleChildren(ctx context.Context, sample *Sample) error {
	cassettes, err := s.cassettes.ListBySample(ctx, sample.ID)
	if err != nil {
		return err
	}
	for _, cs := range cassettes {
		glasses, err := s.glasses.ListByCassette(ctx, cs.ID)
		if err != nil {
			return err
		}
		cs.Glasses = glasses
	}
	sample.Cassettes = cassettes
	return nil
}

// SetGlassPrinted flips a glass's printed flag and propagates the change up
// the glass-printed chain.
func (s *Service) SetGlassPrinted(ctx context.Context, id uuid.UUID, printed bool) (*Glass, error) {
	var glass *Glass
	err := s.runTx(ctx, func(ctx context.Context) error {
		g, err := s.glasses.GetByID(ctx, id)
		if err != nil {
			return err
		}
		cassette, err := s.cassettes.GetByID(ctx, g.CassetteID)
		if err != nil {
			return err
		}

		if g.IsPrinted != printed {
			g.IsPrinted = printed
			if err := s.glasses.Update(ctx, g); err != nil {
				return err
			}
		}
		glass = g
		return s.propagate.OnGlassPrintChanged(ctx, cassette.SampleID)
	})
	if err != nil {
		return nil, err
	}
	return glass, nil
}

// SetCassettePrinted flips a cassette's printed flag and propagates the
// change up the cassette-printed chain.
func (s *Service) SetCassettePrinted(ctx context.Context, id uuid.UUID, printed bool) (*Cassette, error) {
	var cassette *Cassette
	err := s.runTx(ctx, func(ctx context.Context) error {
		cs, err := s.cassettes.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if cs.IsPrinted != printed {
			cs.IsPrinted = printed
			if err := s.cassettes.Update(ctx, cs); err != nil {
				return err
			}
		}
		cassette = cs
		return s.propagate.OnCassettePrintChanged(ctx, cs.SampleID)
	})
	if err != nil {
		return nil, err
	}
	return cassette, nil
}

// SetCaseQRPrinted records whether the case QR label has been printed. The
// flag is independent of the cassette/glass chains.
func (s *Service) SetCaseQRPrinted(ctx context.Context, id uuid.UUID, printed bool) (*Case, error) {
	var c *Case
	err := s.runTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.cases.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if c.IsPrintedQR == printed {
			return nil
		}
		c.IsPrintedQR = printed
		return s.cases.Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// PrintAllSample marks every cassette and glass under the sample printed and
// refreshes the aggregates.
func (s *Service) PrintAllSample(ctx context.Context, sampleID uuid.UUID) error {
	return s.runTx(ctx, func(ctx context.Context) error {
		sample, err := s.samples.GetByID(ctx, sampleID)
		if err != nil {
			return err
		}
		if err := s.printSampleSubtree(ctx, sample); err != nil {
			return err
		}
		if err := s.propagate.OnCassettePrintChanged(ctx, sampleID); err != nil {
			return err
		}
		return s.propagate.OnGlassPrintChanged(ctx, sampleID)
	})
}

// PrintAllCase marks every cassette and glass under the case printed.
func (s *Service) PrintAllCase(ctx context.Context, caseID uuid.UUID) error {
	return s.runTx(ctx, func(ctx context.Context) error {
		samples, err := s.samples.ListByCase(ctx, caseID)
		if err != nil {
			return err
		}
		for _, sample := range samples {
			if err := s.printSampleSubtree(ctx, sample); err != nil {
				return err
			}
		}
		return s.propagate.RefreshCaseAggregates(ctx, caseID)
	})
}

func (s *Service) printSampleSubtree(ctx context.Context, sample *Sample) error {
	cassettes, err := s.cassettes.ListBySample(ctx, sample.ID)
	if err != nil {
		return err
	}
	for _, cs := range cassettes {
		if !cs.IsPrinted {
			cs.IsPrinted = true
			if err := s.cassettes.Update(ctx, cs); err != nil {
				return err
			}
		}
		glasses, err := s.glasses.ListByCassette(ctx, cs.ID)
		if err != nil {
			return err
		}
		for _, g := range glasses {
			if !g.IsPrinted {
				g.IsPrinted = true
				if err := s.glasses.Update(ctx, g); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// UpdateGlassStaining changes a glass's staining type.
func (s *Service) UpdateGlassStaining(ctx context.Context, id uuid.UUID, staining StainingType) (*Glass, error) {
	if !staining.Valid() {
		return nil, ErrInvalidStaining
	}
	var glass *Glass
	err := s.runTx(ctx, func(ctx context.Context) error {
		g, err := s.glasses.GetByID(ctx, id)
		if err != nil {
			return err
		}
		g.Staining = staining
		glass = g
		return s.glasses.Update(ctx, g)
	})
	if err != nil {
		return nil, err
	}
	return glass, nil
}

// UpdateCassetteComment sets the free-text comment on a cassette.
func (s *Service) UpdateCassetteComment(ctx context.Context, id uuid.UUID, comment string) (*Cassette, error) {
	var cassette *Cassette
	err := s.runTx(ctx, func(ctx context.Context) error {
		cs, err := s.cassettes.GetByID(ctx, id)
		if err != nil {
			return err
		}
		cs.Comment = comment
		cassette = cs
		return s.cassettes.Update(ctx, cs)
	})
	if err != nil {
		return nil, err
	}
	return cassette, nil
}

// SampleUpdate carries the optional sample fields a caller may change.
type SampleUpdate struct {
	Archive          *bool   `json:"archive,omitempty"`
	MacroDescription *string `json:"macro_description,omitempty"`
}

// UpdateSample applies archive/macro-description changes to a sample.
func (s *Service) UpdateSample(ctx context.Context, id uuid.UUID, upd SampleUpdate) (*Sample, error) {
	var sample *Sample
	err := s.runTx(ctx, func(ctx context.Context) error {
		sm, err := s.samples.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if upd.Archive != nil {
			sm.Archive = *upd.Archive
		}
		if upd.MacroDescription != nil {
			sm.MacroDescription = *upd.MacroDescription
		}
		sample = sm
		return s.samples.Update(ctx, sm)
	})
	if err != nil {
		return nil, err
	}
	return sample, nil
}

// CaseTextUpdate carries the optional report-text fields on a case.
type CaseTextUpdate struct {
	Microdescription            *string `json:"microdescription,omitempty"`
	PathohistologicalConclusion *string `json:"pathohistological_conclusion,omitempty"`
}

// UpdateCaseText updates the case's descriptive texts. Completed cases are
// sealed.
func (s *Service) UpdateCaseText(ctx context.Context, id uuid.UUID, upd CaseTextUpdate) (*Case, error) {
	var c *Case
	err := s.runTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.cases.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if c.GrossingStatus == StatusCompleted {
			return ErrCaseCompleted
		}
		if upd.Microdescription != nil {
			c.Microdescription = *upd.Microdescription
		}
		if upd.PathohistologicalConclusion != nil {
			c.PathohistologicalConclusion = *upd.PathohistologicalConclusion
		}
		return s.cases.Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ReassignSuffix replaces the trailing 5 digits of a case code, re-validating
// uniqueness against other live cases.
func (s *Service) ReassignSuffix(ctx context.Context, id uuid.UUID, suffix string) (*Case, error) {
	if !ValidSuffix(suffix) {
		return nil, ErrInvalidSuffix
	}

	var c *Case
	err := s.runTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.cases.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if c.GrossingStatus == StatusCompleted {
			return ErrCaseCompleted
		}

		newCode := ReplaceSuffix(c.CaseCode, suffix)
		if newCode == c.CaseCode {
			return nil
		}
		inUse, err := s.cases.CodeInUse(ctx, newCode, c.ID)
		if err != nil {
			return err
		}
		if inUse {
			return fmt.Errorf("%w: %s", ErrDuplicateCaseCode, newCode)
		}
		c.CaseCode = newCode
		return s.cases.Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCaseParameters changes the urgency/material of a case. When either
// changes, the case code's urgency/material characters are swapped while the
// year and sequence are kept, and the resulting full code is re-validated for
// uniqueness.
func (s *Service) UpdateCaseParameters(ctx context.Context, id uuid.UUID, urgency UrgencyType, material MaterialType) (*Case, error) {
	if !urgency.Valid() {
		return nil, ErrInvalidUrgency
	}
	if !material.Valid() {
		return nil, ErrInvalidMaterial
	}

	var c *Case
	err := s.runTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.cases.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if c.GrossingStatus == StatusCompleted {
			return ErrCaseCompleted
		}
		if c.Urgency == urgency && c.Material == material {
			return nil
		}

		newCode := ReplaceParams(c.CaseCode, urgency, material)
		if newCode != c.CaseCode {
			inUse, err := s.cases.CodeInUse(ctx, newCode, c.ID)
			if err != nil {
				return err
			}
			if inUse {
				return fmt.Errorf("%w: %s", ErrDuplicateCaseCode, newCode)
			}
		}
		c.Urgency = urgency
		c.Material = material
		c.CaseCode = newCode
		return s.cases.Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// BuildGlassLabel assembles the printer payload for one glass:
// clinic|case|sample|cassette|L<glass>|staining|hopper|patient.
func (s *Service) BuildGlassLabel(ctx context.Context, glassID uuid.UUID, clinic, hopper, patientIdentifier string) (string, error) {
	g, err := s.glasses.GetByID(ctx, glassID)
	if err != nil {
		return "", err
	}
	cassette, err := s.cassettes.GetByID(ctx, g.CassetteID)
	if err != nil {
		return "", err
	}
	sample, err := s.samples.GetByID(ctx, cassette.SampleID)
	if err != nil {
		return "", err
	}
	c, err := s.cases.GetByID(ctx, sample.CaseID)
	if err != nil {
		return "", err
	}

	parts := []string{
		clinic,
		c.CaseCode,
		sample.SampleNumber,
		cassette.CassetteNumber,
		"L" + strconv.Itoa(g.GlassNumber),
		string(g.Staining),
		hopper,
		patientIdentifier,
	}
	return strings.Join(parts, "|"), nil
}
