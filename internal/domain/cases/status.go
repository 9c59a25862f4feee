package cases

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// StatusPropagator keeps the printed-flag aggregates on Sample and Case in
// step with their descendants. Aggregates are AND-reductions recomputed from
// current children, written only when the stored value differs, so repeated
// invocations are no-ops. An empty child set is vacuously printed.
type StatusPropagator struct {
	cases     CaseRepository
	samples   SampleRepository
	cassettes CassetteRepository
	glasses   GlassRepository
}

func NewStatusPropagator(cr CaseRepository, sr SampleRepository, csr CassetteRepository, gr GlassRepository) *StatusPropagator {
	return &StatusPropagator{cases: cr, samples: sr, cassettes: csr, glasses: gr}
}

// OnGlassPrintChanged recomputes the glass-printed chain above the given
// sample: Sample.IsPrintedGlass, then Case.IsPrintedGlass.
func (p *StatusPropagator) OnGlassPrintChanged(ctx context.Context, sampleID uuid.UUID) error {
	sample, err := p.samples.GetByID(ctx, sampleID)
	if err != nil {
		return fmt.Errorf("load sample %s: %w", sampleID, err)
	}

	allPrinted, err := p.allGlassesPrinted(ctx, sample.ID)
	if err != nil {
		return err
	}

	if sample.IsPrintedGlass != allPrinted {
		sample.IsPrintedGlass = allPrinted
		if err := p.samples.Update(ctx, sample); err != nil {
			return fmt.Errorf("update sample %s: %w", sample.ID, err)
		}
	}

	return p.refreshCase(ctx, sample.CaseID, func(c *Case, samples []*Sample) bool {
		all := true
		for _, s := range samples {
			v := s.IsPrintedGlass
			if s.ID == sample.ID {
				v = allPrinted
			}
			all = all && v
		}
		changed := c.IsPrintedGlass != all
		c.IsPrintedGlass = all
		return changed
	})
}

// OnCassettePrintChanged recomputes the cassette-printed chain above the
// given sample: Sample.IsPrintedCassette, then Case.IsPrintedCassette.
func (p *StatusPropagator) OnCassettePrintChanged(ctx context.Context, sampleID uuid.UUID) error {
	sample, err := p.samples.GetByID(ctx, sampleID)
	if err != nil {
		return fmt.Errorf("load sample %s: %w", sampleID, err)
	}

	cassettes, err := p.cassettes.ListBySample(ctx, sample.ID)
	if err != nil {
		return fmt.Errorf("list cassettes for sample %s: %w", sample.ID, err)
	}
	allPrinted := true
	for _, cs := range cassettes {
		allPrinted = allPrinted && cs.IsPrinted
	}

	if sample.IsPrintedCassette != allPrinted {
		sample.IsPrintedCassette = allPrinted
		if err := p.samples.Update(ctx, sample); err != nil {
			return fmt.Errorf("update sample %s: %w", sample.ID, err)
		}
	}

	return p.refreshCase(ctx, sample.CaseID, func(c *Case, samples []*Sample) bool {
		all := true
		for _, s := range samples {
			v := s.IsPrintedCassette
			if s.ID == sample.ID {
				v = allPrinted
			}
			all = all && v
		}
		changed := c.IsPrintedCassette != all
		c.IsPrintedCassette = all
		return changed
	})
}

// RefreshCaseAggregates recomputes both printed chains for every sample of a
// case. Used after structural changes that touch multiple samples at once.
func (p *StatusPropagator) RefreshCaseAggregates(ctx context.Context, caseID uuid.UUID) error {
	samples, err := p.samples.ListByCase(ctx, caseID)
	if err != nil {
		return fmt.Errorf("list samples for case %s: %w", caseID, err)
	}

	caseGlass, caseCassette := true, true
	for _, s := range samples {
		glassAll, err := p.allGlassesPrinted(ctx, s.ID)
		if err != nil {
			return err
		}

		cassettes, err := p.cassettes.ListBySample(ctx, s.ID)
		if err != nil {
			return fmt.Errorf("list cassettes for sample %s: %w", s.ID, err)
		}
		cassetteAll := true
		for _, cs := range cassettes {
			cassetteAll = cassetteAll && cs.IsPrinted
		}

		if s.IsPrintedGlass != glassAll || s.IsPrintedCassette != cassetteAll {
			s.IsPrintedGlass = glassAll
			s.IsPrintedCassette = cassetteAll
			if err := p.samples.Update(ctx, s); err != nil {
				return fmt.Errorf("update sample %s: %w", s.ID, err)
			}
		}

		caseGlass = caseGlass && glassAll
		caseCassette = caseCassette && cassetteAll
	}

	c, err := p.cases.GetByID(ctx, caseID)
	if err != nil {
		return fmt.Errorf("load case %s: %w", caseID, err)
	}
	if c.IsPrintedGlass != caseGlass || c.IsPrintedCassette != caseCassette {
		c.IsPrintedGlass = caseGlass
		c.IsPrintedCassette = caseCassette
		if err := p.cases.Update(ctx, c); err != nil {
			return fmt.Errorf("update case %s: %w", caseID, err)
		}
	}
	return nil
}

// allGlassesPrinted ANDs the printed flag over every glass under a sample.
func (p *StatusPropagator) allGlassesPrinted(ctx context.Context, sampleID uuid.UUID) (bool, error) {
	cassettes, err := p.cassettes.ListBySample(ctx, sampleID)
	if err != nil {
		return false, fmt.Errorf("list cassettes for sample %s: %w", sampleID, err)
	}

	all := true
	for _, cs := range cassettes {
		glasses, err := p.glasses.ListByCassette(ctx, cs.ID)
		if err != nil {
			return false, fmt.Errorf("list glasses for cassette %s: %w", cs.ID, err)
		}
		for _, g := range glasses {
			all = all && g.IsPrinted
		}
	}
	return all, nil
}

func (p *StatusPropagator) refreshCase(ctx context.Context, caseID uuid.UUID, apply func(*Case, []*Sample) bool) error {
	c, err := p.cases.GetByID(ctx, caseID)
	if err != nil {
		return fmt.Errorf("load case %s: %w", caseID, err)
	}
	samples, err := p.samples.ListByCase(ctx, caseID)
	if err != nil {
		return fmt.Errorf("list samples for case %s: %w", caseID, err)
	}
	if apply(c, samples) {
		if err := p.cases.Update(ctx, c); err != nil {
			return fmt.Errorf("update case %s: %w", caseID, err)
		}
	}
	return nil
}
