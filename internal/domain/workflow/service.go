package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/corlab/corlab/internal/domain/cases"
)

type Service struct {
	state   CaseStateRepository
	reports ReportRepository
	runTx   cases.TxRunner

	now func() time.Time
}

func NewService(state CaseStateRepository, reports ReportRepository, tx cases.TxRunner) *Service {
	if tx == nil {
		tx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{state: state, reports: reports, runTx: tx, now: time.Now}
}

// TakeOwnership assigns the case to the doctor and moves it to PROCESSING.
// The claim is row-guarded; when two doctors race, exactly one wins and the
// other gets ErrOwnershipConflict.
func (s *Service) TakeOwnership(ctx context.Context, caseID, doctorID uuid.UUID) (*cases.Case, error) {
	var c *cases.Case
	err := s.runTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.state.Get(ctx, caseID)
		if err != nil {
			return err
		}
		if c.GrossingStatus == cases.StatusCompleted {
			return ErrCaseCompleted
		}
		if c.CaseOwner != nil {
			if *c.CaseOwner == doctorID {
				return ErrAlreadyOwner
			}
			return ErrOwnershipConflict
		}

		claimed, err := s.state.ClaimOwner(ctx, caseID, doctorID)
		if err != nil {
			return err
		}
		if !claimed {
			return ErrOwnershipConflict
		}
		c, err = s.state.Get(ctx, caseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ReleaseOwnership clears the doctor's claim and moves the case back to
// CREATED.
func (s *Service) ReleaseOwnership(ctx context.Context, caseID, doctorID uuid.UUID) (*cases.Case, error) {
	var c *cases.Case
	err := s.runTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.state.Get(ctx, caseID)
		if err != nil {
			return err
		}
		if c.GrossingStatus == cases.StatusCompleted {
			return ErrCaseCompleted
		}
		if c.CaseOwner == nil || *c.CaseOwner != doctorID {
			return ErrNotOwner
		}

		released, err := s.state.ReleaseOwner(ctx, caseID, doctorID)
		if err != nil {
			return err
		}
		if !released {
			return ErrNotOwner
		}
		c, err = s.state.Get(ctx, caseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Close finishes the case: only the owner may close, the case must carry a
// report, the report at least one diagnosis, and every diagnosis a signature.
// On success the closing date is stamped and the status becomes COMPLETED.
func (s *Service) Close(ctx context.Context, caseID, doctorID uuid.UUID) (*cases.Case, error) {
	var c *cases.Case
	err := s.runTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.state.Get(ctx, caseID)
		if err != nil {
			return err
		}
		if c.CaseOwner == nil || *c.CaseOwner != doctorID {
			return ErrNotOwner
		}
		if c.GrossingStatus == cases.StatusCompleted {
			return ErrAlreadyCompleted
		}

		report, err := s.reports.GetByCase(ctx, caseID)
		if errors.Is(err, ErrNotFound) {
			return ErrNoReport
		}
		if err != nil {
			return err
		}
		if len(report.Diagnoses) == 0 {
			return ErrNoDiagnoses
		}
		for _, d := range report.Diagnoses {
			if d.Signature == nil {
				return &UnsignedDiagnosisError{DoctorName: d.DoctorName}
			}
		}

		if err := s.state.Close(ctx, caseID, s.now()); err != nil {
			return err
		}
		c, err = s.state.Get(ctx, caseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetReport returns the case's report with diagnoses and signatures.
func (s *Service) GetReport(ctx context.Context, caseID uuid.UUID) (*Report, error) {
	return s.reports.GetByCase(ctx, caseID)
}

// UpsertReport creates the case's report on first call and updates the
// attached glasses afterwards.
func (s *Service) UpsertReport(ctx context.Context, caseID uuid.UUID, attachedGlassIDs []uuid.UUID) (*Report, error) {
	var report *Report
	err := s.runTx(ctx, func(ctx context.Context) error {
		c, err := s.state.Get(ctx, caseID)
		if err != nil {
			return err
		}
		if c.GrossingStatus == cases.StatusCompleted {
			return ErrCaseCompleted
		}

		now := s.now()
		report, err = s.reports.GetByCase(ctx, caseID)
		if errors.Is(err, ErrNotFound) {
			report = &Report{
				ID:               uuid.New(),
				CaseID:           caseID,
				AttachedGlassIDs: attachedGlassIDs,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			return s.reports.Create(ctx, report)
		}
		if err != nil {
			return err
		}
		report.AttachedGlassIDs = attachedGlassIDs
		report.UpdatedAt = now
		return s.reports.Update(ctx, report)
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// DiagnosisInput carries the free-text fields of a new diagnosis entry.
type DiagnosisInput struct {
	PathomorphologicalDiagnosis string `json:"pathomorphological_diagnosis"`
	ImmunohistochemicalProfile  string `json:"immunohistochemical_profile"`
	MolecularGeneticProfile     string `json:"molecular_genetic_profile"`
	ICDCode                     string `json:"icd_code"`
	Comment                     string `json:"comment"`
}

// AddDiagnosis appends a doctor's diagnosis to the case report. The report
// must already exist.
func (s *Service) AddDiagnosis(ctx context.Context, caseID, doctorID uuid.UUID, doctorName string, in DiagnosisInput) (*Diagnosis, error) {
	var diagnosis *Diagnosis
	err := s.runTx(ctx, func(ctx context.Context) error {
		c, err := s.state.Get(ctx, caseID)
		if err != nil {
			return err
		}
		if c.GrossingStatus == cases.StatusCompleted {
			return ErrCaseCompleted
		}

		report, err := s.reports.GetByCase(ctx, caseID)
		if errors.Is(err, ErrNotFound) {
			return ErrNoReport
		}
		if err != nil {
			return err
		}

		diagnosis = &Diagnosis{
			ID:                          uuid.New(),
			ReportID:                    report.ID,
			DoctorID:                    doctorID,
			DoctorName:                  doctorName,
			PathomorphologicalDiagnosis: in.PathomorphologicalDiagnosis,
			ImmunohistochemicalProfile:  in.ImmunohistochemicalProfile,
			MolecularGeneticProfile:     in.MolecularGeneticProfile,
			ICDCode:                     in.ICDCode,
			Comment:                     in.Comment,
			CreatedAt:                   s.now(),
		}
		return s.reports.AddDiagnosis(ctx, diagnosis)
	})
	if err != nil {
		return nil, err
	}
	return diagnosis, nil
}

// SignDiagnosis attaches the doctor's signature to a diagnosis entry. Each
// entry is signed at most once.
func (s *Service) SignDiagnosis(ctx context.Context, diagnosisID, doctorID uuid.UUID) (*Signature, error) {
	var sig *Signature
	err := s.runTx(ctx, func(ctx context.Context) error {
		d, err := s.reports.GetDiagnosis(ctx, diagnosisID)
		if err != nil {
			return err
		}
		if d.Signature != nil {
			return ErrAlreadySigned
		}

		sig = &Signature{
			ID:          uuid.New(),
			DiagnosisID: diagnosisID,
			DoctorID:    doctorID,
			SignedAt:    s.now(),
		}
		return s.reports.AddSignature(ctx, sig)
	})
	if err != nil {
		return nil, err
	}
	return sig, nil
}
