package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corlab/corlab/internal/domain/cases"
	"github.com/corlab/corlab/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// =========== Case State Repository ===========

type caseStateRepoPG struct{ pool *pgxpool.Pool }

func NewCaseStateRepoPG(pool *pgxpool.Pool) CaseStateRepository {
	return &caseStateRepoPG{pool: pool}
}

func (r *caseStateRepoPG) Get(ctx context.Context, caseID uuid.UUID) (*cases.Case, error) {
	var c cases.Case
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, patient_id, case_code, creation_date, closing_date,
			grossing_status, case_owner
		FROM cases WHERE id = $1`, caseID).
		Scan(&c.ID, &c.PatientID, &c.CaseCode, &c.CreationDate, &c.ClosingDate,
			&c.GrossingStatus, &c.CaseOwner)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: case %s", ErrNotFound, caseID)
	}
	if err != nil {
		return nil, fmt.Errorf("get case state: %w", err)
	}
	return &c, nil
}

func (r *caseStateRepoPG) ClaimOwner(ctx context.Context, caseID, doctorID uuid.UUID) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE cases SET case_owner = $2, grossing_status = $3, updated_at = NOW()
		WHERE id = $1 AND case_owner IS NULL AND grossing_status <> $4`,
		caseID, doctorID, cases.StatusProcessing, cases.StatusCompleted)
	if err != nil {
		return false, fmt.Errorf("claim case owner: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *caseStateRepoPG) ReleaseOwner(ctx context.Context, caseID, doctorID uuid.UUID) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE cases SET case_owner = NULL, grossing_status = $3, updated_at = NOW()
		WHERE id = $1 AND case_owner = $2 AND grossing_status <> $4`,
		caseID, doctorID, cases.StatusCreated, cases.StatusCompleted)
	if err != nil {
		return false, fmt.Errorf("release case owner: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *caseStateRepoPG) Close(ctx context.Context, caseID uuid.UUID, closedAt time.Time) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE cases SET grossing_status = $2, closing_date = $3, updated_at = NOW()
		WHERE id = $1`, caseID, cases.StatusCompleted, closedAt)
	if err != nil {
		return fmt.Errorf("close case: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: case %s", ErrNotFound, caseID)
	}
	return nil
}

// =========== Report Repository ===========

type reportRepoPG struct{ pool *pgxpool.Pool }

func NewReportRepoPG(pool *pgxpool.Pool) ReportRepository {
	return &reportRepoPG{pool: pool}
}

func (r *reportRepoPG) GetByCase(ctx context.Context, caseID uuid.UUID) (*Report, error) {
	q := conn(ctx, r.pool)

	var rep Report
	err := q.QueryRow(ctx, `
		SELECT id, case_id, attached_glass_ids, created_at, updated_at
		FROM reports WHERE case_id = $1`, caseID).
		Scan(&rep.ID, &rep.CaseID, &rep.AttachedGlassIDs, &rep.CreatedAt, &rep.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: report for case %s", ErrNotFound, caseID)
	}
	if err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT d.id, d.report_id, d.doctor_id, d.doctor_name,
			d.pathomorphological_diagnosis, d.immunohistochemical_profile,
			d.molecular_genetic_profile, d.icd_code, d.comment, d.created_at,
			s.id, s.doctor_id, s.signed_at
		FROM doctor_diagnoses d
		LEFT JOIN report_signatures s ON s.diagnosis_id = d.id
		WHERE d.report_id = $1
		ORDER BY d.created_at`, rep.ID)
	if err != nil {
		return nil, fmt.Errorf("list diagnoses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d Diagnosis
		var sigID, sigDoctor *uuid.UUID
		var signedAt *time.Time
		if err := rows.Scan(&d.ID, &d.ReportID, &d.DoctorID, &d.DoctorName,
			&d.PathomorphologicalDiagnosis, &d.ImmunohistochemicalProfile,
			&d.MolecularGeneticProfile, &d.ICDCode, &d.Comment, &d.CreatedAt,
			&sigID, &sigDoctor, &signedAt); err != nil {
			return nil, fmt.Errorf("scan diagnosis: %w", err)
		}
		if sigID != nil {
			d.Signature = &Signature{ID: *sigID, DiagnosisID: d.ID, DoctorID: *sigDoctor, SignedAt: *signedAt}
		}
		rep.Diagnoses = append(rep.Diagnoses, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (r *reportRepoPG) Create(ctx context.Context, rep *Report) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO reports (id, case_id, attached_glass_ids, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		rep.ID, rep.CaseID, rep.AttachedGlassIDs, rep.CreatedAt, rep.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (r *reportRepoPG) Update(ctx context.Context, rep *Report) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE reports SET attached_glass_ids = $2, updated_at = $3 WHERE id = $1`,
		rep.ID, rep.AttachedGlassIDs, rep.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: report %s", ErrNotFound, rep.ID)
	}
	return nil
}

func (r *reportRepoPG) AddDiagnosis(ctx context.Context, d *Diagnosis) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO doctor_diagnoses (id, report_id, doctor_id, doctor_name,
			pathomorphological_diagnosis, immunohistochemical_profile,
			molecular_genetic_profile, icd_code, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.ReportID, d.DoctorID, d.DoctorName,
		d.PathomorphologicalDiagnosis, d.ImmunohistochemicalProfile,
		d.MolecularGeneticProfile, d.ICDCode, d.Comment, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert diagnosis: %w", err)
	}
	return nil
}

func (r *reportRepoPG) GetDiagnosis(ctx context.Context, id uuid.UUID) (*Diagnosis, error) {
	var d Diagnosis
	var sigID, sigDoctor *uuid.UUID
	var signedAt *time.Time
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT d.id, d.report_id, d.doctor_id, d.doctor_name,
			d.pathomorphological_diagnosis, d.immunohistochemical_profile,
			d.molecular_genetic_profile, d.icd_code, d.comment, d.created_at,
			s.id, s.doctor_id, s.signed_at
		FROM doctor_diagnoses d
		LEFT JOIN report_signatures s ON s.diagnosis_id = d.id
		WHERE d.id = $1`, id).
		Scan(&d.ID, &d.ReportID, &d.DoctorID, &d.DoctorName,
			&d.PathomorphologicalDiagnosis, &d.ImmunohistochemicalProfile,
			&d.MolecularGeneticProfile, &d.ICDCode, &d.Comment, &d.CreatedAt,
			&sigID, &sigDoctor, &signedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: diagnosis %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get diagnosis: %w", err)
	}
	if sigID != nil {
		d.Signature = &Signature{ID: *sigID, DiagnosisID: d.ID, DoctorID: *sigDoctor, SignedAt: *signedAt}
	}
	return &d, nil
}

func (r *reportRepoPG) AddSignature(ctx context.Context, sig *Signature) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO report_signatures (id, diagnosis_id, doctor_id, signed_at)
		VALUES ($1, $2, $3, $4)`,
		sig.ID, sig.DiagnosisID, sig.DoctorID, sig.SignedAt)
	if err != nil {
		return fmt.Errorf("insert signature: %w", err)
	}
	return nil
}
