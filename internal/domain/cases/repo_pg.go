package cases

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

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

// isUniqueViolation reports a Postgres 23505 error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// =========== Case Repository ===========

type caseRepoPG struct{ pool *pgxpool.Pool }

func NewCaseRepoPG(pool *pgxpool.Pool) CaseRepository {
	return &caseRepoPG{pool: pool}
}

const caseCols = `id, patient_id, case_code, creation_date, closing_date,
	urgency, material_type, grossing_status, case_owner,
	bank_count, cassette_count, glass_count,
	is_printed_cassette, is_printed_glass, is_printed_qr,
	pathohistological_conclusion, microdescription, created_at, updated_at`

func scanCase(row pgx.Row) (*Case, error) {
	var c Case
	err := row.Scan(&c.ID, &c.PatientID, &c.CaseCode, &c.CreationDate, &c.ClosingDate,
		&c.Urgency, &c.Material, &c.GrossingStatus, &c.CaseOwner,
		&c.BankCount, &c.CassetteCount, &c.GlassCount,
		&c.IsPrintedCassette, &c.IsPrintedGlass, &c.IsPrintedQR,
		&c.PathohistologicalConclusion, &c.Microdescription, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *caseRepoPG) Create(ctx context.Context, c *Case) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO cases (id, patient_id, case_code, creation_date, closing_date,
			urgency, material_type, grossing_status, case_owner,
			bank_count, cassette_count, glass_count,
			is_printed_cassette, is_printed_glass, is_printed_qr,
			pathohistological_conclusion, microdescription, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		c.ID, c.PatientID, c.CaseCode, c.CreationDate, c.ClosingDate,
		c.Urgency, c.Material, c.GrossingStatus, c.CaseOwner,
		c.BankCount, c.CassetteCount, c.GlassCount,
		c.IsPrintedCassette, c.IsPrintedGlass, c.IsPrintedQR,
		c.PathohistologicalConclusion, c.Microdescription, c.CreatedAt, c.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateCaseCode, c.CaseCode)
	}
	if err != nil {
		return fmt.Errorf("insert case: %w", err)
	}
	return nil
}

func (r *caseRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Case, error) {
	c, err := scanCase(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+caseCols+` FROM cases WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: case %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get case: %w", err)
	}
	return c, nil
}

func (r *caseRepoPG) GetByCode(ctx context.Context, code string) (*Case, error) {
	c, err := scanCase(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+caseCols+` FROM cases WHERE case_code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: case code %s", ErrNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("get case by code: %w", err)
	}
	return c, nil
}

func (r *caseRepoPG) ListCodes(ctx context.Context) ([]string, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT case_code FROM cases`)
	if err != nil {
		return nil, fmt.Errorf("list case codes: %w", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan case code: %w", err)
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (r *caseRepoPG) CodeInUse(ctx context.Context, code string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM cases WHERE case_code = $1 AND id <> $2)`,
		code, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check case code: %w", err)
	}
	return exists, nil
}

func (r *caseRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Case, int, error) {
	q := conn(ctx, r.pool)

	var total int
	if err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM cases WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cases: %w", err)
	}

	rows, err := q.Query(ctx,
		`SELECT `+caseCols+` FROM cases WHERE patient_id = $1
		 ORDER BY creation_date DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list cases: %w", err)
	}
	defer rows.Close()

	var out []*Case
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan case: %w", err)
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (r *caseRepoPG) Update(ctx context.Context, c *Case) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE cases SET case_code = $2, closing_date = $3, urgency = $4,
			material_type = $5, grossing_status = $6, case_owner = $7,
			bank_count = $8, cassette_count = $9, glass_count = $10,
			is_printed_cassette = $11, is_printed_glass = $12, is_printed_qr = $13,
			pathohistological_conclusion = $14, microdescription = $15, updated_at = NOW()
		WHERE id = $1`,
		c.ID, c.CaseCode, c.ClosingDate, c.Urgency,
		c.Material, c.GrossingStatus, c.CaseOwner,
		c.BankCount, c.CassetteCount, c.GlassCount,
		c.IsPrintedCassette, c.IsPrintedGlass, c.IsPrintedQR,
		c.PathohistologicalConclusion, c.Microdescription)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateCaseCode, c.CaseCode)
	}
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: case %s", ErrNotFound, c.ID)
	}
	return nil
}

func (r *caseRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM cases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete case: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: case %s", ErrNotFound, id)
	}
	return nil
}

// =========== Sample Repository ===========

type sampleRepoPG struct{ pool *pgxpool.Pool }

func NewSampleRepoPG(pool *pgxpool.Pool) SampleRepository {
	return &sampleRepoPG{pool: pool}
}

const sampleCols = `id, case_id, sample_number, archive, macro_description,
	cassette_count, glass_count, is_printed_cassette, is_printed_glass,
	created_at, updated_at`

func scanSample(row pgx.Row) (*Sample, error) {
	var s Sample
	err := row.Scan(&s.ID, &s.CaseID, &s.SampleNumber, &s.Archive, &s.MacroDescription,
		&s.CassetteCount, &s.GlassCount, &s.IsPrintedCassette, &s.IsPrintedGlass,
		&s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *sampleRepoPG) Create(ctx context.Context, s *Sample) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO samples (id, case_id, sample_number, archive, macro_description,
			cassette_count, glass_count, is_printed_cassette, is_printed_glass,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.ID, s.CaseID, s.SampleNumber, s.Archive, s.MacroDescription,
		s.CassetteCount, s.GlassCount, s.IsPrintedCassette, s.IsPrintedGlass,
		s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

func (r *sampleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Sample, error) {
	s, err := scanSample(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+sampleCols+` FROM samples WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: sample %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get sample: %w", err)
	}
	return s, nil
}

func (r *sampleRepoPG) ListByCase(ctx context.Context, caseID uuid.UUID) ([]*Sample, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+sampleCols+` FROM samples WHERE case_id = $1 ORDER BY sample_number`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	defer rows.Close()

	var out []*Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sampleRepoPG) Update(ctx context.Context, s *Sample) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE samples SET archive = $2, macro_description = $3,
			cassette_count = $4, glass_count = $5,
			is_printed_cassette = $6, is_printed_glass = $7, updated_at = NOW()
		WHERE id = $1`,
		s.ID, s.Archive, s.MacroDescription,
		s.CassetteCount, s.GlassCount,
		s.IsPrintedCassette, s.IsPrintedGlass)
	if err != nil {
		return fmt.Errorf("update sample: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: sample %s", ErrNotFound, s.ID)
	}
	return nil
}

func (r *sampleRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM samples WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete sample: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: sample %s", ErrNotFound, id)
	}
	return nil
}

// =========== Cassette Repository ===========

type cassetteRepoPG struct{ pool *pgxpool.Pool }

func NewCassetteRepoPG(pool *pgxpool.Pool) CassetteRepository {
	return &cassetteRepoPG{pool: pool}
}

const cassetteCols = `id, sample_id, cassette_number, comment, glass_count,
	is_printed, created_at, updated_at`

func scanCassette(row pgx.Row) (*Cassette, error) {
	var c Cassette
	err := row.Scan(&c.ID, &c.SampleID, &c.CassetteNumber, &c.Comment, &c.GlassCount,
		&c.IsPrinted, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *cassetteRepoPG) Create(ctx context.Context, c *Cassette) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO cassettes (id, sample_id, cassette_number, comment, glass_count,
			is_printed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.SampleID, c.CassetteNumber, c.Comment, c.GlassCount,
		c.IsPrinted, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert cassette: %w", err)
	}
	return nil
}

func (r *cassetteRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Cassette, error) {
	c, err := scanCassette(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+cassetteCols+` FROM cassettes WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: cassette %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get cassette: %w", err)
	}
	return c, nil
}

func (r *cassetteRepoPG) ListBySample(ctx context.Context, sampleID uuid.UUID) ([]*Cassette, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+cassetteCols+` FROM cassettes WHERE sample_id = $1 ORDER BY cassette_number`, sampleID)
	if err != nil {
		return nil, fmt.Errorf("list cassettes: %w", err)
	}
	defer rows.Close()

	var out []*Cassette
	for rows.Next() {
		c, err := scanCassette(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cassette: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *cassetteRepoPG) Update(ctx context.Context, c *Cassette) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE cassettes SET comment = $2, glass_count = $3, is_printed = $4, updated_at = NOW()
		WHERE id = $1`,
		c.ID, c.Comment, c.GlassCount, c.IsPrinted)
	if err != nil {
		return fmt.Errorf("update cassette: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: cassette %s", ErrNotFound, c.ID)
	}
	return nil
}

func (r *cassetteRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM cassettes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cassette: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: cassette %s", ErrNotFound, id)
	}
	return nil
}

// =========== Glass Repository ===========

type glassRepoPG struct{ pool *pgxpool.Pool }

func NewGlassRepoPG(pool *pgxpool.Pool) GlassRepository {
	return &glassRepoPG{pool: pool}
}

const glassCols = `id, cassette_id, glass_number, staining, is_printed, created_at, updated_at`

func scanGlass(row pgx.Row) (*Glass, error) {
	var g Glass
	err := row.Scan(&g.ID, &g.CassetteID, &g.GlassNumber, &g.Staining, &g.IsPrinted,
		&g.CreatedAt, &g.UpdatedAt)
	return &g, err
}

func (r *glassRepoPG) Create(ctx context.Context, g *Glass) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO glasses (id, cassette_id, glass_number, staining, is_printed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		g.ID, g.CassetteID, g.GlassNumber, g.Staining, g.IsPrinted, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert glass: %w", err)
	}
	return nil
}

func (r *glassRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Glass, error) {
	g, err := scanGlass(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+glassCols+` FROM glasses WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: glass %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get glass: %w", err)
	}
	return g, nil
}

func (r *glassRepoPG) ListByCassette(ctx context.Context, cassetteID uuid.UUID) ([]*Glass, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+glassCols+` FROM glasses WHERE cassette_id = $1 ORDER BY glass_number`, cassetteID)
	if err != nil {
		return nil, fmt.Errorf("list glasses: %w", err)
	}
	defer rows.Close()

	var out []*Glass
	for rows.Next() {
		g, err := scanGlass(rows)
		if err != nil {
			return nil, fmt.Errorf("scan glass: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *glassRepoPG) Update(ctx context.Context, g *Glass) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE glasses SET staining = $2, is_printed = $3, updated_at = NOW()
		WHERE id = $1`,
		g.ID, g.Staining, g.IsPrinted)
	if err != nil {
		return fmt.Errorf("update glass: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: glass %s", ErrNotFound, g.ID)
	}
	return nil
}

func (r *glassRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM glasses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete glass: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: glass %s", ErrNotFound, id)
	}
	return nil
}
