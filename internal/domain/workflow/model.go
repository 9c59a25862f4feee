// Package workflow drives the case lifecycle: a doctor takes ownership of a
// case, attaches a report with signed diagnoses, and closes it. Closing is
// final; completed cases reject every later mutation.
package workflow

import (
	"time"

	"github.com/google/uuid"
)

// Report is the per-case diagnostic report. Each case has at most one.
type Report struct {
	ID               uuid.UUID   `json:"id"`
	CaseID           uuid.UUID   `json:"case_id"`
	AttachedGlassIDs []uuid.UUID `json:"attached_glass_ids,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`

	Diagnoses []*Diagnosis `json:"diagnoses,omitempty"`
}

// Diagnosis is one doctor's diagnostic entry on a report. A case cannot be
// closed until every diagnosis carries a signature.
type Diagnosis struct {
	ID                          uuid.UUID `json:"id"`
	ReportID                    uuid.UUID `json:"report_id"`
	DoctorID                    uuid.UUID `json:"doctor_id"`
	DoctorName                  string    `json:"doctor_name"`
	PathomorphologicalDiagnosis string    `json:"pathomorphological_diagnosis,omitempty"`
	ImmunohistochemicalProfile  string    `json:"immunohistochemical_profile,omitempty"`
	MolecularGeneticProfile     string    `json:"molecular_genetic_profile,omitempty"`
	ICDCode                     string    `json:"icd_code,omitempty"`
	Comment                     string    `json:"comment,omitempty"`
	CreatedAt                   time.Time `json:"created_at"`

	Signature *Signature `json:"signature,omitempty"`
}

// Signature records that a doctor signed off a diagnosis entry.
type Signature struct {
	ID          uuid.UUID `json:"id"`
	DiagnosisID uuid.UUID `json:"diagnosis_id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	SignedAt    time.Time `json:"signed_at"`
}
