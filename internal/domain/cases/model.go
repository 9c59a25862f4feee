// Package cases owns the specimen hierarchy: a Case holds lettered Samples,
// each Sample holds numbered Cassettes, each Cassette holds numbered Glasses.
// Aggregate counters and printed flags on every level always reflect the live
// descendants.
package cases

import (
	"time"

	"github.com/google/uuid"
)

type UrgencyType string

const (
	UrgencyStandard UrgencyType = "Standard"
	UrgencyUrgent   UrgencyType = "Urgent"
	UrgencyFrozen   UrgencyType = "Frozen"
)

func (u UrgencyType) Valid() bool {
	switch u {
	case UrgencyStandard, UrgencyUrgent, UrgencyFrozen:
		return true
	}
	return false
}

// Code is the single character embedded in the case code.
func (u UrgencyType) Code() byte {
	return u[0]
}

type MaterialType string

const (
	MaterialResectio           MaterialType = "Resectio"
	MaterialBiopsy             MaterialType = "Biopsy"
	MaterialExcisio            MaterialType = "Excisio"
	MaterialCytology           MaterialType = "Cytology"
	MaterialCellblock          MaterialType = "Cellblock"
	MaterialSecondOpinion      MaterialType = "Second Opinion"
	MaterialAutopsy            MaterialType = "Autopsy"
	MaterialElectronMicroscopy MaterialType = "Electron Microscopy"
)

func (m MaterialType) Valid() bool {
	switch m {
	case MaterialResectio, MaterialBiopsy, MaterialExcisio, MaterialCytology,
		MaterialCellblock, MaterialSecondOpinion, MaterialAutopsy, MaterialElectronMicroscopy:
		return true
	}
	return false
}

func (m MaterialType) Code() byte {
	return m[0]
}

type StainingType string

const (
	StainingHE              StainingType = "H&E"
	StainingAlcianPAS       StainingType = "Alcian PAS"
	StainingCongoRed        StainingType = "Congo red"
	StainingMassonTrichrome StainingType = "Masson Trichrome"
	StainingVanGieson       StainingType = "van Gieson"
	StainingZiehlNeelsen    StainingType = "Ziehl Neelsen"
	StainingToluidineBlue   StainingType = "Toluidine Blue"
	StainingPerls           StainingType = "Perls Prussian Blue"
	StainingPicrosirius     StainingType = "Picrosirius"
	StainingSiriusRed       StainingType = "Sirius red"
	StainingThioflavinT     StainingType = "Thioflavin T"
)

func (s StainingType) Valid() bool {
	switch s {
	case StainingHE, StainingAlcianPAS, StainingCongoRed, StainingMassonTrichrome,
		StainingVanGieson, StainingZiehlNeelsen, StainingToluidineBlue,
		StainingPerls, StainingPicrosirius, StainingSiriusRed, StainingThioflavinT:
		return true
	}
	return false
}

type GrossingStatus string

const (
	StatusCreated    GrossingStatus = "CREATED"
	StatusProcessing GrossingStatus = "PROCESSING"
	StatusCompleted  GrossingStatus = "COMPLETED"
)

// Case is the root of the specimen hierarchy. Counters mirror the live
// descendant counts and are mutated only by the service, never by callers.
type Case struct {
	ID                          uuid.UUID      `json:"id"`
	PatientID                   uuid.UUID      `json:"patient_id"`
	CaseCode                    string         `json:"case_code"`
	CreationDate                time.Time      `json:"creation_date"`
	ClosingDate                 *time.Time     `json:"closing_date,omitempty"`
	Urgency                     UrgencyType    `json:"urgency"`
	Material                    MaterialType   `json:"material_type"`
	GrossingStatus              GrossingStatus `json:"grossing_status"`
	CaseOwner                   *uuid.UUID     `json:"case_owner,omitempty"`
	BankCount                   int            `json:"bank_count"`
	CassetteCount               int            `json:"cassette_count"`
	GlassCount                  int            `json:"glass_count"`
	IsPrintedCassette           bool           `json:"is_printed_cassette"`
	IsPrintedGlass              bool           `json:"is_printed_glass"`
	IsPrintedQR                 bool           `json:"is_printed_qr"`
	PathohistologicalConclusion string         `json:"pathohistological_conclusion,omitempty"`
	Microdescription            string         `json:"microdescription,omitempty"`
	CreatedAt                   time.Time      `json:"created_at"`
	UpdatedAt                   time.Time      `json:"updated_at"`

	Samples []*Sample `json:"samples,omitempty"`
}

// Sample is a top-level specimen container ("bank"), lettered A, B, ... within
// its case. Letters are never reused after deletion.
type Sample struct {
	ID                uuid.UUID `json:"id"`
	CaseID            uuid.UUID `json:"case_id"`
	SampleNumber      string    `json:"sample_number"`
	Archive           bool      `json:"archive"`
	MacroDescription  string    `json:"macro_description,omitempty"`
	CassetteCount     int       `json:"cassette_count"`
	GlassCount        int       `json:"glass_count"`
	IsPrintedCassette bool      `json:"is_printed_cassette"`
	IsPrintedGlass    bool      `json:"is_printed_glass"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Cassettes []*Cassette `json:"cassettes,omitempty"`
}

// Cassette is a sub-container of a sample, numbered "<letter><ordinal>".
type Cassette struct {
	ID             uuid.UUID `json:"id"`
	SampleID       uuid.UUID `json:"sample_id"`
	CassetteNumber string    `json:"cassette_number"`
	Comment        string    `json:"comment,omitempty"`
	GlassCount     int       `json:"glass_count"`
	IsPrinted      bool      `json:"is_printed"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Glasses []*Glass `json:"glasses,omitempty"`
}

// Glass is the leaf entity, a stained slide. Glass numbers fill the smallest
// unused non-negative integer within the cassette and are reused after
// deletion.
type Glass struct {
	ID          uuid.UUID    `json:"id"`
	CassetteID  uuid.UUID    `json:"cassette_id"`
	GlassNumber int          `json:"glass_number"`
	Staining    StainingType `json:"staining"`
	IsPrinted   bool         `json:"is_printed"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// DeleteResult reports the outcome of a batch delete. Missing ids are
// collected rather than failing the batch.
type DeleteResult struct {
	DeletedCount int         `json:"deleted_count"`
	NotFoundIDs  []uuid.UUID `json:"not_found_ids,omitempty"`
}
