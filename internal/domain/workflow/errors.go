package workflow

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("entity not found")
	ErrAlreadyOwner      = errors.New("doctor already owns this case")
	ErrOwnershipConflict = errors.New("case is owned by another doctor")
	ErrNotOwner          = errors.New("doctor does not own this case")
	ErrCaseCompleted     = errors.New("case is completed and cannot be modified")
	ErrAlreadyCompleted  = errors.New("case is already completed")
	ErrNoReport          = errors.New("case has no report")
	ErrNoDiagnoses       = errors.New("report has no diagnoses")
	ErrAlreadySigned     = errors.New("diagnosis is already signed")
)

// UnsignedDiagnosisError blocks closing while a diagnosis lacks a signature.
// It names the doctor whose entry is unsigned.
type UnsignedDiagnosisError struct {
	DoctorName string
}

func (e *UnsignedDiagnosisError) Error() string {
	return fmt.Sprintf("diagnosis by %s is not signed", e.DoctorName)
}
