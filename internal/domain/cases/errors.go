package cases

import "errors"

var (
	ErrNotFound          = errors.New("entity not found")
	ErrDuplicateCaseCode = errors.New("case code already exists")
	ErrCaseCompleted     = errors.New("case is completed and cannot be modified")
	ErrInvalidSuffix     = errors.New("case code suffix must be exactly 5 digits")
	ErrInvalidUrgency    = errors.New("invalid urgency type")
	ErrInvalidMaterial   = errors.New("invalid material type")
	ErrInvalidStaining   = errors.New("invalid staining type")
)
