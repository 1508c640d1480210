package catalog

import "github.com/ariefcatur/go-realtime-store/internal/apperr"

var (
	ErrInvalidInput  = apperr.New(apperr.KindValidation, "invalid_input", "invalid product input")
	ErrDuplicateName = apperr.New(apperr.KindConflict, "duplicate_name", "product name already exists")
)
