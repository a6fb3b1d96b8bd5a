package shared

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"midway_hotel/internal/domain"
)

// Validator wraps the go-playground validator and reports failures as
// *domain.ValidationError.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return &domain.ValidationError{Fields: fields, Err: err}
	}
	return &domain.ValidationError{Err: err}
}
