// Package form holds the edit dialog state machine and the field rules applied to drafts.
package form

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Field error codes
const (
	CodeRequired    = "required"
	CodeTooLong     = "too-long"
	CodePositive    = "must-be-positive"
	CodeNonNegative = "must-not-be-negative"
	CodeNotSelected = "not-selected"
	CodeEmail       = "invalid-email"
	CodeInvalid     = "invalid"
)

// FieldError is one failed rule on one draft field
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationErrors maps a field's JSON name to its first failed rule
type ValidationErrors map[string]FieldError

// Error implements error
func (v ValidationErrors) Error() string {
	fields := v.Fields()
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + v[f].Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields returns the failing field names sorted
func (v ValidationErrors) Fields() []string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

// AsValidationErrors unwraps err into ValidationErrors
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var verr ValidationErrors
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// Validator checks drafts against their `validate` struct tags
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with the draft tags registered:
// nonblank (non-empty after trimming) and decimal.Decimal comparisons.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &Validator{validate: v}
}

// Struct validates every field of draft. It returns nil when the draft is valid.
func (v *Validator) Struct(draft any) ValidationErrors {
	err := v.validate.Struct(draft)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ValidationErrors{"": {Code: CodeInvalid, Message: err.Error()}}
	}
	out := make(ValidationErrors, len(verrs))
	for _, e := range verrs {
		if _, seen := out[e.Field()]; seen {
			continue
		}
		out[e.Field()] = toFieldError(e)
	}
	return out
}

// Field validates draft and returns the error of one field, if any
func (v *Validator) Field(draft any, field string) *FieldError {
	errs := v.Struct(draft)
	if fe, ok := errs[field]; ok {
		return &fe
	}
	return nil
}

func toFieldError(e validator.FieldError) FieldError {
	fe := FieldError{Field: e.Field()}
	switch e.Tag() {
	case "nonblank", "required":
		fe.Code, fe.Message = CodeRequired, "Поле обязательно для заполнения"
	case "max":
		fe.Code, fe.Message = CodeTooLong, fmt.Sprintf("Не более %s символов", e.Param())
	case "email":
		fe.Code, fe.Message = CodeEmail, "Некорректный email"
	case "gte":
		fe.Code, fe.Message = CodeNonNegative, "Значение не может быть отрицательным"
	case "gt":
		if isReference(e.Field()) {
			fe.Code, fe.Message = CodeNotSelected, "Выберите значение из списка"
		} else {
			fe.Code, fe.Message = CodePositive, "Значение должно быть больше 0"
		}
	default:
		fe.Code, fe.Message = CodeInvalid, "Некорректное значение"
	}
	return fe
}

// isReference reports whether a JSON field name is a foreign key such as "categoryId"
func isReference(field string) bool {
	return strings.HasSuffix(field, "Id")
}
