// Package validation checks request payloads, imported rows and CLI paths.
package validation

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"inventorypro/internal/config"
	apperrors "inventorypro/internal/errors"
)

// FieldError is one failed rule on one field, named as in JSON.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator wraps go-playground/validator with the messages shown to users.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator that reports JSON field names and knows the
// "filename" and "csvheader" rules.
func New() *Validator {
	v := validator.New()

	v.RegisterValidation("filename", isValidFilename)
	v.RegisterValidation("csvheader", isValidHeader)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "csv"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	return &Validator{validate: v}
}

// Struct validates s and returns every failed field. A nil result means s is valid.
func (v *Validator) Struct(s interface{}) []FieldError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return []FieldError{{Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:   fieldPath(fe),
			Message: Message(fe.Tag(), fe.Param()),
		})
	}
	return out
}

// Validate is Struct returning an APIError suitable for a 400 response.
func (v *Validator) Validate(s interface{}) error {
	fields := v.Struct(s)
	if len(fields) == 0 {
		return nil
	}
	errs := make([]apperrors.ValidationError, len(fields))
	for i, f := range fields {
		errs[i] = apperrors.ValidationError{Field: f.Field, Message: f.Message}
	}
	return apperrors.NewValidationErrors(errs)
}

// Message is the user-facing text for a failed rule.
func Message(tag, param string) string {
	switch tag {
	case "required":
		return config.MsgFieldRequired
	case "min":
		return fmt.Sprintf("Must be at least %s", param)
	case "max":
		return fmt.Sprintf("Must be at most %s", param)
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", param)
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", param)
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(param, " ", ", "))
	case "filename":
		return "Must be a file name without path separators"
	case "csvheader":
		return "Header labels must not be empty"
	default:
		return fmt.Sprintf("Failed %s validation", tag)
	}
}

// fieldPath drops the top-level struct name: "ExportRequest.records[0]" becomes "records[0]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// isValidFilename rejects names that could escape the export directory
func isValidFilename(fl validator.FieldLevel) bool {
	filename := fl.Field().String()
	if filename == "" {
		return true
	}
	if filename == "." || filename == ".." || strings.ContainsAny(filename, `/\`) || strings.ContainsRune(filename, 0) {
		return false
	}
	return len(filename) <= 255
}

// isValidHeader rejects blank header labels
func isValidHeader(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
