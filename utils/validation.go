package utils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs validator tags on a request DTO and returns a
// field → messages map suitable for a 422 response body, or nil when valid.
func ValidateStruct(s interface{}) map[string][]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string][]string{"_": {err.Error()}}
	}

	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		field := fieldName(fe)
		out[field] = append(out[field], validationMessage(fe))
	}
	return out
}

// fieldName lowercases the struct field into the snake_case name the
// frontend expects, using the json-ish namespace validator reports.
func fieldName(fe validator.FieldError) string {
	// Namespace looks like "RegisterSchoolRequest.SchoolEmail"
	name := fe.StructField()
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("Must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("Must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "eqfield":
		return "Confirmation does not match"
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("Failed %s validation", fe.Tag())
	}
}
