package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// UseJSONNames makes v report fields by their json names, so errors read
// "position is required" rather than naming Go struct fields.
func UseJSONNames(v *validator.Validate) {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// NewValidator checks request structs against their binding tags, the same
// rules gin applies on the server.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.SetTagName("binding")
	UseJSONNames(v)
	return v
}

// ValidationMessage turns a validation or decoding error into a short
// message naming the offending fields.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	var required, other []string
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			required = append(required, fe.Field())
		case "oneof":
			other = append(other, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		case "email":
			other = append(other, fe.Field()+" must be a valid email")
		case "min":
			other = append(other, fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param()))
		default:
			other = append(other, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	var parts []string
	switch len(required) {
	case 0:
	case 1:
		parts = append(parts, required[0]+" is required")
	default:
		parts = append(parts, strings.Join(required[:len(required)-1], ", ")+" and "+required[len(required)-1]+" are required")
	}
	parts = append(parts, other...)
	return strings.Join(parts, "; ")
}
