// Package forms turns submitted form structs into ordered field errors.
package forms

import (
	"errors"
	"fmt"
	"html"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// GeneralField tags errors that do not belong to a single input.
const GeneralField = "general"

// FieldError pairs a form field name with a user facing message.
type FieldError struct {
	Field   string
	Message string
}

// Errors is the ordered result of validating a form. Empty means valid.
type Errors []FieldError

// Add appends an error for field.
func (e *Errors) Add(field, message string) {
	*e = append(*e, FieldError{Field: field, Message: message})
}

// Has reports whether field has at least one error.
func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Get returns the first message recorded for field.
func (e Errors) Get(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// Valid reports whether no errors were recorded.
func (e Errors) Valid() bool {
	return len(e) == 0
}

// Page is the view model shared by every form page.
type Page struct {
	Values any
	Errors Errors
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("maxbytes", maxBytes)
	return v
}

// maxBytes bounds the encoded length of a string, unlike max which counts runes.
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// Validate checks form against its `validate` tags. Errors are reported
// under the `form` tag name, labelled with the `label` tag, one per field.
func Validate(form any) Errors {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return Errors{{Field: GeneralField, Message: err.Error()}}
	}
	typ := reflect.TypeOf(form)
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	out := make(Errors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), message(fe, label(typ, fe)))
	}
	return out
}

// Escape HTML-escapes user supplied text before it is stored.
func Escape(s string) string {
	return html.EscapeString(s)
}

func label(typ reflect.Type, fe validator.FieldError) string {
	if field, ok := typ.FieldByName(fe.StructField()); ok {
		if l := field.Tag.Get("label"); l != "" {
			return l
		}
	}
	return fe.Field()
}

func message(fe validator.FieldError, label string) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s must be specified.", label)
	case "alpha":
		return fmt.Sprintf("%s must only contain letters.", label)
	case "alphanum":
		return fmt.Sprintf("%s must only contain letters and numbers.", label)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	case "maxbytes":
		return fmt.Sprintf("%s must be at most %s bytes long.", label, fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s does not match.", label)
	default:
		return fmt.Sprintf("%s is invalid.", label)
	}
}
