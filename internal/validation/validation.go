// Package validation validates submitted forms and produces per-field messages.
package validation

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"civichub/internal/models"

	"github.com/go-playground/validator/v10"
)

// Errors maps a form field name to the message shown next to it.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Has reports whether field failed validation.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

const bcryptMaxBytes = 72

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report errors under the HTML form field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, "between", func(fl validator.FieldLevel) bool {
		lo, hi, ok := parseBetween(fl.Param())
		if !ok {
			return false
		}
		n := utf8.RuneCountInString(fl.Field().String())
		return n >= lo && n <= hi
	})
	mustRegister(v, "intmin", func(fl validator.FieldLevel) bool {
		min, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		n, err := strconv.ParseInt(strings.TrimSpace(fl.Field().String()), 10, 32)
		return err == nil && int(n) >= min
	})
	mustRegister(v, "category", func(fl validator.FieldLevel) bool {
		return models.IsValidCategory(fl.Field().String())
	})
	mustRegister(v, "bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= bcryptMaxBytes
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

func parseBetween(param string) (int, int, bool) {
	lo, hi, found := strings.Cut(param, ":")
	if !found {
		return 0, 0, false
	}
	l, err1 := strconv.Atoi(lo)
	h, err2 := strconv.Atoi(hi)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return l, h, true
}

// Struct validates form against its validate tags. Each field reports only
// its first failing rule; failures across fields accumulate.
func Struct(form any) Errors {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return Errors{"form": err.Error()}
	}

	errs := Errors{}
	for _, fe := range verrs {
		if _, seen := errs[fe.Field()]; !seen {
			errs[fe.Field()] = message(fe)
		}
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "min":
		return fmt.Sprintf("Field must be at least %s characters long.", fe.Param())
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
	case "between":
		lo, hi, _ := parseBetween(fe.Param())
		return fmt.Sprintf("Field must be between %d and %d characters long.", lo, hi)
	case "eqfield":
		return fmt.Sprintf("Field must be equal to %s.", strings.ToLower(fe.Param()))
	case "number":
		return "Not a valid integer value."
	case "intmin":
		if _, err := strconv.ParseInt(fmt.Sprint(fe.Value()), 10, 32); err != nil {
			return "Not a valid integer value."
		}
		return fmt.Sprintf("Number must be at least %s.", fe.Param())
	case "category":
		return "Not a valid choice."
	case "bcryptlen":
		return fmt.Sprintf("Field cannot be longer than %d bytes.", bcryptMaxBytes)
	default:
		return "Invalid value."
	}
}
