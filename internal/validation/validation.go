// Package validation checks inbound estimate inputs, settings and leads
// before they reach the pricing engine or the store. Failures are reported
// per field, keyed by the dotted JSON path of the offending value.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Simplici0/quickestimate/internal/pricing"
)

// Errors is the structured "invalid input shape" diagnostic.
type Errors struct {
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

func newErrors() *Errors {
	return &Errors{FormErrors: []string{}, FieldErrors: map[string][]string{}}
}

func (e *Errors) Error() string {
	parts := append([]string{}, e.FormErrors...)
	fields := make([]string, 0, len(e.FieldErrors))
	for f := range e.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(e.FieldErrors[f], "; "))
	}
	return "validation: " + strings.Join(parts, ", ")
}

func (e *Errors) addField(path, msg string) {
	e.FieldErrors[path] = append(e.FieldErrors[path], msg)
}

func (e *Errors) empty() bool {
	return len(e.FormErrors) == 0 && len(e.FieldErrors) == 0
}

// merge copies other into e with every field path prefixed.
func (e *Errors) merge(prefix string, other *Errors) {
	for _, msg := range other.FormErrors {
		e.addField(prefix, msg)
	}
	for path, msgs := range other.FieldErrors {
		for _, msg := range msgs {
			e.addField(prefix+"."+path, msg)
		}
	}
}

// AsErrors extracts validation diagnostics from err.
func AsErrors(err error) (*Errors, bool) {
	var verrs *Errors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}

// Number is a finite float that also accepts numeric strings, the way
// HTML forms post values. An empty string decodes as 0.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*n = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("expected a finite number, got %s", data)
	}
	*n = Number(f)
	return nil
}

func (n *Number) float() *float64 {
	if n == nil {
		return nil
	}
	f := float64(*n)
	return &f
}

func (n *Number) value() float64 {
	if n == nil {
		return 0
	}
	return float64(*n)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("projecttype", func(fl validator.FieldLevel) bool {
		return pricing.ProjectType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("complexity", func(fl validator.FieldLevel) bool {
		return pricing.ComplexityLevel(fl.Field().String()).Valid()
	})
	return v
}

// check runs struct validation on payload and decodes failures into Errors.
func check(payload any) *Errors {
	verrs := newErrors()
	err := validate.Struct(payload)
	if err == nil {
		return verrs
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verrs.FormErrors = append(verrs.FormErrors, err.Error())
		return verrs
	}
	for _, fe := range fieldErrs {
		verrs.addField(fieldPath(fe.Namespace()), message(fe))
	}
	return verrs
}

// fieldPath drops the root struct name validator puts in front of a namespace.
func fieldPath(namespace string) string {
	_, rest, ok := strings.Cut(namespace, ".")
	if !ok {
		return namespace
	}
	return rest
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "gt":
		return "Number must be greater than " + fe.Param()
	case "gte":
		return "Number must be greater than or equal to " + fe.Param()
	case "min":
		return fmt.Sprintf("String must contain at least %s character(s)", fe.Param())
	case "max":
		return fmt.Sprintf("String must contain at most %s character(s)", fe.Param())
	case "email":
		return "Invalid email"
	case "projecttype":
		return "Invalid enum value. Expected " + joinQuoted(pricing.ProjectTypes)
	case "complexity":
		return "Invalid enum value. Expected " + joinQuoted(pricing.ComplexityLevels)
	default:
		return "Invalid value"
	}
}

func joinQuoted[T ~string](values []T) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + string(v) + "'"
	}
	return strings.Join(quoted, " | ")
}

// decode unmarshals JSON into payload, reporting syntax and type problems
// as Errors.
func decode(data []byte, payload any) *Errors {
	verrs := newErrors()
	err := json.Unmarshal(data, payload)
	if err == nil {
		return verrs
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		verrs.addField(typeErr.Field, "Expected "+typeErr.Type.String()+", received "+typeErr.Value)
		return verrs
	}
	verrs.FormErrors = append(verrs.FormErrors, "Invalid JSON: "+err.Error())
	return verrs
}
