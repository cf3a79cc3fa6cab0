// Package validation checks records and imported documents against the
// field rules declared in their validate struct tags.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/caterdesk/caterdesk/types"
	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// instance returns the shared validator, configured on first use
func instance() *validator.Validate {
	once.Do(func() {
		v := validator.New()

		// Report fields by their JSON names, which is what users see in files.
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
			if m, ok := field.Interface().(types.Money); ok {
				f, _ := m.Float64()
				return f
			}
			return nil
		}, types.Money{})

		_ = v.RegisterValidation("eventdate", func(fl validator.FieldLevel) bool {
			_, err := types.ParseEventDate(fl.Field().String(), time.Local)
			return err == nil
		})

		_ = v.RegisterValidation("recordlist", isRecordList)
		_ = v.RegisterValidation("jsonobject", isJSONObject)

		validate = v
	})
	return validate
}

// Error carries every problem found in one value
type Error struct {
	Problems []string
}

// Error implements the error interface
func (e *Error) Error() string {
	return "validation failed: " + strings.Join(e.Problems, "; ")
}

// Struct validates v and returns an *Error listing each failed rule
func Struct(v interface{}) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	return &Error{Problems: Problems(fieldErrs)}
}

// Problems converts validator errors to readable messages
func Problems(errs validator.ValidationErrors) []string {
	out := make([]string, 0, len(errs))
	for _, fe := range errs {
		out = append(out, fmt.Sprintf("%s %s", fieldPath(fe), describe(fe)))
	}
	return out
}

// fieldPath drops the root struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "gte":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "eventdate":
		return "must be a date like 2006-01-02T15:04"
	case "recordlist":
		return "must be an array of objects"
	case "jsonobject":
		return "must be an object"
	default:
		return fmt.Sprintf("failed the %q rule", fe.Tag())
	}
}

// Record decodes rec as the typed entity of collection c and validates it
func Record(c types.Collection, rec types.Record) error {
	switch c {
	case types.Dishes:
		return decodeAndValidate[types.Dish](rec)
	case types.Clients:
		return decodeAndValidate[types.Client](rec)
	case types.Events:
		return decodeAndValidate[types.Event](rec)
	default:
		return fmt.Errorf("unknown collection %q", c)
	}
}

func decodeAndValidate[T any](rec types.Record) error {
	v, err := types.DecodeRecord[T](rec)
	if err != nil {
		return &Error{Problems: []string{err.Error()}}
	}
	return Struct(v)
}

// isRecordList accepts a decoded JSON array whose elements are all objects
func isRecordList(fl validator.FieldLevel) bool {
	items, ok := fl.Field().Interface().([]interface{})
	if !ok {
		return false
	}
	for _, item := range items {
		if _, ok := item.(map[string]interface{}); !ok {
			return false
		}
	}
	return true
}

// isJSONObject accepts a decoded JSON object
func isJSONObject(fl validator.FieldLevel) bool {
	_, ok := fl.Field().Interface().(map[string]interface{})
	return ok
}
