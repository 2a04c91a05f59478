package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/energy-o-meter/internal/features"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidations installs the catalogue validators on gin's validator
// engine and reports field errors under their JSON names. Safe to call more
// than once.
func RegisterValidations() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("campus_building", func(fl validator.FieldLevel) bool {
			return features.IsCampusBuilding(fl.Field().String())
		})
		_ = v.RegisterValidation("building_category", func(fl validator.FieldLevel) bool {
			return features.IsCategory(fl.Field().String())
		})
	})
}

// Validate checks r with the same rules gin applies on binding
func (r *PredictRequest) Validate() error {
	RegisterValidations()
	return binding.Validator.ValidateStruct(r)
}

// FieldErrors turns a binding error into one message per offending field.
// Errors that cannot be tied to a field are reported under "body".
func FieldErrors(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			out[fe.Field()] = fieldMessage(fe)
		}
		return out
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		out[typeErr.Field] = "must be " + kindName(typeErr.Type)
		return out
	}

	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &syntaxErr):
		out["body"] = fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)
	case errors.Is(err, io.EOF):
		out["body"] = "request body is empty"
	default:
		out["body"] = err.Error()
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "max":
		if b, ok := features.BoundFor(fe.Field()); ok {
			return fmt.Sprintf("must be between %g and %g", b.Min, b.Max)
		}
		return fmt.Sprintf("must satisfy %s=%s", fe.Tag(), fe.Param())
	case "oneof":
		return "must be 0 or 1"
	case "campus_building":
		return "is not a known campus building"
	case "building_category":
		return fmt.Sprintf("must be one of: %s", strings.Join(features.Categories, ", "))
	case "datetime":
		if fe.Param() == TimeLayout {
			return "must be a time formatted HH:MM"
		}
		return "must be a date formatted YYYY-MM-DD"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

func kindName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.String:
		return "a string"
	default:
		return "a " + t.String()
	}
}
