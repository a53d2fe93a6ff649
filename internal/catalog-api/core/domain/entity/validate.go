package entity

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// validate is shared by every input type; validator caches struct metadata
// per instance.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// validateStruct runs the validate tags of s and reports the first violation
// as a *ValidationError named after the json field path, e.g.
// "items[0].quantity".
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	_, path, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		path = fe.Field()
	}
	return NewValidationError(path, describe(fe))
}

// validateVar checks a single value against tag. It serves the limits that
// come from configuration and so cannot live in a struct tag.
func validateVar(field string, value any, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	return NewValidationError(field, describe(fieldErrs[0]))
}

func describe(fe validator.FieldError) string {
	collection := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Map
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "min":
		switch {
		case collection:
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		case fe.Kind() == reflect.String && fe.Param() == "1":
			return "must not be empty"
		case fe.Kind() == reflect.String:
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		switch {
		case collection:
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		case fe.Kind() == reflect.String:
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		if fe.Param() == "0" {
			return "must be non-negative"
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("invalid value %q, must be one of: %s", fmt.Sprint(fe.Value()), strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}
