package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Request types may override individual rule messages, keyed
// "<json field>.<rule>".
type withMessages interface {
	Messages() map[string]string
}

// BindJSON binds and validates the request body. On failure it writes
// the 422 validation envelope and returns false; the handler body must
// not run.
func BindJSON(ctx *gin.Context, out interface{}) bool {
	err := ctx.ShouldBindJSON(out)

	if err == nil {
		return true
	}

	var validatorErrs validator.ValidationErrors

	if errors.As(err, &validatorErrs) {
		fields, errs := collectFieldErrors(out, validatorErrs)

		message := "The given data was invalid."
		if len(fields) > 0 {
			message = errs[fields[0]][0]
		}

		RespondValidation(ctx, message, errs)
		return false
	}

	var typeErr *json.UnmarshalTypeError

	if errors.As(err, &typeErr) {
		field := jsonFieldName(out, typeErr.Field)

		if field == "" {
			field = strings.TrimSpace(typeErr.Field)
		}

		msg := fmt.Sprintf("The %s field is invalid.", fieldLabel(field))

		RespondValidation(ctx, msg, map[string][]string{field: {msg}})
		return false
	}

	RespondValidation(ctx, "Invalid request body.", map[string][]string{})
	return false
}

func collectFieldErrors(out interface{}, verrs validator.ValidationErrors) ([]string, map[string][]string) {
	overrides := map[string]string{}

	if m, ok := out.(withMessages); ok {
		overrides = m.Messages()
	} else if m, ok := derefValue(out).(withMessages); ok {
		overrides = m.Messages()
	}

	order := make([]string, 0, len(verrs))
	errs := make(map[string][]string, len(verrs))

	for _, fe := range verrs {
		field := jsonFieldName(out, fe.StructField())

		if field == "" {
			field = strings.ToLower(fe.Field())
		}

		msg, ok := overrides[field+"."+fe.Tag()]

		if !ok {
			msg = defaultMessage(field, fe.Tag(), fe.Param())
		}

		if _, seen := errs[field]; !seen {
			order = append(order, field)
		}

		errs[field] = append(errs[field], msg)
	}

	return order, errs
}

func derefValue(v interface{}) interface{} {
	rv := reflect.ValueOf(v)

	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}

	if !rv.IsValid() {
		return nil
	}

	return rv.Interface()
}

func jsonFieldName(out interface{}, structField string) string {
	t := reflect.TypeOf(out)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		return ""
	}

	sf, ok := t.FieldByName(structField)

	if !ok {
		return ""
	}

	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")

	if name == "" || name == "-" {
		return sf.Name
	}

	return name
}

// fieldLabel turns a json field name into the human form used in
// default messages ("password_confirmation" -> "password confirmation").
func fieldLabel(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func defaultMessage(field, rule, param string) string {
	label := fieldLabel(field)

	switch rule {
	case "required":
		return fmt.Sprintf("The %s field is required.", label)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", label)
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", label, param)
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", label, param)
	case "gte":
		return fmt.Sprintf("The %s must be at least %s.", label, param)
	case "eqfield":
		return fmt.Sprintf("The %s does not match.", label)
	default:
		return fmt.Sprintf("The %s field is invalid.", label)
	}
}
