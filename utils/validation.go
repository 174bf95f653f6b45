package utils

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ReasonInvalidField marks InvalidInput details that carry per-field messages
const ReasonInvalidField = "invalid_field"

// FieldErrors maps a request field to what is wrong with it
type FieldErrors map[string]string

// Err returns nil when there are no field errors
func (f FieldErrors) Err(message string) error {
	if len(f) == 0 {
		return nil
	}
	return InvalidInputError(message, nil).WithDetails(map[string]any{
		"reason": ReasonInvalidField,
		"fields": f,
	})
}

func init() {
	// Report fields under their wire names instead of the Go field names
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(wireName)
	}
}

func wireName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return fld.Name
}

// ValidateStruct runs the `binding` rules of obj, the same ones gin applies
// in ShouldBind, so that services called without a request enforce them too
func ValidateStruct(obj interface{}) error {
	if err := binding.Validator.ValidateStruct(obj); err != nil {
		return BindingError(err)
	}
	return nil
}

// BindingError turns a gin binding error into an AppError. Rule violations
// become InvalidInput with per-field details; anything else (malformed JSON,
// a non-numeric query value) is a BadRequest.
func BindingError(err error) *AppError {
	if appErr := GetAppError(err); appErr != nil {
		return appErr
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return BadRequestError("Invalid request", err).WithDetails(err.Error())
	}

	fields := FieldErrors{}
	for _, fe := range verrs {
		fields[fe.Field()] = ruleMessage(fe)
	}
	return InvalidInputError("Invalid request", err).WithDetails(map[string]any{
		"reason": ReasonInvalidField,
		"fields": fields,
	})
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte", "min":
		return "must be at least " + fe.Param()
	case "lte", "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + strings.Join(strings.Fields(fe.Param()), ", ")
	default:
		return "is invalid"
	}
}
