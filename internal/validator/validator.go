package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/framelab/annotation-service/internal/models"
)

var framePattern = regexp.MustCompile(`^\d+(-\d+)?$`)

// ValidationError represents a single failed rule
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(ve))
	for _, e := range ve {
		parts = append(parts, fmt.Sprintf("%s %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

// Validator wraps go-playground/validator with the annotation rules registered.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	v.registerRules()
	return v
}

// Validate checks struct tags and returns ValidationErrors, or nil.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// Var validates a single value against a tag.
func (v *Validator) Var(field string, value interface{}, tag string) error {
	if err := v.validate.Var(value, tag); err != nil {
		ve := ToValidationErrors(err)
		for i := range ve {
			ve[i].Field = field
		}
		return ve
	}
	return nil
}

// RegisterValidation exposes custom rule registration.
func (v *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return v.validate.RegisterValidation(tag, fn)
}

func (v *Validator) registerRules() {
	// Category codes "0" through "9"
	v.validate.RegisterValidation("category_code", func(fl validator.FieldLevel) bool {
		return models.IsValidCategory(fl.Field().String())
	})

	v.validate.RegisterValidation("categorization_key", func(fl validator.FieldLevel) bool {
		_, err := models.ParseFrameKey(fl.Field().String())
		return err == nil
	})

	// Single frame or inclusive range, bounds checked later against the unit
	v.validate.RegisterValidation("frame_range", func(fl validator.FieldLevel) bool {
		return framePattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})

	v.validate.RegisterValidation("unit_kind", func(fl validator.FieldLevel) bool {
		return models.UnitKind(fl.Field().String()).Valid()
	})

	v.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		role := models.UserRole(fl.Field().String())
		return role == models.RoleCoder || role == models.RoleAdmin
	})

	v.validate.RegisterStructValidation(func(sl validator.StructLevel) {
		sel := sl.Current().Interface().(models.UnitSelector)
		if _, ok := sel.Unit(); !ok {
			sl.ReportError(sel.GroupID, "unit", "Unit", "unit_selection", "")
		}
	}, models.UnitSelector{})
}

// ToValidationErrors converts validator errors into ValidationErrors.
func ToValidationErrors(err error) ValidationErrors {
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return ve
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationErrors{{Field: "request", Message: err.Error(), Rule: "invalid"}}
	}

	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Message: errorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return out
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "category_code":
		return "must be a category code between 0 and 9"
	case "categorization_key":
		return "must look like frame_<id> or frame_<id>_<left|right>"
	case "frame_range":
		return "must be a frame number or a range like 10-20"
	case "unit_kind":
		return "must be group, conversation or segment"
	case "user_role":
		return "must be coder or admin"
	case "unit_selection":
		return "exactly one of group_id, conversation_id or segment_id is required"
	default:
		return fmt.Sprintf("validation failed for rule '%s'", fe.Tag())
	}
}
