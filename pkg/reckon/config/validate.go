package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// identifierPattern matches the variable names the formula lexer accepts.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z0-9_]+)*$`)

// configValidate is shared; validator caches struct metadata per instance.
var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	_ = configValidate.RegisterValidation("identifier", validateIdentifier)
	configValidate.RegisterStructValidation(validateVariable, VariableConfig{})
}

func validateIdentifier(fl validator.FieldLevel) bool {
	return identifierPattern.MatchString(fl.Field().String())
}

// validateVariable checks the fields whose meaning depends on Kind.
func validateVariable(sl validator.StructLevel) {
	v := sl.Current().Interface().(VariableConfig)

	switch v.Kind {
	case KindDelegate, KindLazy:
		if strings.TrimSpace(v.Formula) == "" {
			sl.ReportError(v.Formula, "Formula", "formula", "required_for_kind", v.Kind)
		}
	default:
		if v.Formula != "" {
			sl.ReportError(v.Formula, "Formula", "formula", "excluded_for_kind", v.Kind)
		}
	}

	if len(v.Sum) > 0 && v.Kind != KindAggregate {
		sl.ReportError(v.Sum, "Sum", "sum", "excluded_for_kind", v.Kind)
	}
	if v.ThreadSafe && v.Kind != KindLazy {
		sl.ReportError(v.ThreadSafe, "ThreadSafe", "thread_safe", "excluded_for_kind", v.Kind)
	}
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	err := configValidate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "identifier":
		return fmt.Sprintf("%s: %q is not a valid name", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s: %q must be one of [%s]", field, fe.Value(), fe.Param())
	case "unique":
		return fmt.Sprintf("%s: duplicate %s", field, strings.ToLower(fe.Param()))
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "required_for_kind":
		return fmt.Sprintf("%s is required for kind %s", field, fe.Param())
	case "excluded_for_kind":
		return fmt.Sprintf("%s is not allowed for kind %s", field, fe.Param())
	default:
		return fe.Error()
	}
}
