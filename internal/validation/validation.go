// Package validation holds the declarative rule set every request passes
// before its handler runs.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// ErrValidationFailed is matched by every *Errors value.
var ErrValidationFailed = errors.New("validation failed")

// ErrValidatorInit is returned when a custom rule cannot be registered.
var ErrValidatorInit = errors.New("validator initialization failed")

var (
	walletNamePattern = regexp.MustCompile(`^[a-zA-ZÀ-ÿ0-9\s\-_#()]+$`)
	personNamePattern = regexp.MustCompile(`^[a-zA-ZÀ-ÿ\s]+$`)
)

const passwordSymbols = "@$!%*?&"

// Errors reports every failed rule, keyed by snake_case field name.
type Errors struct {
	Fields map[string][]string
}

func (e *Errors) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], "; "))
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, ", ")
}

func (e *Errors) Is(target error) bool {
	return target == ErrValidationFailed
}

func (e *Errors) add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// Validator runs the registered rules. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

var _ usecase.Validator = (*Validator)(nil)

// New builds a Validator with the wallet rule set registered.
func New() (*Validator, error) {
	v := &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}

	// No custom type func for decimal.Decimal: the decimal rules read the
	// field directly.
	rules := map[string]validator.Func{
		"positive_decimal": positiveDecimal,
		"max_decimals":     maxDecimals,
		"currency":         currency,
		"wallet_status":    walletStatus,
		"wallet_name":      matches(walletNamePattern),
		"person_name":      matches(personNamePattern),
		"strong_password":  strongPassword,
	}
	for tag, fn := range rules {
		if err := v.validate.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("%w: failed to register '%s': %w", ErrValidatorInit, tag, err)
		}
	}

	v.validate.RegisterStructValidation(v.transactionPeriod, usecase.GetUserTransactionsInput{})

	return v, nil
}

// MustNew is New for wiring code that cannot continue without a validator.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks in against its tags. It returns nil or an *Errors.
func (v *Validator) Validate(in any) error {
	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	out := &Errors{}
	for _, fe := range fieldErrors {
		field := toSnakeCase(fe.Field())
		out.add(field, formatFieldError(field, fe))
	}
	return out
}

func (v *Validator) transactionPeriod(sl validator.StructLevel) {
	in := sl.Current().Interface().(usecase.GetUserTransactionsInput)
	now := v.now()

	if in.StartDate != nil && in.StartDate.After(now) {
		sl.ReportError(in.StartDate, "StartDate", "StartDate", "not_future", "")
	}
	if in.EndDate != nil && in.EndDate.After(now) {
		sl.ReportError(in.EndDate, "EndDate", "EndDate", "not_future", "")
	}
	if in.StartDate != nil && in.EndDate != nil && in.StartDate.After(*in.EndDate) {
		sl.ReportError(in.StartDate, "StartDate", "StartDate", "before_end", "")
	}
}

func positiveDecimal(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(decimal.Decimal)
	if !ok {
		return false
	}
	return value.IsPositive()
}

func maxDecimals(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(decimal.Decimal)
	if !ok {
		return false
	}
	places, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return value.Equal(value.Truncate(int32(places)))
}

func currency(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(domain.Currency)
	return ok && value.IsValid()
}

func walletStatus(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(domain.WalletStatus)
	return ok && value.IsValid()
}

func matches(pattern *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	}
}

func strongPassword(fl validator.FieldLevel) bool {
	var lower, upper, digit, symbol bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

var fieldErrorFormatters = map[string]func(field, param string) string{
	"required": func(field, _ string) string {
		return fmt.Sprintf("'%s' is required", field)
	},
	"uuid": func(field, _ string) string {
		return fmt.Sprintf("'%s' must be a valid UUID", field)
	},
	"nefield": func(field, param string) string {
		return fmt.Sprintf("'%s' must differ from '%s'", field, toSnakeCase(param))
	},
	"min": func(field, param string) string {
		return fmt.Sprintf("'%s' must be at least %s characters", field, param)
	},
	"max": func(field, param string) string {
		return fmt.Sprintf("'%s' must be at most %s characters", field, param)
	},
	"gte": func(field, param string) string {
		return fmt.Sprintf("'%s' must be at least %s", field, param)
	},
	"lte": func(field, param string) string {
		return fmt.Sprintf("'%s' must be at most %s", field, param)
	},
	"email": func(field, _ string) string {
		return fmt.Sprintf("'%s' must be a valid email", field)
	},
	"positive_decimal": func(field, _ string) string {
		return fmt.Sprintf("'%s' must be greater than zero", field)
	},
	"max_decimals": func(field, param string) string {
		return fmt.Sprintf("'%s' must have at most %s decimal places", field, param)
	},
	"currency": func(field, _ string) string {
		return fmt.Sprintf("'%s' must be one of %s", field, currencyNames())
	},
	"wallet_status": func(field, _ string) string {
		return fmt.Sprintf("'%s' must be Active or Inactive", field)
	},
	"wallet_name": func(field, _ string) string {
		return fmt.Sprintf("'%s' may contain only letters, digits, spaces and - _ # ( )", field)
	},
	"person_name": func(field, _ string) string {
		return fmt.Sprintf("'%s' may contain only letters and spaces", field)
	},
	"strong_password": func(field, _ string) string {
		return fmt.Sprintf("'%s' must contain lower and upper case letters, a digit and one of %s", field, passwordSymbols)
	},
	"not_future": func(field, _ string) string {
		return fmt.Sprintf("'%s' cannot be in the future", field)
	},
	"before_end": func(field, _ string) string {
		return fmt.Sprintf("'%s' must not be after 'end_date'", field)
	},
}

func formatFieldError(field string, fe validator.FieldError) string {
	if formatter, ok := fieldErrorFormatters[fe.Tag()]; ok {
		return formatter(field, fe.Param())
	}
	return fmt.Sprintf("'%s' failed '%s' check", field, fe.Tag())
}

func currencyNames() string {
	names := make([]string, 0, len(domain.Currencies()))
	for _, c := range domain.Currencies() {
		names = append(names, c.String())
	}
	return strings.Join(names, ", ")
}

// toSnakeCase converts a PascalCase or camelCase string to snake_case.
// Runs of capitals stay together, so WalletID becomes wallet_id.
func toSnakeCase(s string) string {
	runes := []rune(s)
	var result strings.Builder

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
				result.WriteByte('_')
			}
		}
		result.WriteRune(unicode.ToLower(r))
	}

	return result.String()
}
