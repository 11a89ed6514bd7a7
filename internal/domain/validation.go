package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxExtraSize caps the serialized size of the free-form fields of an expense.
const MaxExtraSize = 10240 // 10KB

// Amount bounds. Anything outside them is rejected before any arithmetic runs on it.
const (
	MaxAmountLength = 64 // characters of the submitted number
	MaxAmountDigits = 40 // significant digits
	MaxAmountScale  = 20 // digits after the decimal point
	MaxAmountPower  = 20 // positive exponent of the coefficient
)

// NewExpense validates an open map of submitted fields and builds an Expense from it.
// Required keys are consumed; every other key is kept in Extra.
func NewExpense(fields map[string]any) (*Expense, error) {
	if fields == nil {
		return nil, ErrNotAnObject
	}

	var missing []string
	for _, key := range []string{FieldPayee, FieldAmount, FieldDate} {
		if !present(fields[key]) {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrExpenseIncomplete, strings.Join(missing, ", "))
	}

	payee, err := ValidatePayee(fields[FieldPayee])
	if err != nil {
		return nil, invalid(err)
	}

	amount, err := ParseAmount(fields[FieldAmount])
	if err != nil {
		return nil, invalid(err)
	}

	if err := ValidateAmount(amount); err != nil {
		return nil, invalid(err)
	}

	rawDate, ok := fields[FieldDate].(string)
	if !ok {
		return nil, invalid(fmt.Errorf("%w: date must be a string", ErrInvalidDate))
	}

	date, err := ParseDate(rawDate)
	if err != nil {
		return nil, invalid(err)
	}

	if _, ok := fields[FieldID]; ok {
		return nil, invalid(ErrReservedField)
	}

	extra := make(map[string]any, len(fields))
	for k, v := range fields {
		switch k {
		case FieldPayee, FieldAmount, FieldDate:
			continue
		}
		extra[k] = v
	}

	if err := ValidateExtra(extra); err != nil {
		return nil, invalid(err)
	}

	return &Expense{
		Payee:  payee,
		Amount: amount,
		Date:   date,
		Extra:  extra,
	}, nil
}

// ValidatePayee checks the payee is a non-blank string and returns it trimmed.
func ValidatePayee(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", ErrInvalidPayee
	}

	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsRune(s, 0) {
		return "", ErrInvalidPayee
	}

	return s, nil
}

// ParseAmount converts a decoded JSON number into a decimal.
// Numbers too long, too precise or too large are rejected with ErrInvalidAmount.
func ParseAmount(v any) (decimal.Decimal, error) {
	var d decimal.Decimal

	switch n := v.(type) {
	case json.Number:
		if len(n) > MaxAmountLength {
			return decimal.Zero, fmt.Errorf("%w: longer than %d characters", ErrInvalidAmount, MaxAmountLength)
		}
		parsed, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidAmount, n)
		}
		d = parsed
	case float64:
		d = decimal.NewFromFloat(n)
	case int:
		d = decimal.NewFromInt(int64(n))
	case int64:
		d = decimal.NewFromInt(n)
	case decimal.Decimal:
		d = n
	default:
		return decimal.Zero, fmt.Errorf("%w: got %T", ErrInvalidAmount, v)
	}

	if err := checkAmountRange(d); err != nil {
		return decimal.Zero, err
	}

	return d, nil
}

// checkAmountRange looks only at the exponent and coefficient, never rescaling d.
func checkAmountRange(d decimal.Decimal) error {
	exp := d.Exponent()
	if exp < -MaxAmountScale || exp > MaxAmountPower {
		return fmt.Errorf("%w: out of range", ErrInvalidAmount)
	}

	digits := len(d.Coefficient().String())
	if d.Sign() < 0 {
		digits--
	}
	if digits > MaxAmountDigits || digits+int(exp) > MaxAmountDigits {
		return fmt.Errorf("%w: too many digits", ErrInvalidAmount)
	}

	return nil
}

// ValidateAmount validates the expense amount
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	return nil
}

// ValidateExtra validates the size of the free-form fields
func ValidateExtra(extra map[string]any) error {
	if len(extra) == 0 {
		return nil
	}

	if containsNUL(extra) {
		return ErrInvalidExtra
	}

	encoded, err := json.Marshal(extra)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrExtraTooLarge, err)
	}

	if len(encoded) > MaxExtraSize {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d bytes", ErrExtraTooLarge, len(encoded), MaxExtraSize)
	}

	return nil
}

// containsNUL reports whether any key or string value holds a NUL character.
// Postgres text and jsonb cannot store them.
func containsNUL(v any) bool {
	switch t := v.(type) {
	case string:
		return strings.ContainsRune(t, 0)
	case map[string]any:
		for k, item := range t {
			if strings.ContainsRune(k, 0) || containsNUL(item) {
				return true
			}
		}
	case []any:
		for _, item := range t {
			if containsNUL(item) {
				return true
			}
		}
	}

	return false
}

func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	default:
		return true
	}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidExpense, err)
}
