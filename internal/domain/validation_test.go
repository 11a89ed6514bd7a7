package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func validFields() map[string]any {
	return map[string]any{
		"payee":  "Starbucks",
		"amount": json.Number("5.75"),
		"date":   "2017-06-10",
	}
}

func TestNewExpense(t *testing.T) {
	t.Parallel()

	t.Run("valid expense", func(t *testing.T) {
		e, err := NewExpense(validFields())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if e.Payee != "Starbucks" {
			t.Fatalf("expected payee Starbucks, got %q", e.Payee)
		}
		if !e.Amount.Equal(decimal.RequireFromString("5.75")) {
			t.Fatalf("expected amount 5.75, got %s", e.Amount)
		}
		if e.Date.String() != "2017-06-10" {
			t.Fatalf("expected date 2017-06-10, got %s", e.Date)
		}
		if len(e.Extra) != 0 {
			t.Fatalf("expected no extra fields, got %v", e.Extra)
		}
	})

	t.Run("nil map is not an object", func(t *testing.T) {
		if _, err := NewExpense(nil); !errors.Is(err, ErrNotAnObject) {
			t.Fatalf("expected ErrNotAnObject, got %v", err)
		}
	})

	t.Run("missing everything", func(t *testing.T) {
		_, err := NewExpense(map[string]any{"some": "data"})
		if !errors.Is(err, ErrExpenseIncomplete) {
			t.Fatalf("expected ErrExpenseIncomplete, got %v", err)
		}
		if !strings.HasSuffix(err.Error(), "missing payee, amount, date") {
			t.Fatalf("expected every missing field listed, got %q", err)
		}
	})

	t.Run("blank payee counts as missing", func(t *testing.T) {
		fields := validFields()
		fields["payee"] = "   "
		_, err := NewExpense(fields)
		if !errors.Is(err, ErrExpenseIncomplete) {
			t.Fatalf("expected ErrExpenseIncomplete, got %v", err)
		}
	})

	t.Run("null amount counts as missing", func(t *testing.T) {
		fields := validFields()
		fields["amount"] = nil
		_, err := NewExpense(fields)
		if !errors.Is(err, ErrExpenseIncomplete) {
			t.Fatalf("expected ErrExpenseIncomplete, got %v", err)
		}
	})

	t.Run("extra fields are preserved", func(t *testing.T) {
		fields := validFields()
		fields["category"] = "coffee"
		fields["tags"] = []any{"work"}
		e, err := NewExpense(fields)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if e.Extra["category"] != "coffee" {
			t.Fatalf("expected category to be kept, got %v", e.Extra)
		}
		if _, ok := e.Extra["payee"]; ok {
			t.Fatalf("required fields must not leak into extra")
		}
	})
}

func TestNewExpenseInvalidFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		key    string
		value  any
		target error
	}{
		{"payee not a string", "payee", 42, ErrInvalidPayee},
		{"zero amount", "amount", json.Number("0"), ErrInvalidAmount},
		{"negative amount", "amount", json.Number("-3.50"), ErrInvalidAmount},
		{"amount as string", "amount", "5.75", ErrInvalidAmount},
		{"amount as bool", "amount", true, ErrInvalidAmount},
		{"date wrong layout", "date", "06/10/2017", ErrInvalidDate},
		{"date out of range", "date", "2017-02-30", ErrInvalidDate},
		{"date not a string", "date", json.Number("20170610"), ErrInvalidDate},
		{"extra too large", "notes", strings.Repeat("x", MaxExtraSize), ErrExtraTooLarge},
		{"huge exponent", "amount", json.Number("1e100000000"), ErrInvalidAmount},
		{"exponent just out of range", "amount", json.Number("1e21"), ErrInvalidAmount},
		{"too many decimals", "amount", json.Number("0.000000000000000000001"), ErrInvalidAmount},
		{"too many digits", "amount", json.Number(strings.Repeat("9", MaxAmountDigits+1)), ErrInvalidAmount},
		{"number too long", "amount", json.Number("1." + strings.Repeat("0", MaxAmountLength)), ErrInvalidAmount},
		{"huge float", "amount", float64(1e300), ErrInvalidAmount},
		{"payee with NUL", "payee", "Star\x00bucks", ErrInvalidPayee},
		{"extra with NUL", "notes", "a\x00b", ErrInvalidExtra},
		{"nested extra with NUL", "meta", map[string]any{"tags": []any{"ok", "\x00"}}, ErrInvalidExtra},
		{"client supplied id", "id", "ref-99", ErrReservedField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validFields()
			fields[tt.key] = tt.value

			_, err := NewExpense(fields)
			if !errors.Is(err, ErrInvalidExpense) {
				t.Fatalf("expected ErrInvalidExpense, got %v", err)
			}
			if !errors.Is(err, tt.target) {
				t.Fatalf("expected %v, got %v", tt.target, err)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   any
		want string
	}{
		{json.Number("15.25"), "15.25"},
		{float64(5.75), "5.75"},
		{int(3), "3"},
		{int64(7), "7"},
		{decimal.RequireFromString("0.001"), "0.001"},
		{json.Number("1e20"), "100000000000000000000"},
		{json.Number("0.00000000000000000001"), "0.00000000000000000001"},
		{json.Number(strings.Repeat("9", MaxAmountDigits)), strings.Repeat("9", MaxAmountDigits)},
	}

	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if err != nil {
			t.Fatalf("ParseAmount(%v) returned error: %v", tt.in, err)
		}
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Fatalf("ParseAmount(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseAmount(json.Number("abc")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for malformed number, got %v", err)
	}
}

func TestValidateExtra(t *testing.T) {
	t.Parallel()

	if err := ValidateExtra(nil); err != nil {
		t.Fatalf("expected nil extra to be allowed, got %v", err)
	}

	if err := ValidateExtra(map[string]any{"key": "value", "count": 10}); err != nil {
		t.Fatalf("expected valid extra, got %v", err)
	}
}
