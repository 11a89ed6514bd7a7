package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Field names of the required expense attributes.
const (
	FieldID     = "id"
	FieldPayee  = "payee"
	FieldAmount = "amount"
	FieldDate   = "date"
)

// Expense is a recorded payment. Once persisted it is never modified.
type Expense struct {
	ID         int64
	Payee      string
	Amount     decimal.Decimal
	Date       Date
	Extra      map[string]any
	RecordedAt time.Time
}

// MarshalJSON flattens the extra fields next to the required ones.
// The amount is emitted as a JSON number.
func (e Expense) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Extra)+4)
	for k, v := range e.Extra {
		out[k] = v
	}

	out[FieldID] = e.ID
	out[FieldPayee] = e.Payee
	out[FieldAmount] = json.Number(e.Amount.String())
	out[FieldDate] = e.Date.String()

	return json.Marshal(out)
}

// UnmarshalJSON reads an expense in the shape produced by MarshalJSON.
func (e *Expense) UnmarshalJSON(data []byte) error {
	fields, err := DecodeFields(data)
	if err != nil {
		return err
	}

	var id int64
	if raw, ok := fields[FieldID]; ok {
		n, ok := raw.(json.Number)
		if !ok {
			return fmt.Errorf("expense id must be a number, got %T", raw)
		}

		id, err = n.Int64()
		if err != nil {
			return fmt.Errorf("expense id: %w", err)
		}

		delete(fields, FieldID)
	}

	parsed, err := NewExpense(fields)
	if err != nil {
		return err
	}

	parsed.ID = id
	*e = *parsed
	return nil
}

// DecodeFields decodes a JSON object keeping numbers as json.Number.
// A valid JSON value that is not an object yields a nil map and no error.
func DecodeFields(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	fields, _ := v.(map[string]any)
	return fields, nil
}

// RecordResult is the outcome of a recording attempt.
type RecordResult struct {
	Success      bool
	ExpenseID    int64
	ErrorMessage string
}

// Recorded builds a successful result.
func Recorded(id int64) RecordResult {
	return RecordResult{Success: true, ExpenseID: id}
}

// Rejected builds a failed result whose message is the sentence-cased error text.
func Rejected(err error) RecordResult {
	msg := err.Error()
	if r, size := utf8.DecodeRuneInString(msg); r != utf8.RuneError {
		msg = string(unicode.ToUpper(r)) + msg[size:]
	}

	return RecordResult{ErrorMessage: msg}
}
