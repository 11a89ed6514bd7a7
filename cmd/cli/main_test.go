package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	printJSON(&buf, struct {
		A int `json:"a"`
	}{A: 1})

	expected := "{\n  \"a\": 1\n}\n"
	if buf.String() != expected {
		t.Fatalf("unexpected json output:\n%s", buf.String())
	}
}

func TestRecordCmd_PostsExpense(t *testing.T) {
	var (
		received map[string]any
		rawBody  string
		key      string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/expenses", r.URL.Path)
		key = r.Header.Get("Idempotency-Key")

		data, _ := io.ReadAll(r.Body)
		rawBody = string(data)
		_ = json.Unmarshal(data, &received)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"expense_id":417}`))
	}))
	defer server.Close()

	out, err := execute(t, "--url", server.URL, "record",
		"--payee", "Starbucks", "--amount", "5.75", "--date", "2017-06-10",
		"--field", "category=coffee", "--idempotency-key", "k-1")
	require.NoError(t, err)

	assert.Equal(t, "Starbucks", received["payee"])
	assert.Equal(t, "2017-06-10", received["date"])
	assert.Equal(t, "coffee", received["category"])
	assert.Contains(t, rawBody, `"amount":5.75`)
	assert.Equal(t, "k-1", key)
	assert.Contains(t, out, `"expense_id": 417`)
}

func TestRecordCmd_RejectionIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error_message":"Expense incomplete"}`))
	}))
	defer server.Close()

	out, err := execute(t, "--url", server.URL, "record", "--payee", "Starbucks")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errRequestFailed))
	assert.Contains(t, out, "Expense incomplete")
}

func TestRecordCmd_InvalidInput(t *testing.T) {
	_, err := execute(t, "--url", "http://127.0.0.1:0", "record", "--amount", "lots")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --amount")

	_, err = execute(t, "--url", "http://127.0.0.1:0", "record", "--field", "novalue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --field")
}

func TestOnCmd_ListsExpenses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/expenses/2017-06-10", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":1,"payee":"Starbucks","amount":5.75,"date":"2017-06-10"}]`))
	}))
	defer server.Close()

	out, err := execute(t, "--url", server.URL, "on", "2017-06-10")
	require.NoError(t, err)
	assert.Contains(t, out, `"payee": "Starbucks"`)
}

func TestOnCmd_RequiresDate(t *testing.T) {
	_, err := execute(t, "on")
	require.Error(t, err)
}
