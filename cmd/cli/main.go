package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var errRequestFailed = errors.New("request failed")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	baseURL string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "expensetracker-cli",
		Short:         "Expense tracker CLI tool",
		Long:          `A command line interface for recording and listing expenses through the expense tracker API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the expense tracker API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(recordCmd(opts), onCmd(opts))

	return rootCmd
}

func recordCmd(opts *options) *cobra.Command {
	var (
		payee          string
		amount         string
		date           string
		fields         []string
		idempotencyKey string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record an expense",
		Example: `  expensetracker-cli record --payee Starbucks --amount 5.75 --date 2017-06-10
  expensetracker-cli record --payee Zagat --amount 12.50 --date 2017-06-10 --field category=food`,
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{}
			for _, field := range fields {
				k, v, ok := strings.Cut(field, "=")
				if !ok || k == "" {
					return fmt.Errorf("invalid --field %q, expected key=value", field)
				}
				body[k] = v
			}

			if payee != "" {
				body["payee"] = payee
			}
			if amount != "" {
				if _, err := decimal.NewFromString(amount); err != nil {
					return fmt.Errorf("invalid --amount %q: %w", amount, err)
				}
				body["amount"] = json.Number(amount)
			}
			if date != "" {
				body["date"] = date
			}

			data, err := json.Marshal(body)
			if err != nil {
				return err
			}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, opts.baseURL+"/expenses", bytes.NewReader(data))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			if idempotencyKey != "" {
				req.Header.Set("Idempotency-Key", idempotencyKey)
			}

			return do(cmd, opts, req)
		},
	}

	cmd.Flags().StringVar(&payee, "payee", "", "Who was paid")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount paid, e.g. 5.75")
	cmd.Flags().StringVar(&date, "date", "", "Date of the expense (YYYY-MM-DD)")
	cmd.Flags().StringArrayVar(&fields, "field", nil, "Extra field as key=value (repeatable)")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency-Key header value")

	return cmd
}

func onCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "on DATE",
		Short:   "List the expenses recorded on a date",
		Example: `  expensetracker-cli on 2017-06-10`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, opts.baseURL+"/expenses/"+url.PathEscape(args[0]), nil)
			if err != nil {
				return err
			}

			return do(cmd, opts, req)
		},
	}
}

// do sends req and pretty-prints the JSON response. Non-2xx responses are printed and reported as errors.
func do(cmd *cobra.Command, opts *options, req *http.Request) error {
	client := &http.Client{Timeout: opts.timeout}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), string(body))
	} else {
		printJSON(cmd.OutOrStdout(), parsed)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w (status: %d)", errRequestFailed, resp.StatusCode)
	}

	return nil
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(w, "Failed to encode response: %v\n", err)
	}
}
