package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cashflow-cli",
		Short: "Cashflow monitoring CLI tool",
		Long:  `A command line interface for interacting with the cashflow monitoring API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the cashflow monitoring API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(
		companiesCmd(),
		balanceCmd(),
		countryDetailsCmd(),
		transactionsCmd(),
		syncCompaniesCmd(),
		processCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func companiesCmd() *cobra.Command {
	var limit, afterID int

	cmd := &cobra.Command{
		Use:   "companies",
		Short: "List companies from the transaction store",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			if afterID > 0 {
				query.Set("after-id", strconv.Itoa(afterID))
			}
			return getJSON("/api/v1/companies", query)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Page size")
	cmd.Flags().IntVar(&afterID, "after-id", 0, "List companies with ids above this one")

	return cmd
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance <company-id>",
		Short: "Show a company's EUR balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/companies/"+args[0]+"/balance", nil)
		},
	}
}

func countryDetailsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "country-details <company-id>",
		Short: "Show a company's per-currency transfer statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return getJSON("/api/v1/companies/"+args[0]+"/country-details", nil)
		},
	}
}

func transactionsCmd() *cobra.Command {
	var limit int
	var after, before string

	cmd := &cobra.Command{
		Use:   "transactions <company-id>",
		Short: "List a company's transactions from both feeds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			if after != "" {
				query.Set("after-timestamp", after)
			}
			if before != "" {
				query.Set("before-timestamp", before)
			}
			return getJSON("/api/v1/companies/"+args[0]+"/transactions", query)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum transactions per feed direction")
	cmd.Flags().StringVar(&after, "after", "", "Lower timestamp bound (RFC3339)")
	cmd.Flags().StringVar(&before, "before", "", "Upper timestamp bound (RFC3339)")

	return cmd
}

func syncCompaniesCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Create ledger records for newly listed companies",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			return postJSON("/api/v1/companies/update", query)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Page size for directory traversal")

	return cmd
}

func processCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run a reconciliation batch over both feeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			return postJSON("/api/v1/companies/update/transactions", query)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum reconciliation rounds")

	return cmd
}

func getJSON(path string, query url.Values) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(requestURL(path, query))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return handleResponse(resp)
}

func postJSON(path string, query url.Values) error {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(requestURL(path, query), "application/json", nil)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return handleResponse(resp)
}

func requestURL(path string, query url.Values) string {
	u := baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func handleResponse(resp *http.Response) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	printJSON(parsed)
	return nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to render output: %v\n", err)
		return
	}
	fmt.Println(string(out))
}
