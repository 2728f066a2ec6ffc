package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	postgresRepo "github.com/iho/gowallet/internal/adapter/repository/postgres"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/auth"
	"github.com/iho/gowallet/internal/infrastructure/config"
	"github.com/iho/gowallet/internal/infrastructure/postgres"
	"github.com/iho/gowallet/internal/usecase"
)

var (
	baseURL string
	timeout time.Duration
	token   string

	bcryptGenerate = bcrypt.GenerateFromPassword
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gowallet-cli",
		Short:         "GoWallet CLI tool",
		Long:          `A command line interface for the GoWallet API and database maintenance.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", envOr("GOWALLET_URL", "http://localhost:8080"), "Base URL of the GoWallet API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("GOWALLET_TOKEN"), "Bearer token for authenticated routes")

	rootCmd.AddCommand(
		userCmd(),
		loginCmd(),
		walletCmd(),
		transferCmd(),
		transactionCmd(),
		reconcileCmd(),
		migrateCmd(),
		tokenCmd(),
		hashPasswordCmd(),
	)

	return rootCmd
}

// apiError is returned for non-2xx responses.
type apiError struct {
	Status  int
	Code    string              `json:"error"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields"`
}

func (e *apiError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "request failed (%d)", e.Status)
	if e.Code != "" {
		fmt.Fprintf(&b, ": %s", e.Code)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	for field, msgs := range e.Fields {
		fmt.Fprintf(&b, "\n  %s: %s", field, strings.Join(msgs, "; "))
	}
	return b.String()
}

// call sends body as JSON and decodes the response into out.
func call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(baseURL, "/")+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		if !strings.HasPrefix(token, "Bearer ") {
			req.Header.Set("Authorization", "Bearer "+token)
		} else {
			req.Header.Set("Authorization", token)
		}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &apiError{Status: resp.StatusCode}
		_ = json.Unmarshal(payload, apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(payload, out)
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "User operations"}

	var first, last, email, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Register a user with a default BRL wallet",
		RunE: func(c *cobra.Command, args []string) error {
			var out map[string]any
			err := call(c.Context(), http.MethodPost, "/api/users", map[string]string{
				"first_name": first,
				"last_name":  last,
				"email":      email,
				"password":   password,
			}, &out)
			if err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
	create.Flags().StringVar(&first, "first-name", "", "First name")
	create.Flags().StringVar(&last, "last-name", "", "Last name")
	create.Flags().StringVar(&email, "email", "", "Email")
	create.Flags().StringVar(&password, "password", "", "Password")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	get := &cobra.Command{
		Use:   "get USER_ID",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return getAndPrint(c.Context(), "/api/users/"+url.PathEscape(args[0]))
		},
	}

	wallets := &cobra.Command{
		Use:   "wallets USER_ID",
		Short: "List a user's wallets",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			var out struct {
				Wallets []walletRow `json:"wallets"`
			}
			if err := call(c.Context(), http.MethodGet, "/api/users/"+url.PathEscape(args[0])+"/wallets", nil, &out); err != nil {
				return err
			}
			printWallets(out.Wallets)
			return nil
		},
	}

	var start, end string
	var limit, offset int
	transactions := &cobra.Command{
		Use:   "transactions USER_ID",
		Short: "List transactions across a user's wallets",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			q := url.Values{}
			setQuery(q, "startDate", start)
			setQuery(q, "endDate", end)
			if limit > 0 {
				q.Set("limit", fmt.Sprint(limit))
			}
			if offset > 0 {
				q.Set("offset", fmt.Sprint(offset))
			}
			return getAndPrint(c.Context(), "/api/users/"+url.PathEscape(args[0])+"/transactions"+encodeQuery(q))
		},
	}
	transactions.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD or RFC 3339)")
	transactions.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD or RFC 3339)")
	transactions.Flags().IntVar(&limit, "limit", 0, "Page size")
	transactions.Flags().IntVar(&offset, "offset", 0, "Page offset")

	cmd.AddCommand(create, get, wallets, transactions)
	return cmd
}

func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a bearer token",
		RunE: func(c *cobra.Command, args []string) error {
			var out struct {
				Token     string    `json:"token"`
				ExpiresAt time.Time `json:"expires_at"`
			}
			if err := call(c.Context(), http.MethodPost, "/api/identity/login", map[string]string{
				"email":    email,
				"password": password,
			}, &out); err != nil {
				return err
			}
			fmt.Println(out.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	return cmd
}

func walletCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "wallet", Short: "Wallet operations"}

	var userID, name, description, currency string
	create := &cobra.Command{
		Use:   "create",
		Short: "Open a wallet",
		RunE: func(c *cobra.Command, args []string) error {
			body := map[string]any{"user_id": userID, "name": name, "currency": currency}
			if description != "" {
				body["description"] = description
			}
			var out map[string]any
			if err := call(c.Context(), http.MethodPost, "/api/wallets", body, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
	create.Flags().StringVar(&userID, "user", "", "Owner user id")
	create.Flags().StringVar(&name, "name", "", "Wallet name")
	create.Flags().StringVar(&description, "description", "", "Wallet description")
	create.Flags().StringVar(&currency, "currency", "BRL", "Currency code")

	balance := &cobra.Command{
		Use:   "balance WALLET_ID",
		Short: "Show a wallet balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return getAndPrint(c.Context(), "/api/wallets/"+url.PathEscape(args[0])+"/balance")
		},
	}

	var amount, creditDescription, reference string
	credit := &cobra.Command{
		Use:   "credit WALLET_ID",
		Short: "Add balance to a wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			body := map[string]any{"amount": amount, "description": creditDescription}
			if reference != "" {
				body["reference"] = reference
			}
			var out map[string]any
			if err := call(c.Context(), http.MethodPost, "/api/wallets/"+url.PathEscape(args[0])+"/balance", body, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
	credit.Flags().StringVar(&amount, "amount", "", "Amount to credit")
	credit.Flags().StringVar(&creditDescription, "description", "", "Description")
	credit.Flags().StringVar(&reference, "reference", "", "External reference")
	_ = credit.MarkFlagRequired("amount")

	status := &cobra.Command{
		Use:       "status WALLET_ID active|inactive",
		Short:     "Activate or deactivate a wallet",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"active", "inactive"},
		RunE: func(c *cobra.Command, args []string) error {
			var out map[string]any
			if err := call(c.Context(), http.MethodPatch, "/api/wallets/"+url.PathEscape(args[0])+"/status", map[string]string{"status": args[1]}, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}

	var limit, offset int
	transactions := &cobra.Command{
		Use:   "transactions WALLET_ID",
		Short: "List a wallet's transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			q := url.Values{}
			if limit > 0 {
				q.Set("limit", fmt.Sprint(limit))
			}
			if offset > 0 {
				q.Set("offset", fmt.Sprint(offset))
			}
			return getAndPrint(c.Context(), "/api/wallets/"+url.PathEscape(args[0])+"/transactions"+encodeQuery(q))
		},
	}
	transactions.Flags().IntVar(&limit, "limit", 0, "Page size")
	transactions.Flags().IntVar(&offset, "offset", 0, "Page offset")

	cmd.AddCommand(create, balance, credit, status, transactions)
	return cmd
}

func transferCmd() *cobra.Command {
	var from, to, amount, currency, description, reference string
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move money between two wallets",
		RunE: func(c *cobra.Command, args []string) error {
			body := map[string]any{
				"from_wallet_id": from,
				"to_wallet_id":   to,
				"amount":         amount,
				"currency":       currency,
				"description":    description,
			}
			if reference != "" {
				body["reference"] = reference
			}
			var out map[string]any
			if err := call(c.Context(), http.MethodPost, "/api/transaction/transfer", body, &out); err != nil {
				return err
			}
			printJSON(out)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Source wallet id")
	cmd.Flags().StringVar(&to, "to", "", "Destination wallet id")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount")
	cmd.Flags().StringVar(&currency, "currency", "BRL", "Currency code")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringVar(&reference, "reference", "", "External reference")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func transactionCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "transaction", Short: "Transaction lookups"}
	cmd.AddCommand(&cobra.Command{
		Use:   "get TRANSACTION_ID",
		Short: "Show one transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return getAndPrint(c.Context(), "/api/transaction/"+url.PathEscape(args[0]))
		},
	})
	return cmd
}

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "reconcile", Short: "Compare stored balances with the ledger"}

	cmd.AddCommand(&cobra.Command{
		Use:   "wallet WALLET_ID",
		Short: "Reconcile one wallet through the API",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			var out reconciliationRow
			if err := call(c.Context(), http.MethodGet, "/api/wallets/"+url.PathEscape(args[0])+"/reconciliation", nil, &out); err != nil {
				return err
			}
			printReconciliation([]reconciliationRow{out})
			if !out.IsReconciled {
				return fmt.Errorf("wallet %s is not reconciled", out.WalletID)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "user USER_ID",
		Short: "Reconcile every wallet of a user directly against the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			pool, err := postgres.NewPool(c.Context(), cfg.DatabaseURL, 2, 0)
			if err != nil {
				return err
			}
			defer pool.Close()

			uc := usecase.NewReconciliationUseCase(
				postgresRepo.NewWalletRepository(pool),
				postgresRepo.NewTransactionRepository(pool),
			)
			results, err := uc.ReconcileUserWallets(c.Context(), args[0])
			if err != nil {
				return err
			}

			rows := make([]reconciliationRow, len(results))
			failed := 0
			for i, r := range results {
				rows[i] = reconciliationRow{
					WalletID:          r.WalletID,
					Currency:          r.Currency.String(),
					RecordedBalance:   r.RecordedBalance.StringFixed(2),
					CalculatedBalance: r.CalculatedBalance.StringFixed(2),
					Difference:        r.Difference.StringFixed(2),
					IsReconciled:      r.IsReconciled,
				}
				if !r.IsReconciled {
					failed++
				}
			}
			printReconciliation(rows)
			if failed > 0 {
				return fmt.Errorf("%d of %d wallets are not reconciled", failed, len(rows))
			}
			return nil
		},
	})

	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "migrate", Short: "Database migrations"}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath)
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return postgres.RunMigrationsDown(cfg.DatabaseURL, cfg.MigrationsPath, steps)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
	cmd.AddCommand(down)

	return cmd
}

func tokenCmd() *cobra.Command {
	var userID, email, name string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token with JWT_SECRET",
		RunE: func(c *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			if ttl == 0 {
				ttl = cfg.JWTExpiration
			}
			signed, err := signToken(cfg.JWTSecret, ttl, userID, email, name)
			if err != nil {
				return err
			}
			fmt.Println(signed)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User id")
	cmd.Flags().StringVar(&email, "email", "", "Email")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to JWT_EXPIRATION)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func signToken(secret string, ttl time.Duration, userID, email, name string) (string, error) {
	first, last, _ := strings.Cut(name, " ")
	user := domain.NewUser(userID, first, last, email, "")
	signed, _, err := auth.NewJWTManager(secret, ttl).Issue(user)
	if err != nil {
		return "", err
	}
	return "Bearer " + signed, nil
}

func hashPasswordCmd() *cobra.Command {
	var cost int
	cmd := &cobra.Command{
		Use:   "hash-password PASSWORD",
		Short: "Print the bcrypt hash of a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			hash, err := bcryptGenerate([]byte(args[0]), cost)
			if err != nil {
				return err
			}
			fmt.Println(string(hash))
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	return cmd
}

func getAndPrint(ctx context.Context, path string) error {
	var out any
	if err := call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return err
	}
	printJSON(out)
	return nil
}

type walletRow struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Balance  string `json:"balance"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

func printWallets(wallets []walletRow) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBALANCE\tCURRENCY\tSTATUS")
	for _, wl := range wallets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", wl.ID, truncate(wl.Name, 24), wl.Balance, wl.Currency, wl.Status)
	}
	_ = w.Flush()
}

type reconciliationRow struct {
	WalletID          string `json:"wallet_id"`
	Currency          string `json:"currency"`
	RecordedBalance   string `json:"recorded_balance"`
	CalculatedBalance string `json:"calculated_balance"`
	Difference        string `json:"difference"`
	IsReconciled      bool   `json:"is_reconciled"`
}

func printReconciliation(rows []reconciliationRow) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WALLET\tCURRENCY\tRECORDED\tCALCULATED\tDIFFERENCE\tOK")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n", r.WalletID, r.Currency, r.RecordedBalance, r.CalculatedBalance, r.Difference, r.IsReconciled)
	}
	_ = w.Flush()
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to format response: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func setQuery(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func encodeQuery(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
