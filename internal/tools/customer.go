package tools

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrCustomerNotFound is returned for unknown user ids.
var ErrCustomerNotFound = errors.New("customer not found")

type Customer struct {
	UserID          string   `json:"userId"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	AccountStatus   string   `json:"accountStatus"`
	Products        []string `json:"products"`
	LastTransaction string   `json:"lastTransaction"`
	Balance         float64  `json:"balance"`
	DailyLimit      float64  `json:"dailyLimit"`
	MonthlyLimit    float64  `json:"monthlyLimit"`
}

type AccountStatus struct {
	Status          string   `json:"accountStatus"`
	Issues          []string `json:"issues"`
	LastTransaction string   `json:"lastTransaction"`
}

type Transaction struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Type        string  `json:"type"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// CustomerStore serves the support agent's lookups from a local sqlite
// database, seeded with sample data on first open.
type CustomerStore struct {
	db *sql.DB
}

func OpenCustomerStore(dbPath string) (*CustomerStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open customer database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &CustomerStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("customer database migration: %w", err)
	}
	if err := store.seed(); err != nil {
		db.Close()
		return nil, fmt.Errorf("customer database seed: %w", err)
	}

	return store, nil
}

func (s *CustomerStore) Close() error {
	return s.db.Close()
}

func (s *CustomerStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS customers (
		user_id          TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		email            TEXT,
		phone            TEXT,
		account_status   TEXT NOT NULL DEFAULT 'active',
		products         TEXT,
		last_transaction TEXT,
		balance          REAL DEFAULT 0,
		daily_limit      REAL DEFAULT 0,
		monthly_limit    REAL DEFAULT 0,
		issues           TEXT
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL REFERENCES customers(user_id),
		date        TEXT NOT NULL,
		type        TEXT NOT NULL,
		amount      REAL NOT NULL,
		description TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, date DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *CustomerStore) seed() error {
	var count int
	if err := s.db.QueryRow(`SELECT count(*) FROM customers`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	_, err := s.db.Exec(`
		INSERT INTO customers (user_id, name, email, phone, account_status, products, last_transaction, balance, daily_limit, monthly_limit, issues)
		VALUES ('client789', 'João Silva', 'joao.silva@email.com', '+55 11 99999-9999', 'active',
		        'maquininha_smart,conta_digital', '2024-01-15', 1250.50, 5000.00, 50000.00, '')
	`)
	if err != nil {
		return err
	}

	txns := []Transaction{
		{ID: "txn_001", Date: "2024-01-15", Type: "payment_received", Amount: 150.00, Description: "Venda - Cartão de Crédito"},
		{ID: "txn_002", Date: "2024-01-14", Type: "transfer", Amount: -50.00, Description: "Transferência PIX"},
		{ID: "txn_003", Date: "2024-01-13", Type: "payment_received", Amount: 300.00, Description: "Venda - Maquininha"},
	}
	for _, t := range txns {
		_, err := s.db.Exec(`
			INSERT INTO transactions (id, user_id, date, type, amount, description)
			VALUES (?, 'client789', ?, ?, ?, ?)
		`, t.ID, t.Date, t.Type, t.Amount, t.Description)
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *CustomerStore) GetCustomer(ctx context.Context, userID string) (*Customer, error) {
	var (
		c        Customer
		products sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, name, email, phone, account_status, products, last_transaction, balance, daily_limit, monthly_limit
		FROM customers WHERE user_id = ?
	`, userID).Scan(&c.UserID, &c.Name, &c.Email, &c.Phone, &c.AccountStatus,
		&products, &c.LastTransaction, &c.Balance, &c.DailyLimit, &c.MonthlyLimit)
	if err == sql.ErrNoRows {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer %s: %w", userID, err)
	}

	if products.Valid && products.String != "" {
		c.Products = strings.Split(products.String, ",")
	}
	return &c, nil
}

// CheckAccountStatus reports the account state and any stored issues plus
// a derived one when the account is not active.
func (s *CustomerStore) CheckAccountStatus(ctx context.Context, userID string) (*AccountStatus, error) {
	var (
		status AccountStatus
		issues sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT account_status, issues, last_transaction FROM customers WHERE user_id = ?
	`, userID).Scan(&status.Status, &issues, &status.LastTransaction)
	if err == sql.ErrNoRows {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("check account status %s: %w", userID, err)
	}

	if status.Status != "active" {
		status.Issues = append(status.Issues, "Account is not active")
	}
	if issues.Valid && issues.String != "" {
		for _, issue := range strings.Split(issues.String, ",") {
			if issue = strings.TrimSpace(issue); issue != "" {
				status.Issues = append(status.Issues, issue)
			}
		}
	}

	return &status, nil
}

func (s *CustomerStore) RecentTransactions(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, type, amount, description
		FROM transactions WHERE user_id = ?
		ORDER BY date DESC LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent transactions %s: %w", userID, err)
	}
	defer rows.Close()

	var txns []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.Date, &t.Type, &t.Amount, &t.Description); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txns = append(txns, t)
	}

	return txns, rows.Err()
}
