package repository

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/iliyamo/loan-ledger/internal/model"
	"github.com/iliyamo/loan-ledger/internal/utils"
)

// These tests exercise the real SQL against a MySQL instance and only
// run when TEST_DB_DSN points at one, e.g.
// TEST_DB_DSN="root:secret@tcp(127.0.0.1:3306)/loan_ledger?parseTime=true&loc=UTC"

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set; skipping database integration test")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		t.Fatalf("ping test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertTestUser(t *testing.T, db *sql.DB, name string) string {
	t.Helper()
	id, err := utils.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	email := fmt.Sprintf("%s-%d@test.local", name, time.Now().UnixNano())
	_, err = db.Exec(
		"INSERT INTO users (id, name, email, password_hash) VALUES (?,?,?,?)",
		id, name, email, "")
	if err != nil {
		t.Fatalf("insert user %s: %v", name, err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM users WHERE id = ?", id) })
	return id
}

// insertTestLoan writes a loans row directly so created_at can be
// pinned for deterministic ordering assertions.
func insertTestLoan(t *testing.T, db *sql.DB, lenderID, borrowerID string, amount float64, createdAt time.Time) string {
	t.Helper()
	id, err := utils.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	_, err = db.Exec(
		`INSERT INTO loans (id, lender_id, borrower_id, amount, currency, loan_date, status, created_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		id, lenderID, borrowerID, amount, model.DefaultCurrency,
		createdAt.Format("2006-01-02"), model.LoanStatusActive, createdAt)
	if err != nil {
		t.Fatalf("insert loan: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM loans WHERE id = ?", id) })
	return id
}

func TestLoanRepoListForUser(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepo(db)
	ctx := context.Background()

	alice := insertTestUser(t, db, "alice")
	bob := insertTestUser(t, db, "bob")
	carol := insertTestUser(t, db, "carol")

	base := time.Now().UTC().Truncate(time.Second).Add(-time.Hour)
	older := insertTestLoan(t, db, alice, bob, 1000, base)
	newer := insertTestLoan(t, db, bob, alice, 2500, base.Add(time.Minute))
	// Not visible to alice: she is neither party.
	insertTestLoan(t, db, bob, carol, 9999, base.Add(2*time.Minute))

	rpID, err := utils.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	_, err = db.Exec(
		"INSERT INTO repayments (id, loan_id, amount, currency, paid_at, created_at) VALUES (?,?,?,?,?,?)",
		rpID, older, 400, model.DefaultCurrency, base.Add(30*time.Minute), base.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("insert repayment: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM repayments WHERE id = ?", rpID) })

	evID, err := utils.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	_, err = db.Exec(
		"INSERT INTO evidence (id, loan_id, url, created_at) VALUES (?,?,?,?)",
		evID, older, "https://files.test.local/receipt.png", base.Add(31*time.Minute))
	if err != nil {
		t.Fatalf("insert evidence: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM evidence WHERE id = ?", evID) })

	loans, err := repo.ListForUser(ctx, alice)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(loans) != 2 {
		t.Fatalf("expected 2 loans for alice, got %d", len(loans))
	}
	if loans[0].ID != newer || loans[1].ID != older {
		t.Fatalf("loans not ordered newest first: %s then %s", loans[0].ID, loans[1].ID)
	}
	for _, l := range loans {
		if l.ID == older && (l.LenderID != alice || l.Borrower.ID != bob) {
			t.Fatalf("older loan parties wrong: %+v", l)
		}
	}
	if len(loans[1].Repayments) != 1 || loans[1].Repayments[0].Amount != 400 {
		t.Fatalf("repayments not attached: %+v", loans[1].Repayments)
	}
	if len(loans[1].Evidence) != 1 || loans[1].Evidence[0].URL != "https://files.test.local/receipt.png" {
		t.Fatalf("evidence not attached: %+v", loans[1].Evidence)
	}
	if len(loans[0].Repayments) != 0 || len(loans[0].Evidence) != 0 {
		t.Fatalf("newer loan should have no attachments: %+v", loans[0])
	}
	if loans[1].Lender.Name != "alice" || loans[1].Borrower.Name != "bob" {
		t.Fatalf("party projections wrong: %+v %+v", loans[1].Lender, loans[1].Borrower)
	}

	carols, err := repo.ListForUser(ctx, carol)
	if err != nil {
		t.Fatalf("ListForUser(carol): %v", err)
	}
	if len(carols) != 1 || carols[0].Amount != 9999 {
		t.Fatalf("carol should see only her loan: %+v", carols)
	}
}

func TestLoanRepoCreateDefaults(t *testing.T) {
	db := openTestDB(t)
	repo := NewLoanRepo(db)
	ctx := context.Background()

	lender := insertTestUser(t, db, "lender")
	borrower := insertTestUser(t, db, "borrower")

	loan, err := repo.Create(ctx, NewLoan{
		LenderID:   lender,
		BorrowerID: borrower,
		Amount:     5000,
		LoanDate:   time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { db.Exec("DELETE FROM loans WHERE id = ?", loan.ID) })

	if len(loan.ID) != 32 {
		t.Fatalf("loan id should be 32 chars, got %q", loan.ID)
	}
	if loan.Currency != model.DefaultCurrency {
		t.Fatalf("empty currency should default to %s, got %q", model.DefaultCurrency, loan.Currency)
	}
	if loan.Status != model.LoanStatusActive {
		t.Fatalf("new loan status = %q", loan.Status)
	}
	if loan.CreatedAt.IsZero() {
		t.Fatal("created_at not populated from the database")
	}
	if loan.Lender.ID != lender || loan.Borrower.ID != borrower {
		t.Fatalf("party projections wrong: %+v %+v", loan.Lender, loan.Borrower)
	}
	if loan.Repayments == nil || len(loan.Repayments) != 0 {
		t.Fatalf("repayments should be empty non-nil, got %v", loan.Repayments)
	}
	if loan.Evidence == nil || len(loan.Evidence) != 0 {
		t.Fatalf("evidence should be empty non-nil, got %v", loan.Evidence)
	}
}
