package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/loan-ledger/internal/model"
	"github.com/iliyamo/loan-ledger/internal/utils"
)

// LoanRepo provides persistence for loans and their attached repayment
// and evidence records. Loans are written once at creation and never
// updated or deleted here; repayments and evidence are read-only
// pass-through relations.
type LoanRepo struct {
	db *sql.DB
}

// NewLoanRepo returns a new LoanRepo bound to the given database.
func NewLoanRepo(db *sql.DB) *LoanRepo { return &LoanRepo{db: db} }

// UserProjection is the slice of a user record embedded in loan
// responses. Only public profile fields are exposed.
type UserProjection struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Image       *string `json:"image"`
	DisplayName *string `json:"displayName"`
	Username    *string `json:"username"`
}

// RepaymentDetail mirrors a repayments row as returned to clients.
type RepaymentDetail struct {
	ID        string    `json:"id"`
	LoanID    string    `json:"loanId"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	PaidAt    time.Time `json:"paidAt"`
	Note      *string   `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
}

// EvidenceDetail mirrors an evidence row as returned to clients.
type EvidenceDetail struct {
	ID        string    `json:"id"`
	LoanID    string    `json:"loanId"`
	URL       string    `json:"url"`
	Kind      *string   `json:"kind"`
	Note      *string   `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
}

// LoanDetail is a loan together with both party projections and all
// attached repayments and evidence. It is the response shape of both
// loan endpoints.
type LoanDetail struct {
	ID          string            `json:"id"`
	LenderID    string            `json:"lenderId"`
	BorrowerID  string            `json:"borrowerId"`
	Amount      float64           `json:"amount"`
	Currency    string            `json:"currency"`
	LoanDate    time.Time         `json:"loanDate"`
	DueDate     *time.Time        `json:"dueDate"`
	Description *string           `json:"description"`
	Status      string            `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
	Lender      UserProjection    `json:"lender"`
	Borrower    UserProjection    `json:"borrower"`
	Repayments  []RepaymentDetail `json:"repayments"`
	Evidence    []EvidenceDetail  `json:"evidence"`
}

// NewLoan carries the already-validated fields for a loan insert.
type NewLoan struct {
	LenderID    string
	BorrowerID  string
	Amount      float64
	Currency    string
	LoanDate    time.Time
	DueDate     *time.Time
	Description *string
}

const loanSelect = `SELECT l.id, l.lender_id, l.borrower_id, l.amount, l.currency,
       l.loan_date, l.due_date, l.description, l.status, l.created_at,
       le.id, le.name, le.image, le.display_name, le.username,
       bo.id, bo.name, bo.image, bo.display_name, bo.username
FROM loans l
JOIN users le ON le.id = l.lender_id
JOIN users bo ON bo.id = l.borrower_id`

// loanDetailOf projects a scanned loan record and its two party
// projections into the response shape. Repayments and evidence start
// as empty slices so the JSON arrays are never null.
func loanDetailOf(l model.Loan, lender, borrower UserProjection) LoanDetail {
	return LoanDetail{
		ID:          l.ID,
		LenderID:    l.LenderID,
		BorrowerID:  l.BorrowerID,
		Amount:      l.Amount,
		Currency:    l.Currency,
		LoanDate:    l.LoanDate,
		DueDate:     l.DueDate,
		Description: l.Description,
		Status:      l.Status,
		CreatedAt:   l.CreatedAt,
		Lender:      lender,
		Borrower:    borrower,
		Repayments:  []RepaymentDetail{},
		Evidence:    []EvidenceDetail{},
	}
}

// repaymentDetailOf projects a repayments row into the response shape.
func repaymentDetailOf(r model.Repayment) RepaymentDetail {
	return RepaymentDetail{
		ID:        r.ID,
		LoanID:    r.LoanID,
		Amount:    r.Amount,
		Currency:  r.Currency,
		PaidAt:    r.PaidAt,
		Note:      r.Note,
		CreatedAt: r.CreatedAt,
	}
}

// evidenceDetailOf projects an evidence row into the response shape.
func evidenceDetailOf(e model.Evidence) EvidenceDetail {
	return EvidenceDetail{
		ID:        e.ID,
		LoanID:    e.LoanID,
		URL:       e.URL,
		Kind:      e.Kind,
		Note:      e.Note,
		CreatedAt: e.CreatedAt,
	}
}

func scanLoanDetail(scan func(dest ...any) error) (LoanDetail, error) {
	var (
		l                model.Loan
		lender, borrower UserProjection
	)
	err := scan(
		&l.ID, &l.LenderID, &l.BorrowerID, &l.Amount, &l.Currency,
		&l.LoanDate, &l.DueDate, &l.Description, &l.Status, &l.CreatedAt,
		&lender.ID, &lender.Name, &lender.Image, &lender.DisplayName, &lender.Username,
		&borrower.ID, &borrower.Name, &borrower.Image, &borrower.DisplayName, &borrower.Username,
	)
	if err != nil {
		return LoanDetail{}, err
	}
	return loanDetailOf(l, lender, borrower), nil
}

// ListForUser returns every loan in which the user is lender or
// borrower, newest first, with both party projections and all attached
// repayments and evidence. The result is an empty (non-nil) slice when
// the user has no loans.
func (r *LoanRepo) ListForUser(ctx context.Context, userID string) ([]LoanDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		loanSelect+` WHERE l.lender_id = ? OR l.borrower_id = ? ORDER BY l.created_at DESC, l.id DESC`,
		userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loans := []LoanDetail{}
	index := map[string]int{} // loan id -> position in loans
	for rows.Next() {
		d, err := scanLoanDetail(rows.Scan)
		if err != nil {
			return nil, err
		}
		index[d.ID] = len(loans)
		loans = append(loans, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(loans) == 0 {
		return loans, nil
	}

	ids := make([]string, 0, len(loans))
	for _, l := range loans {
		ids = append(ids, l.ID)
	}
	if err := r.attachRepayments(ctx, ids, loans, index); err != nil {
		return nil, err
	}
	if err := r.attachEvidence(ctx, ids, loans, index); err != nil {
		return nil, err
	}
	return loans, nil
}

// placeholders builds a "?,?,..." list and the matching args slice for
// an IN clause over loan IDs.
func placeholders(ids []string) (string, []any) {
	args := make([]any, 0, len(ids))
	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('?')
		args = append(args, id)
	}
	return b.String(), args
}

func (r *LoanRepo) attachRepayments(ctx context.Context, ids []string, loans []LoanDetail, index map[string]int) error {
	ph, args := placeholders(ids)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, loan_id, amount, currency, paid_at, note, created_at
		 FROM repayments WHERE loan_id IN (`+ph+`) ORDER BY paid_at ASC`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var rp model.Repayment
		if err := rows.Scan(&rp.ID, &rp.LoanID, &rp.Amount, &rp.Currency, &rp.PaidAt, &rp.Note, &rp.CreatedAt); err != nil {
			return err
		}
		if i, ok := index[rp.LoanID]; ok {
			loans[i].Repayments = append(loans[i].Repayments, repaymentDetailOf(rp))
		}
	}
	return rows.Err()
}

func (r *LoanRepo) attachEvidence(ctx context.Context, ids []string, loans []LoanDetail, index map[string]int) error {
	ph, args := placeholders(ids)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, loan_id, url, kind, note, created_at
		 FROM evidence WHERE loan_id IN (`+ph+`) ORDER BY created_at ASC`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var ev model.Evidence
		if err := rows.Scan(&ev.ID, &ev.LoanID, &ev.URL, &ev.Kind, &ev.Note, &ev.CreatedAt); err != nil {
			return err
		}
		if i, ok := index[ev.LoanID]; ok {
			loans[i].Evidence = append(loans[i].Evidence, evidenceDetailOf(ev))
		}
	}
	return rows.Err()
}

// Create inserts a new loan with status ACTIVE and queries the row back
// with both party projections to populate database-assigned defaults.
// A freshly created loan has no repayments or evidence yet.
func (r *LoanRepo) Create(ctx context.Context, n NewLoan) (*LoanDetail, error) {
	id, err := utils.NewID()
	if err != nil {
		return nil, err
	}
	if n.Currency == "" {
		n.Currency = model.DefaultCurrency
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO loans (id, lender_id, borrower_id, amount, currency, loan_date, due_date, description, status)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		id, n.LenderID, n.BorrowerID, n.Amount, n.Currency, n.LoanDate, n.DueDate, n.Description,
		model.LoanStatusActive)
	if err != nil {
		return nil, err
	}
	d, err := scanLoanDetail(r.db.QueryRowContext(ctx, loanSelect+` WHERE l.id = ?`, id).Scan)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
