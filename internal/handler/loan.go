package handler

import (
    "context"       // context for DB timeouts
    "encoding/json" // custom amount decoding
    "log"           // server-side logging of store faults
    "math"          // finiteness check on parsed amounts
    "net/http"      // HTTP status codes
    "strconv"       // amount parsing
    "time"          // date parsing and DB timeouts

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/iliyamo/loan-ledger/internal/middleware" // typed principal
    "github.com/iliyamo/loan-ledger/internal/model"      // default currency
    "github.com/iliyamo/loan-ledger/internal/queue"      // audit event payload
    "github.com/iliyamo/loan-ledger/internal/repository" // loan store types
)

// LoanStore captures the persistence operations the loan endpoints
// need. *repository.LoanRepo satisfies it; tests substitute a fake.
type LoanStore interface {
	ListForUser(ctx context.Context, userID string) ([]repository.LoanDetail, error)
	Create(ctx context.Context, n repository.NewLoan) (*repository.LoanDetail, error)
}

// LoanHandler serves the loan ledger endpoints. Authorization is
// per-record: a loan is visible only to its lender and borrower, and a
// caller may only create loans they are a party to.
type LoanHandler struct {
	Store LoanStore
	// Events, when set, receives a best-effort audit event after each
	// successful create. Failures inside the publisher never affect
	// the HTTP response.
	Events func(ctx context.Context, ev queue.LoanCreatedEvent)
}

// NewLoanHandler constructs a LoanHandler and panics on a nil store.
func NewLoanHandler(store LoanStore) *LoanHandler {
	if store == nil {
		panic("nil store passed to NewLoanHandler")
	}
	return &LoanHandler{Store: store}
}

// amountValue accepts a JSON number or a numeric string and preserves
// the raw text so validation can distinguish "absent" from
// "unparsable".
type amountValue string

func (a *amountValue) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = amountValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = amountValue(n.String())
	return nil
}

type createLoanReq struct {
	LenderID    string      `json:"lenderId"`
	BorrowerID  string      `json:"borrowerId"`
	Amount      amountValue `json:"amount"`
	Currency    string      `json:"currency"`
	LoanDate    string      `json:"loanDate"`
	DueDate     string      `json:"dueDate"`
	Description string      `json:"description"`
}

// parseDate accepts plain dates and RFC 3339 timestamps, mirroring the
// permissive date handling of the web client.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// List handles GET /v1/loans. It returns every loan the caller is a
// party to, newest first, with both user projections plus repayments
// and evidence. There is no pagination.
func (h *LoanHandler) List(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	loans, err := h.Store.ListForUser(ctx, p.UserID)
	if err != nil {
		log.Printf("loans: list for user %s failed: %v", p.UserID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, loans)
}

// Create handles POST /v1/loans. Validation order matters and the
// first failing check wins: missing principal, missing required
// fields, caller not a party, unparsable amount. Note that zero or
// negative amounts and lender == borrower are accepted; rejecting them
// is an open product question.
func (h *LoanHandler) Create(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.LenderID == "" || req.BorrowerID == "" || req.Amount == "" || req.LoanDate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing required fields"})
	}
	if req.LenderID != p.UserID && req.BorrowerID != p.UserID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "caller must be lender or borrower"})
	}
	amount, err := strconv.ParseFloat(string(req.Amount), 64)
	if err != nil || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid amount"})
	}
	loanDate, err := parseDate(req.LoanDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid loan date"})
	}
	var dueDate *time.Time
	if req.DueDate != "" {
		d, err := parseDate(req.DueDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid due date"})
		}
		dueDate = &d
	}
	var description *string
	if req.Description != "" {
		description = &req.Description
	}
	currency := req.Currency
	if currency == "" {
		currency = model.DefaultCurrency
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	loan, err := h.Store.Create(ctx, repository.NewLoan{
		LenderID:    req.LenderID,
		BorrowerID:  req.BorrowerID,
		Amount:      amount,
		Currency:    currency,
		LoanDate:    loanDate,
		DueDate:     dueDate,
		Description: description,
	})
	if err != nil {
		log.Printf("loans: create failed (lender=%s borrower=%s): %v", req.LenderID, req.BorrowerID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	if h.Events != nil {
		h.Events(ctx, queue.LoanCreatedEvent{
			LoanID:     loan.ID,
			LenderID:   loan.LenderID,
			BorrowerID: loan.BorrowerID,
			Amount:     loan.Amount,
			Currency:   loan.Currency,
			LoanDate:   loan.LoanDate.Format("2006-01-02"),
			CreatedAt:  loan.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(http.StatusCreated, loan)
}
