package model

import "time"

// Loan statuses. A loan is created as ACTIVE and this service never
// transitions it; the other values exist in the schema for future
// lifecycle handling.
const (
    LoanStatusActive    = "ACTIVE"
    LoanStatusCompleted = "COMPLETED"
    LoanStatusOverdue   = "OVERDUE"
)

// DefaultCurrency is applied when a create request omits currency.
const DefaultCurrency = "JPY"

// Loan records money lent from one user to another. Exactly one of
// the two party IDs must match the user who recorded the loan.
//
// Fields:
//  ID          – primary key, random hex.
//  LenderID    – user who lent the money.
//  BorrowerID  – user who borrowed the money.
//  Amount      – positive decimal amount in Currency units.
//  Currency    – ISO currency code, defaults to JPY.
//  LoanDate    – the date the money changed hands.
//  DueDate     – agreed repayment date (null when open-ended).
//  Description – free-form note.
//  Status      – lifecycle state, ACTIVE on creation.
//  CreatedAt   – insert timestamp assigned by the database.
type Loan struct {
    ID          string     // loans.id
    LenderID    string     // loans.lender_id
    BorrowerID  string     // loans.borrower_id
    Amount      float64    // loans.amount
    Currency    string     // loans.currency
    LoanDate    time.Time  // loans.loan_date
    DueDate     *time.Time // loans.due_date (nullable)
    Description *string    // loans.description (nullable)
    Status      string     // loans.status
    CreatedAt   time.Time  // loans.created_at
}

// Repayment is a partial or full payback attached to a loan. This
// service only reads repayments when listing loans; creation lives
// elsewhere.
type Repayment struct {
    ID        string    // repayments.id
    LoanID    string    // repayments.loan_id
    Amount    float64   // repayments.amount
    Currency  string    // repayments.currency
    PaidAt    time.Time // repayments.paid_at
    Note      *string   // repayments.note (nullable)
    CreatedAt time.Time // repayments.created_at
}

// Evidence is a supporting record (receipt photo, chat screenshot)
// attached to a loan. Read-only here, like Repayment.
type Evidence struct {
    ID        string    // evidence.id
    LoanID    string    // evidence.loan_id
    URL       string    // evidence.url
    Kind      *string   // evidence.kind (nullable)
    Note      *string   // evidence.note (nullable)
    CreatedAt time.Time // evidence.created_at
}
