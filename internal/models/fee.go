package models

import "time"

// FeeStatus classifies a student's payment position.
type FeeStatus string

const (
	FeeStatusPaid    FeeStatus = "Paid"
	FeeStatusPartial FeeStatus = "Partial"
	FeeStatusUnpaid  FeeStatus = "Unpaid"
)

// ClassifyFee derives the status from the amount paid and the raw outstanding balance.
func ClassifyFee(totalPaid, outstanding float64) FeeStatus {
	switch {
	case outstanding <= 0:
		return FeeStatusPaid
	case totalPaid == 0:
		return FeeStatusUnpaid
	default:
		return FeeStatusPartial
	}
}

// FeeStructure maps an academic level to its total fee.
type FeeStructure struct {
	Level     int       `db:"level" json:"level"`
	Amount    float64   `db:"amount" json:"amount"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Payment is an append-only ledger entry.
type Payment struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	Amount     float64   `db:"amount" json:"amount"`
	Method     string    `db:"method" json:"method"`
	Reference  *string   `db:"reference" json:"reference,omitempty"`
	PaidAt     time.Time `db:"paid_at" json:"paid_at"`
	RecordedBy *string   `db:"recorded_by" json:"recorded_by,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// FeeBalance is the raw balance breakdown for one student. Outstanding may be negative.
type FeeBalance struct {
	StudentID   string  `db:"student_id" json:"student_id"`
	Level       int     `db:"level" json:"level"`
	TotalDue    float64 `db:"total_due" json:"total_due"`
	TotalPaid   float64 `db:"total_paid" json:"total_paid"`
	Outstanding float64 `db:"outstanding" json:"outstanding"`
}

// OutstandingFee is one row of the outstanding fees report.
type OutstandingFee struct {
	StudentID   string    `db:"student_id" json:"student_id"`
	FullName    string    `db:"full_name" json:"full_name"`
	Email       string    `db:"email" json:"email"`
	Level       int       `db:"level" json:"level"`
	TotalDue    float64   `db:"total_due" json:"total_due"`
	TotalPaid   float64   `db:"total_paid" json:"total_paid"`
	Outstanding float64   `db:"outstanding" json:"outstanding"`
	Status      FeeStatus `db:"-" json:"status"`
}

// DisplayOutstanding clamps the balance at zero for presentation.
func (o OutstandingFee) DisplayOutstanding() float64 {
	if o.Outstanding < 0 {
		return 0
	}
	return o.Outstanding
}
