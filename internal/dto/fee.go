package dto

import "time"

// RecordPaymentRequest captures POST /fees/payments payload.
type RecordPaymentRequest struct {
	StudentID string     `json:"studentId" validate:"required"`
	Amount    float64    `json:"amount" validate:"gt=0"`
	Method    string     `json:"method" validate:"omitempty,oneof=cash bank_transfer card online"`
	Reference string     `json:"reference" validate:"max=120"`
	PaidAt    *time.Time `json:"paidAt"`
}

// FeeStructureRequest captures PUT /fees/structure/:level payload.
type FeeStructureRequest struct {
	Amount float64 `json:"amount" validate:"gte=0"`
}
