package domain

import "time"

// VerifiedStudent is the durable record that a purchase email has cleared
// verification. Rows are insert-only; once present the email stays verified.
type VerifiedStudent struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PurchaseEmail string    `gorm:"size:320;uniqueIndex;not null" json:"purchase_email"`
	StudentEmail  string    `gorm:"size:320;not null" json:"student_email"`
	CreatedAt     time.Time `json:"created_at"`
}
