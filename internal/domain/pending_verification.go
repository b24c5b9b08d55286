package domain

import "time"

// PendingVerification is an in-flight challenge linking a purchase email to a
// candidate student email. The token is single-use: redemption removes every
// pending row for the purchase email, and rows past the TTL are dropped the
// next time someone presents their token.
type PendingVerification struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	PurchaseEmail  string    `gorm:"size:320;index;not null" json:"purchase_email"`
	StudentEmail   string    `gorm:"size:320;not null" json:"student_email"`
	Token          string    `gorm:"size:128;uniqueIndex;not null" json:"-"`
	ShopifyOrderID string    `gorm:"size:64;not null" json:"shopify_order_id"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}
