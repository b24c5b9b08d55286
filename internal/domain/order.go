package domain

import "time"

const (
	OrderStatusOnHold    = "on_hold"
	OrderStatusActivated = "activated"
	OrderStatusCancelled = "cancelled"
)

// Order is a single purchase held back from fulfillment until the purchaser
// proves student status. Status moves one-way: on_hold to activated or
// cancelled, never back.
type Order struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ShopifyOrderID string    `gorm:"size:64;uniqueIndex;not null" json:"shopify_order_id"`
	Email          string    `gorm:"size:320;index;not null" json:"email"`
	Status         string    `gorm:"size:16;index;not null;default:on_hold" json:"status"`
	ReminderCount  int       `gorm:"not null;default:0" json:"reminder_count"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
