package outbox

import (
	"time"

	"github.com/google/uuid"
)

// OrderCreatedData is the v1 payload for order_created events.
type OrderCreatedData struct {
	OrderID      uuid.UUID `json:"orderId"`
	OrderNumber  string    `json:"orderNumber"`
	UserID       uuid.UUID `json:"userId"`
	DeliveryType string    `json:"deliveryType"`
	Total        string    `json:"total"`
	LineCount    int       `json:"lineCount"`
	ScheduledFor *string   `json:"scheduledFor,omitempty"`
	PlacedAt     time.Time `json:"placedAt"`
}

// OrderStatusChangedData is the v1 payload for order_status_changed events.
type OrderStatusChangedData struct {
	OrderID     uuid.UUID `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	FromStatus  string    `json:"fromStatus"`
	ToStatus    string    `json:"toStatus"`
	ChangedAt   time.Time `json:"changedAt"`
}
