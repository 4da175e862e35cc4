package entity

import "time"

// Order statuses
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// Return statuses
const (
	ReturnStatusRequested = "requested"
	ReturnStatusReceived  = "received"
	ReturnStatusRefunded  = "refunded"
	ReturnStatusRejected  = "rejected"
)

// Order a customer order header
type Order struct {
	ID            string    `json:"id" gorm:"primaryKey;size:32"`
	Code          string    `json:"code" gorm:"size:32;uniqueIndex"`
	CustomerName  string    `json:"customer_name" gorm:"size:128;not null"`
	CustomerPhone string    `json:"customer_phone" gorm:"size:20"`
	CustomerEmail string    `json:"customer_email" gorm:"size:128"`
	Channel       string    `json:"channel" gorm:"size:32;default:website"`
	Status        string    `json:"status" gorm:"size:16;not null;default:pending;index"`
	TotalAmount   float64   `json:"total_amount" gorm:"type:numeric(15,2);default:0"`
	Notes         string    `json:"notes,omitempty"`
	PlacedAt      time.Time `json:"placed_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relations
	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem one SKU line of an order
type OrderItem struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	OrderID   string    `json:"order_id" gorm:"size:32;not null;index"`
	SKUID     string    `json:"sku_id" gorm:"size:32;not null;index"`
	Quantity  int       `json:"quantity" gorm:"not null;default:1"`
	UnitPrice float64   `json:"unit_price" gorm:"type:numeric(15,2);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// Return a customer return against one order line
type Return struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	OrderID   string    `json:"order_id" gorm:"size:32;not null;index"`
	SKUID     string    `json:"sku_id" gorm:"size:32;not null;index"`
	Quantity  int       `json:"quantity" gorm:"not null;default:1"`
	Reason    string    `json:"reason" gorm:"size:256"`
	Status    string    `json:"status" gorm:"size:16;not null;default:requested;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Order *Order `json:"order,omitempty" gorm:"foreignKey:OrderID"`
}

func (Return) TableName() string {
	return "returns"
}
