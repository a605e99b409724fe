package models

import "time"

type Order struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	CustomerName string  `gorm:"type:varchar(255);not null" json:"customer_name"`
	Phone        *string `gorm:"type:varchar(30);index" json:"phone,omitempty"`
	Address      *string `gorm:"type:varchar(255)" json:"address,omitempty"`
	DeliveryType string  `gorm:"type:varchar(20);not null" json:"delivery_type"`
	Note         string  `gorm:"type:text" json:"note"`

	// TableNumber queda desnormalizado para mostrar la orden aunque la mesa
	// se renumere después. TableID se anula al cerrar la mesa; SessionID se
	// conserva para el historial.
	TableNumber *int    `json:"table_number,omitempty"`
	TableID     *uint   `gorm:"index" json:"table_id,omitempty"`
	Table       *Table  `gorm:"foreignKey:TableID" json:"-"`
	SessionID   *string `gorm:"type:varchar(64);index" json:"session_id,omitempty"`

	Status        string     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	PaymentMethod *string    `gorm:"type:varchar(20)" json:"payment_method,omitempty"`
	Total         float64    `gorm:"type:decimal(10,2);not null;default:0.00" json:"total"`
	OrderReadyAt  *time.Time `json:"order_ready_at,omitempty"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`

	OrderItems []OrderItem `gorm:"foreignKey:OrderID" json:"order_items"`
}
