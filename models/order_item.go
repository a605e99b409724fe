package models

import "time"

type OrderItem struct {
	ID      uint  `gorm:"primaryKey" json:"id"`
	OrderID uint  `gorm:"not null" json:"order_id"`
	Order   Order `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`

	// ProductID puede quedar nulo si el producto se elimina después; los
	// campos Product* son una copia tomada al momento de ordenar y nunca se
	// vuelven a sincronizar con el catálogo.
	ProductID    *uint    `gorm:"index" json:"product_id,omitempty"`
	Product      *Product `gorm:"foreignKey:ProductID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	ProductName  string   `gorm:"type:varchar(255);not null" json:"product_name"`
	ProductPrice float64  `gorm:"type:decimal(10,2);not null" json:"product_price"`
	ProductImage string   `gorm:"type:varchar(255)" json:"product_image"`
	Variant      string   `gorm:"type:varchar(100)" json:"variant"`

	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
