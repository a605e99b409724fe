package models

import "time"

// Table representa una mesa física del local. SessionID es el token de la
// sesión abierta; invariante: no-nulo exactamente cuando Status = "occupied".
type Table struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Number    int       `gorm:"uniqueIndex;not null" json:"number"`
	Status    string    `gorm:"type:varchar(20);not null;default:'available'" json:"status"`
	SessionID *string   `gorm:"type:varchar(64);index" json:"session_id"`
	PositionX float64   `gorm:"not null;default:50" json:"position_x"`
	PositionY float64   `gorm:"not null;default:50" json:"position_y"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
	Orders    []Order   `gorm:"foreignKey:TableID" json:"orders,omitempty"`
}
