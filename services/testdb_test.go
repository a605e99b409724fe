package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ncastrof/mesa-app/models"
	"github.com/ncastrof/mesa-app/utils"
)

var testDBSeq int64

// setupTestDB abre un SQLite in-memory con nombre único para que cada test
// arranque con la base vacía.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	utils.InitLogger()

	dsn := fmt.Sprintf("file:svc%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Table{},
		&models.Category{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func strPtr(s string) *string { return &s }

// seedOrder crea una orden de salón colgada de la mesa y sesión dadas.
func seedOrder(t *testing.T, db *gorm.DB, table *models.Table, sessionID string, phone *string, status string, total float64) models.Order {
	t.Helper()
	order := models.Order{
		CustomerName: "Cliente Test",
		Phone:        phone,
		DeliveryType: DeliveryTypeLocal,
		TableNumber:  &table.Number,
		TableID:      &table.ID,
		SessionID:    &sessionID,
		Status:       status,
		Total:        total,
	}
	require.NoError(t, db.Create(&order).Error)
	return order
}
