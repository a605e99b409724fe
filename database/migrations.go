package database

import (
	"github.com/ncastrof/mesa-app/models"
	"github.com/ncastrof/mesa-app/utils"
	"gorm.io/gorm"
)

// EnsureSchemaExtras aplica lo que AutoMigrate no garantiza en instalaciones
// que vienen de esquemas viejos. El índice único sobre tables.number no es
// cosmético: es la constraint que arbitra dos primeras-órdenes concurrentes
// para la misma mesa nueva.
func EnsureSchemaExtras(db *gorm.DB) error {
	m := db.Migrator()

	if !m.HasIndex(&models.Table{}, "Number") {
		if err := m.CreateIndex(&models.Table{}, "Number"); err != nil {
			utils.ErrorLogger.Printf("Error creating unique index on tables.number: %v", err)
			return err
		}
		utils.InfoLogger.Println("Unique index on tables.number created")
	}

	return nil
}
