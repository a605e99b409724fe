package config

import (
	"fmt"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitDB abre la conexión según el entorno: MySQL si hay DB_HOST (o
// DATABASE_DSN completo), SQLite local como respaldo para desarrollo.
// TranslateError es necesario para detectar violaciones de clave única como
// gorm.ErrDuplicatedKey en los dos dialectos.
func InitDB() (*gorm.DB, error) {
	cfg := &gorm.Config{TranslateError: true}

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		return gorm.Open(mysql.Open(dsn), cfg)
	}

	if host := os.Getenv("DB_HOST"); host != "" {
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			getenv("DB_USER", "root"),
			os.Getenv("DB_PASSWORD"),
			host,
			getenv("DB_PORT", "3306"),
			getenv("DB_NAME", "mesa_app"),
		)
		return gorm.Open(mysql.Open(dsn), cfg)
	}

	return gorm.Open(sqlite.Open(getenv("SQLITE_PATH", "mesa_app.db")), cfg)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
