package services

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ncastrof/mesa-app/models"
)

// Estados de mesa
const (
	TableStatusAvailable = "available"
	TableStatusOccupied  = "occupied"
)

// Estados de orden
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
)

// Tipos de entrega
const (
	DeliveryTypeLocal    = "local"
	DeliveryTypeDelivery = "delivery"
)

// Métodos de pago
const (
	PaymentMethodCash = "efectivo"
	PaymentMethodCard = "tarjeta"
)

// OpenOrderStatuses: una orden "completed" sigue abierta para la sesión
// hasta que la mesa se cierra (el cliente puede seguir agregando items).
var OpenOrderStatuses = []string{OrderStatusPending, OrderStatusCompleted}

// TableService concentra todas las mutaciones de estado de mesa. El par
// status/session_id sólo se toca desde acá (y desde TableCloser dentro de su
// transacción) para que el invariante quede en un solo lugar.
type TableService struct {
	db *gorm.DB
}

func NewTableService(db *gorm.DB) *TableService {
	return &TableService{db: db}
}

// Occupy marca la mesa como ocupada con la sesión dada. El UPDATE es
// condicional: sólo gana si la mesa sigue disponible (o ya tiene esta misma
// sesión, para que el reintento sea idempotente). Devuelve false cuando otra
// sesión se quedó con la mesa primero.
func (s *TableService) Occupy(tableID uint, sessionID string) (bool, error) {
	res := s.db.Model(&models.Table{}).
		Where("id = ? AND (status = ? OR session_id = ?)", tableID, TableStatusAvailable, sessionID).
		Updates(map[string]interface{}{
			"status":     TableStatusOccupied,
			"session_id": sessionID,
		})
	if res.Error != nil {
		return false, fmt.Errorf("error ocupando la mesa %d: %w", tableID, res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	var table models.Table
	if err := s.db.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrTableNotFound
		}
		return false, fmt.Errorf("error releyendo la mesa %d: %w", tableID, err)
	}
	return false, nil
}

// reclaim reemplaza una sesión vieja por una nueva en una mesa que quedó
// "occupied" sin órdenes abiertas. Condicional sobre la sesión vieja para que
// dos re-mints concurrentes no pisen el mismo flip.
func (s *TableService) reclaim(tableID uint, oldSessionID *string, sessionID string) (bool, error) {
	q := s.db.Model(&models.Table{}).
		Where("id = ? AND status = ?", tableID, TableStatusOccupied)
	if oldSessionID != nil {
		q = q.Where("session_id = ?", *oldSessionID)
	} else {
		q = q.Where("session_id IS NULL")
	}

	res := q.Updates(map[string]interface{}{
		"status":     TableStatusOccupied,
		"session_id": sessionID,
	})
	if res.Error != nil {
		return false, fmt.Errorf("error renovando la sesión de la mesa %d: %w", tableID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Release libera la mesa: status available, sesión en null. Lo llaman el
// cierre de mesa y el borrado de la última orden abierta.
func (s *TableService) Release(tableID uint) error {
	return releaseTable(s.db, tableID)
}

func releaseTable(db *gorm.DB, tableID uint) error {
	res := db.Model(&models.Table{}).
		Where("id = ?", tableID).
		Updates(map[string]interface{}{
			"status":     TableStatusAvailable,
			"session_id": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("error liberando la mesa %d: %w", tableID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTableNotFound
	}
	return nil
}

// CreateTables crea `count` mesas nuevas rellenando primero los huecos de la
// numeración (mesas {1,2,5} + 2 => {3,4}). Los choques de número con otra
// creación concurrente se saltean, no fallan.
func (s *TableService) CreateTables(count int) ([]models.Table, error) {
	if count <= 0 {
		return nil, nil
	}

	numbers, err := s.missingTableNumbers(count)
	if err != nil {
		return nil, err
	}

	tables := make([]models.Table, 0, len(numbers))
	for _, number := range numbers {
		tables = append(tables, models.Table{
			Number:    number,
			Status:    TableStatusAvailable,
			PositionX: 50 + rand.Float64()*300,
			PositionY: 50 + rand.Float64()*300,
		})
	}

	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "number"}},
		DoNothing: true,
	}).Create(&tables).Error; err != nil {
		return nil, fmt.Errorf("error creando mesas: %w", err)
	}
	return tables, nil
}

func (s *TableService) missingTableNumbers(count int) ([]int, error) {
	var existing []int
	if err := s.db.Model(&models.Table{}).
		Order("number asc").
		Pluck("number", &existing).Error; err != nil {
		return nil, fmt.Errorf("error listando números de mesa: %w", err)
	}

	used := make(map[int]bool, len(existing))
	for _, n := range existing {
		used[n] = true
	}

	missing := make([]int, 0, count)
	for candidate := 1; len(missing) < count; candidate++ {
		if !used[candidate] {
			missing = append(missing, candidate)
		}
	}
	sort.Ints(missing)
	return missing, nil
}

// RenameTable cambia el número visible de una mesa. Falla con
// ErrDuplicateNumber si otra mesa viva ya usa ese número.
func (s *TableService) RenameTable(tableID uint, newNumber int) error {
	var existing models.Table
	err := s.db.Where("number = ? AND id <> ?", newNumber, tableID).First(&existing).Error
	if err == nil {
		return ErrDuplicateNumber
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("error verificando el número %d: %w", newNumber, err)
	}

	res := s.db.Model(&models.Table{}).Where("id = ?", tableID).Update("number", newNumber)
	if res.Error != nil {
		if isDuplicateKey(res.Error) {
			return ErrDuplicateNumber
		}
		return fmt.Errorf("error renumerando la mesa %d: %w", tableID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTableNotFound
	}
	return nil
}

// DeleteTable elimina una mesa por número, sólo si no tiene órdenes activas.
func (s *TableService) DeleteTable(tableNumber int) error {
	var table models.Table
	if err := s.db.Where("number = ?", tableNumber).First(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTableNotFound
		}
		return fmt.Errorf("error buscando la mesa %d: %w", tableNumber, err)
	}

	var open int64
	if err := s.db.Model(&models.Order{}).
		Where("table_id = ? AND status IN ?", table.ID, OpenOrderStatuses).
		Count(&open).Error; err != nil {
		return fmt.Errorf("error contando órdenes de la mesa %d: %w", tableNumber, err)
	}
	if open > 0 {
		return ErrTableHasOpenOrders
	}

	if err := s.db.Delete(&table).Error; err != nil {
		return fmt.Errorf("error eliminando la mesa %d: %w", tableNumber, err)
	}
	return nil
}

// UpdateTablePosition guarda la posición en el plano del salón.
func (s *TableService) UpdateTablePosition(tableID uint, x, y float64) error {
	res := s.db.Model(&models.Table{}).Where("id = ?", tableID).
		Updates(map[string]interface{}{"position_x": x, "position_y": y})
	if res.Error != nil {
		return fmt.Errorf("error moviendo la mesa %d: %w", tableID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrTableNotFound
	}
	return nil
}

// GetAllTables devuelve todas las mesas ordenadas por número.
func (s *TableService) GetAllTables() ([]models.Table, error) {
	var tables []models.Table
	if err := s.db.Order("number asc").Find(&tables).Error; err != nil {
		return nil, fmt.Errorf("error listando mesas: %w", err)
	}
	return tables, nil
}

// TablesWithSessionOrders devuelve las mesas ocupadas con las órdenes de su
// sesión abierta. El filtro por session_id es obligatorio: una mesa reocupada
// puede tener todavía órdenes históricas colgando de sesiones cerradas.
func (s *TableService) TablesWithSessionOrders() ([]models.Table, error) {
	var tables []models.Table
	err := s.db.Where("status = ?", TableStatusOccupied).
		Preload("Orders", func(db *gorm.DB) *gorm.DB {
			return db.Where("status IN ? AND session_id IS NOT NULL", OpenOrderStatuses).
				Order("created_at asc").
				Preload("OrderItems")
		}).
		Order("number asc").
		Find(&tables).Error
	if err != nil {
		return nil, fmt.Errorf("error listando mesas ocupadas: %w", err)
	}

	for i := range tables {
		tables[i].Orders = sessionOrders(&tables[i])
	}
	return tables, nil
}

// TableSummary es la cuenta de una mesa: las órdenes de la sesión abierta y
// su total acumulado.
type TableSummary struct {
	TableID      uint           `json:"table_id"`
	TableNumber  int            `json:"table_number"`
	SessionID    string         `json:"session_id"`
	Status       string         `json:"status"`
	Orders       []models.Order `json:"orders"`
	TotalAmount  float64        `json:"total_amount"`
	CustomerName string         `json:"customer_name"`
	Phone        string         `json:"phone"`
}

// GetTableSummary arma la cuenta de la mesa `tableNumber`. Devuelve nil sin
// error cuando la mesa no tiene una sesión abierta con órdenes.
func (s *TableService) GetTableSummary(tableNumber int) (*TableSummary, error) {
	var table models.Table
	err := s.db.Where("number = ?", tableNumber).
		Preload("Orders", func(db *gorm.DB) *gorm.DB {
			return db.Where("status IN ?", OpenOrderStatuses).
				Order("created_at asc").
				Preload("OrderItems")
		}).
		First(&table).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("error buscando la mesa %d: %w", tableNumber, err)
	}

	if table.SessionID == nil {
		return nil, nil
	}
	orders := sessionOrders(&table)
	if len(orders) == 0 {
		return nil, nil
	}

	summary := &TableSummary{
		TableID:      table.ID,
		TableNumber:  table.Number,
		SessionID:    *table.SessionID,
		Status:       table.Status,
		Orders:       orders,
		CustomerName: orders[0].CustomerName,
	}
	for _, o := range orders {
		summary.TotalAmount += o.Total
	}
	if orders[0].Phone != nil {
		summary.Phone = *orders[0].Phone
	}
	return summary, nil
}

// sessionOrders filtra las órdenes precargadas de la mesa dejando sólo las de
// la sesión vigente.
func sessionOrders(table *models.Table) []models.Order {
	if table.SessionID == nil {
		return nil
	}
	orders := make([]models.Order, 0, len(table.Orders))
	for _, o := range table.Orders {
		if o.SessionID != nil && *o.SessionID == *table.SessionID {
			orders = append(orders, o)
		}
	}
	return orders
}
