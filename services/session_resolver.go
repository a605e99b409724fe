package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ncastrof/mesa-app/models"
)

// Identity identifica a quien envía una orden de salón: el teléfono
// verificado del cliente, o la marca de staff cuando carga un admin.
type Identity struct {
	Phone   string
	IsAdmin bool
}

// Resolution es la decisión de sesión para una orden entrante: a qué mesa y
// sesión se estampa, y si esta llamada abrió la sesión.
type Resolution struct {
	TableID      uint
	TableNumber  int
	SessionID    string
	IsNewSession bool
}

// SessionResolver decide, para cada orden de salón, si se une a la sesión
// abierta de la mesa o si abre una nueva. Es el único lugar donde se acuñan
// session ids.
type SessionResolver struct {
	db     *gorm.DB
	tables *TableService
}

func NewSessionResolver(db *gorm.DB, tables *TableService) *SessionResolver {
	return &SessionResolver{db: db, tables: tables}
}

// newSessionID acuña el token opaco de sesión.
func newSessionID() string {
	return strings.SplitN(uuid.NewString(), "-", 2)[0]
}

// Resolve aplica las reglas de membresía de sesión:
//
//   - mesa inexistente: se crea implícitamente (la primera orden nunca se
//     rechaza por falta de fila de mesa)
//   - mesa disponible: se acuña una sesión nueva y se intenta el flip
//     available→occupied; si otra orden concurrente gana el flip, esta
//     relee y se une a la sesión ganadora
//   - mesa ocupada con órdenes abiertas: se une, salvo que el teléfono del
//     cliente no coincida con el que abrió la sesión (los admin siempre
//     entran)
//   - mesa ocupada sin órdenes abiertas: estado viejo, se renueva la sesión
func (r *SessionResolver) Resolve(tableNumber int, identity Identity) (*Resolution, error) {
	table, err := r.ensureTable(tableNumber)
	if err != nil {
		return nil, err
	}

	// Dos vueltas alcanzan: perder un flip deja siempre una sesión ajena a
	// la cual unirse en la segunda.
	for attempt := 0; attempt < 2; attempt++ {
		if table.Status == TableStatusAvailable {
			sessionID := newSessionID()
			claimed, err := r.tables.Occupy(table.ID, sessionID)
			if err != nil {
				return nil, err
			}
			if claimed {
				return &Resolution{
					TableID:      table.ID,
					TableNumber:  table.Number,
					SessionID:    sessionID,
					IsNewSession: true,
				}, nil
			}
			if table, err = r.reload(table.ID); err != nil {
				return nil, err
			}
			continue
		}

		open, err := r.openSessionOrders(table)
		if err != nil {
			return nil, err
		}

		if len(open) == 0 {
			// Ocupada pero sin órdenes abiertas: sesión muerta que nadie
			// cerró. Se renueva en lugar de rechazar la orden.
			sessionID := newSessionID()
			claimed, err := r.tables.reclaim(table.ID, table.SessionID, sessionID)
			if err != nil {
				return nil, err
			}
			if claimed {
				return &Resolution{
					TableID:      table.ID,
					TableNumber:  table.Number,
					SessionID:    sessionID,
					IsNewSession: true,
				}, nil
			}
			if table, err = r.reload(table.ID); err != nil {
				return nil, err
			}
			continue
		}

		if !identity.IsAdmin {
			phoneOfRecord := ""
			if open[0].Phone != nil {
				phoneOfRecord = *open[0].Phone
			}
			if identity.Phone != phoneOfRecord {
				return nil, ErrTableConflict
			}
		}

		return &Resolution{
			TableID:      table.ID,
			TableNumber:  table.Number,
			SessionID:    *table.SessionID,
			IsNewSession: false,
		}, nil
	}

	return nil, fmt.Errorf("no se pudo resolver la sesión de la mesa %d", tableNumber)
}

// ensureTable busca la mesa por número y la crea si no existe. La constraint
// única sobre number arbitra las creaciones concurrentes: un choque se trata
// como "la mesa ya existe, releer".
func (r *SessionResolver) ensureTable(number int) (*models.Table, error) {
	var table models.Table
	err := r.db.Where("number = ?", number).First(&table).Error
	if err == nil {
		return &table, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("error buscando la mesa %d: %w", number, err)
	}

	table = models.Table{Number: number, Status: TableStatusAvailable}
	if err := r.db.Create(&table).Error; err != nil {
		if isDuplicateKey(err) {
			if err := r.db.Where("number = ?", number).First(&table).Error; err != nil {
				return nil, fmt.Errorf("error releyendo la mesa %d: %w", number, err)
			}
			return &table, nil
		}
		return nil, fmt.Errorf("error creando la mesa %d: %w", number, err)
	}
	return &table, nil
}

func (r *SessionResolver) reload(tableID uint) (*models.Table, error) {
	var table models.Table
	if err := r.db.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("error releyendo la mesa %d: %w", tableID, err)
	}
	return &table, nil
}

// openSessionOrders lista las órdenes abiertas de la sesión vigente, la más
// vieja primero (su teléfono es el teléfono de registro de la sesión). El
// filtro por session_id evita resucitar órdenes de sesiones ya cerradas si
// la mesa se reocupó.
func (r *SessionResolver) openSessionOrders(table *models.Table) ([]models.Order, error) {
	if table.SessionID == nil {
		return nil, nil
	}
	var orders []models.Order
	err := r.db.
		Where("table_id = ? AND session_id = ? AND status IN ?",
			table.ID, *table.SessionID, OpenOrderStatuses).
		Order("created_at asc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("error listando órdenes de la mesa %d: %w", table.Number, err)
	}
	return orders, nil
}

// isDuplicateKey detecta violaciones de constraint única en los dialectos que
// usamos (gorm las traduce con TranslateError; los mensajes crudos quedan de
// respaldo para conexiones sin traducción).
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
