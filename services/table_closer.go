package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ncastrof/mesa-app/kds"
	"github.com/ncastrof/mesa-app/models"
)

// TableCloser finaliza la sesión de una mesa: estampa el método de pago en
// sus órdenes, las desvincula de la mesa y libera la mesa, todo en una sola
// transacción.
type TableCloser struct {
	db *gorm.DB
}

func NewTableCloser(db *gorm.DB) *TableCloser {
	return &TableCloser{db: db}
}

// Close cierra la mesa `tableID` cobrando con `paymentMethod`.
//
// Las órdenes conservan su session_id después del cierre: el historial queda
// consultable por sesión, y como la membresía se chequea por el par
// table_id/session_id vigente, una reocupación posterior de la misma mesa no
// resucita órdenes viejas.
func (s *TableCloser) Close(tableID uint, paymentMethod string) error {
	if paymentMethod != PaymentMethodCash && paymentMethod != PaymentMethodCard {
		return fmt.Errorf("método de pago inválido: %q", paymentMethod)
	}

	var table models.Table
	if err := s.db.First(&table, tableID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTableNotFound
		}
		return fmt.Errorf("error buscando la mesa %d: %w", tableID, err)
	}

	// Chequeo consultivo fuera de la transacción; se repite adentro.
	pending, err := s.countPending(s.db, tableID)
	if err != nil {
		return err
	}
	if pending > 0 {
		return ErrOrdersStillPending
	}

	var total float64
	if err := s.db.Model(&models.Order{}).
		Where("table_id = ?", tableID).
		Select("COALESCE(SUM(total), 0)").
		Scan(&total).Error; err != nil {
		return fmt.Errorf("error sumando la cuenta de la mesa %d: %w", tableID, err)
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("%w: %v", ErrCloseFailed, tx.Error)
	}

	// Revalidar adentro de la transacción: una orden que entró entre el
	// chequeo y el Begin no debe quedar colgada de una mesa liberada.
	pending, err = s.countPending(tx, tableID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("%w: %v", ErrCloseFailed, err)
	}
	if pending > 0 {
		tx.Rollback()
		return ErrOrdersStillPending
	}

	scope := func() *gorm.DB {
		q := tx.Model(&models.Order{}).Where("table_id = ?", tableID)
		if table.SessionID != nil {
			q = q.Where("session_id = ?", *table.SessionID)
		}
		return q
	}

	// a. estampar el método de pago en las órdenes de la sesión
	if err := scope().Update("payment_method", paymentMethod).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("%w: %v", ErrCloseFailed, err)
	}

	// b. desvincular las órdenes de la mesa (session_id queda para historial)
	if err := scope().Update("table_id", nil).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("%w: %v", ErrCloseFailed, err)
	}

	// c. liberar la mesa
	res := tx.Model(&models.Table{}).
		Where("id = ?", tableID).
		Updates(map[string]interface{}{
			"status":     TableStatusAvailable,
			"session_id": nil,
		})
	if res.Error != nil {
		tx.Rollback()
		return fmt.Errorf("%w: %v", ErrCloseFailed, res.Error)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("%w: %v", ErrCloseFailed, err)
	}

	// Notificación post-commit a los tableros; si falla sólo se pierde el
	// refresco, nunca revierte el cierre.
	kds.BroadcastTableClosed(table.Number, paymentMethod, total)
	return nil
}

func (s *TableCloser) countPending(db *gorm.DB, tableID uint) (int64, error) {
	var pending int64
	err := db.Model(&models.Order{}).
		Where("table_id = ? AND status <> ?", tableID, OrderStatusCompleted).
		Count(&pending).Error
	if err != nil {
		return 0, fmt.Errorf("error contando órdenes pendientes de la mesa %d: %w", tableID, err)
	}
	return pending, nil
}
