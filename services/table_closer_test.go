package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ncastrof/mesa-app/models"
)

func TestCloseTableStampsPaymentAndFreesTable(t *testing.T) {
	db := setupTestDB(t)
	closer := NewTableCloser(db)

	table := models.Table{Number: 7, Status: TableStatusOccupied, SessionID: strPtr("s1")}
	require.NoError(t, db.Create(&table).Error)
	o1 := seedOrder(t, db, &table, "s1", strPtr("555-0101"), OrderStatusCompleted, 25)
	o2 := seedOrder(t, db, &table, "s1", strPtr("555-0101"), OrderStatusCompleted, 40)

	require.NoError(t, closer.Close(table.ID, PaymentMethodCash))

	for _, id := range []uint{o1.ID, o2.ID} {
		var got models.Order
		require.NoError(t, db.First(&got, id).Error)
		require.NotNil(t, got.PaymentMethod)
		assert.Equal(t, PaymentMethodCash, *got.PaymentMethod)
		// La orden se desvincula de la mesa pero conserva la sesión para el
		// historial.
		assert.Nil(t, got.TableID)
		require.NotNil(t, got.SessionID)
		assert.Equal(t, "s1", *got.SessionID)
	}

	var gotTable models.Table
	require.NoError(t, db.First(&gotTable, table.ID).Error)
	assert.Equal(t, TableStatusAvailable, gotTable.Status)
	assert.Nil(t, gotTable.SessionID)
}

func TestCloseTableRejectsPendingOrders(t *testing.T) {
	db := setupTestDB(t)
	closer := NewTableCloser(db)

	table := models.Table{Number: 7, Status: TableStatusOccupied, SessionID: strPtr("s1")}
	require.NoError(t, db.Create(&table).Error)
	order := seedOrder(t, db, &table, "s1", strPtr("555-0101"), OrderStatusPending, 25)

	err := closer.Close(table.ID, PaymentMethodCard)
	assert.ErrorIs(t, err, ErrOrdersStillPending)

	// Nada se mutó: el cierre rechazado no deja estado a medias.
	var gotOrder models.Order
	require.NoError(t, db.First(&gotOrder, order.ID).Error)
	assert.Nil(t, gotOrder.PaymentMethod)
	assert.NotNil(t, gotOrder.TableID)

	var gotTable models.Table
	require.NoError(t, db.First(&gotTable, table.ID).Error)
	assert.Equal(t, TableStatusOccupied, gotTable.Status)
}

func TestCloseTableInvalidPaymentMethod(t *testing.T) {
	db := setupTestDB(t)
	closer := NewTableCloser(db)

	table := models.Table{Number: 7, Status: TableStatusOccupied, SessionID: strPtr("s1")}
	require.NoError(t, db.Create(&table).Error)

	assert.Error(t, closer.Close(table.ID, "bitcoin"))
}

func TestCloseTableNotFound(t *testing.T) {
	db := setupTestDB(t)
	closer := NewTableCloser(db)

	assert.ErrorIs(t, closer.Close(999, PaymentMethodCash), ErrTableNotFound)
}

func TestCloseTableRollsBackOnFailure(t *testing.T) {
	db := setupTestDB(t)
	closer := NewTableCloser(db)

	table := models.Table{Number: 7, Status: TableStatusOccupied, SessionID: strPtr("s1")}
	require.NoError(t, db.Create(&table).Error)
	order := seedOrder(t, db, &table, "s1", strPtr("555-0101"), OrderStatusCompleted, 25)

	// Forzar la falla del último paso (liberar la mesa) para verificar que
	// el estampado de pago no sobrevive solo.
	err := db.Callback().Update().Before("gorm:update").Register("force_tables_failure", func(tx *gorm.DB) {
		if tx.Statement.Table == "tables" {
			tx.AddError(errors.New("forced failure"))
		}
	})
	require.NoError(t, err)
	defer db.Callback().Update().Remove("force_tables_failure")

	closeErr := closer.Close(table.ID, PaymentMethodCash)
	assert.ErrorIs(t, closeErr, ErrCloseFailed)

	var gotOrder models.Order
	require.NoError(t, db.First(&gotOrder, order.ID).Error)
	assert.Nil(t, gotOrder.PaymentMethod)
	require.NotNil(t, gotOrder.TableID)
	assert.Equal(t, table.ID, *gotOrder.TableID)

	var gotTable models.Table
	require.NoError(t, db.First(&gotTable, table.ID).Error)
	assert.Equal(t, TableStatusOccupied, gotTable.Status)
}

func TestCloseThenReopenMintsFreshSession(t *testing.T) {
	db := setupTestDB(t)
	tables := NewTableService(db)
	resolver := NewSessionResolver(db, tables)
	closer := NewTableCloser(db)

	table := models.Table{Number: 7}
	require.NoError(t, db.Create(&table).Error)

	first, err := resolver.Resolve(7, Identity{Phone: "555-0101"})
	require.NoError(t, err)
	require.NoError(t, db.First(&table, table.ID).Error)
	seedOrder(t, db, &table, first.SessionID, strPtr("555-0101"), OrderStatusCompleted, 30)

	require.NoError(t, closer.Close(table.ID, PaymentMethodCard))

	// La reapertura acuña otra sesión; las órdenes cerradas no resucitan ni
	// bloquean al cliente nuevo por teléfono.
	second, err := resolver.Resolve(7, Identity{Phone: "555-0202"})
	require.NoError(t, err)
	assert.True(t, second.IsNewSession)
	assert.NotEqual(t, first.SessionID, second.SessionID)
}
