package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ncastrof/mesa-app/models"
)

func newOrderService(t *testing.T) (*OrderService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	tables := NewTableService(db)
	resolver := NewSessionResolver(db, tables)
	return NewOrderService(db, resolver, tables), db
}

func seedCatalog(t *testing.T, db *gorm.DB) (models.Product, models.Product) {
	t.Helper()
	category := models.Category{Name: "Platos", Slug: "platos"}
	require.NoError(t, db.Create(&category).Error)

	milanesa := models.Product{CategoryID: category.ID, Name: "Milanesa", Price: 1200, Image: "milanesa.jpg"}
	empanada := models.Product{CategoryID: category.ID, Name: "Empanada", Price: 250, Image: "empanada.jpg"}
	require.NoError(t, db.Create(&milanesa).Error)
	require.NoError(t, db.Create(&empanada).Error)
	return milanesa, empanada
}

func TestCreateLocalOrderResolvesSessionAndSnapshots(t *testing.T) {
	svc, db := newOrderService(t)
	milanesa, empanada := seedCatalog(t, db)

	tableNumber := 7
	order, err := svc.CreateOrder(CreateOrderInput{
		CustomerName: "Ana",
		Phone:        strPtr("555-0101"),
		DeliveryType: DeliveryTypeLocal,
		TableNumber:  &tableNumber,
		Items: []OrderItemInput{
			{ProductID: milanesa.ID, Quantity: 1},
			{ProductID: empanada.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, order.TableID)
	require.NotNil(t, order.SessionID)
	assert.Equal(t, 1950.0, order.Total)
	require.Len(t, order.OrderItems, 2)
	assert.Equal(t, "Milanesa", order.OrderItems[0].ProductName)
	assert.Equal(t, 1200.0, order.OrderItems[0].ProductPrice)

	var table models.Table
	require.NoError(t, db.Where("number = ?", 7).First(&table).Error)
	assert.Equal(t, TableStatusOccupied, table.Status)
	assert.Equal(t, *order.SessionID, *table.SessionID)
}

func TestOrderItemsSurviveCatalogEdits(t *testing.T) {
	svc, db := newOrderService(t)
	milanesa, _ := seedCatalog(t, db)

	tableNumber := 2
	order, err := svc.CreateOrder(CreateOrderInput{
		CustomerName: "Ana",
		Phone:        strPtr("555-0101"),
		DeliveryType: DeliveryTypeLocal,
		TableNumber:  &tableNumber,
		Items:        []OrderItemInput{{ProductID: milanesa.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	// El precio y el nombre quedan congelados al momento de ordenar.
	require.NoError(t, db.Model(&milanesa).Updates(map[string]interface{}{
		"name": "Milanesa Napolitana", "price": 1500,
	}).Error)

	var item models.OrderItem
	require.NoError(t, db.Where("order_id = ?", order.ID).First(&item).Error)
	assert.Equal(t, "Milanesa", item.ProductName)
	assert.Equal(t, 1200.0, item.ProductPrice)
}

func TestCreateDeliveryOrderSkipsTables(t *testing.T) {
	svc, db := newOrderService(t)
	milanesa, _ := seedCatalog(t, db)

	order, err := svc.CreateOrder(CreateOrderInput{
		CustomerName: "Bruno",
		Phone:        strPtr("555-0303"),
		Address:      strPtr("Av. Siempre Viva 742"),
		DeliveryType: DeliveryTypeDelivery,
		Items:        []OrderItemInput{{ProductID: milanesa.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Nil(t, order.TableID)
	assert.Nil(t, order.SessionID)

	var count int64
	db.Model(&models.Table{}).Count(&count)
	assert.EqualValues(t, 0, count)
}

func TestCreateOrderValidation(t *testing.T) {
	svc, db := newOrderService(t)
	milanesa, _ := seedCatalog(t, db)

	_, err := svc.CreateOrder(CreateOrderInput{
		CustomerName: "Ana",
		DeliveryType: DeliveryTypeLocal,
		TableNumber:  nil,
		Items:        []OrderItemInput{{ProductID: milanesa.ID}},
	})
	assert.Error(t, err)

	tableNumber := 1
	_, err = svc.CreateOrder(CreateOrderInput{
		CustomerName: "Ana",
		DeliveryType: "takeaway",
		TableNumber:  &tableNumber,
		Items:        []OrderItemInput{{ProductID: milanesa.ID}},
	})
	assert.Error(t, err)

	_, err = svc.CreateOrder(CreateOrderInput{
		CustomerName: "Ana",
		DeliveryType: DeliveryTypeLocal,
		TableNumber:  &tableNumber,
		Items:        []OrderItemInput{},
	})
	assert.Error(t, err)

	_, err = svc.CreateOrder(CreateOrderInput{
		CustomerName: "Ana",
		Phone:        strPtr("555-0101"),
		DeliveryType: DeliveryTypeLocal,
		TableNumber:  &tableNumber,
		Items:        []OrderItemInput{{ProductID: 999}},
	})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCreateOrderRejectsForeignPhone(t *testing.T) {
	svc, _ := newOrderService(t)
	milanesa, _ := seedCatalog(t, svc.db)

	tableNumber := 7
	_, err := svc.CreateOrder(CreateOrderInput{
		CustomerName: "Ana",
		Phone:        strPtr("555-0101"),
		DeliveryType: DeliveryTypeLocal,
		TableNumber:  &tableNumber,
		Items:        []OrderItemInput{{ProductID: milanesa.ID}},
	})
	require.NoError(t, err)

	_, err = svc.CreateOrder(CreateOrderInput{
		CustomerName: "Bruno",
		Phone:        strPtr("555-0202"),
		DeliveryType: DeliveryTypeLocal,
		TableNumber:  &tableNumber,
		Items:        []OrderItemInput{{ProductID: milanesa.ID}},
	})
	assert.ErrorIs(t, err, ErrTableConflict)

	// El staff entra igual.
	_, err = svc.CreateOrder(CreateOrderInput{
		CustomerName: "Mozo",
		DeliveryType: DeliveryTypeLocal,
		TableNumber:  &tableNumber,
		IsAdminOrder: true,
		Items:        []OrderItemInput{{ProductID: milanesa.ID}},
	})
	assert.NoError(t, err)
}

func TestMarkOrderReadyIsIdempotent(t *testing.T) {
	svc, db := newOrderService(t)
	milanesa, _ := seedCatalog(t, db)

	tableNumber := 3
	order, err := svc.CreateOrder(CreateOrderInput{
		CustomerName: "Ana",
		Phone:        strPtr("555-0101"),
		DeliveryType: DeliveryTypeLocal,
		TableNumber:  &tableNumber,
		Items:        []OrderItemInput{{ProductID: milanesa.ID}},
	})
	require.NoError(t, err)

	ready, err := svc.MarkOrderReady(order.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCompleted, ready.Status)
	require.NotNil(t, ready.OrderReadyAt)
	firstReadyAt := *ready.OrderReadyAt

	again, err := svc.MarkOrderReady(order.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCompleted, again.Status)
	assert.WithinDuration(t, firstReadyAt, *again.OrderReadyAt, time.Second)

	_, err = svc.MarkOrderReady(999)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestDeleteLastOrderReleasesTable(t *testing.T) {
	svc, db := newOrderService(t)
	milanesa, _ := seedCatalog(t, db)

	tableNumber := 4
	order, err := svc.CreateOrder(CreateOrderInput{
		CustomerName: "Ana",
		Phone:        strPtr("555-0101"),
		DeliveryType: DeliveryTypeLocal,
		TableNumber:  &tableNumber,
		Items:        []OrderItemInput{{ProductID: milanesa.ID}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrder(order.ID))

	var table models.Table
	require.NoError(t, db.Where("number = ?", 4).First(&table).Error)
	assert.Equal(t, TableStatusAvailable, table.Status)
	assert.Nil(t, table.SessionID)

	var items int64
	db.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).Count(&items)
	assert.EqualValues(t, 0, items)

	assert.ErrorIs(t, svc.DeleteOrder(order.ID), ErrOrderNotFound)
}

func TestDeleteOrderKeepsTableWithOpenOrders(t *testing.T) {
	svc, db := newOrderService(t)
	milanesa, _ := seedCatalog(t, db)

	tableNumber := 4
	first, err := svc.CreateOrder(CreateOrderInput{
		CustomerName: "Ana",
		Phone:        strPtr("555-0101"),
		DeliveryType: DeliveryTypeLocal,
		TableNumber:  &tableNumber,
		Items:        []OrderItemInput{{ProductID: milanesa.ID}},
	})
	require.NoError(t, err)

	_, err = svc.CreateOrder(CreateOrderInput{
		CustomerName: "Ana",
		Phone:        strPtr("555-0101"),
		DeliveryType: DeliveryTypeLocal,
		TableNumber:  &tableNumber,
		Items:        []OrderItemInput{{ProductID: milanesa.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrder(first.ID))

	var table models.Table
	require.NoError(t, db.Where("number = ?", 4).First(&table).Error)
	assert.Equal(t, TableStatusOccupied, table.Status)
	assert.NotNil(t, table.SessionID)
}
