package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ncastrof/mesa-app/models"
)

// OrderService crea y administra órdenes. Las órdenes de salón pasan por el
// SessionResolver; las de delivery no tocan mesas.
type OrderService struct {
	db       *gorm.DB
	resolver *SessionResolver
	tables   *TableService
}

func NewOrderService(db *gorm.DB, resolver *SessionResolver, tables *TableService) *OrderService {
	return &OrderService{db: db, resolver: resolver, tables: tables}
}

type OrderItemInput struct {
	ProductID uint   `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Variant   string `json:"variant"`
}

type CreateOrderInput struct {
	CustomerName string           `json:"customer_name"`
	Phone        *string          `json:"phone"`
	Address      *string          `json:"address"`
	DeliveryType string           `json:"delivery_type"`
	Note         string           `json:"note"`
	TableNumber  *int             `json:"table_number"`
	IsAdminOrder bool             `json:"-"`
	Items        []OrderItemInput `json:"items"`
}

// CreateOrder persiste una orden nueva. Para salón primero resuelve la
// sesión (puede fallar con ErrTableConflict); los items copian nombre,
// precio e imagen del producto al momento de ordenar, así las ediciones o
// bajas posteriores del catálogo no tocan el historial.
func (s *OrderService) CreateOrder(in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, errors.New("la orden no tiene items")
	}
	if in.DeliveryType != DeliveryTypeLocal && in.DeliveryType != DeliveryTypeDelivery {
		return nil, fmt.Errorf("tipo de entrega inválido: %q", in.DeliveryType)
	}

	var resolution *Resolution
	if in.DeliveryType == DeliveryTypeLocal {
		if in.TableNumber == nil {
			return nil, errors.New("una orden de salón necesita número de mesa")
		}
		identity := Identity{IsAdmin: in.IsAdminOrder}
		if in.Phone != nil {
			identity.Phone = *in.Phone
		}
		var err error
		resolution, err = s.resolver.Resolve(*in.TableNumber, identity)
		if err != nil {
			return nil, err
		}
	}

	order := models.Order{
		CustomerName: in.CustomerName,
		Phone:        in.Phone,
		Address:      in.Address,
		DeliveryType: in.DeliveryType,
		Note:         in.Note,
		Status:       OrderStatusPending,
	}
	if resolution != nil {
		tableID := resolution.TableID
		tableNumber := resolution.TableNumber
		sessionID := resolution.SessionID
		order.TableID = &tableID
		order.TableNumber = &tableNumber
		order.SessionID = &sessionID
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var total float64
		items := make([]models.OrderItem, 0, len(in.Items))
		for _, it := range in.Items {
			var product models.Product
			if err := tx.First(&product, it.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrProductNotFound
				}
				return fmt.Errorf("error buscando el producto %d: %w", it.ProductID, err)
			}

			qty := it.Quantity
			if qty <= 0 {
				qty = 1
			}
			total += product.Price * float64(qty)

			productID := product.ID
			items = append(items, models.OrderItem{
				ProductID:    &productID,
				ProductName:  product.Name,
				ProductPrice: product.Price,
				ProductImage: product.Image,
				Variant:      it.Variant,
				Quantity:     qty,
			})
		}

		order.Total = total
		order.OrderItems = items
		return tx.Create(&order).Error
	})
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error creando la orden: %w", err)
	}
	return &order, nil
}

// MarkOrderReady marca la orden como lista (pending → completed) y estampa
// la hora. El estado nunca retrocede; marcar dos veces es un no-op.
func (s *OrderService) MarkOrderReady(orderID uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("error buscando la orden %d: %w", orderID, err)
	}

	if order.Status == OrderStatusCompleted {
		return &order, nil
	}

	now := time.Now()
	order.Status = OrderStatusCompleted
	order.OrderReadyAt = &now
	if err := s.db.Save(&order).Error; err != nil {
		return nil, fmt.Errorf("error marcando la orden %d: %w", orderID, err)
	}
	return &order, nil
}

// DeleteOrder borra una orden con sus items. Si era la última orden abierta
// de su mesa, la mesa se libera en la misma transacción.
func (s *OrderService) DeleteOrder(orderID uint) error {
	var order models.Order
	if err := s.db.First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("error buscando la orden %d: %w", orderID, err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&order).Error; err != nil {
			return err
		}

		if order.TableID == nil {
			return nil
		}
		var remaining int64
		if err := tx.Model(&models.Order{}).
			Where("table_id = ? AND status IN ?", *order.TableID, OpenOrderStatuses).
			Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			return releaseTable(tx, *order.TableID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("error eliminando la orden %d: %w", orderID, err)
	}
	return nil
}

// GetAllOrders lista las órdenes con sus items, la más nueva primero.
func (s *OrderService) GetAllOrders() ([]models.Order, error) {
	var orders []models.Order
	if err := s.db.Preload("OrderItems").
		Order("created_at desc").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("error listando órdenes: %w", err)
	}
	return orders, nil
}

// GetOrderByID devuelve una orden con sus items.
func (s *OrderService) GetOrderByID(orderID uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.Preload("OrderItems").First(&order, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("error buscando la orden %d: %w", orderID, err)
	}
	return &order, nil
}
