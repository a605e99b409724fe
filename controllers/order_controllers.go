package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ncastrof/mesa-app/kds"
	"github.com/ncastrof/mesa-app/services"
	"github.com/ncastrof/mesa-app/utils"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// CreateOrder -> crea una orden (salón o delivery). El mismo handler sirve
// la ruta pública y la de admin; si la request viene autenticada como staff,
// la orden entra como orden de admin y saltea el chequeo de teléfono.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req services.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if role, ok := c.Get("role"); ok {
		req.IsAdminOrder = role == "admin" || role == "staff"
	}

	order, err := oc.Orders.CreateOrder(req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	kds.BroadcastOrderCreate(*order)
	if order.TableNumber != nil {
		utils.InfoLogger.Printf("Order %d created for table %d (session=%s)",
			order.ID, *order.TableNumber, *order.SessionID)
	} else {
		utils.InfoLogger.Printf("Order %d created (delivery)", order.ID)
	}

	utils.RespondJSON(c, http.StatusCreated, "Orden creada", order)
}

// GetAllOrders -> lista de órdenes con items
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	orders, err := oc.Orders.GetAllOrders()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Listado de órdenes", orders)
}

// GetOrderByID -> detalle de una orden
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.GetOrderByID(uint(orderID))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Detalle de la orden", order)
}

// MarkOrderReady -> la cocina marca la orden como lista
func (oc *OrderController) MarkOrderReady(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.MarkOrderReady(uint(orderID))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	kds.BroadcastOrderUpdate(*order)
	utils.RespondJSON(c, http.StatusOK, "Orden lista", order)
}

// DeleteOrder -> elimina una orden; si era la última de la mesa, la libera
func (oc *OrderController) DeleteOrder(c *gin.Context) {
	orderID, err := strconv.Atoi(c.Param("order_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := oc.Orders.DeleteOrder(uint(orderID)); err != nil {
		respondServiceError(c, err)
		return
	}

	kds.BroadcastOrderDelete(uint(orderID))
	utils.InfoLogger.Printf("Order %d deleted", orderID)
	utils.RespondJSON(c, http.StatusOK, "Orden eliminada", gin.H{"order_id": orderID})
}
