package kds

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/ncastrof/mesa-app/models"
	"github.com/ncastrof/mesa-app/utils"
)

// Eventos que consumen el tablero de cocina y el plano de mesas. Los clientes
// recargan la vista afectada al recibirlos; perder un evento no corrompe
// nada, sólo demora el refresco.
const (
	EventOrderCreate     = "order_create"
	EventOrderUpdate     = "order_update"
	EventOrderDelete     = "order_delete"
	EventTableCreate     = "table_create"
	EventTableUpdate     = "table_update"
	EventTableDelete     = "table_delete"
	EventTableClosed     = "table_closed"
	EventStaffNotif      = "staff_notification"
	EventDashboardUpdate = "dashboard_update"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// hub guarda las conexiones del tablero (staff, admin, cocina) por rol.
type hub struct {
	clients map[*websocket.Conn]string
	mutex   sync.Mutex
}

var boardHub = hub{
	clients: make(map[*websocket.Conn]string),
}

// RegisterClient suma una conexión al hub con su rol.
func RegisterClient(conn *websocket.Conn, role string) {
	boardHub.mutex.Lock()
	defer boardHub.mutex.Unlock()
	boardHub.clients[conn] = role
}

// UnregisterClient saca la conexión y la cierra.
func UnregisterClient(conn *websocket.Conn) {
	boardHub.mutex.Lock()
	defer boardHub.mutex.Unlock()
	delete(boardHub.clients, conn)
	conn.Close()
}

// BroadcastOrderCreate avisa que entró una orden nueva.
func BroadcastOrderCreate(order models.Order) {
	broadcast(Message{Event: EventOrderCreate, Data: order})
}

// BroadcastOrderUpdate avisa que una orden cambió de estado.
func BroadcastOrderUpdate(order models.Order) {
	broadcast(Message{Event: EventOrderUpdate, Data: order})
}

// BroadcastOrderDelete avisa que se eliminó una orden.
func BroadcastOrderDelete(orderID uint) {
	broadcast(Message{Event: EventOrderDelete, Data: map[string]interface{}{"order_id": orderID}})
}

// BroadcastTableUpdate avisa un cambio de estado de mesa.
func BroadcastTableUpdate(table models.Table) {
	broadcast(Message{Event: EventTableUpdate, Data: table})
}

// BroadcastTableClosed avisa que una mesa se cerró y con qué se cobró, para
// que el plano y el tablero dejen de mostrar la sesión.
func BroadcastTableClosed(tableNumber int, paymentMethod string, total float64) {
	broadcast(Message{
		Event: EventTableClosed,
		Data: map[string]interface{}{
			"table_number":   tableNumber,
			"payment_method": paymentMethod,
			"total":          total,
			"message": fmt.Sprintf("Mesa %d cerrada (%s), total %s",
				tableNumber, paymentMethod, utils.FormatCurrency(total)),
		},
	})
}

// BroadcastStaffNotification manda un aviso de texto al staff.
func BroadcastStaffNotification(message string) {
	broadcast(Message{Event: EventStaffNotif, Data: message})
}

// BroadcastMessage manda un mensaje arbitrario.
func BroadcastMessage(msg Message) {
	broadcast(msg)
}

func broadcast(msg Message) {
	boardHub.mutex.Lock()
	defer boardHub.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	for conn := range boardHub.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("Error sending message to client: %v", err)
			continue
		}
	}
}
