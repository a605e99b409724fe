package services

import "errors"

// Errores del ciclo de vida de mesas y sesiones. Los controllers los mapean
// uno a uno a mensajes visibles para el usuario.
var (
	// ErrTableConflict: un cliente intentó sumarse a una mesa cuya sesión
	// abrió otro teléfono.
	ErrTableConflict = errors.New("la mesa ya está ocupada por otro cliente")

	// ErrDuplicateNumber: ya existe otra mesa viva con ese número.
	ErrDuplicateNumber = errors.New("ya existe una mesa con ese número")

	// ErrTableHasOpenOrders: no se puede eliminar una mesa con órdenes activas.
	ErrTableHasOpenOrders = errors.New("no se puede eliminar una mesa con órdenes activas")

	// ErrOrdersStillPending: no se puede cerrar la mesa, hay órdenes pendientes.
	ErrOrdersStillPending = errors.New("no se puede cerrar la mesa, hay órdenes pendientes")

	// ErrTableNotFound: la mesa referenciada no existe.
	ErrTableNotFound = errors.New("mesa no encontrada")

	// ErrCloseFailed: la transacción de cierre abortó sin dejar estado
	// parcial; es seguro reintentar.
	ErrCloseFailed = errors.New("error al cerrar la mesa")

	// ErrOrderNotFound: la orden referenciada no existe.
	ErrOrderNotFound = errors.New("orden no encontrada")

	// ErrProductNotFound: un item referencia un producto inexistente.
	ErrProductNotFound = errors.New("producto no encontrado")
)
