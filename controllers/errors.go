package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ncastrof/mesa-app/services"
	"github.com/ncastrof/mesa-app/utils"
)

type CustomError struct {
	Message string
}

func (e *CustomError) Error() string {
	return e.Message
}

var ErrNoPermission = &CustomError{"No tenés permisos para esta acción"}

// respondServiceError mapea cada clase de error del core a un status HTTP y
// deja un solo mensaje por clase. Los errores de storage inesperados se
// loguean y salen como 500 genérico.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTableConflict),
		errors.Is(err, services.ErrDuplicateNumber),
		errors.Is(err, services.ErrTableHasOpenOrders),
		errors.Is(err, services.ErrOrdersStillPending):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, services.ErrTableNotFound),
		errors.Is(err, services.ErrOrderNotFound),
		errors.Is(err, services.ErrProductNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.Is(err, services.ErrCloseFailed):
		utils.RespondError(c, http.StatusInternalServerError, err)
	default:
		utils.ErrorLogger.Printf("storage error: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, err)
	}
}
