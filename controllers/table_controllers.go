package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ncastrof/mesa-app/kds"
	"github.com/ncastrof/mesa-app/models"
	"github.com/ncastrof/mesa-app/services"
	"github.com/ncastrof/mesa-app/utils"
)

type TableController struct {
	DB     *gorm.DB
	Tables *services.TableService
	Closer *services.TableCloser
}

func NewTableController(db *gorm.DB, tables *services.TableService, closer *services.TableCloser) *TableController {
	return &TableController{DB: db, Tables: tables, Closer: closer}
}

// CreateTables -> crea N mesas rellenando los huecos de numeración
func (tc *TableController) CreateTables(c *gin.Context) {
	var req struct {
		Count int `json:"count" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	tables, err := tc.Tables.CreateTables(req.Count)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	kds.BroadcastMessage(kds.Message{
		Event: kds.EventTableCreate,
		Data: map[string]interface{}{
			"tables": tables,
			"stats":  tc.dashboardStats(),
		},
	})

	utils.InfoLogger.Printf("%d tables created", len(tables))
	utils.RespondJSON(c, http.StatusCreated, "Mesas creadas", tables)
}

// GetAllTables -> todas las mesas ordenadas por número
func (tc *TableController) GetAllTables(c *gin.Context) {
	tables, err := tc.Tables.GetAllTables()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Listado de mesas", tables)
}

// GetTablesWithOrders -> mesas ocupadas con las órdenes de su sesión abierta
func (tc *TableController) GetTablesWithOrders(c *gin.Context) {
	tables, err := tc.Tables.TablesWithSessionOrders()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Mesas ocupadas", tables)
}

// GetTableSummary -> la cuenta de una mesa (órdenes de la sesión + total)
func (tc *TableController) GetTableSummary(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	summary, err := tc.Tables.GetTableSummary(number)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if summary == nil {
		utils.RespondJSON(c, http.StatusOK, "La mesa no tiene una sesión abierta", nil)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Resumen de la mesa", summary)
}

// RenameTable -> cambia el número visible de la mesa
func (tc *TableController) RenameTable(c *gin.Context) {
	tableID, err := strconv.Atoi(c.Param("table_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Number int `json:"number" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := tc.Tables.RenameTable(uint(tableID), req.Number); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("Table %d renamed to %d", tableID, req.Number)
	utils.RespondJSON(c, http.StatusOK, "Mesa renumerada", gin.H{
		"table_id": tableID,
		"number":   req.Number,
	})
}

// UpdateTablePosition -> mueve la mesa en el plano del salón
func (tc *TableController) UpdateTablePosition(c *gin.Context) {
	tableID, err := strconv.Atoi(c.Param("table_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := tc.Tables.UpdateTablePosition(uint(tableID), req.X, req.Y); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Posición actualizada", nil)
}

// DeleteTable -> elimina una mesa por número si no tiene órdenes activas
func (tc *TableController) DeleteTable(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := tc.Tables.DeleteTable(number); err != nil {
		respondServiceError(c, err)
		return
	}

	kds.BroadcastMessage(kds.Message{
		Event: kds.EventTableDelete,
		Data: map[string]interface{}{
			"table_number": number,
			"stats":        tc.dashboardStats(),
		},
	})

	utils.InfoLogger.Printf("Table %d deleted", number)
	utils.RespondJSON(c, http.StatusOK, "Mesa eliminada", gin.H{"number": number})
}

// CloseTable -> cierra la sesión de la mesa cobrando con el método indicado
func (tc *TableController) CloseTable(c *gin.Context) {
	tableID, err := strconv.Atoi(c.Param("table_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		PaymentMethod string `json:"payment_method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := tc.Closer.Close(uint(tableID), req.PaymentMethod); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("Table %d closed (payment=%s)", tableID, req.PaymentMethod)
	utils.RespondJSON(c, http.StatusOK, "Mesa cerrada", gin.H{
		"table_id":       tableID,
		"payment_method": req.PaymentMethod,
	})
}

func (tc *TableController) dashboardStats() map[string]interface{} {
	var availableCount, occupiedCount int64

	tc.DB.Model(&models.Table{}).Where("status = ?", services.TableStatusAvailable).Count(&availableCount)
	tc.DB.Model(&models.Table{}).Where("status = ?", services.TableStatusOccupied).Count(&occupiedCount)

	return map[string]interface{}{
		"available": availableCount,
		"occupied":  occupiedCount,
		"total":     availableCount + occupiedCount,
	}
}
