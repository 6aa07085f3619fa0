package controllers

import (
	"errors"
	"net/http"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/refilltimer"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/services"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"github.com/gin-gonic/gin"
)

type TableController struct {
	Tables       *services.TableService
	Availability *services.AvailabilityService
	Timers       *refilltimer.Coordinator
}

func NewTableController(tables *services.TableService, availability *services.AvailabilityService, timers *refilltimer.Coordinator) *TableController {
	return &TableController{Tables: tables, Availability: availability, Timers: timers}
}

// GetAvailableTables -> meja yang masih kosong untuk date + time
func (tc *TableController) GetAvailableTables(c *gin.Context) {
	date := c.Query("date")
	timeValue := c.Query("time")

	tables, err := tc.Availability.GetAvailableTables(c.Request.Context(), date, timeValue)
	if err != nil {
		respondServiceError(c, "fetch available tables", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Available tables retrieved successfully", tables)
}

// GetAllTables -> menampilkan seluruh meja
func (tc *TableController) GetAllTables(c *gin.Context) {
	tables, err := tc.Tables.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, "fetch tables", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

func (tc *TableController) GetTable(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	table, err := tc.Tables.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "fetch table", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table retrieved successfully", table)
}

// CreateTable -> menambahkan meja baru
func (tc *TableController) CreateTable(c *gin.Context) {
	var req services.CreateTableInput
	if !bindJSON(c, &req) {
		return
	}

	table, err := tc.Tables.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, "create table", err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// UpdateTableStatus -> update status meja
func (tc *TableController) UpdateTableStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status"`
	}
	if !bindJSON(c, &body) {
		return
	}

	table, err := tc.Tables.UpdateStatus(c.Request.Context(), id, body.Status)
	if err != nil {
		respondServiceError(c, "update table status", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table status updated", table)
}

// GetTableTimer -> format timer POS {remainingSec, durationSec}, :id berisi table code
func (tc *TableController) GetTableTimer(c *gin.Context) {
	code := c.Param("id")
	snap, err := tc.Timers.Tick(c.Request.Context(), code)
	if errors.Is(err, refilltimer.ErrNoCountdown) {
		utils.RespondJSON(c, http.StatusOK, "No active timer", gin.H{
			"table_code":   code,
			"remainingSec": 0,
			"durationSec":  0,
		})
		return
	}
	if err != nil {
		respondServiceError(c, "fetch table timer", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table timer retrieved successfully", gin.H{
		"table_code":   snap.TableCode,
		"remainingSec": snap.RemainingSeconds,
		"durationSec":  snap.DurationSeconds,
		"status":       snap.Status,
	})
}
