package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/services"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const invalidTableCodeMessage = "Invalid table code, please check and try again"

// RefillRecorder -> countdown yang mengingat refill terakhir per meja
type RefillRecorder interface {
	RecordRefill(ctx context.Context, tableCode string, refillID uint) error
}

type RefillController struct {
	Refills *services.RefillService
	Timers  RefillRecorder
}

func NewRefillController(refills *services.RefillService, timers RefillRecorder) *RefillController {
	return &RefillController{Refills: refills, Timers: timers}
}

// ValidateTable -> cek kode meja sebelum customer masuk ke form refill
func (rc *RefillController) ValidateTable(c *gin.Context) {
	var body struct {
		TableCode string `json:"table_code"`
	}
	if !bindJSON(c, &body) {
		return
	}
	if strings.TrimSpace(body.TableCode) == "" {
		utils.RespondValidation(c, []services.FieldError{{Field: "table_code", Message: "Table code is required"}})
		return
	}

	table, err := rc.Refills.ValidateTableCode(c.Request.Context(), body.TableCode)
	var notFound *services.NotFoundError
	if errors.As(err, &notFound) {
		utils.RespondError(c, http.StatusNotFound, errors.New(invalidTableCodeMessage))
		return
	}
	if err != nil {
		respondServiceError(c, "validate table code", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table code is valid", table)
}

// CreateRefillRequest -> tidak mereset countdown meja, hanya mencatat refill terakhir
func (rc *RefillController) CreateRefillRequest(c *gin.Context) {
	var input services.CreateRefillInput
	if !bindJSON(c, &input) {
		return
	}

	request, err := rc.Refills.Create(c.Request.Context(), input)
	var notFound *services.NotFoundError
	if errors.As(err, &notFound) {
		utils.RespondError(c, http.StatusNotFound, errors.New(invalidTableCodeMessage))
		return
	}
	if err != nil {
		respondServiceError(c, "create refill request", err)
		return
	}

	if rc.Timers != nil {
		if err := rc.Timers.RecordRefill(c.Request.Context(), request.TableCode, request.ID); err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{
				"refill_id":  request.ID,
				"table_code": request.TableCode,
				"error":      err.Error(),
			}).Warn("Failed to record last refill for countdown")
		}
	}

	utils.RespondJSON(c, http.StatusCreated, "Refill request created successfully", request)
}

func (rc *RefillController) UpdateRefillStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input services.UpdateRefillStatusInput
	if !bindJSON(c, &input) {
		return
	}

	request, err := rc.Refills.UpdateStatus(c.Request.Context(), id, input)
	if err != nil {
		respondServiceError(c, "update refill request status", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Refill request status updated successfully", request)
}

// GetRefillRequests -> ?status=&table_id=&table_code=
func (rc *RefillController) GetRefillRequests(c *gin.Context) {
	filter := services.RefillFilter{
		Status:    c.Query("status"),
		TableCode: c.Query("table_code"),
	}
	if raw := c.Query("table_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			utils.RespondValidation(c, []services.FieldError{{Field: "table_id", Message: "must be a number"}})
			return
		}
		tableID := uint(id)
		filter.TableID = &tableID
	}

	requests, err := rc.Refills.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, "fetch refill requests", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Refill requests retrieved successfully", requests)
}

func (rc *RefillController) GetRefillRequest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	request, err := rc.Refills.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, "fetch refill request", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Refill request retrieved successfully", request)
}

func (rc *RefillController) DeleteRefillRequest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := rc.Refills.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, "delete refill request", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Refill request deleted successfully", gin.H{"id": id})
}
