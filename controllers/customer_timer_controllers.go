package controllers

import (
	"net/http"
	"strconv"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/services"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"github.com/gin-gonic/gin"
)

type CustomerTimerController struct {
	Timers *services.CustomerTimerService
}

func NewCustomerTimerController(timers *services.CustomerTimerService) *CustomerTimerController {
	return &CustomerTimerController{Timers: timers}
}

// GetTimers -> ?table_id=&is_active=
func (tc *CustomerTimerController) GetTimers(c *gin.Context) {
	var filter services.CustomerTimerFilter
	fields := []services.FieldError{}

	if raw := c.Query("table_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			fields = append(fields, services.FieldError{Field: "table_id", Message: "must be a number"})
		} else {
			tableID := uint(id)
			filter.TableID = &tableID
		}
	}
	if raw := c.Query("is_active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			fields = append(fields, services.FieldError{Field: "is_active", Message: "must be true or false"})
		} else {
			filter.IsActive = &active
		}
	}
	if len(fields) > 0 {
		utils.RespondValidation(c, fields)
		return
	}

	timers, err := tc.Timers.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, "fetch timers", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Timers retrieved successfully", timers)
}

func (tc *CustomerTimerController) GetActiveTimer(c *gin.Context) {
	timer, err := tc.Timers.GetActiveByTableCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondServiceError(c, "fetch active timer", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Active timer retrieved successfully", timer)
}

// StartTimer -> upsert, satu timer aktif per meja
func (tc *CustomerTimerController) StartTimer(c *gin.Context) {
	var input services.StartTimerInput
	if !bindJSON(c, &input) {
		return
	}

	timer, created, err := tc.Timers.Start(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, "start timer", err)
		return
	}
	if created {
		utils.RespondJSON(c, http.StatusCreated, "Timer started successfully", timer)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Timer updated successfully", timer)
}

func (tc *CustomerTimerController) UpdateTimer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input services.UpdateTimerInput
	if !bindJSON(c, &input) {
		return
	}

	timer, err := tc.Timers.Update(c.Request.Context(), id, input)
	if err != nil {
		respondServiceError(c, "update timer", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Timer updated successfully", timer)
}

func (tc *CustomerTimerController) StopTimer(c *gin.Context) {
	timer, err := tc.Timers.StopByTableCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondServiceError(c, "stop timer", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Timer stopped successfully", timer)
}
