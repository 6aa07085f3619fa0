package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/refilltimer"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/services"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"github.com/gin-gonic/gin"
)

type RefillTimerController struct {
	Timers *refilltimer.Coordinator
	Tables *services.TableService
}

func NewRefillTimerController(timers *refilltimer.Coordinator, tables *services.TableService) *RefillTimerController {
	return &RefillTimerController{Timers: timers, Tables: tables}
}

// minutesQuery -> nil jika ?minutes tidak dikirim
func minutesQuery(c *gin.Context) (*int, bool) {
	raw := c.Query("minutes")
	if raw == "" {
		return nil, true
	}
	m, err := strconv.Atoi(raw)
	if err != nil || m < 0 {
		utils.RespondValidation(c, []services.FieldError{{Field: "minutes", Message: "must be a non-negative number"}})
		return nil, false
	}
	return &m, true
}

// knownTable -> countdown hanya untuk kode meja yang terdaftar
func (tc *RefillTimerController) knownTable(c *gin.Context, code string) bool {
	if _, err := tc.Tables.GetByCode(c.Request.Context(), code); err != nil {
		var notFound *services.NotFoundError
		if errors.As(err, &notFound) {
			utils.RespondError(c, http.StatusNotFound, errors.New(invalidTableCodeMessage))
			return false
		}
		respondServiceError(c, "lookup table", err)
		return false
	}
	return true
}

// StartCountdown -> melanjutkan deadline yang masih berjalan atau membuat yang baru
func (tc *RefillTimerController) StartCountdown(c *gin.Context) {
	code := c.Param("code")
	minutes, ok := minutesQuery(c)
	if !ok || !tc.knownTable(c, code) {
		return
	}

	snap, err := tc.Timers.Begin(c.Request.Context(), code, minutes)
	if err != nil {
		respondServiceError(c, "start refill countdown", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Countdown started", snap)
}

func (tc *RefillTimerController) GetCountdown(c *gin.Context) {
	snap, err := tc.Timers.Tick(c.Request.Context(), c.Param("code"))
	if errors.Is(err, refilltimer.ErrNoCountdown) {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}
	if err != nil {
		respondServiceError(c, "fetch refill countdown", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Countdown retrieved successfully", snap)
}

// SetDuration -> berlaku untuk countdown berikutnya, yang berjalan tidak berubah
func (tc *RefillTimerController) SetDuration(c *gin.Context) {
	code := c.Param("code")
	var body struct {
		Minutes int `json:"minutes"`
	}
	if !bindJSON(c, &body) {
		return
	}
	if body.Minutes <= 0 {
		utils.RespondValidation(c, []services.FieldError{{Field: "minutes", Message: "must be greater than 0"}})
		return
	}
	if !tc.knownTable(c, code) {
		return
	}

	if err := tc.Timers.Configure(c.Request.Context(), code, time.Duration(body.Minutes)*time.Minute); err != nil {
		respondServiceError(c, "configure refill duration", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Refill duration updated", gin.H{
		"table_code": code,
		"minutes":    body.Minutes,
	})
}

// ResetCountdown -> hapus countdown; dengan ?minutes langsung mulai countdown baru
func (tc *RefillTimerController) ResetCountdown(c *gin.Context) {
	code := c.Param("code")
	minutes, ok := minutesQuery(c)
	if !ok || !tc.knownTable(c, code) {
		return
	}

	ctx := c.Request.Context()
	if err := tc.Timers.Reset(ctx, code); err != nil {
		respondServiceError(c, "reset refill countdown", err)
		return
	}
	if minutes == nil {
		utils.RespondJSON(c, http.StatusOK, "Countdown reset", gin.H{"table_code": code})
		return
	}

	snap, err := tc.Timers.Begin(ctx, code, minutes)
	if err != nil {
		respondServiceError(c, "restart refill countdown", err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Countdown restarted", snap)
}
