package controllers

import (
	"net/http"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/refilltimer"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/services"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/utils"
	"github.com/gin-gonic/gin"
)

type AdminController struct {
	Dashboard *services.DashboardService
	Timers    *refilltimer.Coordinator
}

func NewAdminController(dashboard *services.DashboardService, timers *refilltimer.Coordinator) *AdminController {
	return &AdminController{Dashboard: dashboard, Timers: timers}
}

// GetDashboardStats mengambil statistik untuk dashboard, ?date= opsional
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := ac.Dashboard.Stats(ctx, c.Query("date"))
	if err != nil {
		respondServiceError(c, "fetch dashboard stats", err)
		return
	}

	countdowns, err := ac.Timers.Active(ctx)
	if err != nil {
		respondServiceError(c, "fetch active countdowns", err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Dashboard stats retrieved successfully", gin.H{
		"stats":             stats,
		"active_countdowns": countdowns,
	})
}
