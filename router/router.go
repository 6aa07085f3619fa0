package router

import (
	"net/http"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/controllers"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/middlewares"
	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/models"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter(deps *Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.MetricsMiddleware())
	r.Use(middlewares.SecurityHeaders(deps.Options.HSTS))
	r.Use(middlewares.CORSMiddlewares(deps.Options.CORSOrigins))

	tableCtrl := controllers.NewTableController(deps.Tables, deps.Availability, deps.Timers)
	reservationCtrl := controllers.NewReservationController(deps.Reservations, deps.Availability, deps.Proofs)
	refillCtrl := controllers.NewRefillController(deps.Refills, deps.Timers)
	refillTimerCtrl := controllers.NewRefillTimerController(deps.Timers, deps.Tables)
	timerCtrl := controllers.NewCustomerTimerController(deps.CustomerTimers)
	customerCtrl := controllers.NewCustomerController(deps.Customers)
	userCtrl := controllers.NewUserController(deps.DB)
	adminCtrl := controllers.NewAdminController(deps.Dashboard, deps.Timers)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := middlewares.NewRateLimiter(deps.Options.RateLimitPerSecond, deps.Options.RateLimitBurst)
	api := r.Group("/api")

	// Endpoint publik (kiosk meja & halaman reservasi)
	public := api.Group("/")
	public.Use(limiter.RateLimit())
	{
		public.GET("/tables/available", tableCtrl.GetAvailableTables)
		public.GET("/tables/:id/timer", tableCtrl.GetTableTimer)
		public.GET("/reservations/fully-booked-dates", reservationCtrl.GetFullyBookedDates)

		public.POST("/refill-requests/validate-table", refillCtrl.ValidateTable)
		public.POST("/refill-requests", refillCtrl.CreateRefillRequest)
		public.PATCH("/refill-requests/:id/status", refillCtrl.UpdateRefillStatus)

		public.POST("/refill-timers/:code/start", refillTimerCtrl.StartCountdown)
		public.GET("/refill-timers/:code", refillTimerCtrl.GetCountdown)

		public.GET("/timers", timerCtrl.GetTimers)
		public.GET("/timers/table/:code", timerCtrl.GetActiveTimer)
	}

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", middlewares.NewStrictRateLimiter().RateLimit(), userCtrl.Login)
		authGroup.POST("/logout", middlewares.AuthMiddleware(), userCtrl.Logout)
		authGroup.GET("/profile", middlewares.AuthMiddleware(), userCtrl.GetProfile)
	}

	staffRoles := middlewares.RequireRoles(models.RoleAdmin, models.RoleStaff)
	operatorRoles := middlewares.RequireRoles(models.RoleAdmin, models.RoleStaff, models.RolePOS)

	auth := api.Group("/")
	auth.Use(middlewares.AuthMiddleware())
	{
		auth.GET("/tables", tableCtrl.GetAllTables)
		auth.GET("/tables/:id", tableCtrl.GetTable)
		auth.POST("/tables", middlewares.RequireRoles(models.RoleAdmin), tableCtrl.CreateTable)
		auth.PUT("/tables/:id/status", staffRoles, tableCtrl.UpdateTableStatus)

		auth.POST("/reservations", reservationCtrl.CreateReservation)
		auth.GET("/reservations", reservationCtrl.GetReservations)
		auth.GET("/reservations/:id", reservationCtrl.GetReservation)
		auth.POST("/reservations/:id/payment-proof", reservationCtrl.UploadPaymentProof)
		auth.PUT("/reservations/:id", staffRoles, reservationCtrl.UpdateReservation)
		auth.PUT("/reservations/:id/status", staffRoles, reservationCtrl.UpdateReservationStatus)
		auth.DELETE("/reservations/:id", staffRoles, reservationCtrl.DeleteReservation)

		auth.GET("/refill-requests", operatorRoles, refillCtrl.GetRefillRequests)
		auth.GET("/refill-requests/:id", operatorRoles, refillCtrl.GetRefillRequest)
		auth.DELETE("/refill-requests/:id", staffRoles, refillCtrl.DeleteRefillRequest)

		auth.PUT("/refill-timers/:code/duration", staffRoles, refillTimerCtrl.SetDuration)
		auth.POST("/refill-timers/:code/reset", staffRoles, refillTimerCtrl.ResetCountdown)

		auth.POST("/timers", operatorRoles, timerCtrl.StartTimer)
		auth.PATCH("/timers/:id", operatorRoles, timerCtrl.UpdateTimer)
		auth.PATCH("/timers/table/:code/stop", operatorRoles, timerCtrl.StopTimer)

		auth.GET("/admin/dashboard", staffRoles, adminCtrl.GetDashboardStats)

		auth.GET("/customers/:id", staffRoles, customerCtrl.GetCustomer)
		auth.DELETE("/customers/:id", middlewares.RequireRoles(models.RoleAdmin), customerCtrl.DeleteCustomer)
	}

	if deps.Hub != nil {
		realtimeCtrl := controllers.NewRealtimeController(deps.Hub, deps.Options.CORSOrigins)
		r.GET("/ws", middlewares.WebSocketAuthMiddleware(), realtimeCtrl.ServeWS)
	}

	return r
}
