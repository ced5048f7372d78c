package api

import (
	"github.com/gin-gonic/gin"

	"parking_reservation/internal/api/handler"
	"parking_reservation/internal/api/middleware"
	"parking_reservation/internal/domain"
	"parking_reservation/internal/jobs"
	"parking_reservation/internal/service"
)

func SetupRouter(
	as *service.AuthService,
	allocSvc *service.AllocationService,
	reportSvc *service.ReportingService,
	jobQueue jobs.JobQueue,
	authMw *middleware.AuthMiddleware,
	wsManager *handler.WebSocketManager,
) *gin.Engine {
	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// Live occupancy stream, no auth required.
	wsHandler := handler.NewWebSocketHandler(wsManager)
	r.GET("/ws", wsHandler.HandleWebSocket)

	authHandler := handler.NewAuthHandler(as)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	lotH := handler.NewParkingLotHandler(allocSvc, reportSvc)
	resH := handler.NewReservationHandler(allocSvc, reportSvc, jobQueue)
	dashH := handler.NewDashboardHandler(reportSvc)
	notifH := handler.NewNotificationHandler(jobQueue)

	v1 := r.Group("/api/v1")

	// Public availability view.
	v1.GET("/lots", lotH.GetPublicLots)

	authed := v1.Group("")
	authed.Use(authMw.Authenticate())
	{
		lotRoutes := authed.Group("/parking-lots")
		{
			lotRoutes.POST("", authMw.AuthorizeRole(domain.RoleAdmin), lotH.CreateParkingLot)
			lotRoutes.GET("", authMw.AuthorizeRole(domain.RoleAdmin), lotH.GetAllParkingLots)
			lotRoutes.GET("/:id", lotH.GetParkingLotByID)
			lotRoutes.GET("/:id/spots", authMw.AuthorizeRole(domain.RoleAdmin), lotH.GetSpotsByLotID)
			lotRoutes.PUT("/:id", authMw.AuthorizeRole(domain.RoleAdmin), lotH.UpdateParkingLot)
			lotRoutes.DELETE("/:id", authMw.AuthorizeRole(domain.RoleAdmin), lotH.DeleteParkingLot)
		}

		resRoutes := authed.Group("/reservations")
		{
			resRoutes.POST("", resH.ReserveSpot)
			resRoutes.POST("/release", resH.ReleaseSpot)
			resRoutes.GET("/history", resH.GetHistory)
			resRoutes.POST("/export", resH.ExportCSV)
		}

		authed.GET("/user/dashboard", dashH.UserDashboard)

		adminRoutes := authed.Group("/admin")
		adminRoutes.Use(authMw.AuthorizeRole(domain.RoleAdmin))
		{
			adminRoutes.GET("/dashboard", dashH.AdminDashboard)
			adminRoutes.GET("/reservations", dashH.AllReservations)
		}

		notifRoutes := authed.Group("/notifications")
		notifRoutes.Use(authMw.AuthorizeRole(domain.RoleAdmin))
		{
			notifRoutes.POST("/email", notifH.SendEmail)
			notifRoutes.POST("/daily-reminder", notifH.TriggerDailyReminder)
			notifRoutes.POST("/monthly-report", notifH.TriggerMonthlyReport)
		}
	}
	return r
}
