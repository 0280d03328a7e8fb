package router

import (
	"net/http"
	"time"

	"github.com/eastatwest/restaurant-app/config"
	"github.com/eastatwest/restaurant-app/controllers"
	"github.com/eastatwest/restaurant-app/middlewares"
	"github.com/eastatwest/restaurant-app/services"
	"github.com/eastatwest/restaurant-app/utils"
	"github.com/gin-gonic/gin"
)

const functionsPrefix = "/functions/v1"

// Dependencies are built once in main and shared by every handler.
type Dependencies struct {
	Config       *config.Config
	Reservations *services.ReservationService
	Menu         *services.MenuService
	Dispatcher   *services.NotificationDispatcher
}

func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if err := r.SetTrustedProxies(deps.Config.TrustedProxies); err != nil {
		utils.ErrorLogger.Errorf("Invalid trusted proxies %v: %v", deps.Config.TrustedProxies, err)
	}

	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	// engine level so preflight requests on any route are answered
	r.Use(middlewares.CORSMiddlewares(deps.Config.CORSOrigins, functionsPrefix))

	r.NoRoute(func(c *gin.Context) {
		utils.RespondErrorCode(c, http.StatusNotFound, "not_found", "route not found", nil)
	})

	infoCtrl := controllers.NewInfoController()
	menuCtrl := controllers.NewMenuController(deps.Menu)
	reservationCtrl := controllers.NewReservationController(deps.Reservations)
	adminCtrl := controllers.NewAdminController(deps.Reservations)
	notificationCtrl := controllers.NewNotificationController(deps.Dispatcher)

	// ----------------------------------------------------------------
	//                      EMAIL FUNCTION
	// ----------------------------------------------------------------
	emailLimiter := middlewares.NewRateLimiter(deps.Config.SubmitRateLimit, deps.Config.SubmitRateWindow)
	fn := r.Group(functionsPrefix)
	fn.Use(middlewares.NotifyCORS())
	{
		fn.OPTIONS("/send-reservation-email", func(c *gin.Context) {})
		fn.POST("/send-reservation-email",
			emailLimiter.RateLimit(),
			middlewares.RequireFunctionCaller(deps.Config.Backend.AnonKey, []byte(deps.Config.Backend.JWTSecret)),
			notificationCtrl.SendReservationEmail,
		)
	}

	api := r.Group("/")
	api.Use(middlewares.LoadSession([]byte(deps.Config.Backend.JWTSecret)))

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	api.GET("/ping", infoCtrl.Ping)
	public := middlewares.CacheFor(5 * time.Minute)
	api.GET("/restaurant", public, infoCtrl.GetRestaurant)

	api.GET("/menu", public, menuCtrl.GetMenu)
	api.GET("/menu/categories", public, menuCtrl.GetCategories)
	api.GET("/menu/items/:id", public, menuCtrl.GetMenuItem)

	submitLimiter := middlewares.NewRateLimiter(deps.Config.SubmitRateLimit, deps.Config.SubmitRateWindow)
	api.POST("/reservations", submitLimiter.RateLimit(), reservationCtrl.CreateReservation)

	// ----------------------------------------------------------------
	//                      ADMIN ROUTES
	// ----------------------------------------------------------------
	admin := api.Group("/admin")
	admin.Use(middlewares.RequireSession())
	admin.Use(middlewares.AdminAuditLogger())
	{
		admin.GET("/reservations", adminCtrl.GetReservations)
		admin.PATCH("/reservations/:id", adminCtrl.UpdateReservationStatus)
	}

	return r
}
