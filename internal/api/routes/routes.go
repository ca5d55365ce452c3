// internal/api/routes/routes.go
package routes

import (
	"context"
	"time"

	"medeasy-api-server/internal/api/handlers"
	"medeasy-api-server/internal/api/middleware"
	"medeasy-api-server/internal/auth"
	"medeasy-api-server/internal/models"
	"medeasy-api-server/internal/service"
	"medeasy-api-server/internal/socket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the components the router is built from.
type Deps struct {
	Services    *service.Services
	Tokens      *auth.Manager
	Hub         *socket.Hub
	Logger      *zap.Logger
	CORSOrigins []string
	// Ping backs /healthz. Nil reports healthy.
	Ping func(ctx context.Context) error
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

// SetupRouter wires every route of the API.
func SetupRouter(d Deps) *gin.Engine {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(cors.New(corsConfig(d.CORSOrigins)))

	accountHandler := &handlers.AccountHandler{Accounts: d.Services.Accounts}
	inventoryHandler := &handlers.InventoryHandler{Stock: d.Services.Stock}
	reorderHandler := &handlers.ReorderHandler{Ledger: d.Services.Ledger}
	orderHandler := &handlers.OrderHandler{Ledger: d.Services.Ledger}
	dashboardHandler := &handlers.DashboardHandler{Dashboards: d.Services.Dashboards}
	medicineHandler := &handlers.MedicineHandler{Catalog: d.Services.Catalog}
	healthHandler := &handlers.HealthHandler{Ping: d.Ping}

	router.GET("/healthz", healthHandler.Healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authenticated := middleware.Authenticate(d.Tokens)
	partners := middleware.Authorize(models.RoleRetailer, models.RoleWholesaler)
	retailers := middleware.Authorize(models.RoleRetailer)
	wholesalers := middleware.Authorize(models.RoleWholesaler)

	api := router.Group("/api")
	{
		if d.Hub != nil {
			wsHandler := &handlers.WebSocketHandler{Hub: d.Hub, Tokens: d.Tokens}
			api.GET("/ws", wsHandler.ServeWs)
		}

		// Accounts
		api.POST("/signup", accountHandler.Signup)
		api.POST("/login", accountHandler.Login)
		api.POST("/partner-login", accountHandler.PartnerLogin)

		// Stock
		api.POST("/inventory/update", authenticated, partners, inventoryHandler.UpdateStock)
		api.GET("/customerMedicines", inventoryHandler.CustomerMedicines)
		api.GET("/wholeSalerMedicines", inventoryHandler.WholesalerMedicines)
		api.GET("/search", inventoryHandler.Search)

		// Catalogue
		medicines := api.Group("/medicines")
		{
			medicines.GET("", medicineHandler.ListMedicines)
			medicines.GET("/:id", medicineHandler.GetMedicine)
			medicines.POST("", authenticated, wholesalers, medicineHandler.CreateMedicine)
			medicines.POST("/images", authenticated, wholesalers, medicineHandler.UploadImage)
		}

		// Ledger
		reorders := api.Group("/reorder-requests")
		{
			reorders.GET("", reorderHandler.ListReorders)
			reorders.GET("/:id", reorderHandler.GetReorder)
			reorders.POST("", authenticated, retailers, reorderHandler.CreateReorder)
			reorders.PATCH("/:id", authenticated, wholesalers, reorderHandler.UpdateReorderStatus)
		}
		orders := api.Group("/orders")
		{
			orders.GET("", orderHandler.ListOrders)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.POST("", authenticated, retailers, orderHandler.CreateOrder)
			orders.PATCH("/:id", authenticated, wholesalers, orderHandler.UpdateOrderStatus)
		}

		// Dashboards
		dashboard := api.Group("/dashboard")
		{
			dashboard.GET("/retailer/:userId", dashboardHandler.Retailer)
			dashboard.GET("/wholesaler/:userId", dashboardHandler.Wholesaler)
		}
	}

	return router
}
