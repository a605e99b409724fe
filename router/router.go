package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ncastrof/mesa-app/controllers"
	"github.com/ncastrof/mesa-app/middlewares"
	"github.com/ncastrof/mesa-app/services"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())
	// Límite general por IP; login/register tienen el suyo más estricto
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	// Servicios: el handle de storage se inyecta acá, no hay singletons.
	tableSvc := services.NewTableService(db)
	resolver := services.NewSessionResolver(db, tableSvc)
	closer := services.NewTableCloser(db)
	orderSvc := services.NewOrderService(db, resolver, tableSvc)

	userCtrl := controllers.NewUserController(db)
	tableCtrl := controllers.NewTableController(db, tableSvc, closer)
	orderCtrl := controllers.NewOrderController(orderSvc)
	productCtrl := controllers.NewProductController(db)
	categoryCtrl := controllers.NewCategoryController(db)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// Carta y mesas, sin login (el cliente ordena escaneando el QR)
	r.GET("/categories", categoryCtrl.GetAllCategories)
	r.GET("/products", productCtrl.GetAllProducts)
	r.GET("/tables", tableCtrl.GetAllTables)

	// El cliente crea su orden y puede mirar el estado
	r.POST("/orders", orderCtrl.CreateOrder)
	r.GET("/orders/:order_id", orderCtrl.GetOrderByID)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/admin")
	auth.Use(middlewares.AuthMiddleware())

	auth.GET("/profile", userCtrl.GetProfile)

	// TABLES
	auth.GET("/tables", tableCtrl.GetAllTables)
	auth.POST("/tables", tableCtrl.CreateTables)
	auth.GET("/tables/with-orders", tableCtrl.GetTablesWithOrders)
	auth.GET("/tables/summary/:number", tableCtrl.GetTableSummary)
	auth.PATCH("/tables/:table_id", tableCtrl.RenameTable)
	auth.PATCH("/tables/:table_id/position", tableCtrl.UpdateTablePosition)
	auth.POST("/tables/:table_id/close", tableCtrl.CloseTable)
	auth.DELETE("/tables/:number", tableCtrl.DeleteTable)

	// ORDERS
	auth.GET("/orders", orderCtrl.GetAllOrders)
	auth.GET("/orders/:order_id", orderCtrl.GetOrderByID)
	auth.POST("/orders", orderCtrl.CreateOrder) // staff carga órdenes a cualquier mesa
	auth.POST("/orders/:order_id/ready", orderCtrl.MarkOrderReady)
	auth.DELETE("/orders/:order_id", orderCtrl.DeleteOrder)

	// PRODUCTS / CATEGORIES
	auth.POST("/products", productCtrl.CreateProduct)
	auth.PATCH("/products/:product_id", productCtrl.UpdateProduct)
	auth.PATCH("/products/:product_id/availability", productCtrl.ToggleAvailability)
	auth.DELETE("/products/:product_id", productCtrl.DeleteProduct)
	auth.POST("/categories", categoryCtrl.CreateCategory)
	auth.PATCH("/categories/:cat_id", categoryCtrl.UpdateCategory)
	auth.DELETE("/categories/:cat_id", categoryCtrl.DeleteCategory)

	// Websocket del tablero (token por query)
	ws := r.Group("/ws")
	ws.Use(middlewares.AuthMiddleware())
	{
		ws.GET("/board", controllers.KDSHandler)
	}

	return r
}
