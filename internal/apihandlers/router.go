package apihandlers

import (
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with all routes.
func NewRouter(h *APIHandler, corsOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(), CORS(corsOrigins))

	router.POST("/predict", h.PredictHandler)

	books := router.Group("/books")
	{
		books.GET("", h.ListBooksHandler)
		books.POST("", h.AddBookHandler)
		books.GET("/:id", h.GetBookHandler)
		books.PATCH("/:id/category", h.SetCategoryHandler)
		books.POST("/:id/reclassify", h.ReclassifyHandler)
	}

	router.GET("/health", h.HealthHandler)
	router.GET("/ready", h.ReadyHandler)
	return router
}
