package restapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter configures and returns the Gin router.
func SetupRouter(portfolioHandler *PortfolioHandler) *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/portfolio", portfolioHandler.GetPortfolioHandler)
		v1.POST("/portfolio/refresh", portfolioHandler.RefreshPortfolioHandler)
		v1.GET("/portfolio/:ownerAddress", portfolioHandler.GetOwnerPortfolioHandler)
		v1.GET("/assets", portfolioHandler.ListAssetsHandler)
	}

	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
