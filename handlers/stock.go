package handlers

import (
	"net/http"

	"github.com/cohapparel/coherp_backend/models"
	"github.com/gin-gonic/gin"
)

func GetStockAnalysis(c *gin.Context) {
	report, err := models.GetStockAnalysis(c.Request.Context())
	if err != nil {
		respondError(c, "StockAnalysis", "GetStockAnalysis", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func RebuildStockBalances(c *gin.Context) {
	count, err := models.RebuildFabricColourBalances(c.Request.Context())
	if err != nil {
		respondError(c, "StockAnalysis", "RebuildStockBalances", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rebuilt_colours": count})
}
