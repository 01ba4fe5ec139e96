package handlers

import (
	"net/http"

	"github.com/cohapparel/coherp_backend/middlewares"
	"github.com/cohapparel/coherp_backend/models"
	"github.com/gin-gonic/gin"
)

func GetDashboard(c *gin.Context) {
	ctx, span := startSpan(c, "dashboard.summary")
	defer span.End()

	dashboard, err := models.GetDashboard(ctx)
	if err != nil {
		respondError(c, "Dashboard", "GetDashboard", err)
		return
	}

	// embed product records into the top seller rows; the cached copy only
	// carries ids so a stale product name never outlives the product row
	ids := make([]int, 0, len(dashboard.TopProducts))
	for _, tp := range dashboard.TopProducts {
		ids = append(ids, tp.ProductId)
	}
	if len(ids) > 0 {
		products, _ := middlewares.GetProducts(c.Request.Context(), ids)
		for i, tp := range dashboard.TopProducts {
			if i < len(products) && products[i] != nil {
				tp.Product = products[i]
			}
		}
	}

	c.JSON(http.StatusOK, dashboard)
}
