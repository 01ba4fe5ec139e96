package handlers

import (
	"net/http"
	"strconv"

	"github.com/cohapparel/coherp_backend/models"
	"github.com/gin-gonic/gin"
)

func GetForecastReport(c *gin.Context) {
	weeks := models.DefaultForecastWeeks
	if v := c.Query("weeks"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 52 {
			c.JSON(http.StatusBadRequest, errorEnvelope{Error: errorBody{
				Code:    "BAD_REQUEST",
				Message: "weeks must be between 1 and 52",
			}})
			return
		}
		weeks = n
	}

	ctx, span := startSpan(c, "forecast.report")
	defer span.End()

	report, err := models.GetForecastReport(ctx, weeks)
	if err != nil {
		respondError(c, "Forecast", "GetForecastReport", err)
		return
	}
	c.JSON(http.StatusOK, report)
}
