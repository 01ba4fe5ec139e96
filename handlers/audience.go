package handlers

import (
	"net/http"
	"time"

	"github.com/cohapparel/coherp_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateAudience(c *gin.Context) {
	var input models.NewAudience
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	audience, err := models.CreateAudience(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "Audience", "CreateAudience", err)
		return
	}
	c.JSON(http.StatusCreated, audience)
}

func UpdateAudience(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewAudience
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	audience, err := models.UpdateAudience(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, "Audience", "UpdateAudience", err)
		return
	}
	c.JSON(http.StatusOK, audience)
}

func DeleteAudience(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}

	if err := models.DeleteAudience(c.Request.Context(), id); err != nil {
		respondError(c, "Audience", "DeleteAudience", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func GetAudience(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	audience, err := models.GetAudience(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Audience", "GetAudience", err)
		return
	}
	c.JSON(http.StatusOK, audience)
}

func ListAudiences(c *gin.Context) {
	limit, after := pageParams(c)

	connection, err := models.PaginateAudience(c.Request.Context(), limit, after,
		queryString(c, "name"))
	if err != nil {
		respondError(c, "Audience", "ListAudiences", err)
		return
	}
	c.JSON(http.StatusOK, connection)
}

func RefreshAudienceCount(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}

	audience, err := models.RefreshAudienceCount(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Audience", "RefreshAudienceCount", err)
		return
	}
	c.JSON(http.StatusOK, audience)
}

// PreviewAudience counts matching customers for a filter without saving it.
func PreviewAudience(c *gin.Context) {
	var filter models.AudienceFilter
	if err := c.ShouldBindJSON(&filter); err != nil {
		respondBindError(c, err)
		return
	}

	count, err := models.CountAudienceCustomers(c.Request.Context(), &filter)
	if err != nil {
		respondError(c, "Audience", "PreviewAudience", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"customer_count": count,
		"evaluated_at":   time.Now().UTC(),
	})
}
