package handlers

import (
	"net/http"

	"github.com/cohapparel/coherp_backend/middlewares"
	"github.com/cohapparel/coherp_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateFabric(c *gin.Context) {
	var input models.NewFabric
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	fabric, err := models.CreateFabric(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "Fabric", "CreateFabric", err)
		return
	}
	c.JSON(http.StatusCreated, fabric)
}

func UpdateFabric(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewFabric
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	fabric, err := models.UpdateFabric(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, "Fabric", "UpdateFabric", err)
		return
	}
	c.JSON(http.StatusOK, fabric)
}

func DeleteFabric(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	fabric, err := models.DeleteFabric(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Fabric", "DeleteFabric", err)
		return
	}
	c.JSON(http.StatusOK, fabric)
}

func GetFabric(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	fabric, err := models.GetFabric(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Fabric", "GetFabric", err)
		return
	}
	c.JSON(http.StatusOK, fabric)
}

func ListFabrics(c *gin.Context) {
	limit, after := pageParams(c)

	connection, err := models.PaginateFabric(c.Request.Context(), limit, after,
		queryString(c, "name"))
	if err != nil {
		respondError(c, "Fabric", "ListFabrics", err)
		return
	}
	c.JSON(http.StatusOK, connection)
}

func CreateFabricColour(c *gin.Context) {
	var input models.NewFabricColour
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	colour, err := models.CreateFabricColour(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "FabricColour", "CreateFabricColour", err)
		return
	}
	c.JSON(http.StatusCreated, colour)
}

func UpdateFabricColour(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewFabricColour
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	colour, err := models.UpdateFabricColour(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, "FabricColour", "UpdateFabricColour", err)
		return
	}
	c.JSON(http.StatusOK, colour)
}

func DeleteFabricColour(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	colour, err := models.DeleteFabricColour(c.Request.Context(), id)
	if err != nil {
		respondError(c, "FabricColour", "DeleteFabricColour", err)
		return
	}
	c.JSON(http.StatusOK, colour)
}

func GetFabricColour(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	colour, err := models.GetFabricColour(c.Request.Context(), id)
	if err != nil {
		respondError(c, "FabricColour", "GetFabricColour", err)
		return
	}
	if fabric, err := middlewares.GetFabric(c.Request.Context(), colour.FabricId); err == nil {
		colour.Fabric = fabric
	}
	c.JSON(http.StatusOK, colour)
}

func ListFabricColours(c *gin.Context) {
	limit, after := pageParams(c)

	connection, err := models.PaginateFabricColour(c.Request.Context(), limit, after,
		queryInt(c, "fabric_id"), queryString(c, "colour_name"), queryString(c, "code"))
	if err != nil {
		respondError(c, "FabricColour", "ListFabricColours", err)
		return
	}
	c.JSON(http.StatusOK, connection)
}
