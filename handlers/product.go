package handlers

import (
	"net/http"

	"github.com/cohapparel/coherp_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateProduct(c *gin.Context) {
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := models.CreateProduct(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "Product", "CreateProduct", err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func GetProduct(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	product, err := models.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Product", "GetProduct", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func ListProducts(c *gin.Context) {
	limit, after := pageParams(c)

	connection, err := models.PaginateProduct(c.Request.Context(), limit, after,
		queryString(c, "name"), queryString(c, "category"))
	if err != nil {
		respondError(c, "Product", "ListProducts", err)
		return
	}
	c.JSON(http.StatusOK, connection)
}

func CreateBomRole(c *gin.Context) {
	var input struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	role, err := models.CreateBomRole(c.Request.Context(), input.Name)
	if err != nil {
		respondError(c, "Bom", "CreateBomRole", err)
		return
	}
	c.JSON(http.StatusCreated, role)
}

func ListBomRoles(c *gin.Context) {
	roles, err := models.ListBomRoles(c.Request.Context())
	if err != nil {
		respondError(c, "Bom", "ListBomRoles", err)
		return
	}
	c.JSON(http.StatusOK, roles)
}

func SetVariationBomLine(c *gin.Context) {
	var input models.NewVariationBomLine
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	line, err := models.SetVariationBomLine(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "Bom", "SetVariationBomLine", err)
		return
	}
	c.JSON(http.StatusOK, line)
}

func SetSkuBomLine(c *gin.Context) {
	var input models.NewSkuBomLine
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	line, err := models.SetSkuBomLine(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "Bom", "SetSkuBomLine", err)
		return
	}
	c.JSON(http.StatusOK, line)
}
