package handlers

import (
	"net/http"

	"github.com/cohapparel/coherp_backend/middlewares"
	"github.com/cohapparel/coherp_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateFabricColourTransaction(c *gin.Context) {
	var input models.NewFabricColourTransaction
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	txn, err := models.CreateFabricColourTransaction(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "FabricColourTransaction", "CreateFabricColourTransaction", err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

func DeleteFabricColourTransaction(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}

	txn, err := models.DeleteFabricColourTransaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, "FabricColourTransaction", "DeleteFabricColourTransaction", err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func ListFabricColourTransactions(c *gin.Context) {
	limit, after := pageParams(c)

	var direction *models.TransactionDirection
	if v := c.Query("direction"); v != "" {
		d := models.TransactionDirection(v)
		direction = &d
	}
	fromDate, toDate, ok := dateRangeParams(c)
	if !ok {
		return
	}

	connection, err := models.PaginateFabricColourTransaction(c.Request.Context(), limit, after,
		queryInt(c, "fabric_colour_id"), direction, fromDate, toDate)
	if err != nil {
		respondError(c, "FabricColourTransaction", "ListFabricColourTransactions", err)
		return
	}

	// embed colours through the batching loader
	ids := make([]int, 0, len(connection.Edges))
	for _, edge := range connection.Edges {
		ids = append(ids, edge.Node.FabricColourId)
	}
	if len(ids) > 0 {
		colours, _ := middlewares.GetFabricColours(c.Request.Context(), ids)
		for i, edge := range connection.Edges {
			if i < len(colours) && colours[i] != nil {
				edge.Node.FabricColour = colours[i]
			}
		}
	}

	c.JSON(http.StatusOK, connection)
}
