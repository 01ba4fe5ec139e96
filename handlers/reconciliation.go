package handlers

import (
	"net/http"

	"github.com/cohapparel/coherp_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateReconciliation(c *gin.Context) {
	var input models.NewFabricColourReconciliation
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	rec, err := models.CreateReconciliation(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "Reconciliation", "CreateReconciliation", err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func UpdateReconciliation(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewFabricColourReconciliation
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	rec, err := models.UpdateReconciliation(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, "Reconciliation", "UpdateReconciliation", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func DeleteReconciliation(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}

	rec, err := models.DeleteReconciliation(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Reconciliation", "DeleteReconciliation", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func SubmitReconciliation(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}

	rec, err := models.SubmitReconciliation(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Reconciliation", "SubmitReconciliation", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func GetReconciliation(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	rec, err := models.GetReconciliation(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Reconciliation", "GetReconciliation", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func ListReconciliations(c *gin.Context) {
	limit, after := pageParams(c)

	var status *models.ReconciliationStatus
	if v := c.Query("status"); v != "" {
		s := models.ReconciliationStatus(v)
		status = &s
	}

	connection, err := models.PaginateReconciliation(c.Request.Context(), limit, after,
		queryInt(c, "fabric_colour_id"), status)
	if err != nil {
		respondError(c, "Reconciliation", "ListReconciliations", err)
		return
	}
	c.JSON(http.StatusOK, connection)
}
