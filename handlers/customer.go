package handlers

import (
	"net/http"

	"github.com/cohapparel/coherp_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateCustomer(c *gin.Context) {
	var input models.NewCustomer
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	customer, err := models.CreateCustomer(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "Customer", "CreateCustomer", err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func UpdateCustomer(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewCustomer
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	customer, err := models.UpdateCustomer(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, "Customer", "UpdateCustomer", err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func DeleteCustomer(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	customer, err := models.DeleteCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Customer", "DeleteCustomer", err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func GetCustomer(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	customer, err := models.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Customer", "GetCustomer", err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func ListCustomers(c *gin.Context) {
	limit, after := pageParams(c)

	var tier *models.CustomerTier
	if v := c.Query("tier"); v != "" {
		t := models.CustomerTier(v)
		if !t.IsValid() {
			c.JSON(http.StatusBadRequest, errorEnvelope{Error: errorBody{
				Code:    "BAD_REQUEST",
				Message: "unknown tier",
			}})
			return
		}
		tier = &t
	}

	connection, err := models.PaginateCustomer(c.Request.Context(), limit, after,
		queryString(c, "name"), queryString(c, "email"), queryString(c, "phone"),
		queryString(c, "state"), tier)
	if err != nil {
		respondError(c, "Customer", "ListCustomers", err)
		return
	}
	c.JSON(http.StatusOK, connection)
}
