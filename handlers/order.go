package handlers

import (
	"net/http"
	"strconv"

	"github.com/cohapparel/coherp_backend/middlewares"
	"github.com/cohapparel/coherp_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateOrder(c *gin.Context) {
	var input models.NewOrder
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := models.CreateOrder(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "Order", "CreateOrder", err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

type updateOrderStatusInput struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

func UpdateOrderStatus(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input updateOrderStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	order, err := models.UpdateOrderStatus(c.Request.Context(), id, input.Status)
	if err != nil {
		respondError(c, "Order", "UpdateOrderStatus", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func GetOrder(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	order, err := models.GetOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Order", "GetOrder", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func ListOrders(c *gin.Context) {
	limit, after := pageParams(c)

	customerId := queryInt(c, "customer_id")
	var status *models.OrderStatus
	if v := c.Query("status"); v != "" {
		s := models.OrderStatus(v)
		status = &s
	}
	fromDate, toDate, ok := dateRangeParams(c)
	if !ok {
		return
	}

	connection, err := models.PaginateOrder(c.Request.Context(), limit, after,
		customerId, status, queryString(c, "order_number"), fromDate, toDate)
	if err != nil {
		respondError(c, "Order", "ListOrders", err)
		return
	}

	// embed customers through the batching loader
	ids := make([]int, 0, len(connection.Edges))
	for _, edge := range connection.Edges {
		ids = append(ids, edge.Node.CustomerId)
	}
	if len(ids) > 0 {
		customers, _ := middlewares.GetCustomers(c.Request.Context(), ids)
		for i, edge := range connection.Edges {
			if i < len(customers) && customers[i] != nil {
				edge.Node.Customer = customers[i]
			}
		}
	}

	c.JSON(http.StatusOK, connection)
}

func dateRangeParams(c *gin.Context) (*models.MyDateString, *models.MyDateString, bool) {
	parse := func(name string) (*models.MyDateString, bool) {
		v := c.Query(name)
		if v == "" {
			return nil, true
		}
		var d models.MyDateString
		if err := d.UnmarshalJSON([]byte(strconv.Quote(v))); err != nil {
			c.JSON(http.StatusBadRequest, errorEnvelope{Error: errorBody{
				Code:    "BAD_REQUEST",
				Message: "invalid " + name,
			}})
			return nil, false
		}
		return &d, true
	}

	from, ok := parse("from")
	if !ok {
		return nil, nil, false
	}
	to, ok := parse("to")
	if !ok {
		return nil, nil, false
	}
	return from, to, true
}
