package handlers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/cohapparel/coherp_backend/middlewares"
	"github.com/cohapparel/coherp_backend/models"
	"github.com/gin-gonic/gin"
)

func CreateEmailCampaign(c *gin.Context) {
	var input models.NewEmailCampaign
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	campaign, err := models.CreateEmailCampaign(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "EmailCampaign", "CreateEmailCampaign", err)
		return
	}
	c.JSON(http.StatusCreated, campaign)
}

func UpdateEmailCampaign(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.NewEmailCampaign
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	campaign, err := models.UpdateEmailCampaign(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, "EmailCampaign", "UpdateEmailCampaign", err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func DeleteEmailCampaign(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}

	if err := models.DeleteEmailCampaign(c.Request.Context(), id); err != nil {
		respondError(c, "EmailCampaign", "DeleteEmailCampaign", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func GetEmailCampaign(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	campaign, err := models.GetEmailCampaign(c.Request.Context(), id)
	if err != nil {
		respondError(c, "EmailCampaign", "GetEmailCampaign", err)
		return
	}
	if campaign.Status == models.CampaignStatusSending {
		if pending, err := models.CountPendingOutbox(c.Request.Context(), campaign.ID); err == nil {
			campaign.PendingDispatch = &pending
		}
	}
	c.JSON(http.StatusOK, campaign)
}

func ListEmailCampaigns(c *gin.Context) {
	limit, after := pageParams(c)

	var status *models.CampaignStatus
	if v := c.Query("status"); v != "" {
		s := models.CampaignStatus(v)
		status = &s
	}

	connection, err := models.PaginateEmailCampaign(c.Request.Context(), limit, after,
		queryString(c, "name"), status)
	if err != nil {
		respondError(c, "EmailCampaign", "ListEmailCampaigns", err)
		return
	}

	// embed audiences through the batching loader
	ids := make([]int, 0, len(connection.Edges))
	for _, edge := range connection.Edges {
		ids = append(ids, edge.Node.AudienceId)
	}
	if len(ids) > 0 {
		audiences, _ := middlewares.GetAudiences(c.Request.Context(), ids)
		for i, edge := range connection.Edges {
			if i < len(audiences) && audiences[i] != nil {
				edge.Node.Audience = audiences[i]
			}
		}
	}

	c.JSON(http.StatusOK, connection)
}

func SendEmailCampaign(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}

	campaign, err := models.SendCampaign(c.Request.Context(), id)
	if err != nil {
		respondError(c, "EmailCampaign", "SendEmailCampaign", err)
		return
	}
	c.JSON(http.StatusAccepted, campaign)
}

func ListCampaignSends(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	limit, after := pageParams(c)

	var status *models.CampaignSendStatus
	if v := c.Query("status"); v != "" {
		s := models.CampaignSendStatus(v)
		status = &s
	}

	connection, err := models.PaginateCampaignSend(c.Request.Context(), id, limit, after, status)
	if err != nil {
		respondError(c, "EmailCampaign", "ListCampaignSends", err)
		return
	}
	attachSendCustomers(c, connection)
	c.JSON(http.StatusOK, connection)
}

// attachSendCustomers embeds customer records into the send edges. The
// loader batches the lookups into one query.
func attachSendCustomers(c *gin.Context, connection *models.CampaignSendsConnection) {
	ids := make([]int, 0, len(connection.Edges))
	for _, edge := range connection.Edges {
		ids = append(ids, edge.Node.CustomerId)
	}
	if len(ids) == 0 {
		return
	}
	customers, _ := middlewares.GetCustomers(c.Request.Context(), ids)
	for i, edge := range connection.Edges {
		if i < len(customers) && customers[i] != nil {
			edge.Node.Customer = customers[i]
		}
	}
}

type deliveryEvent struct {
	SendId       int                       `json:"send_id" binding:"required"`
	Status       models.CampaignSendStatus `json:"status" binding:"required"`
	ErrorMessage *string                   `json:"error_message"`
}

type pubSubPushEnvelope struct {
	Message struct {
		Data      string `json:"data"`
		MessageId string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// DeliveryStatusWebhook ingests delivery receipts pushed by the email
// provider's Pub/Sub subscription. The event payload is wrapped in the
// standard push envelope with base64 data.
func DeliveryStatusWebhook(c *gin.Context) {
	var envelope pubSubPushEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		respondBindError(c, err)
		return
	}

	payload, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: errorBody{
			Code:    "BAD_REQUEST",
			Message: "invalid message data encoding",
		}})
		return
	}

	var event deliveryEvent
	if err := json.Unmarshal(payload, &event); err != nil || event.SendId <= 0 {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: errorBody{
			Code:    "BAD_REQUEST",
			Message: "invalid delivery event payload",
		}})
		return
	}

	err = models.ApplyDeliveryStatus(c.Request.Context(), event.SendId, event.Status, event.ErrorMessage)
	if err != nil {
		respondError(c, "EmailCampaign", "DeliveryStatusWebhook", err)
		return
	}

	// 2xx acknowledges the push message.
	c.Status(http.StatusNoContent)
}
