package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type CustomerTier string

const (
	CustomerTierBronze CustomerTier = "bronze"
	CustomerTierSilver CustomerTier = "silver"
	CustomerTierGold   CustomerTier = "gold"
	CustomerTierVip    CustomerTier = "vip"
)

func (t *CustomerTier) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("customer tier must be string")
	}
	switch CustomerTier(str) {
	case CustomerTierBronze, CustomerTierSilver, CustomerTierGold, CustomerTierVip:
		*t = CustomerTier(str)
	default:
		return errors.New("invalid customer tier")
	}
	return nil
}

func (t CustomerTier) IsValid() bool {
	switch t {
	case CustomerTierBronze, CustomerTierSilver, CustomerTierGold, CustomerTierVip:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusRto       OrderStatus = "rto"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s *OrderStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("order status must be string")
	}
	switch OrderStatus(str) {
	case OrderStatusPending, OrderStatusShipped, OrderStatusDelivered, OrderStatusRto, OrderStatusCancelled:
		*s = OrderStatus(str)
	default:
		return errors.New("invalid order status")
	}
	return nil
}

type TransactionDirection string

const (
	TransactionDirectionInward  TransactionDirection = "inward"
	TransactionDirectionOutward TransactionDirection = "outward"
)

func (d *TransactionDirection) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("transaction direction must be string")
	}
	switch TransactionDirection(str) {
	case TransactionDirectionInward, TransactionDirectionOutward:
		*d = TransactionDirection(str)
	default:
		return errors.New("invalid transaction direction")
	}
	return nil
}

type ReconciliationStatus string

const (
	ReconciliationStatusDraft     ReconciliationStatus = "draft"
	ReconciliationStatusSubmitted ReconciliationStatus = "submitted"
)

func (s *ReconciliationStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("reconciliation status must be string")
	}
	switch ReconciliationStatus(str) {
	case ReconciliationStatusDraft, ReconciliationStatusSubmitted:
		*s = ReconciliationStatus(str)
	default:
		return errors.New("invalid reconciliation status")
	}
	return nil
}

type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusScheduled CampaignStatus = "scheduled"
	CampaignStatusSending   CampaignStatus = "sending"
	CampaignStatusSent      CampaignStatus = "sent"
)

type CampaignSendStatus string

const (
	CampaignSendStatusQueued     CampaignSendStatus = "queued"
	CampaignSendStatusDispatched CampaignSendStatus = "dispatched"
	CampaignSendStatusDelivered  CampaignSendStatus = "delivered"
	CampaignSendStatusBounced    CampaignSendStatus = "bounced"
)

func (s *CampaignSendStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("campaign send status must be string")
	}
	switch CampaignSendStatus(str) {
	case CampaignSendStatusQueued, CampaignSendStatusDispatched, CampaignSendStatusDelivered, CampaignSendStatusBounced:
		*s = CampaignSendStatus(str)
	default:
		return errors.New("invalid campaign send status")
	}
	return nil
}

// terminal send states used when deciding whether a campaign is finished
func (s CampaignSendStatus) IsTerminal() bool {
	return s == CampaignSendStatusDelivered || s == CampaignSendStatusBounced
}

type StockStatus string

const (
	StockStatusOrderNow  StockStatus = "ORDER_NOW"
	StockStatusOrderSoon StockStatus = "ORDER_SOON"
	StockStatusOk        StockStatus = "OK"
)

type OutboxPublishStatus string

const (
	OutboxPublishStatusPending    OutboxPublishStatus = "PENDING"
	OutboxPublishStatusProcessing OutboxPublishStatus = "PROCESSING"
	OutboxPublishStatusSent       OutboxPublishStatus = "SENT"
	OutboxPublishStatusFailed     OutboxPublishStatus = "FAILED"
	OutboxPublishStatusDead       OutboxPublishStatus = "DEAD"
)

type MyDateString time.Time

func (t MyDateString) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).Format("2006-01-02T15:04:05"))
}

// Parse the string into time.Time object
func (t *MyDateString) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("MyDateString must be string")
	}

	localTime, err := time.Parse("2006-01-02T15:04:05", str)
	if err != nil {
		// date-only form is accepted from filter inputs
		localTime, err = time.Parse("2006-01-02", str)
		if err != nil {
			return errors.New("error parsing datetime")
		}
	}
	*t = MyDateString(localTime)

	return nil
}

// Value implements the driver.Valuer interface
func (t MyDateString) Value() (driver.Value, error) {
	return time.Time(t), nil
}

// Scan implements the sql.Scanner interface
func (t *MyDateString) Scan(value interface{}) error {
	if value == nil {
		*t = MyDateString(time.Time{})
		return nil
	}
	switch v := value.(type) {
	case time.Time:
		*t = MyDateString(v)
	default:
		return fmt.Errorf("cannot convert %T to MyDateString", value)
	}
	return nil
}

func (t *MyDateString) SetDefaultNowIfNil() *MyDateString {
	if t == nil {
		now := MyDateString(time.Now())
		return &now
	}
	return t
}
