package service

import (
	"errors"
	"strings"
)

// PurchaseRequest is the body of POST /v1/subscriptions/purchase.
type PurchaseRequest struct {
	PlanID        string `json:"plan_id"`
	BillingCycle  string `json:"billing_cycle"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

// Validate checks request shape only; plan and cycle values are checked by
// the purchase usecase.
func (r *PurchaseRequest) Validate() error {
	if strings.TrimSpace(r.PlanID) == "" {
		return errors.New("plan_id is required")
	}
	if strings.TrimSpace(r.BillingCycle) == "" {
		return errors.New("billing_cycle is required")
	}
	return nil
}

type PurchaseReply struct {
	Success     bool           `json:"success"`
	OrderRef    string         `json:"order_ref"`
	PaymentData map[string]any `json:"payment_data"`
}

type GetTransactionRequest struct {
	OrderRef string `json:"order_ref"`
}

type ListTransactionsRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

type TransactionInfo struct {
	OrderRef      string `json:"order_ref"`
	PayerID       string `json:"payer_id"`
	Kind          string `json:"kind"`
	PlanID        string `json:"plan_id"`
	BillingCycle  string `json:"billing_cycle"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Tokens        int64  `json:"tokens"`
	PaymentMethod string `json:"payment_method"`
	Status        string `json:"status"`
	CreatedAt     int64  `json:"created_at"`
	CompletedAt   int64  `json:"completed_at,omitempty"`
}

type ListTransactionsReply struct {
	Items    []*TransactionInfo `json:"items"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// GatewayNotifyRequest is the signed callback body sent by the payment gateway.
type GatewayNotifyRequest struct {
	OrderNo   string `json:"order_no"`
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
	Amount    string `json:"amount"` // 主币种单位
	Currency  string `json:"currency"`
}

type NotifyReply struct {
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
}
