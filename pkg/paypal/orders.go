package paypal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

type Link struct {
	Rel    string `json:"rel"`
	Href   string `json:"href"`
	Method string `json:"method"`
}

type Money struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type PurchaseUnit struct {
	ReferenceID string `json:"reference_id,omitempty"`
	Description string `json:"description,omitempty"`
	Amount      *Money `json:"amount,omitempty"`
}

type ApplicationContext struct {
	BrandName   string `json:"brand_name,omitempty"`
	LandingPage string `json:"landing_page,omitempty"`
	UserAction  string `json:"user_action,omitempty"`
	ReturnURL   string `json:"return_url,omitempty"`
	CancelURL   string `json:"cancel_url,omitempty"`
}

type CreateOrderRequest struct {
	Intent             string              `json:"intent"`
	PurchaseUnits      []PurchaseUnit      `json:"purchase_units"`
	ApplicationContext *ApplicationContext `json:"application_context,omitempty"`
}

type Order struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Links  []Link `json:"links"`
}

// ApprovalURL returns the link the browser must follow next, or "" when
// PayPal did not include one.
func (o *Order) ApprovalURL() string {
	for _, link := range o.Links {
		if link.Rel == "approve" {
			return link.Href
		}
	}
	return ""
}

type Capture struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Amount *Money `json:"amount"`
}

type capturePayments struct {
	Captures []Capture `json:"captures"`
}

type CapturePurchaseUnit struct {
	ReferenceID string           `json:"reference_id"`
	Payments    *capturePayments `json:"payments"`
}

type CaptureResult struct {
	ID            string                `json:"id"`
	Status        string                `json:"status"`
	PaymentSource json.RawMessage       `json:"payment_source"`
	PurchaseUnits []CapturePurchaseUnit `json:"purchase_units"`
}

// FirstCapture validates the shape of a capture response and returns the
// first capture. Run this before writing anything to the database; a response
// missing any level of purchase_units[0].payments.captures[0] or its amount
// is rejected here instead of blowing up mid-persistence.
func (r *CaptureResult) FirstCapture() (*Capture, error) {
	if r == nil || len(r.PurchaseUnits) == 0 {
		return nil, fmt.Errorf("invalid paypal capture response: missing purchase units")
	}
	payments := r.PurchaseUnits[0].Payments
	if payments == nil || len(payments.Captures) == 0 {
		return nil, fmt.Errorf("invalid paypal capture response: missing captures")
	}
	capture := &payments.Captures[0]
	if capture.Amount == nil || capture.Amount.Value == "" {
		return nil, fmt.Errorf("missing amount in paypal capture response")
	}
	if _, err := strconv.ParseFloat(capture.Amount.Value, 64); err != nil {
		return nil, fmt.Errorf("invalid amount in paypal capture response: %w", err)
	}
	return capture, nil
}

// AmountValue parses the captured amount. FirstCapture has already checked
// the field is present and numeric.
func (c *Capture) AmountValue() (float64, error) {
	if c.Amount == nil {
		return 0, fmt.Errorf("capture has no amount")
	}
	return strconv.ParseFloat(c.Amount.Value, 64)
}

// CreateOrder creates a checkout order. requestID is sent as
// PayPal-Request-Id so a retried create cannot produce duplicate orders.
func (c *Client) CreateOrder(ctx context.Context, req *CreateOrderRequest, requestID string) (*Order, error) {
	headers := map[string]string{"Prefer": "return=representation"}
	if requestID != "" {
		headers["PayPal-Request-Id"] = requestID
	}

	var order Order
	if err := c.do(ctx, http.MethodPost, "/v2/checkout/orders", req, headers, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// CaptureOrder finalizes an approved order.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*CaptureResult, error) {
	headers := map[string]string{"Prefer": "return=representation"}

	var result CaptureResult
	if err := c.do(ctx, http.MethodPost, "/v2/checkout/orders/"+orderID+"/capture", struct{}{}, headers, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
