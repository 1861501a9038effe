package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lumora-shop/marketplace-api/internal/config"
	"github.com/shopspring/decimal"
)

// MidtransClient is the boundary to the payment provider: it opens Snap
// payment sessions and decodes inbound webhook notifications.
type MidtransClient interface {
	CreateSession(ctx context.Context, req *SessionRequest) (*Session, error)
	DecodeNotification(rawBody []byte) (*NotificationPayload, error)
}

type SessionItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
}

type SessionCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type SessionRequest struct {
	OrderRef    string
	GrossAmount int64
	Items       []SessionItem
	Customer    SessionCustomer
}

type Session struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// NotificationPayload is the decoded shape of a provider webhook call.
type NotificationPayload struct {
	TransactionID     string          `json:"transaction_id"`
	OrderID           string          `json:"order_id"`
	TransactionStatus string          `json:"transaction_status"`
	PaymentType       string          `json:"payment_type"`
	GrossAmount       decimal.Decimal `json:"gross_amount"`
	FraudStatus       string          `json:"fraud_status"`
}

type midtransClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	serverKey  string
}

func NewMidtransClient(cfg *config.Midtrans) MidtransClient {
	return &midtransClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL: cfg.BaseApiURL,
		serverKey:  cfg.ServerKey,
	}
}

func (c *midtransClientImpl) CreateSession(ctx context.Context, req *SessionRequest) (*Session, error) {
	payload := map[string]interface{}{
		"transaction_details": map[string]interface{}{
			"order_id":     req.OrderRef,
			"gross_amount": req.GrossAmount,
		},
		"customer_details": req.Customer,
		"item_details":     req.Items,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal snap payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseApiURL+"/snap/v1/transactions",
		bytes.NewBuffer(body),
	)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}

	auth := base64.StdEncoding.EncodeToString([]byte(c.serverKey + ":"))
	httpReq.Header.Set("Authorization", "Basic "+auth)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("snap request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("snap error %d: %s", resp.StatusCode, string(b))
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode snap response: %w", err)
	}

	if session.Token == "" {
		return nil, fmt.Errorf("snap response missing token")
	}

	return &session, nil
}

// DecodeNotification parses a webhook body. When the JSON parses but a
// required field is absent it returns the partial payload together with the
// error, so callers can still audit what arrived.
func (c *midtransClientImpl) DecodeNotification(rawBody []byte) (*NotificationPayload, error) {
	var payload NotificationPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, fmt.Errorf("decode notification payload: %w", err)
	}

	for _, field := range []struct {
		name  string
		value string
	}{
		{"order_id", payload.OrderID},
		{"transaction_status", payload.TransactionStatus},
		{"transaction_id", payload.TransactionID},
		{"payment_type", payload.PaymentType},
	} {
		if field.value == "" {
			return &payload, fmt.Errorf("missing required field: %s", field.name)
		}
	}

	return &payload, nil
}
