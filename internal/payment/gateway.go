package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// ProviderResponse is the acknowledgement a push-payment initiation returns.
type ProviderResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// Gateway is the mobile-money collaborator boundary. Confirmation arrives
// later through the asynchronous STK callback, not through these calls.
type Gateway interface {
	STKPush(ctx context.Context, phone string, amount decimal.Decimal, reference string) (*ProviderResponse, error)
	B2CWithdraw(ctx context.Context, phone string, amount decimal.Decimal) (*ProviderResponse, error)
}

// STKCallback mirrors the provider's callback body shape.
type STKCallback struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []CallbackItem `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

type CallbackItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value"`
}

// Metadata extracts the deposit amount and reference from callback items.
func (c *STKCallback) Metadata() (amount decimal.Decimal, reference string, ok bool) {
	var haveAmount bool
	for _, item := range c.Body.StkCallback.CallbackMetadata.Item {
		switch item.Name {
		case "Amount":
			switch v := item.Value.(type) {
			case float64:
				amount = decimal.NewFromFloat(v)
				haveAmount = true
			case string:
				if d, err := decimal.NewFromString(v); err == nil {
					amount = d
					haveAmount = true
				}
			}
		case "AccountReference":
			if v, isStr := item.Value.(string); isStr {
				reference = v
			}
		}
	}
	return amount, reference, haveAmount && reference != ""
}
