package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockGateway returns canned provider acks. Real provider protocol details
// are out of scope; this keeps the deposit/withdraw flows exercisable
// end-to-end in development and tests.
type MockGateway struct{}

func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (g *MockGateway) STKPush(_ context.Context, _ string, _ decimal.Decimal, reference string) (*ProviderResponse, error) {
	return &ProviderResponse{
		MerchantRequestID:   fmt.Sprintf("mock_%s", reference),
		CheckoutRequestID:   fmt.Sprintf("ws_CO_DMZ_%s", reference),
		ResponseCode:        "0",
		ResponseDescription: "Success. Request accepted for processing",
		CustomerMessage:     "Success. Request accepted for processing",
	}, nil
}

func (g *MockGateway) B2CWithdraw(_ context.Context, _ string, _ decimal.Decimal) (*ProviderResponse, error) {
	return &ProviderResponse{
		MerchantRequestID:   fmt.Sprintf("mock_b2c_%s", uuid.NewString()),
		ResponseCode:        "0",
		ResponseDescription: "Accept the service request successfully.",
		CustomerMessage:     "Accept the service request successfully.",
	}, nil
}
