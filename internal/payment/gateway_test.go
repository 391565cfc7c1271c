package payment

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestSTKCallbackMetadata(t *testing.T) {
	raw := `{
		"Body": {
			"stkCallback": {
				"MerchantRequestID": "mock_stk_1_500",
				"CheckoutRequestID": "ws_CO_DMZ_stk_1_500",
				"ResultCode": 0,
				"ResultDesc": "The service request is processed successfully.",
				"CallbackMetadata": {
					"Item": [
						{"Name": "Amount", "Value": 500},
						{"Name": "MpesaReceiptNumber", "Value": "QK12XYZ"},
						{"Name": "AccountReference", "Value": "stk_1_500"}
					]
				}
			}
		}
	}`

	var cb STKCallback
	require.NoError(t, json.Unmarshal([]byte(raw), &cb))
	require.Equal(t, 0, cb.Body.StkCallback.ResultCode)

	amount, reference, ok := cb.Metadata()
	require.True(t, ok)
	require.Equal(t, "stk_1_500", reference)
	require.True(t, amount.Equal(decimal.NewFromInt(500)))
}

func TestSTKCallbackMetadataMissingFields(t *testing.T) {
	var cb STKCallback
	_, _, ok := cb.Metadata()
	require.False(t, ok)

	cb.Body.StkCallback.CallbackMetadata.Item = []CallbackItem{
		{Name: "Amount", Value: 250.0},
	}
	_, _, ok = cb.Metadata()
	require.False(t, ok, "reference is required")
}

func TestMockGatewayAcks(t *testing.T) {
	g := NewMockGateway()

	resp, err := g.STKPush(context.Background(), "254700000001", decimal.NewFromInt(500), "stk_1_500")
	require.NoError(t, err)
	require.Equal(t, "0", resp.ResponseCode)
	require.Equal(t, "ws_CO_DMZ_stk_1_500", resp.CheckoutRequestID)

	resp, err = g.B2CWithdraw(context.Background(), "254700000001", decimal.NewFromInt(300))
	require.NoError(t, err)
	require.Equal(t, "0", resp.ResponseCode)
}
