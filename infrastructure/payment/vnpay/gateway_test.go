package vnpay

import (
	"net/url"
	"testing"
	"time"

	"ecommerce/domain/payment"
	"ecommerce/domain/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	g, err := NewGateway(Config{
		TmnCode:    "DEMO0001",
		HashSecret: "SECRETKEY",
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "https://shop.example/payment/return",
	})
	require.NoError(t, err)
	g.now = func() time.Time { return time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC) }
	return g
}

func redirectParams(t *testing.T, raw string) map[string]string {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	params := make(map[string]string)
	for k, v := range u.Query() {
		params[k] = v[0]
	}
	return params
}

// signedCallback builds the parameters VNPay would send back for an order.
func signedCallback(g *Gateway, fields map[string]string) map[string]string {
	params := make(map[string]string, len(fields)+1)
	for k, v := range fields {
		params[k] = v
	}
	params[paramSecureHash] = g.sign(canonicalQuery(fields))
	return params
}

func TestBuildRedirectURL(t *testing.T) {
	g := newTestGateway(t)

	raw, err := g.BuildRedirectURL(payment.RedirectRequest{
		OrderID:   "order-1",
		Amount:    shared.NewMoney(250_000),
		ClientIP:  "10.0.0.7",
		OrderInfo: "Payment for order order-1",
	})
	require.NoError(t, err)

	params := redirectParams(t, raw)
	assert.Equal(t, "25000000", params["vnp_Amount"])
	assert.Equal(t, "order-1", params["vnp_TxnRef"])
	assert.Equal(t, "pay", params["vnp_Command"])
	assert.Equal(t, "VND", params["vnp_CurrCode"])
	assert.Equal(t, "2.1.0", params["vnp_Version"])
	assert.Equal(t, "10.0.0.7", params["vnp_IpAddr"])
	// 08:00 UTC is 15:00 in Ho Chi Minh City
	assert.Equal(t, "20250301150000", params["vnp_CreateDate"])
	assert.Equal(t, "20250301151500", params["vnp_ExpireDate"])
	assert.Contains(t, raw, "vnp_OrderInfo=Payment+for+order+order-1")

	// the redirect carries a signature the gateway itself accepts
	result, err := g.VerifyCallback(params)
	require.NoError(t, err)
	assert.Equal(t, "order-1", result.OrderID)
	assert.Equal(t, int64(250_000), result.Amount.Amount())
}

func TestVerifyCallback(t *testing.T) {
	g := newTestGateway(t)
	base := map[string]string{
		"vnp_TxnRef":            "order-9",
		"vnp_Amount":            "13000000",
		"vnp_ResponseCode":      "00",
		"vnp_TransactionStatus": "00",
		"vnp_TransactionNo":     "14123456",
		"vnp_OrderInfo":         "Payment for order order-9",
	}

	t.Run("success", func(t *testing.T) {
		result, err := g.VerifyCallback(signedCallback(g, base))
		require.NoError(t, err)
		assert.True(t, result.IsSuccess)
		assert.Equal(t, "order-9", result.OrderID)
		assert.Equal(t, "14123456", result.TransactionID)
		assert.Equal(t, int64(130_000), result.Amount.Amount())
	})

	t.Run("declined", func(t *testing.T) {
		fields := copyParams(base)
		fields["vnp_ResponseCode"] = "24"
		fields["vnp_TransactionStatus"] = "02"
		result, err := g.VerifyCallback(signedCallback(g, fields))
		require.NoError(t, err)
		assert.False(t, result.IsSuccess)
		assert.Equal(t, "24", result.ResponseCode)
	})

	t.Run("transaction status overrides response code", func(t *testing.T) {
		fields := copyParams(base)
		fields["vnp_TransactionStatus"] = "01"
		result, err := g.VerifyCallback(signedCallback(g, fields))
		require.NoError(t, err)
		assert.False(t, result.IsSuccess)
	})

	t.Run("hash type is not signed", func(t *testing.T) {
		params := signedCallback(g, base)
		params[paramSecureHashType] = "HmacSHA512"
		_, err := g.VerifyCallback(params)
		assert.NoError(t, err)
	})

	t.Run("tampered amount", func(t *testing.T) {
		params := signedCallback(g, base)
		params["vnp_Amount"] = "100"
		_, err := g.VerifyCallback(params)
		assert.ErrorIs(t, err, shared.ErrVerificationFailed)
	})

	t.Run("missing hash", func(t *testing.T) {
		_, err := g.VerifyCallback(copyParams(base))
		assert.ErrorIs(t, err, shared.ErrVerificationFailed)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := newTestGateway(t)
		other.cfg.HashSecret = "OTHER"
		_, err := g.VerifyCallback(signedCallback(other, base))
		assert.ErrorIs(t, err, payment.ErrVerificationFailed)
	})
}

func TestNewGatewayRequiresCredentials(t *testing.T) {
	_, err := NewGateway(Config{PayURL: "https://x", ReturnURL: "https://y"})
	assert.Error(t, err)

	_, err = NewGateway(Config{TmnCode: "T", HashSecret: "S", PayURL: "https://x", ReturnURL: "https://y", Timezone: "Mars/Olympus"})
	assert.Error(t, err)
}

func TestCanonicalQueryEncodesSpacesAsPlus(t *testing.T) {
	got := canonicalQuery(map[string]string{
		"vnp_b": "two words",
		"vnp_a": "x&y",
		"vnp_c": "",
	})
	assert.Equal(t, "vnp_a=x%26y&vnp_b=two+words", got)
}

func copyParams(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
