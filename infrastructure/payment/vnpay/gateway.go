/*
Package vnpay implements payment.Gateway for VNPay's redirect flow (v2.1.0).

Outbound requests and inbound callbacks are signed the same way: every vnp_*
parameter except the hash itself, sorted by key, URL-encoded with spaces as
"+", joined as k=v&k=v and signed with HMAC-SHA512 over the merchant secret.
*/
package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"ecommerce/config"
	"ecommerce/domain/payment"
	"ecommerce/domain/shared"
)

const (
	defaultVersion  = "2.1.0"
	defaultLocale   = "vn"
	defaultTimezone = "Asia/Ho_Chi_Minh"
	defaultExpiry   = 15 * time.Minute
	dateLayout      = "20060102150405"

	paramSecureHash     = "vnp_SecureHash"
	paramSecureHashType = "vnp_SecureHashType"
	successCode         = "00"
)

// Config merchant credentials and endpoints.
type Config struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
	Version    string
	Locale     string
	Timezone   string
	Expiry     time.Duration
}

// FromAppConfig maps the payment section of the application config.
func FromAppConfig(c config.PaymentConfig) Config {
	return Config{
		TmnCode:    c.TmnCode,
		HashSecret: c.HashSecret,
		PayURL:     c.PayURL,
		ReturnURL:  c.ReturnURL,
		Version:    c.Version,
		Locale:     c.Locale,
		Timezone:   c.Timezone,
		Expiry:     c.Expiry,
	}
}

// Gateway VNPay adapter. It holds no order state.
type Gateway struct {
	cfg      Config
	location *time.Location
	now      func() time.Time
}

func NewGateway(cfg Config) (*Gateway, error) {
	if cfg.TmnCode == "" || cfg.HashSecret == "" {
		return nil, fmt.Errorf("vnpay: tmn code and hash secret are required")
	}
	if cfg.PayURL == "" || cfg.ReturnURL == "" {
		return nil, fmt.Errorf("vnpay: pay url and return url are required")
	}
	if cfg.Version == "" {
		cfg.Version = defaultVersion
	}
	if cfg.Locale == "" {
		cfg.Locale = defaultLocale
	}
	if cfg.Timezone == "" {
		cfg.Timezone = defaultTimezone
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = defaultExpiry
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("vnpay: load timezone %q: %w", cfg.Timezone, err)
	}
	return &Gateway{cfg: cfg, location: loc, now: time.Now}, nil
}

// BuildRedirectURL signs a payment request. VNPay amounts are in 1/100 VND.
func (g *Gateway) BuildRedirectURL(req payment.RedirectRequest) (string, error) {
	if req.OrderID == "" {
		return "", fmt.Errorf("vnpay: order id is required")
	}
	if req.Amount.IsNegative() {
		return "", fmt.Errorf("vnpay: amount must not be negative")
	}

	created := g.now().In(g.location)
	clientIP := req.ClientIP
	if clientIP == "" {
		clientIP = "127.0.0.1"
	}
	info := req.OrderInfo
	if info == "" {
		info = "Payment for order " + req.OrderID
	}

	params := map[string]string{
		"vnp_Version":    g.cfg.Version,
		"vnp_Command":    "pay",
		"vnp_TmnCode":    g.cfg.TmnCode,
		"vnp_Locale":     g.cfg.Locale,
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     req.OrderID,
		"vnp_OrderInfo":  info,
		"vnp_OrderType":  "other",
		"vnp_Amount":     strconv.FormatInt(req.Amount.Amount()*100, 10),
		"vnp_ReturnUrl":  g.cfg.ReturnURL,
		"vnp_IpAddr":     clientIP,
		"vnp_CreateDate": created.Format(dateLayout),
		"vnp_ExpireDate": created.Add(g.cfg.Expiry).Format(dateLayout),
	}

	query := canonicalQuery(params)
	return g.cfg.PayURL + "?" + query + "&" + paramSecureHash + "=" + g.sign(query), nil
}

// VerifyCallback checks the signature of the parameters VNPay appended to the
// return URL.
func (g *Gateway) VerifyCallback(params map[string]string) (*payment.CallbackResult, error) {
	received := params[paramSecureHash]
	if received == "" {
		return nil, payment.NewVerificationError("missing " + paramSecureHash)
	}
	receivedMAC, err := hex.DecodeString(strings.ToLower(received))
	if err != nil {
		return nil, payment.NewVerificationError("malformed " + paramSecureHash)
	}

	signed := make(map[string]string, len(params))
	for k, v := range params {
		if !strings.HasPrefix(k, "vnp_") || k == paramSecureHash || k == paramSecureHashType {
			continue
		}
		signed[k] = v
	}
	if !hmac.Equal(receivedMAC, g.mac(canonicalQuery(signed))) {
		return nil, payment.NewVerificationError("signature mismatch")
	}

	orderID := params["vnp_TxnRef"]
	if orderID == "" {
		return nil, payment.NewVerificationError("missing vnp_TxnRef")
	}
	raw, err := strconv.ParseInt(params["vnp_Amount"], 10, 64)
	if err != nil || raw < 0 {
		return nil, payment.NewVerificationError("malformed vnp_Amount")
	}

	code := params["vnp_ResponseCode"]
	success := code == successCode
	if status, ok := params["vnp_TransactionStatus"]; ok && status != successCode {
		success = false
	}

	return &payment.CallbackResult{
		IsSuccess:     success,
		OrderID:       orderID,
		TransactionID: params["vnp_TransactionNo"],
		Amount:        shared.NewMoney(raw / 100),
		ResponseCode:  code,
	}, nil
}

func (g *Gateway) sign(data string) string {
	return hex.EncodeToString(g.mac(data))
}

func (g *Gateway) mac(data string) []byte {
	h := hmac.New(sha512.New, []byte(g.cfg.HashSecret))
	h.Write([]byte(data))
	return h.Sum(nil)
}

// canonicalQuery sorts keys and drops empty values.
func canonicalQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}
	return b.String()
}

var _ payment.Gateway = (*Gateway)(nil)
