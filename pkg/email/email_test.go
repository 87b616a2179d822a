package email

import (
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestService(cfg EmailConfig, sent *[]sentMail, fail error) *EmailService {
	s := NewEmailService(cfg)
	s.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		*sent = append(*sent, sentMail{addr: addr, from: from, to: to, msg: string(msg)})
		return fail
	}
	return s
}

func TestSendOrderConfirmation(t *testing.T) {
	var sent []sentMail
	s := newTestService(EmailConfig{
		SMTPHost:      "smtp.example.com",
		SMTPPort:      587,
		FromName:      "Storefront",
		FromEmail:     "orders@example.com",
		StorefrontURL: "https://shop.example.com",
	}, &sent, nil)

	err := s.SendOrderConfirmation("shopper@example.com", OrderConfirmation{
		OrderID:     "order_1",
		OrderNumber: "1042",
		Name:        "Asha",
		Lines:       []OrderLine{{Title: "Tee", Quantity: 2, Total: "₹998.00"}},
		GrandTotal:  "₹1,177.64",
	})
	require.NoError(t, err)
	require.Len(t, sent, 1)

	assert.Equal(t, "smtp.example.com:587", sent[0].addr)
	assert.Equal(t, []string{"shopper@example.com"}, sent[0].to)
	assert.Contains(t, sent[0].msg, "Subject: Order #1042 confirmed - Storefront")
	assert.Contains(t, sent[0].msg, "Tee &times; 2")
	assert.Contains(t, sent[0].msg, "https://shop.example.com/orders/order_1")
}

func TestSendOrderConfirmation_DisabledWithoutHost(t *testing.T) {
	var sent []sentMail
	s := newTestService(EmailConfig{}, &sent, nil)

	require.NoError(t, s.SendOrderConfirmation("shopper@example.com", OrderConfirmation{OrderNumber: "1"}))
	assert.Empty(t, sent)
	assert.False(t, s.Enabled())
}

func TestSendOrderConfirmation_SendFailure(t *testing.T) {
	var sent []sentMail
	s := newTestService(EmailConfig{SMTPHost: "smtp.example.com", SMTPPort: 25}, &sent, errors.New("connection refused"))

	err := s.SendOrderConfirmation("shopper@example.com", OrderConfirmation{OrderNumber: "1"})
	assert.ErrorContains(t, err, "connection refused")
}
