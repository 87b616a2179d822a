package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"net/url"
)

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	FromName      string
	FromEmail     string
	StorefrontURL string
}

// OrderLine is one row of the confirmation email
type OrderLine struct {
	Title    string
	Quantity int
	Total    string
}

// OrderConfirmation is the data rendered into the confirmation email.
// Amounts are preformatted.
type OrderConfirmation struct {
	OrderID     string
	OrderNumber string
	Name        string
	Lines       []OrderLine
	Subtotal    string
	Shipping    string
	Tax         string
	Discount    string
	GrandTotal  string
	PaymentLine string
}

// EmailService handles email sending
type EmailService struct {
	config EmailConfig
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailService creates a new email service
func NewEmailService(config EmailConfig) *EmailService {
	return &EmailService{config: config, send: smtp.SendMail}
}

// Enabled reports whether an SMTP host is configured
func (s *EmailService) Enabled() bool {
	return s.config.SMTPHost != ""
}

// SendOrderConfirmation emails the order summary. It is a no-op when SMTP is not configured.
func (s *EmailService) SendOrderConfirmation(toEmail string, order OrderConfirmation) error {
	if !s.Enabled() || toEmail == "" {
		return nil
	}

	htmlContent, err := s.renderOrderConfirmation(order)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	subject := fmt.Sprintf("Order #%s confirmed - %s", order.OrderNumber, s.config.FromName)
	message := s.buildHTMLEmail(toEmail, subject, htmlContent)

	return s.sendEmail(toEmail, message)
}

// sendEmail sends an email using SMTP
func (s *EmailService) sendEmail(to string, message []byte) error {
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	var auth smtp.Auth
	if s.config.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	}

	if err := s.send(addr, auth, s.config.FromEmail, []string{to}, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// buildHTMLEmail builds an HTML email message
func (s *EmailService) buildHTMLEmail(to, subject, htmlBody string) []byte {
	headers := fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
			"\r\n",
		s.config.FromName,
		s.config.FromEmail,
		to,
		subject,
	)

	return []byte(headers + htmlBody)
}

func (s *EmailService) renderOrderConfirmation(order OrderConfirmation) (string, error) {
	tmpl, err := template.New("order_confirmation").Parse(orderConfirmationTemplate)
	if err != nil {
		return "", err
	}

	data := struct {
		OrderConfirmation
		OrderURL string
		AppName  string
	}{
		OrderConfirmation: order,
		OrderURL:          fmt.Sprintf("%s/orders/%s", s.config.StorefrontURL, url.PathEscape(order.OrderID)),
		AppName:           s.config.FromName,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

const orderConfirmationTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Order Confirmed</title>
</head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f4f7fa;">
    <table role="presentation" style="width: 100%; border-collapse: collapse;">
        <tr>
            <td style="padding: 40px 0;">
                <table role="presentation" style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px; overflow: hidden;">
                    <tr>
                        <td style="background-color: #1a1a2e; padding: 32px 30px; text-align: center;">
                            <h1 style="color: #ffffff; margin: 0; font-size: 26px;">{{.AppName}}</h1>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 32px 30px;">
                            <h2 style="color: #1a1a2e; margin: 0 0 16px 0; font-size: 22px;">Thank you{{if .Name}}, {{.Name}}{{end}}!</h2>
                            <p style="color: #4a5568; font-size: 16px; line-height: 1.6; margin: 0 0 24px 0;">
                                Your order <strong>#{{.OrderNumber}}</strong> has been placed. {{.PaymentLine}}
                            </p>
                            <table role="presentation" style="width: 100%; border-collapse: collapse; font-size: 14px; color: #4a5568;">
                                {{range .Lines}}
                                <tr>
                                    <td style="padding: 8px 0; border-bottom: 1px solid #e2e8f0;">{{.Title}} &times; {{.Quantity}}</td>
                                    <td style="padding: 8px 0; border-bottom: 1px solid #e2e8f0; text-align: right;">{{.Total}}</td>
                                </tr>
                                {{end}}
                                <tr><td style="padding: 6px 0;">Subtotal</td><td style="text-align: right;">{{.Subtotal}}</td></tr>
                                {{if .Discount}}<tr><td style="padding: 6px 0;">Discounts</td><td style="text-align: right;">-{{.Discount}}</td></tr>{{end}}
                                <tr><td style="padding: 6px 0;">Shipping</td><td style="text-align: right;">{{.Shipping}}</td></tr>
                                <tr><td style="padding: 6px 0;">Tax</td><td style="text-align: right;">{{.Tax}}</td></tr>
                                <tr><td style="padding: 10px 0; font-weight: 600; color: #1a1a2e;">Total</td><td style="text-align: right; font-weight: 600; color: #1a1a2e;">{{.GrandTotal}}</td></tr>
                            </table>
                            <p style="margin: 30px 0 0 0; text-align: center;">
                                <a href="{{.OrderURL}}" style="display: inline-block; padding: 14px 28px; background-color: #1a1a2e; color: #ffffff; text-decoration: none; border-radius: 8px; font-weight: 600;">View your order</a>
                            </p>
                        </td>
                    </tr>
                    <tr>
                        <td style="background-color: #f8fafc; padding: 24px; text-align: center; border-top: 1px solid #e2e8f0;">
                            <p style="color: #a0aec0; font-size: 13px; margin: 0;">This email was sent by {{.AppName}}</p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>
`
