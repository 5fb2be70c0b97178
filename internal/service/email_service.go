package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/courier-next/internal/config"
	"github.com/courier-next/internal/constants"
	"github.com/courier-next/internal/models"
)

// EmailService 邮件发送服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// ParcelStatusEmailInput 包裹状态邮件输入
type ParcelStatusEmailInput struct {
	TrackingID      string
	Status          string
	ReceiverName    string
	DeliveryAddress string
	Cost            models.Money
	Currency        string
}

// SendParcelStatusEmail 发送包裹状态通知
func (s *EmailService) SendParcelStatusEmail(toEmail string, input ParcelStatusEmailInput) error {
	subject, body := buildParcelStatusContent(input)
	return s.sendTextEmail(toEmail, subject, body)
}

// RiderDecisionEmailInput 骑手申请结果邮件输入
type RiderDecisionEmailInput struct {
	FullName string
	Decision string
}

// SendRiderDecisionEmail 发送骑手申请结果通知
func (s *EmailService) SendRiderDecisionEmail(toEmail string, input RiderDecisionEmailInput) error {
	subject, body := buildRiderDecisionContent(input)
	return s.sendTextEmail(toEmail, subject, body)
}

func (s *EmailService) sendTextEmail(toEmail, subject, body string) error {
	if s.cfg == nil || !s.cfg.Enabled {
		return ErrEmailServiceDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailServiceNotConfigured
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return ErrInvalidEmail
	}

	from := buildFromAddress(s.cfg.From, s.cfg.FromName)
	msg := buildEmailMessage(from, toEmail, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" || s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if s.cfg.UseSSL {
		return sendMailWithSSL(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg))
	}
	if s.cfg.UseTLS {
		return sendMailWithStartTLS(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg))
	}
	return sendMailPlain(addr, auth, s.cfg.Host, s.cfg.From, []string{toEmail}, []byte(msg))
}

func buildParcelStatusContent(input ParcelStatusEmailInput) (string, string) {
	statusLabel := parcelStatusLabel(input.Status)
	subject := fmt.Sprintf("Parcel %s - %s", input.TrackingID, statusLabel)
	if input.TrackingID == "" {
		subject = fmt.Sprintf("Parcel update - %s", statusLabel)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your parcel status has changed to: %s\n\n", statusLabel)
	if input.TrackingID != "" {
		fmt.Fprintf(&b, "Tracking ID: %s\n", input.TrackingID)
	}
	if input.ReceiverName != "" {
		fmt.Fprintf(&b, "Receiver: %s\n", input.ReceiverName)
	}
	if input.DeliveryAddress != "" {
		fmt.Fprintf(&b, "Delivery address: %s\n", input.DeliveryAddress)
	}
	if input.Cost.IsPositive() {
		currency := strings.ToUpper(strings.TrimSpace(input.Currency))
		if currency == "" {
			currency = "USD"
		}
		fmt.Fprintf(&b, "Delivery cost: %s %s\n", input.Cost.StringFixed(2), currency)
	}
	return subject, b.String()
}

func buildRiderDecisionContent(input RiderDecisionEmailInput) (string, string) {
	name := strings.TrimSpace(input.FullName)
	if name == "" {
		name = "there"
	}
	if input.Decision == constants.RiderStatusApproved {
		subject := "Rider application approved"
		body := fmt.Sprintf("Hi %s,\n\nYour rider application has been approved. You can now sign in and start picking up parcels.", name)
		return subject, body
	}
	subject := "Rider application update"
	body := fmt.Sprintf("Hi %s,\n\nThank you for applying. Unfortunately your rider application was not approved at this time.", name)
	return subject, body
}

func parcelStatusLabel(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case constants.DeliveryStatusPending:
		return "paid, awaiting pickup"
	case constants.DeliveryStatusPicked:
		return "picked up"
	case constants.DeliveryStatusDelivered:
		return "delivered"
	case constants.DeliveryStatusCancelled:
		return "cancelled"
	default:
		return status
	}
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	encoded := mime.QEncoding.Encode("UTF-8", name)
	return (&mail.Address{Name: encoded, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("From: %s\r\n", from))
	buf.WriteString(fmt.Sprintf("To: %s\r\n", to))
	buf.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject)))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	return buf.String()
}

func sendMailWithSSL(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendMailWithStartTLS(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return err
	}

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendMailPlain(addr string, auth smtp.Auth, host, from string, to []string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return err
			}
		}
	}

	return sendSMTPData(client, from, to, msg)
}

func sendSMTPData(client *smtp.Client, from string, to []string, msg []byte) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err = w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
