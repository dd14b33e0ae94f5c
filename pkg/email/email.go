package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"
)

type EmailService struct {
	apiKey    string
	from      string
	templates *template.Template
}

type EmailData struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Html    string `json:"html"`
}

type SubscriptionEmailData struct {
	Name      string
	PlanName  string
	Price     float64
	Currency  string
	Interval  string
	ExpiresAt time.Time
}

type SubscriptionCancelledData struct {
	Name      string
	PlanName  string
	ExpiresAt time.Time
}

type SubscriptionExpiryWarningData struct {
	Name       string
	PlanName   string
	DaysLeft   int
	ExpiryDate time.Time
}

func NewEmailService(apiKey string) (*EmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("error loading email templates: %v", err)
	}

	return &EmailService{
		apiKey:    apiKey,
		from:      "Hope Log <noreply@hopelog.ai>",
		templates: templates,
	}, nil
}

func (s *EmailService) sendTemplateEmail(to, subject, templateName string, data interface{}) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("template execution error: %v", err)
	}

	emailData := EmailData{
		From:    s.from,
		To:      to,
		Subject: subject,
		Html:    body.String(),
	}

	jsonData, err := json.Marshal(emailData)
	if err != nil {
		return fmt.Errorf("error marshaling email data: %v", err)
	}

	req, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Printf("Resend API error: status %d, body %s", resp.StatusCode, string(respBody))
		return fmt.Errorf("resend API error: %s", string(respBody))
	}

	return nil
}

func (s *EmailService) SendSubscriptionStartedEmail(
	email, name, planName string,
	price float64,
	currency, interval string,
	expiresAt time.Time,
) error {
	data := SubscriptionEmailData{
		Name:      name,
		PlanName:  planName,
		Price:     price,
		Currency:  currency,
		Interval:  interval,
		ExpiresAt: expiresAt,
	}
	return s.sendTemplateEmail(email, "Your Hope Log Pro subscription is active! 🎉", "subscription_started", data)
}

func (s *EmailService) SendSubscriptionCancelledEmail(email, name, planName string, expiresAt time.Time) error {
	data := SubscriptionCancelledData{
		Name:      name,
		PlanName:  planName,
		ExpiresAt: expiresAt,
	}
	return s.sendTemplateEmail(email, "Your Hope Log subscription has been cancelled", "subscription_cancelled", data)
}

func (s *EmailService) SendSubscriptionExpiryWarning(email, name, planName string, expiryDate time.Time, daysLeft int) error {
	data := SubscriptionExpiryWarningData{
		Name:       name,
		PlanName:   planName,
		DaysLeft:   daysLeft,
		ExpiryDate: expiryDate,
	}
	subject := fmt.Sprintf("Your Hope Log subscription expires in %d days", daysLeft)
	return s.sendTemplateEmail(email, subject, "subscription_expiry_warning", data)
}
