package services

import (
	"fmt"
	"log"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/gorefurbish/backend/internal/config"
)

// SMSService sends one-time codes over Twilio SMS. It is an optional second
// delivery channel next to email; when unconfigured the constructor errors
// and the caller runs without it.
type SMSService struct {
	client *twilio.RestClient
	from   string
}

// NewSMSService creates a new Twilio SMS service instance
func NewSMSService(cfg config.SMS) (*SMSService, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil, fmt.Errorf("missing Twilio credentials in configuration")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &SMSService{client: client, from: cfg.From}, nil
}

// SendOTPSMS sends the password-reset code as a text message.
func (s *SMSService) SendOTPSMS(to, code string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(s.from)
	params.SetTo(to)
	params.SetBody(fmt.Sprintf("Your GoRefurbish password reset code is %s. It is valid for 10 minutes. Do not share it with anyone.", code))

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		log.Printf("❌ Failed to send OTP SMS: %v", err)
		return err
	}

	log.Printf("✅ OTP SMS sent! SID: %s", *resp.Sid)
	return nil
}
