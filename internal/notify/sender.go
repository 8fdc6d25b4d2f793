// Package notify delivers a session's shareable link to a phone by SMS or
// WhatsApp.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// ErrDeliveryFailed is returned when the messaging provider rejects a message.
var ErrDeliveryFailed = errors.New("message could not be delivered")

const messageTemplate = "¡Gracias por usar el Photomaton! Tus fotos: %s"

// Sender delivers link to destination. Delivery is at most once per call;
// callers retry by calling again.
type Sender interface {
	Name() string
	Send(ctx context.Context, destination, link string) error
}

// messageCreator is the part of the Twilio API client the sender uses.
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioSender sends messages through the Twilio Messages API. A "whatsapp:"
// prefixed From number routes messages over WhatsApp.
type TwilioSender struct {
	api  messageCreator
	from string
}

// NewTwilioSender creates a TwilioSender authenticated with the account SID and token.
func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{api: client.Api, from: from}
}

// Name implements Sender.
func (s *TwilioSender) Name() string { return "twilio" }

// Send implements Sender.
func (s *TwilioSender) Send(ctx context.Context, destination, link string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to := destination
	if strings.HasPrefix(s.from, "whatsapp:") && !strings.HasPrefix(to, "whatsapp:") {
		to = "whatsapp:" + to
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(fmt.Sprintf(messageTemplate, link))

	msg, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	if msg.Sid != nil {
		log.Printf("notify: queued message %s to %s", *msg.Sid, maskPhone(destination))
	}
	return nil
}

// LogSender only logs the link. Used in development and whenever Twilio
// credentials are absent.
type LogSender struct{}

// Name implements Sender.
func (LogSender) Name() string { return "log" }

// Send implements Sender.
func (LogSender) Send(_ context.Context, destination, link string) error {
	log.Printf("[LINK] phone=%s link=%s", destination, link)
	return nil
}

// maskPhone keeps the last four digits.
func maskPhone(p string) string {
	if len(p) <= 4 {
		return p
	}
	return strings.Repeat("*", len(p)-4) + p[len(p)-4:]
}
