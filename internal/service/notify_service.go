package service

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log"
	"strings"
	"sync"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"parkslot/internal/config"
	"parkslot/internal/entities"
)

//go:embed templates/booking_email.html
var templateFS embed.FS

var bookingEmailTemplate = template.Must(template.New("booking_email.html").
	Funcs(template.FuncMap{"amount": entities.FormatAmount}).
	ParseFS(templateFS, "templates/booking_email.html"))

// Notifier is told about every successful booking that carries contact details.
type Notifier interface {
	NotifyBooking(receipt entities.BookingReceipt)
}

// SenderService sends booking confirmations by email (SendGrid) and SMS (Twilio).
// A channel without credentials is skipped.
type SenderService struct {
	sendGrid config.SendGridConfig
	twilio   config.TwilioConfig

	emailClient *sendgrid.Client
	smsClient   *twilio.RestClient

	wg sync.WaitGroup
}

func NewSenderService(sg config.SendGridConfig, tw config.TwilioConfig) *SenderService {
	s := &SenderService{sendGrid: sg, twilio: tw}
	if sg.APIKey != "" && sg.FromEmail != "" {
		s.emailClient = sendgrid.NewSendClient(sg.APIKey)
	} else {
		log.Println("SendGrid not configured; booking emails disabled")
	}
	if tw.AccountSID != "" && tw.AuthToken != "" && tw.FromNumber != "" {
		s.smsClient = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username:   tw.AccountSID,
			Password:   tw.AuthToken,
			AccountSid: tw.AccountSID,
		})
	} else {
		log.Println("Twilio not configured; booking SMS disabled")
	}
	return s
}

// NotifyBooking sends in the background. Failures are logged and never reach the caller.
func (s *SenderService) NotifyBooking(receipt entities.BookingReceipt) {
	if receipt.Email != "" && s.emailClient != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.sendEmail(receipt); err != nil {
				log.Printf("Booking %s: email to %s failed: %v", receipt.BookingID, receipt.Email, err)
			}
		}()
	}
	if receipt.Phone != "" && s.smsClient != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.sendSMS(receipt); err != nil {
				log.Printf("Booking %s: SMS to %s failed: %v", receipt.BookingID, receipt.Phone, err)
			}
		}()
	}
}

// Wait blocks until every pending notification has finished.
func (s *SenderService) Wait() {
	s.wg.Wait()
}

func (s *SenderService) sendEmail(receipt entities.BookingReceipt) error {
	subject, plain, html, err := bookingEmailContent(receipt, s.sendGrid.FromName)
	if err != nil {
		return err
	}
	from := mail.NewEmail(s.sendGrid.FromName, s.sendGrid.FromEmail)
	to := mail.NewEmail(receipt.Name, receipt.Email)
	message := mail.NewSingleEmail(from, subject, to, plain, html)

	response, err := s.emailClient.Send(message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned status %d: %s", response.StatusCode, response.Body)
	}
	log.Printf("Booking %s: email sent to %s (status %d)", receipt.BookingID, receipt.Email, response.StatusCode)
	return nil
}

func (s *SenderService) sendSMS(receipt entities.BookingReceipt) error {
	if !strings.HasPrefix(receipt.Phone, "+") {
		log.Printf("Booking %s: phone %q is not E.164, SMS may fail", receipt.BookingID, receipt.Phone)
	}
	params := &openapi.CreateMessageParams{}
	params.SetTo(receipt.Phone)
	params.SetFrom(s.twilio.FromNumber)
	params.SetBody(bookingSMSBody(receipt, s.sendGrid.FromName))

	resp, err := s.smsClient.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}
	if resp != nil && resp.Sid != nil {
		log.Printf("Booking %s: SMS sent to %s (sid %s)", receipt.BookingID, receipt.Phone, *resp.Sid)
	}
	return nil
}

func bookingEmailContent(receipt entities.BookingReceipt, brand string) (subject, plain, html string, err error) {
	name := receipt.Name
	if name == "" {
		name = "there"
	}
	slots := strings.Join(receipt.Slots, ", ")
	subject = fmt.Sprintf("Your %s parking booking %s", brand, receipt.BookingID)
	plain = fmt.Sprintf(
		"Hello %s,\n\nYour %s parking is booked.\n\n"+
			"Booking: %s\n"+
			"Slots: %s\n"+
			"Base amount: %s\n"+
			"Platform fee: %s\n"+
			"Night surcharge: %s\n"+
			"Total: %s\n\n"+
			"Thank you for choosing %s.",
		name, receipt.Category, receipt.BookingID, slots,
		entities.FormatAmount(receipt.Pricing.BaseAmount), entities.FormatAmount(receipt.Pricing.PlatformFee),
		entities.FormatAmount(receipt.Pricing.NightSurcharge), entities.FormatAmount(receipt.Pricing.GrandTotal), brand,
	)

	var buf bytes.Buffer
	data := struct {
		Brand     string
		Name      string
		Category  entities.Category
		BookingID string
		Slots     string
		Pricing   entities.FeeBreakdown
	}{brand, name, receipt.Category, receipt.BookingID, slots, receipt.Pricing}
	if err := bookingEmailTemplate.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("rendering booking email: %w", err)
	}
	return subject, plain, buf.String(), nil
}

func bookingSMSBody(receipt entities.BookingReceipt, brand string) string {
	return fmt.Sprintf("%s: booking %s confirmed. %s slots %s. Total %s.", brand, receipt.BookingID,
		receipt.Category, strings.Join(receipt.Slots, ", "), entities.FormatAmount(receipt.Pricing.GrandTotal))
}
