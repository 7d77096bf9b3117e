package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/movermatch/marketplace-api/internal/config"
	"github.com/movermatch/marketplace-api/internal/model"
)

type smtpService struct {
	dialer *gomail.Dialer
	from   string
	teamTo string
}

// NewSMTPService builds the gomail-backed email service.
func NewSMTPService(cfg config.SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		teamTo: cfg.TeamTo,
	}
}

func (s *smtpService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	return nil
}

func (s *smtpService) SendJobAlert(_ context.Context, mover *model.Mover, job *model.Job) error {
	subject := fmt.Sprintf("New %s job near %s", job.ServiceType, job.PickupPostal)
	body := fmt.Sprintf(
		`<p>Hi %s,</p>
		<p>A new %s job is available in your service area.</p>
		<ul>
			<li>Pickup: %s (%s)</li>
			<li>Dropoff: %s (%s)</li>
			<li>Date: %s</li>
			<li>Estimated duration: %.1f hours</li>
		</ul>
		<p>Log in to view the job and respond. Alerts expire 24 hours after they are sent.</p>`,
		mover.Name, job.ServiceType,
		job.PickupAddress, job.PickupPostal,
		job.DropoffAddress, job.DropoffPostal,
		job.MoveDate.Format("Mon, 02 Jan 2006 15:04"),
		job.EstimatedHours,
	)
	return s.send(mover.Email, subject, body)
}

func (s *smtpService) SendJobClaimed(_ context.Context, job *model.Job, mover *model.Mover) error {
	// A job claimed before a quote exists has no computable balance; the
	// email says so instead of rendering a negative number.
	amount := "To be determined"
	if due, ok := job.AmountDue(); ok {
		amount = fmt.Sprintf("$%.2f", due)
	}

	subject := "Your job has been claimed"
	body := fmt.Sprintf(
		`<p>Good news! %s has accepted your %s job.</p>
		<ul>
			<li>Provider: %s (%s, %s)</li>
			<li>Date: %s</li>
			<li>Remaining balance: %s</li>
		</ul>
		<p>Your provider will be in touch to confirm details.</p>`,
		mover.Name, job.ServiceType,
		mover.Name, mover.Email, mover.Phone,
		job.MoveDate.Format("Mon, 02 Jan 2006 15:04"),
		amount,
	)
	return s.send(job.ContactEmail, subject, body)
}

func (s *smtpService) SendCompletionToCustomer(_ context.Context, summary *CompletionSummary) error {
	subject := "Your job is complete"
	body := fmt.Sprintf(
		`<p>Hi %s,</p>
		<p>%s has marked your job as complete.</p>
		<ul>
			<li>From: %s</li>
			<li>To: %s</li>
			<li>Date: %s</li>
			<li>Total: %s</li>
		</ul>
		<p>Thanks for booking with us. We'd love a review.</p>`,
		summary.CustomerName, summary.MoverName,
		summary.PickupAddress, summary.DropoffAddress,
		summary.MoveDate, summary.Subtotal,
	)
	return s.send(summary.CustomerEmail, subject, body)
}

func (s *smtpService) SendCompletionToMover(_ context.Context, summary *CompletionSummary) error {
	subject := "Job marked complete"
	body := fmt.Sprintf(
		`<p>Hi %s,</p>
		<p>The job for %s has been recorded as complete.</p>
		<ul>
			<li>From: %s</li>
			<li>To: %s</li>
			<li>Date: %s</li>
		</ul>
		<p>Payout details are available in your dashboard.</p>`,
		summary.MoverName, summary.CustomerName,
		summary.PickupAddress, summary.DropoffAddress,
		summary.MoveDate,
	)
	return s.send(summary.MoverEmail, subject, body)
}

func (s *smtpService) SendBookingCancelled(_ context.Context, job *model.Job) error {
	subject := "Your booking was cancelled"
	body := fmt.Sprintf(
		`<p>Hi %s,</p>
		<p>Your %s booking for %s was cancelled because the deposit was not
		completed. You can rebook at any time.</p>`,
		job.ContactName, job.ServiceType,
		job.MoveDate.Format("Mon, 02 Jan 2006"),
	)
	return s.send(job.ContactEmail, subject, body)
}

func (s *smtpService) SendLongDistanceConfirmation(_ context.Context, job *model.Job) error {
	subject := "We received your long-distance request"
	body := fmt.Sprintf(
		`<p>Hi %s,</p>
		<p>Long-distance moves are arranged personally by our coordination
		team. We have your request from %s to %s on %s and will contact you
		within one business day.</p>`,
		job.ContactName,
		job.PickupPostal, job.DropoffPostal,
		job.MoveDate.Format("Mon, 02 Jan 2006"),
	)
	return s.send(job.ContactEmail, subject, body)
}

func (s *smtpService) SendLongDistanceIntake(_ context.Context, job *model.Job) error {
	subject := fmt.Sprintf("Long-distance intake: %s", job.ID)
	body := fmt.Sprintf(
		`<p>New long-distance job requires manual coordination.</p>
		<ul>
			<li>Job: %s</li>
			<li>Customer: %s (%s, %s)</li>
			<li>Route: %s (%s) → %s (%s)</li>
			<li>Date: %s</li>
		</ul>`,
		job.ID,
		job.ContactName, job.ContactEmail, job.ContactPhone,
		job.PickupAddress, job.PickupPostal,
		job.DropoffAddress, job.DropoffPostal,
		job.MoveDate.Format("Mon, 02 Jan 2006 15:04"),
	)
	return s.send(s.teamTo, subject, body)
}

func (s *smtpService) SendCustom(_ context.Context, to string, subject string, content string) error {
	return s.send(to, subject, content)
}
