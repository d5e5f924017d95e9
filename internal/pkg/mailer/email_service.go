package mailer

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

type IEmailService interface {
	SendReviewDecision(toEmail, studentName, lessonDate, decision, notes string) error
	SendExpiryWarning(toEmail, studentName string, expiresAt time.Time, daysLeft int) error
	SendCreditExpired(toEmail, studentName string) error
}

type emailService struct {
	dialer      *gomail.Dialer
	senderEmail string
}

func NewEmailService(host string, port int, username, password, senderEmail string) IEmailService {
	return &emailService{
		dialer:      gomail.NewDialer(host, port, username, password),
		senderEmail: senderEmail,
	}
}

func (s *emailService) send(toEmail, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.senderEmail)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return s.dialer.DialAndSend(m)
}

func (s *emailService) SendReviewDecision(toEmail, studentName, lessonDate, decision, notes string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Cancellation request %s</h2>
			<p>Hi %s,</p>
			<p>Your cancellation request for the lesson on %s was <b>%s</b>.</p>
			<p>%s</p>
		</div>
	`, decision, studentName, lessonDate, decision, notes)
	return s.send(toEmail, fmt.Sprintf("Your cancellation request was %s", decision), body)
}

func (s *emailService) SendExpiryWarning(toEmail, studentName string, expiresAt time.Time, daysLeft int) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Your makeup lesson credit is expiring</h2>
			<p>Hi %s,</p>
			<p>You have an unused makeup credit that expires on <b>%s</b> (%d day(s) left).</p>
			<p>Book a replacement lesson before then or the credit will lapse.</p>
		</div>
	`, studentName, expiresAt.Format("2 January 2006"), daysLeft)
	return s.send(toEmail, "Makeup credit expiring soon", body)
}

func (s *emailService) SendCreditExpired(toEmail, studentName string) error {
	body := fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Makeup credit expired</h2>
			<p>Hi %s,</p>
			<p>Your makeup lesson credit has expired and can no longer be used.</p>
			<p>Contact the school office if you believe this is a mistake.</p>
		</div>
	`, studentName)
	return s.send(toEmail, "Makeup credit expired", body)
}
