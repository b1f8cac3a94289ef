package emailService

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/smtp"
	"sync"

	"github.com/rs/zerolog/log"
)

const (
	subjectBudgetAlert   = "Budget Alert"
	templateBudgetAlert  = "budget_alert.html"
	subjectMonthlyReport = "Your Monthly Financial Report"
	templateMonthly      = "monthly_report.html"
	defaultQueueSize     = 100
)

//go:embed templates/*.html
var templatesFS embed.FS

type EmailData interface {
	TemplateFileName() string
	Subject() string
}

type EmailSender interface {
	QueueEmail(ctx context.Context, to string, data EmailData) error
}

type Config struct {
	From      string
	Password  string
	SMTPHost  string
	SMTPPort  string
	QueueSize int
}

type EmailService struct {
	from      string
	password  string
	smtpHost  string
	smtpPort  string
	templates *template.Template
	taskQueue chan EmailTask
	sendMail  func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type EmailTask struct {
	to   string
	data EmailData
}

// NewEmailService parses the embedded templates and starts the send worker.
func NewEmailService(config Config) (*EmailService, error) {
	templates, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("error parsing templates: %w", err)
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaultQueueSize
	}

	s := &EmailService{
		from:      config.From,
		password:  config.Password,
		smtpHost:  config.SMTPHost,
		smtpPort:  config.SMTPPort,
		templates: templates,
		taskQueue: make(chan EmailTask, config.QueueSize),
		sendMail:  smtp.SendMail,
	}

	s.wg.Add(1)
	go s.worker()
	return s, nil
}

func (s *EmailService) worker() {
	defer s.wg.Done()
	for task := range s.taskQueue {
		if err := s.sendTemplatedEmail(task.to, task.data); err != nil {
			log.Error().Err(err).Str("to", task.to).Str("template", task.data.TemplateFileName()).Msg("error sending email")
		}
	}
}

// QueueEmail hands the email to the worker, waiting for queue space until
// ctx is done.
func (s *EmailService) QueueEmail(ctx context.Context, to string, data EmailData) error {
	select {
	case s.taskQueue <- EmailTask{to: to, data: data}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting email and waits for queued messages to be sent.
func (s *EmailService) Close() {
	s.closeOnce.Do(func() {
		close(s.taskQueue)
	})
	s.wg.Wait()
}

func (s *EmailService) render(data EmailData) ([]byte, error) {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, data.TemplateFileName(), data); err != nil {
		return nil, fmt.Errorf("error executing template: %w", err)
	}
	return body.Bytes(), nil
}

func (s *EmailService) sendTemplatedEmail(to string, data EmailData) error {
	body, err := s.render(data)
	if err != nil {
		return err
	}

	message := []byte("To: " + to + "\r\n" +
		"Subject: " + data.Subject() + "\r\n" +
		"MIME-version: 1.0;\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\";\r\n\r\n" +
		string(body))

	auth := smtp.PlainAuth("", s.from, s.password, s.smtpHost)
	if err := s.sendMail(s.smtpHost+":"+s.smtpPort, auth, s.from, []string{to}, message); err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	return nil
}
