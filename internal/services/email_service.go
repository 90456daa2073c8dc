package services

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"emaginer/internal/errs"
)

// Идентификаторы писем. Каждому соответствует свой шаблон в
// templateDefinition; неизвестный id -> errs.ErrNoTemplate.
type EmailTemplate int

const (
	TemplateRegistration EmailTemplate = iota + 1
	TemplateActivation
	TemplateResendCode
	TemplateForgotPassword
	TemplateResetPassword
)

type EmailService interface {
	SendEmail(to string, template EmailTemplate, params map[string]string) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	return &emailService{
		dialer: gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword),
		from:   fromEmail,
	}
}

type mailDefinition struct {
	subject string
	body    string
}

func templateDefinition(template EmailTemplate, params map[string]string) (*mailDefinition, error) {
	switch template {
	case TemplateRegistration:
		return &mailDefinition{
			subject: "Welcome to Emaginer",
			body: fmt.Sprintf(`
				<h2>Welcome to Emaginer!</h2>
				<p>Thanks for registering to the Emaginer service.</p>
				<p>Please follow your activation URL: <a href="%[1]s">%[1]s</a></p>
			`, params["activationUrl"]),
		}, nil
	case TemplateActivation:
		return &mailDefinition{
			subject: "Emaginer account activated",
			body:    `<p>Thanks for activating your Emaginer account.</p>`,
		}, nil
	case TemplateResendCode:
		return &mailDefinition{
			subject: "Your new Emaginer activation code",
			body: fmt.Sprintf(`
				<p>A new activation code was requested for your account.</p>
				<p>Please follow your activation URL: <a href="%[1]s">%[1]s</a></p>
				<p>All previously sent codes are no longer valid.</p>
			`, params["activationUrl"]),
		}, nil
	case TemplateForgotPassword:
		return &mailDefinition{
			subject: "Emaginer password reset request",
			body: fmt.Sprintf(`
				<h3>Password reset requested</h3>
				<p>We received a request to reset the password for your account.</p>
				<p>Use the following link to reset your password: <a href="%[1]s">%[1]s</a></p>
				<p>If you did not request this change, you can ignore this email.</p>
			`, params["resetUrl"]),
		}, nil
	case TemplateResetPassword:
		return &mailDefinition{
			subject: "Emaginer password changed",
			body:    `<p>Your Emaginer password has been changed. If this was not you, please reset your password immediately.</p>`,
		}, nil
	}
	return nil, errs.ErrNoTemplate
}

func (s *emailService) SendEmail(to string, template EmailTemplate, params map[string]string) error {
	def, err := templateDefinition(template, params)
	if err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", def.subject)
	m.SetBody("text/html", def.body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email (template %d): %w", template, err)
	}
	return nil
}
