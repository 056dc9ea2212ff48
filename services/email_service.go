package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"text/template"

	"github.com/anleague/tournament-engine/models"
	"github.com/anleague/tournament-engine/repositories"
)

type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

// EmailService mails match results to team representatives. It implements
// ResultNotifier.
type EmailService struct {
	cfg      SMTPConfig
	userRepo repositories.UserRepository
}

func NewEmailService(cfg SMTPConfig, userRepo repositories.UserRepository) *EmailService {
	return &EmailService{cfg: cfg, userRepo: userRepo}
}

var resultMailTemplate = template.Must(template.New("result").Parse(
	`Result: {{.Team1.Country}} {{.Match.Score.Team1}} - {{.Match.Score.Team2}} {{.Team2.Country}}
Goal Scorers:
{{- range .Match.GoalScorers}}
{{.PlayerName}} ({{if eq .Side "team1"}}{{$.Team1.Country}}{{else}}{{$.Team2.Country}}{{end}}, {{.Minute}}')
{{- end}}
{{- if .Match.Commentary}}
Commentary: {{.Match.Commentary}}
{{- end}}
`))

func (s *EmailService) NotifyResult(ctx context.Context, match *models.Match, team1, team2 *models.Team) error {
	recipients := make([]string, 0, 2)
	for _, repID := range []int{team1.RepresentativeID, team2.RepresentativeID} {
		if repID == 0 {
			continue
		}
		rep, err := s.userRepo.GetByID(ctx, repID)
		if err != nil {
			continue
		}
		recipients = append(recipients, rep.Email)
	}
	if len(recipients) == 0 {
		return nil
	}

	var body bytes.Buffer
	data := struct {
		Match        *models.Match
		Team1, Team2 *models.Team
	}{match, team1, team2}
	if err := resultMailTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render result mail: %w", err)
	}

	subject := fmt.Sprintf("Match Result: %s vs %s", team1.Country, team2.Country)
	return s.send(recipients, subject, body.String())
}

func (s *EmailService) send(to []string, subject, body string) error {
	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.From + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" +
		body + "\r\n")

	tlsConfig := &tls.Config{ServerName: s.cfg.Host}

	var client *smtp.Client
	if s.cfg.Port == 465 {
		// Implicit TLS.
		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return fmt.Errorf("smtp tls dial failed: %w", err)
		}
		client, err = smtp.NewClient(conn, s.cfg.Host)
		if err != nil {
			conn.Close()
			return fmt.Errorf("smtp client failed: %w", err)
		}
	} else {
		// STARTTLS.
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("smtp dial failed: %w", err)
		}
		client = c
		if err := client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return fmt.Errorf("smtp starttls failed: %w", err)
		}
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("smtp auth failed: %w", err)
	}
	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from failed: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt to failed: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("smtp write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close failed: %w", err)
	}
	return nil
}
