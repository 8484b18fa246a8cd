package mail

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

//go:embed templates/*
var templateFS embed.FS

const (
	TemplatePaymentReceived  = "payment_received"
	TemplatePaymentConfirmed = "payment_confirmed"
)

// Render executes <name>_subject.txt, <name>.html and <name>.txt with data.
func Render(name string, data any) (Message, error) {
	subject, err := renderFile(name+"_subject.txt", data, false)
	if err != nil {
		return Message{}, fmt.Errorf("render subject: %w", err)
	}
	html, err := renderFile(name+".html", data, true)
	if err != nil {
		return Message{}, fmt.Errorf("render html: %w", err)
	}
	text, err := renderFile(name+".txt", data, false)
	if err != nil {
		return Message{}, fmt.Errorf("render text: %w", err)
	}
	return Message{Subject: strings.TrimSpace(subject), HTML: html, Text: text}, nil
}

func renderFile(name string, data any, html bool) (string, error) {
	raw, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if html {
		t, err := htmltemplate.New(name).Parse(string(raw))
		if err != nil {
			return "", err
		}
		err = t.Execute(&buf, data)
		return buf.String(), err
	}
	t, err := texttemplate.New(name).Parse(string(raw))
	if err != nil {
		return "", err
	}
	err = t.Execute(&buf, data)
	return buf.String(), err
}
