// internal/service/template_service.go
package service

import (
	"fmt"
	"strings"

	"github.com/trailblaize/outreach-backend/internal/model"
)

// TemplateVars are the named placeholders available to touch messages and
// operator-supplied override templates.
type TemplateVars struct {
	FirstName  string
	LastName   string
	SenderName string
	School     string
	Fraternity string
	SignupLink string
}

func (v TemplateVars) toMap() map[string]string {
	return map[string]string{
		"first_name":  v.FirstName,
		"last_name":   v.LastName,
		"sender_name": v.SenderName,
		"school":      v.School,
		"fraternity":  v.Fraternity,
		"signup_link": v.SignupLink,
	}
}

// RenderTemplate substitutes {name} placeholders in a template.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

func touch1Message(v TemplateVars) string {
	return fmt.Sprintf(
		"Hey is this %s %s? My name is %s, and I am checking to verify your phone number for the %s %s alumni list.",
		v.FirstName, v.LastName, v.SenderName, v.School, v.Fraternity)
}

func touch2ConfirmedMessage(v TemplateVars) string {
	return fmt.Sprintf(
		"Great, I'm reaching out because we partnered with %s %s to launch Trailblaize, a free LinkedIn-style platform that connects actives and alumni. Here's the signup link: %s",
		v.School, v.Fraternity, v.SignupLink)
}

func touch2NoResponseMessage(v TemplateVars) string {
	return fmt.Sprintf(
		"Hey %s, following up — we partnered with %s %s to launch Trailblaize, a free platform that connects actives and alumni. Here's the signup link if you're interested: %s",
		v.FirstName, v.School, v.Fraternity, v.SignupLink)
}

func touch3Message(v TemplateVars) string {
	return fmt.Sprintf(
		"Hey %s, just checking back in — did you get a chance to sign up? Happy to answer any questions.",
		v.FirstName)
}

// MessageForTouch renders the scripted message for one touch, or the
// operator's override template if provided. A contact who confirmed gets
// the warmer touch-2 variant.
func MessageForTouch(touch int, contact *model.Contact, v TemplateVars, override string) string {
	if strings.TrimSpace(override) != "" {
		return RenderTemplate(override, v.toMap())
	}

	switch touch {
	case 1:
		return touch1Message(v)
	case 2:
		if contact.HasConfirmed() {
			return touch2ConfirmedMessage(v)
		}
		return touch2NoResponseMessage(v)
	default:
		return touch3Message(v)
	}
}
