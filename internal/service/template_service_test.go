package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trailblaize/outreach-backend/internal/model"
	"github.com/trailblaize/outreach-backend/internal/service"
)

func TestRenderTemplate(t *testing.T) {
	out := service.RenderTemplate("Hi {first_name} {last_name} from {school}", map[string]string{
		"first_name": "Chris",
		"last_name":  "Delaney",
		"school":     "Auburn",
	})
	assert.Equal(t, "Hi Chris Delaney from Auburn", out)
}

func TestRenderTemplateLeavesUnknownPlaceholders(t *testing.T) {
	out := service.RenderTemplate("Hi {first_name}, see {mystery}", map[string]string{"first_name": "Chris"})
	assert.Equal(t, "Hi Chris, see {mystery}", out)
}

func TestMessageForTouchOne(t *testing.T) {
	c := baseContact()
	c.FirstName = "Chris"
	c.LastName = "Delaney"

	v := service.TemplateVars{
		FirstName: "Chris", LastName: "Delaney", SenderName: "Owen",
		School: "Auburn", Fraternity: "Sigma Chi",
	}

	msg := service.MessageForTouch(1, &c, v, "")
	assert.Contains(t, msg, "Hey is this Chris Delaney?")
	assert.Contains(t, msg, "My name is Owen")
	assert.Contains(t, msg, "Auburn Sigma Chi alumni list")
}

func TestMessageForTouchTwoVariants(t *testing.T) {
	v := service.TemplateVars{
		FirstName: "Chris", School: "Auburn", Fraternity: "Sigma Chi",
		SignupLink: "https://example.com/join",
	}

	cold := baseContact()
	msg := service.MessageForTouch(2, &cold, v, "")
	assert.Contains(t, msg, "following up")
	assert.Contains(t, msg, "https://example.com/join")

	confirmed := baseContact()
	class := model.ClassConfirmed
	confirmed.ResponseClassification = &class
	msg = service.MessageForTouch(2, &confirmed, v, "")
	assert.Contains(t, msg, "Great, I'm reaching out")
	assert.Contains(t, msg, "https://example.com/join")
}

func TestMessageForTouchThree(t *testing.T) {
	c := baseContact()
	v := service.TemplateVars{FirstName: "Chris"}

	msg := service.MessageForTouch(3, &c, v, "")
	assert.Contains(t, msg, "checking back in")
}

func TestMessageForTouchOverride(t *testing.T) {
	c := baseContact()
	v := service.TemplateVars{FirstName: "Chris", SenderName: "Jake"}

	msg := service.MessageForTouch(1, &c, v, "Custom hello {first_name}, this is {sender_name}")
	assert.Equal(t, "Custom hello Chris, this is Jake", msg)
}
