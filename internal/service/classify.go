// internal/service/classify.go
package service

import (
	"regexp"
	"strings"

	"github.com/trailblaize/outreach-backend/internal/model"
)

// Ordered pattern rules for inbound replies; first match wins. Wrong-person
// phrases must outrank opt-outs ("wrong number, stop texting me").
var (
	wrongPersonPattern = regexp.MustCompile(`\b(wrong|not me|not this person|mother|father|deceased|passed away|passed|who is this)\b`)
	declinePattern     = regexp.MustCompile(`\b(stop|remove|unsubscribe|not interested|no thanks|don'?t text|leave me alone|opt out)\b`)
	signedUpPattern    = regexp.MustCompile(`\b(signed up|just signed|done|registered|joined)\b`)
	confirmPattern     = regexp.MustCompile(`\b(yes|yeah|yep|yessir|this is|correct|sure|that'?s me|ya|yea)\b`)
)

// Classifier buckets unstructured reply text into response categories.
// The fallback for unmatched text is configurable: the default of
// "confirmed" treats silence-breaking replies as an implicit positive so
// the sequence never stalls.
type Classifier struct {
	Fallback model.Classification
}

func NewClassifier(fallback model.Classification) *Classifier {
	if fallback == "" {
		fallback = model.ClassConfirmed
	}
	return &Classifier{Fallback: fallback}
}

// Classify applies the ordered rules against the lowercased text.
func (cl *Classifier) Classify(text string) model.Classification {
	lower := strings.ToLower(strings.TrimSpace(text))

	switch {
	case wrongPersonPattern.MatchString(lower):
		return model.ClassWrongNumber
	case declinePattern.MatchString(lower):
		return model.ClassDeclined
	case signedUpPattern.MatchString(lower):
		return model.ClassSignedUp
	case confirmPattern.MatchString(lower):
		return model.ClassConfirmed
	case strings.Contains(lower, "?"):
		return model.ClassQuestion
	}
	return cl.Fallback
}

// StatusFor maps a classification to the contact's outreach status. A plain
// confirmation before the pitch keeps the contact at verified; after the
// pitch it counts as a response.
func StatusFor(class model.Classification, hasTouchTwo bool) model.OutreachStatus {
	switch class {
	case model.ClassConfirmed:
		if hasTouchTwo {
			return model.StatusResponded
		}
		return model.StatusVerified
	case model.ClassWrongNumber:
		return model.StatusWrongNumber
	case model.ClassDeclined:
		return model.StatusOptedOut
	case model.ClassSignedUp:
		return model.StatusSignedUp
	case model.ClassQuestion:
		return model.StatusResponded
	}
	return model.StatusResponded
}
