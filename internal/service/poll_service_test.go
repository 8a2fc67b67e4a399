package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/trailblaize/outreach-backend/internal/errors"
	"github.com/trailblaize/outreach-backend/internal/gateway"
	"github.com/trailblaize/outreach-backend/internal/model"
	"github.com/trailblaize/outreach-backend/internal/service"
)

func pollableContact(id, chatID string) model.Contact {
	p := "+15551239999"
	cid := chatID
	return model.Contact{
		ID:             id,
		ChapterID:      "ch1",
		PhonePrimary:   &p,
		Channel:        model.ChannelIMessage,
		OutreachStatus: model.StatusVerified,
		ChatID:         &cid,
	}
}

func textMessage(from, text string, at time.Time) gateway.Message {
	return gateway.Message{
		From:      from,
		Parts:     []gateway.MessagePart{{Type: "text", Value: text}},
		CreatedAt: at,
	}
}

func newPollService(contactRepo *mockContactRepo, lineRepo *mockLineRepo, gw *mockGateway) *service.PollService {
	return &service.PollService{
		ContactRepo: contactRepo,
		LineRepo:    lineRepo,
		Gateway:     gw,
		Classifier:  service.NewClassifier(""),
		Sleep:       func(time.Duration) {},
	}
}

func TestPollResponsesClassifiesLatestInbound(t *testing.T) {
	now := time.Now()
	contact := pollableContact("c1", "chat-1")
	contactRepo := &mockContactRepo{contacts: []model.Contact{contact}}
	lineRepo := &mockLineRepo{lines: testLines(50)}
	gw := &mockGateway{
		messages: map[string][]gateway.Message{
			"chat-1": {
				textMessage("+15551239999", "yes this is me", now.Add(-2*time.Hour)),
				textMessage("+15551239999", "wrong number actually", now.Add(-time.Hour)),
			},
		},
	}

	svc := newPollService(contactRepo, lineRepo, gw)

	result, err := svc.PollResponses(context.Background(), "ch1", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Polled)
	assert.Equal(t, 1, result.NewResponses)
	assert.Equal(t, 1, result.ByClassification[string(model.ClassWrongNumber)])

	require.Len(t, contactRepo.updatedResponses, 1)
	ur := contactRepo.updatedResponses[0]
	assert.Equal(t, "c1", ur.ContactID)
	assert.Equal(t, "wrong number actually", ur.Text, "only the newest reply is classified")
	assert.Equal(t, model.ClassWrongNumber, ur.Class)
	assert.Equal(t, model.StatusWrongNumber, ur.Status)
}

func TestPollResponsesIgnoresOwnMessages(t *testing.T) {
	now := time.Now()
	contact := pollableContact("c1", "chat-1")
	lineRepo := &mockLineRepo{lines: testLines(50)}
	ourPhone := lineRepo.lines[0].PhoneNumber

	contactRepo := &mockContactRepo{contacts: []model.Contact{contact}}
	gw := &mockGateway{
		messages: map[string][]gateway.Message{
			"chat-1": {
				textMessage(ourPhone, "Hey is this you?", now.Add(-time.Hour)),
			},
		},
	}

	svc := newPollService(contactRepo, lineRepo, gw)

	result, err := svc.PollResponses(context.Background(), "ch1", 10)
	require.NoError(t, err)
	assert.Equal(t, 0, result.NewResponses)
	assert.Empty(t, contactRepo.updatedResponses)
}

func TestPollResponsesSkipsAlreadySeenReplies(t *testing.T) {
	now := time.Now()
	seen := now.Add(-time.Hour)
	contact := pollableContact("c1", "chat-1")
	contact.LastResponseAt = &seen

	contactRepo := &mockContactRepo{contacts: []model.Contact{contact}}
	gw := &mockGateway{
		messages: map[string][]gateway.Message{
			"chat-1": {
				textMessage("+15551239999", "yes", now.Add(-2*time.Hour)),
				textMessage("+15551239999", "yes", seen),
			},
		},
	}

	svc := newPollService(contactRepo, &mockLineRepo{lines: testLines(50)}, gw)

	result, err := svc.PollResponses(context.Background(), "ch1", 10)
	require.NoError(t, err)
	assert.Equal(t, 0, result.NewResponses, "replies at or before the watermark are old news")
}

func TestPollResponsesTruncatesLongReplies(t *testing.T) {
	now := time.Now()
	contact := pollableContact("c1", "chat-1")
	contactRepo := &mockContactRepo{contacts: []model.Contact{contact}}
	gw := &mockGateway{
		messages: map[string][]gateway.Message{
			"chat-1": {
				textMessage("+15551239999", strings.Repeat("a", 800), now),
			},
		},
	}

	svc := newPollService(contactRepo, &mockLineRepo{lines: testLines(50)}, gw)

	_, err := svc.PollResponses(context.Background(), "ch1", 10)
	require.NoError(t, err)
	require.Len(t, contactRepo.updatedResponses, 1)
	assert.Len(t, contactRepo.updatedResponses[0].Text, 500)
}

func TestPollResponsesTruncatesOnRuneBoundary(t *testing.T) {
	now := time.Now()
	contact := pollableContact("c1", "chat-1")
	contactRepo := &mockContactRepo{contacts: []model.Contact{contact}}

	// 499 ASCII bytes followed by multi-byte runes puts a rune straddling
	// the cutoff.
	reply := strings.Repeat("a", 499) + strings.Repeat("é", 20)
	gw := &mockGateway{
		messages: map[string][]gateway.Message{
			"chat-1": {textMessage("+15551239999", reply, now)},
		},
	}

	svc := newPollService(contactRepo, &mockLineRepo{lines: testLines(50)}, gw)

	_, err := svc.PollResponses(context.Background(), "ch1", 10)
	require.NoError(t, err)
	require.Len(t, contactRepo.updatedResponses, 1)

	stored := contactRepo.updatedResponses[0].Text
	assert.True(t, utf8.ValidString(stored), "stored reply must stay valid UTF-8")
	assert.Len(t, stored, 499, "the straddling rune is dropped, not split")
}

func TestPollResponsesStatusDependsOnTouchTwo(t *testing.T) {
	now := time.Now()
	pitched := pollableContact("c1", "chat-1")
	pitchedAt := now.Add(-24 * time.Hour)
	pitched.Touch2SentAt = &pitchedAt
	pitched.OutreachStatus = model.StatusPitched

	contactRepo := &mockContactRepo{contacts: []model.Contact{pitched}}
	gw := &mockGateway{
		messages: map[string][]gateway.Message{
			"chat-1": {textMessage("+15551239999", "yes sounds good", now)},
		},
	}

	svc := newPollService(contactRepo, &mockLineRepo{lines: testLines(50)}, gw)

	_, err := svc.PollResponses(context.Background(), "ch1", 10)
	require.NoError(t, err)
	require.Len(t, contactRepo.updatedResponses, 1)
	assert.Equal(t, model.StatusResponded, contactRepo.updatedResponses[0].Status,
		"a confirmation after the pitch is a response, not a re-verification")
}

func TestPollResponsesGatewayFailureIsolated(t *testing.T) {
	now := time.Now()
	c1 := pollableContact("c1", "chat-1")
	c2 := pollableContact("c2", "chat-2")

	contactRepo := &mockContactRepo{contacts: []model.Contact{c1, c2}}
	gw := &mockGateway{
		messages: map[string][]gateway.Message{
			"chat-2": {textMessage("+15551239999", "signed up!", now)},
		},
		failForChat: map[string]error{"chat-1": errors.New("thread fetch failed")},
	}

	svc := newPollService(contactRepo, &mockLineRepo{lines: testLines(50)}, gw)

	result, err := svc.PollResponses(context.Background(), "ch1", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Polled)
	assert.Equal(t, 1, result.NewResponses)
	assert.Equal(t, 1, result.ByClassification[string(model.ClassSignedUp)])
}

func TestPollResponsesRequiresChapter(t *testing.T) {
	svc := newPollService(&mockContactRepo{}, &mockLineRepo{}, &mockGateway{})
	_, err := svc.PollResponses(context.Background(), "", 10)
	assert.True(t, appErrors.IsValidation(err))
}
