package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/trailblaize/outreach-backend/internal/gateway"
	"github.com/trailblaize/outreach-backend/internal/model"
	"github.com/trailblaize/outreach-backend/internal/repository"
)

// Mock repositories. Each method delegates to an optional func field so a
// test only wires the calls it cares about.

type mockContactRepo struct {
	mu sync.Mutex

	contacts []model.Contact

	phoneKeys       []string
	insertedBatches [][]model.Contact

	touchesSent  map[int]int // lineNumber -> count already sent today
	markedTouch  []markTouchCall
	markTouchErr error

	updatedChannels  []updateChannelCall
	updatedResponses []updateResponseCall
	promoted         []promoteCall
	updatedStatuses  map[string]model.OutreachStatus
}

type markTouchCall struct {
	ContactID  string
	Touch      int
	LineNumber int
	ChatID     string
	Status     *model.OutreachStatus
	At         time.Time
}

type updateChannelCall struct {
	ContactID string
	Channel   model.ChannelCapability
	ChatID    string
}

type updateResponseCall struct {
	ContactID string
	At        time.Time
	Text      string
	Class     model.Classification
	Status    model.OutreachStatus
}

type promoteCall struct {
	ContactID string
	From, To  model.OutreachStatus
}

func (m *mockContactRepo) GetByID(id string) (*model.Contact, error) {
	for i := range m.contacts {
		if m.contacts[i].ID == id {
			return &m.contacts[i], nil
		}
	}
	return nil, nil
}

func (m *mockContactRepo) ListByIDs(ids []string) ([]model.Contact, error) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []model.Contact
	for _, c := range m.contacts {
		if wanted[c.ID] {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockContactRepo) ListWithPhone(chapterID string) ([]model.Contact, error) {
	var out []model.Contact
	for _, c := range m.contacts {
		if c.ChapterID == chapterID && c.PhonePrimary != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockContactRepo) ListPhoneKeys(chapterID string) ([]string, error) {
	return m.phoneKeys, nil
}

func (m *mockContactRepo) InsertBatch(contacts []model.Contact) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertedBatches = append(m.insertedBatches, contacts)
	return len(contacts), nil
}

func (m *mockContactRepo) ListEligibleForTouch(chapterID string, touch, limit int) ([]model.Contact, error) {
	out := m.contacts
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockContactRepo) ListUnverifiedChannel(chapterID string, limit int) ([]model.Contact, error) {
	var out []model.Contact
	for _, c := range m.contacts {
		if c.Channel == model.ChannelUnknown && c.PhonePrimary != nil {
			out = append(out, c)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockContactRepo) ListPollable(chapterID string, limit int) ([]model.Contact, error) {
	var out []model.Contact
	for _, c := range m.contacts {
		if c.ChatID != nil && !c.OutreachStatus.IsTerminal() {
			out = append(out, c)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockContactRepo) CountTouchesSentSince(chapterID string, lineNumber, touch int, since time.Time) (int, error) {
	return m.touchesSent[lineNumber], nil
}

func (m *mockContactRepo) MarkTouchSent(id string, touch, lineNumber int, chatID string, status *model.OutreachStatus, at time.Time) error {
	if m.markTouchErr != nil {
		return m.markTouchErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markedTouch = append(m.markedTouch, markTouchCall{
		ContactID: id, Touch: touch, LineNumber: lineNumber, ChatID: chatID, Status: status, At: at,
	})
	return nil
}

func (m *mockContactRepo) UpdateChannel(id string, channel model.ChannelCapability, chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updatedChannels = append(m.updatedChannels, updateChannelCall{ContactID: id, Channel: channel, ChatID: chatID})
	return nil
}

func (m *mockContactRepo) UpdateResponse(id string, at time.Time, text string, class model.Classification, status model.OutreachStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updatedResponses = append(m.updatedResponses, updateResponseCall{
		ContactID: id, At: at, Text: text, Class: class, Status: status,
	})
	return nil
}

func (m *mockContactRepo) PromoteStatus(id string, from, to model.OutreachStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.promoted = append(m.promoted, promoteCall{ContactID: id, From: from, To: to})
	return nil
}

func (m *mockContactRepo) UpdateStatus(id string, status model.OutreachStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updatedStatuses == nil {
		m.updatedStatuses = map[string]model.OutreachStatus{}
	}
	m.updatedStatuses[id] = status
	return nil
}

func (m *mockContactRepo) CountByStatus(chapterID string) (map[model.OutreachStatus]int, error) {
	counts := map[model.OutreachStatus]int{}
	for _, c := range m.contacts {
		if c.ChapterID == chapterID {
			counts[c.OutreachStatus]++
		}
	}
	return counts, nil
}

type mockQueueRepo struct {
	mu sync.Mutex

	entries   []model.QueueEntry
	inserted  []model.QueueEntry
	insertErr error

	markedSent []string
	markErr    error

	stats map[int]repository.QueueLineStats
}

func (m *mockQueueRepo) ListEntries(chapterID string) ([]model.QueueEntry, error) {
	return m.entries, nil
}

func (m *mockQueueRepo) InsertBatch(entries []model.QueueEntry) (int, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserted = append(m.inserted, entries...)
	return len(entries), nil
}

func (m *mockQueueRepo) MarkSentForContact(contactID string, at time.Time) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markedSent = append(m.markedSent, contactID)
	return nil
}

func (m *mockQueueRepo) StatsByLine(chapterID string) (map[int]repository.QueueLineStats, error) {
	return m.stats, nil
}

type mockLineRepo struct {
	lines        []model.SendingLine
	updated      []model.SendingLine
	created      []model.SendingLine
	maxSortOrder int
}

func (m *mockLineRepo) ListActive(chapterID string) ([]model.SendingLine, error) {
	var out []model.SendingLine
	for _, l := range m.lines {
		if l.IsActive {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockLineRepo) List(chapterID string) ([]model.SendingLine, error) {
	return m.lines, nil
}

func (m *mockLineRepo) GetByID(id string) (*model.SendingLine, error) {
	for i := range m.lines {
		if m.lines[i].ID == id {
			return &m.lines[i], nil
		}
	}
	return nil, nil
}

func (m *mockLineRepo) Create(line *model.SendingLine) error {
	m.created = append(m.created, *line)
	return nil
}

func (m *mockLineRepo) Update(line *model.SendingLine) error {
	m.updated = append(m.updated, *line)
	return nil
}

func (m *mockLineRepo) MaxSortOrder(chapterID string) (int, error) {
	return m.maxSortOrder, nil
}

type mockCampaignRepo struct {
	mu sync.Mutex

	campaigns   map[string]*model.Campaign
	assignments []model.CampaignAssignment
	lineStates  []model.CampaignLineState

	statusUpdates  []string
	processedCount int
	queuedCount    int
	queuedForDay   []model.CampaignAssignment

	updatedAssignment *model.CampaignAssignment
}

func (m *mockCampaignRepo) Create(c *model.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.campaigns == nil {
		m.campaigns = map[string]*model.Campaign{}
	}
	m.campaigns[c.ID] = c
	return nil
}

func (m *mockCampaignRepo) GetByID(id string) (*model.Campaign, error) {
	if c, ok := m.campaigns[id]; ok {
		return c, nil
	}
	return nil, nil
}

func (m *mockCampaignRepo) List(chapterID string) ([]model.Campaign, error) {
	var out []model.Campaign
	for _, c := range m.campaigns {
		if c.ChapterID == chapterID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockCampaignRepo) UpdateStatus(campaignID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusUpdates = append(m.statusUpdates, campaignID+":"+status)
	if c, ok := m.campaigns[campaignID]; ok {
		c.Status = status
	}
	return nil
}

func (m *mockCampaignRepo) InsertAssignments(assignments []model.CampaignAssignment) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments = append(m.assignments, assignments...)
	return len(assignments), nil
}

func (m *mockCampaignRepo) InsertLineStates(states []model.CampaignLineState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lineStates = append(m.lineStates, states...)
	return nil
}

func (m *mockCampaignRepo) GetLineState(campaignID, lineID string) (*model.CampaignLineState, error) {
	for i := range m.lineStates {
		if m.lineStates[i].CampaignID == campaignID && m.lineStates[i].LineID == lineID {
			return &m.lineStates[i], nil
		}
	}
	return nil, nil
}

func (m *mockCampaignRepo) SetLinePaused(campaignID, lineID string, paused bool) error {
	for i := range m.lineStates {
		if m.lineStates[i].CampaignID == campaignID && m.lineStates[i].LineID == lineID {
			m.lineStates[i].IsPaused = paused
		}
	}
	return nil
}

func (m *mockCampaignRepo) CountProcessed(campaignID, lineID string) (int, error) {
	return m.processedCount, nil
}

func (m *mockCampaignRepo) CountQueued(campaignID string) (int, error) {
	return m.queuedCount, nil
}

func (m *mockCampaignRepo) ListQueuedForDay(campaignID, lineID string, day int) ([]model.CampaignAssignment, error) {
	return m.queuedForDay, nil
}

func (m *mockCampaignRepo) UpdateAssignment(id, status string, errorMessage *string, at time.Time) (*model.CampaignAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.updatedAssignment
	if a == nil {
		a = &model.CampaignAssignment{ID: id}
	}
	a.Status = status
	a.ErrorMessage = errorMessage
	return a, nil
}

// mockGateway records chats and serves canned threads.
type mockGateway struct {
	mu sync.Mutex

	service   string
	createErr error
	failFor   map[string]error // toPhone -> error

	createdChats []createChatCall
	messages     map[string][]gateway.Message // chatID -> thread
	messagesErr  error
	failForChat  map[string]error // chatID -> error
}

type createChatCall struct {
	From, To, Message string
}

func (g *mockGateway) CreateChat(ctx context.Context, fromPhone, toPhone, message string) (*gateway.Chat, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	if err, ok := g.failFor[toPhone]; ok {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createdChats = append(g.createdChats, createChatCall{From: fromPhone, To: toPhone, Message: message})

	service := g.service
	if service == "" {
		service = gateway.ServiceIMessage
	}
	return &gateway.Chat{
		ID:      "chat-" + toPhone,
		Service: service,
		Handles: []gateway.Handle{
			{Handle: fromPhone, IsMe: true, Service: service},
			{Handle: toPhone, Service: service},
		},
	}, nil
}

func (g *mockGateway) GetMessages(ctx context.Context, chatID string, limit int) ([]gateway.Message, error) {
	if g.messagesErr != nil {
		return nil, g.messagesErr
	}
	if err, ok := g.failForChat[chatID]; ok {
		return nil, err
	}
	return g.messages[chatID], nil
}

// mockLocker grants or refuses every lock request.
type mockLocker struct {
	refuse   bool
	acquired [][]int
	released [][]int
}

func (l *mockLocker) AcquireAll(ctx context.Context, chapterID string, lineNumbers []int) (bool, error) {
	if l.refuse {
		return false, nil
	}
	l.acquired = append(l.acquired, lineNumbers)
	return true, nil
}

func (l *mockLocker) ReleaseAll(ctx context.Context, chapterID string, lineNumbers []int) {
	l.released = append(l.released, lineNumbers)
}
