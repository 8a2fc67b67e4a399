package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/trailblaize/outreach-backend/internal/errors"
	"github.com/trailblaize/outreach-backend/internal/repository"
	"github.com/trailblaize/outreach-backend/internal/service"
)

func TestDashboardBuild(t *testing.T) {
	lineRepo := &mockLineRepo{lines: testLines(50, 25)}
	queueRepo := &mockQueueRepo{
		stats: map[int]repository.QueueLineStats{
			1: {Total: 100, Sent: 60, Failed: 10},
			2: {Total: 50, Sent: 0, Failed: 0},
		},
	}

	svc := &service.DashboardService{QueueRepo: queueRepo, LineRepo: lineRepo}

	dash, err := svc.Build("ch1")
	require.NoError(t, err)

	assert.Equal(t, 150, dash.Total)
	assert.Equal(t, 60, dash.Sent)
	assert.Equal(t, 10, dash.Failed)
	assert.Equal(t, 80, dash.Pending)

	require.Len(t, dash.Lines, 2)

	line1 := dash.Lines[0]
	assert.Equal(t, 2, line1.TotalDays, "100 contacts at 50/day is a 2-day run")
	assert.Equal(t, 2, line1.CurrentDay, "70 processed at 50/day puts line 1 on day 2")
	assert.Equal(t, 30, line1.Pending)

	line2 := dash.Lines[1]
	assert.Equal(t, 2, line2.TotalDays)
	assert.Equal(t, 1, line2.CurrentDay)

	// Line 2 still needs 2 full days; line 1 needs 1.
	assert.Equal(t, 2, dash.DaysRemaining)
	assert.Equal(t, 2, dash.TotalDays)
}

func TestDashboardCurrentDayCapped(t *testing.T) {
	lineRepo := &mockLineRepo{lines: testLines(50)}
	queueRepo := &mockQueueRepo{
		stats: map[int]repository.QueueLineStats{
			1: {Total: 100, Sent: 95, Failed: 5},
		},
	}

	svc := &service.DashboardService{QueueRepo: queueRepo, LineRepo: lineRepo}

	dash, err := svc.Build("ch1")
	require.NoError(t, err)
	assert.Equal(t, 2, dash.Lines[0].CurrentDay, "a finished line reports its last day, not day 3")
	assert.Equal(t, 0, dash.DaysRemaining)
}

func TestDashboardEmptyChapter(t *testing.T) {
	svc := &service.DashboardService{QueueRepo: &mockQueueRepo{}, LineRepo: &mockLineRepo{}}

	dash, err := svc.Build("ch1")
	require.NoError(t, err)
	assert.Equal(t, 0, dash.Total)
	assert.Empty(t, dash.Lines)
}

func TestDashboardRequiresChapter(t *testing.T) {
	svc := &service.DashboardService{}
	_, err := svc.Build("")
	assert.True(t, appErrors.IsValidation(err))
}
