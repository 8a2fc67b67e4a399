// internal/service/dashboard_service.go
package service

import (
	appErrors "github.com/trailblaize/outreach-backend/internal/errors"
	"github.com/trailblaize/outreach-backend/internal/repository"
)

// DashboardService produces the read-only rollups the UI shows.
type DashboardService struct {
	QueueRepo repository.QueueRepositoryInterface
	LineRepo  repository.LineRepositoryInterface
}

type DashboardLine struct {
	Number     int    `json:"number"`
	Label      string `json:"label"`
	DailyLimit int    `json:"daily_limit"`
	Total      int    `json:"total"`
	Sent       int    `json:"sent"`
	Failed     int    `json:"failed"`
	Pending    int    `json:"pending"`
	CurrentDay int    `json:"current_day"`
	TotalDays  int    `json:"total_days"`
}

type Dashboard struct {
	Total         int             `json:"total"`
	Sent          int             `json:"sent"`
	Failed        int             `json:"failed"`
	Pending       int             `json:"pending"`
	DaysRemaining int             `json:"days_remaining"`
	TotalDays     int             `json:"total_days"`
	Lines         []DashboardLine `json:"lines"`
}

// Build aggregates per-line queue totals and derives day estimates from
// each line's daily limit.
func (s *DashboardService) Build(chapterID string) (*Dashboard, error) {
	if chapterID == "" {
		return nil, appErrors.NewValidation("chapter_id is required")
	}

	lines, err := s.LineRepo.List(chapterID)
	if err != nil {
		return nil, err
	}
	stats, err := s.QueueRepo.StatsByLine(chapterID)
	if err != nil {
		return nil, err
	}

	dash := &Dashboard{Lines: []DashboardLine{}}
	for _, line := range lines {
		st := stats[line.Number]
		pending := st.Total - st.Sent - st.Failed
		processed := st.Sent + st.Failed

		dl := DashboardLine{
			Number:     line.Number,
			Label:      line.Label,
			DailyLimit: line.DailyLimit,
			Total:      st.Total,
			Sent:       st.Sent,
			Failed:     st.Failed,
			Pending:    pending,
		}
		if st.Total > 0 && line.DailyLimit > 0 {
			dl.TotalDays = (st.Total + line.DailyLimit - 1) / line.DailyLimit
			dl.CurrentDay = processed/line.DailyLimit + 1
			if dl.CurrentDay > dl.TotalDays {
				dl.CurrentDay = dl.TotalDays
			}
		}

		dash.Total += dl.Total
		dash.Sent += dl.Sent
		dash.Failed += dl.Failed
		dash.Pending += dl.Pending
		if dl.TotalDays > dash.TotalDays {
			dash.TotalDays = dl.TotalDays
		}
		if line.DailyLimit > 0 && pending > 0 {
			remainingDays := (pending + line.DailyLimit - 1) / line.DailyLimit
			if remainingDays > dash.DaysRemaining {
				dash.DaysRemaining = remainingDays
			}
		}

		dash.Lines = append(dash.Lines, dl)
	}

	return dash, nil
}
