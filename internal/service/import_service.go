// internal/service/import_service.go
package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	appErrors "github.com/trailblaize/outreach-backend/internal/errors"
	"github.com/trailblaize/outreach-backend/internal/model"
	"github.com/trailblaize/outreach-backend/internal/phone"
	"github.com/trailblaize/outreach-backend/internal/repository"
)

// ImportService turns parsed contact rows into stored contacts, normalizing
// phones and dropping duplicates within the chapter.
type ImportService struct {
	ContactRepo repository.ContactRepositoryInterface
}

type ImportRow struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportResult struct {
	Imported   int              `json:"imported"`
	Skipped    int              `json:"skipped"`
	Duplicates int              `json:"duplicates"`
	Errors     []ImportRowError `json:"errors"`
}

// Import validates, normalizes and deduplicates rows, then inserts the
// survivors. A row with an unusable phone is skipped and reported; a
// duplicate is counted, not erred. First occurrence wins.
func (s *ImportService) Import(chapterID string, rows []ImportRow) (*ImportResult, error) {
	if chapterID == "" {
		return nil, appErrors.NewValidation("chapter_id is required")
	}

	existing, err := s.ContactRepo.ListPhoneKeys(chapterID)
	if err != nil {
		return nil, err
	}
	deduper := phone.NewDeduper(existing)

	result := &ImportResult{Errors: []ImportRowError{}}
	now := time.Now()
	toInsert := []model.Contact{}

	for i, row := range rows {
		if strings.TrimSpace(row.FirstName) == "" && strings.TrimSpace(row.LastName) == "" {
			result.Skipped++
			continue
		}

		var primary, secondary *string
		if strings.TrimSpace(row.Phone) != "" {
			first, second := phone.SplitField(row.Phone)

			p, err := phone.Normalize(first)
			if err != nil {
				result.Errors = append(result.Errors, ImportRowError{
					Row: i + 1, Message: fmt.Sprintf("invalid phone number: %s", row.Phone),
				})
				result.Skipped++
				continue
			}
			primary = &p

			if second != "" {
				if sp, err := phone.Normalize(second); err == nil {
					secondary = &sp
				}
			}
		}

		if primary != nil && !deduper.Admit(*primary) {
			continue
		}

		var email *string
		if e := strings.TrimSpace(row.Email); e != "" {
			email = &e
		}

		toInsert = append(toInsert, model.Contact{
			ID:             uuid.NewString(),
			ChapterID:      chapterID,
			FirstName:      strings.TrimSpace(row.FirstName),
			LastName:       strings.TrimSpace(row.LastName),
			PhonePrimary:   primary,
			PhoneSecondary: secondary,
			Email:          email,
			Channel:        model.ChannelUnknown,
			OutreachStatus: model.StatusNotContacted,
			CreatedAt:      now,
		})
	}

	result.Duplicates = deduper.Duplicates

	inserted, err := s.ContactRepo.InsertBatch(toInsert)
	result.Imported = inserted
	if err != nil {
		result.Errors = append(result.Errors, ImportRowError{Row: 0, Message: fmt.Sprintf("batch insert error: %v", err)})
		return result, nil
	}

	return result, nil
}
