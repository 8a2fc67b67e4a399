package repository

import (
	"database/sql"

	"github.com/trailblaize/outreach-backend/internal/model"
)

// LineRepositoryInterface defines the sending-line reads and writes.
type LineRepositoryInterface interface {
	ListActive(chapterID string) ([]model.SendingLine, error)
	List(chapterID string) ([]model.SendingLine, error)
	GetByID(id string) (*model.SendingLine, error)
	Create(line *model.SendingLine) error
	Update(line *model.SendingLine) error
	MaxSortOrder(chapterID string) (int, error)
}

type LineRepository struct {
	DB *sql.DB
}

const lineColumns = `id, chapter_id, line_number, label, phone_number, daily_limit, is_active, sort_order, created_at`

func (r *LineRepository) ListActive(chapterID string) ([]model.SendingLine, error) {
	query := `SELECT ` + lineColumns + `
        FROM sending_lines
        WHERE chapter_id=$1 AND is_active=true
        ORDER BY sort_order ASC`
	return r.queryLines(query, chapterID)
}

func (r *LineRepository) List(chapterID string) ([]model.SendingLine, error) {
	query := `SELECT ` + lineColumns + `
        FROM sending_lines WHERE chapter_id=$1 ORDER BY sort_order ASC`
	return r.queryLines(query, chapterID)
}

func (r *LineRepository) GetByID(id string) (*model.SendingLine, error) {
	query := `SELECT ` + lineColumns + ` FROM sending_lines WHERE id=$1`
	var l model.SendingLine
	err := r.DB.QueryRow(query, id).Scan(
		&l.ID, &l.ChapterID, &l.Number, &l.Label, &l.PhoneNumber,
		&l.DailyLimit, &l.IsActive, &l.SortOrder, &l.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *LineRepository) Create(line *model.SendingLine) error {
	query := `
        INSERT INTO sending_lines
        (id, chapter_id, line_number, label, phone_number, daily_limit, is_active, sort_order, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
        RETURNING created_at`
	return r.DB.QueryRow(query,
		line.ID, line.ChapterID, line.Number, line.Label, line.PhoneNumber,
		line.DailyLimit, line.IsActive, line.SortOrder,
	).Scan(&line.CreatedAt)
}

func (r *LineRepository) Update(line *model.SendingLine) error {
	query := `
        UPDATE sending_lines
        SET label=$1, phone_number=$2, daily_limit=$3, is_active=$4, sort_order=$5
        WHERE id=$6`
	_, err := r.DB.Exec(query, line.Label, line.PhoneNumber, line.DailyLimit, line.IsActive, line.SortOrder, line.ID)
	return err
}

func (r *LineRepository) MaxSortOrder(chapterID string) (int, error) {
	var max sql.NullInt64
	err := r.DB.QueryRow(
		`SELECT MAX(sort_order) FROM sending_lines WHERE chapter_id=$1`, chapterID).Scan(&max)
	if err != nil {
		return -1, err
	}
	if !max.Valid {
		return -1, nil
	}
	return int(max.Int64), nil
}

func (r *LineRepository) queryLines(query string, args ...any) ([]model.SendingLine, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []model.SendingLine{}
	for rows.Next() {
		var l model.SendingLine
		if err := rows.Scan(
			&l.ID, &l.ChapterID, &l.Number, &l.Label, &l.PhoneNumber,
			&l.DailyLimit, &l.IsActive, &l.SortOrder, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

var _ LineRepositoryInterface = (*LineRepository)(nil)
