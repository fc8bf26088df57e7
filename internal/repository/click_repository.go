package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/avoronov/url-shortener/internal/models"
)

const dateLayout = "2006-01-02"

type ClickRepository interface {
	RecordClick(ctx context.Context, linkID int64, clickedAt time.Time) error
	CountByLinkAndDay(ctx context.Context, linkID int64, start, end time.Time) ([]models.DailyClicks, error)
	CountByUserAndDay(ctx context.Context, userID int64, from, to time.Time) (map[string]int64, error)
	ReconcileCounts(ctx context.Context) (int64, error)
}

type clickRepository struct {
	db *PostgresDB
}

func NewClickRepository(db *PostgresDB) ClickRepository {
	return &clickRepository{db: db}
}

// RecordClick атомарно инкрементирует счётчик ссылки и пишет событие клика.
// Обе записи идут в одной транзакции: счётчик и журнал не расходятся
// в рамках одного запроса даже при конкурентных редиректах.
func (r *clickRepository) RecordClick(ctx context.Context, linkID int64, clickedAt time.Time) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE links SET click_count = click_count + 1 WHERE id = $1`, linkID)
	if err != nil {
		return fmt.Errorf("failed to increment click count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO clicks (link_id, clicked_at) VALUES ($1, $2)`, linkID, clickedAt)
	if err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit click: %w", err)
	}

	return nil
}

// CountByLinkAndDay группирует клики ссылки по календарным дням.
// Обе границы диапазона включительные — так их передаёт вызывающая сторона.
func (r *clickRepository) CountByLinkAndDay(ctx context.Context, linkID int64, start, end time.Time) ([]models.DailyClicks, error) {
	query := `
		SELECT DATE(clicked_at AT TIME ZONE 'UTC') AS day, COUNT(*)
		FROM clicks
		WHERE link_id = $1 AND clicked_at >= $2 AND clicked_at <= $3
		GROUP BY day
	`

	rows, err := r.db.Pool.Query(ctx, query, linkID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to count clicks by day: %w", err)
	}
	defer rows.Close()

	var stats []models.DailyClicks
	for rows.Next() {
		var day time.Time
		var count int64
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("failed to scan daily clicks: %w", err)
		}
		stats = append(stats, models.DailyClicks{
			ClickDate: day.Format(dateLayout),
			Count:     count,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily clicks: %w", err)
	}

	return stats, nil
}

// CountByUserAndDay считает клики по всем ссылкам пользователя за период
// [from, to). Верхняя граница исключающая: вызывающая сторона передаёт
// начало дня, следующего за последним днём периода.
func (r *clickRepository) CountByUserAndDay(ctx context.Context, userID int64, from, to time.Time) (map[string]int64, error) {
	query := `
		SELECT DATE(c.clicked_at AT TIME ZONE 'UTC') AS day, COUNT(*)
		FROM clicks c
		JOIN links l ON c.link_id = l.id
		WHERE l.user_id = $1 AND c.clicked_at >= $2 AND c.clicked_at < $3
		GROUP BY day
	`

	rows, err := r.db.Pool.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to count user clicks: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]int64)
	for rows.Next() {
		var day time.Time
		var count int64
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("failed to scan user clicks: %w", err)
		}
		totals[day.Format(dateLayout)] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user clicks: %w", err)
	}

	return totals, nil
}

// ReconcileCounts переписывает click_count из фактического числа событий.
// Возвращает количество ссылок, у которых счётчик разошёлся с журналом.
func (r *clickRepository) ReconcileCounts(ctx context.Context) (int64, error) {
	query := `
		UPDATE links l
		SET click_count = sub.cnt
		FROM (
			SELECT link_id, COUNT(*) AS cnt
			FROM clicks
			GROUP BY link_id
		) sub
		WHERE l.id = sub.link_id AND l.click_count <> sub.cnt
	`

	tag, err := r.db.Pool.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile click counts: %w", err)
	}

	return tag.RowsAffected(), nil
}
