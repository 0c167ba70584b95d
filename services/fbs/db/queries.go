package db

import (
	"context"
	"database/sql"
)

type Queries struct {
	db *sql.DB
}

func New(database *sql.DB) *Queries {
	return &Queries{db: database}
}

type CreateScrapeParams struct {
	ScrapedAt  int64
	TargetDate string
	Outcome    string
	RoomCount  int64
	ErrorCount int64
	Log        string
}

func (q *Queries) CreateScrape(ctx context.Context, params CreateScrapeParams) (int64, error) {
	res, err := q.db.ExecContext(
		ctx,
		`INSERT INTO scrape (scraped_at, target_date, outcome, room_count, error_count, log)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		params.ScrapedAt,
		params.TargetDate,
		params.Outcome,
		params.RoomCount,
		params.ErrorCount,
		params.Log,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

type ScrapeRow struct {
	Id         int64
	ScrapedAt  int64
	TargetDate string
	Outcome    string
	RoomCount  int64
	ErrorCount int64
}

// ListScrapes returns scrape metadata newest-first, without the log bodies.
func (q *Queries) ListScrapes(ctx context.Context, limit int64) ([]ScrapeRow, error) {
	rows, err := q.db.QueryContext(
		ctx,
		`SELECT id, scraped_at, target_date, outcome, room_count, error_count
		 FROM scrape ORDER BY scraped_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScrapeRow
	for rows.Next() {
		var row ScrapeRow
		err := rows.Scan(
			&row.Id,
			&row.ScrapedAt,
			&row.TargetDate,
			&row.Outcome,
			&row.RoomCount,
			&row.ErrorCount,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (q *Queries) GetScrapeLog(ctx context.Context, id int64) (string, error) {
	var log string
	err := q.db.QueryRowContext(
		ctx,
		`SELECT log FROM scrape WHERE id = ?`,
		id,
	).Scan(&log)
	if err != nil {
		return "", err
	}
	return log, nil
}
