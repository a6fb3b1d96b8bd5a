package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"midway_hotel/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func valLatLon(c *domain.Coordinate) (any, any) {
	if c == nil {
		return nil, nil
	}
	return c.Lat, c.Lon
}

func ptrStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// Repo is the MySQL search log.
type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) RecordSearch(ctx context.Context, e domain.SearchLogEntry) error {
	lat, lon := valLatLon(e.Midpoint)
	_, err := r.db.ExecContext(ctx, insertSearchSQL,
		valStr(e.UserID),
		valStr(e.StartPlace),
		valStr(e.EndPlace),
		lat,
		lon,
		e.Query,
		e.State,
		valStr(e.ErrorKind),
		e.HotelCount,
		e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert search log: %w", err)
	}
	return nil
}

func (r *Repo) ListRecent(ctx context.Context, limit int) ([]domain.SearchLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, listRecentSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list search log: %w", err)
	}
	defer rows.Close()

	out := make([]domain.SearchLogEntry, 0, limit)
	for rows.Next() {
		var (
			e                      domain.SearchLogEntry
			user, start, end, kind sql.NullString
			lat, lon               sql.NullFloat64
		)
		if err := rows.Scan(&e.ID, &user, &start, &end, &lat, &lon, &e.Query, &e.State, &kind, &e.HotelCount, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.UserID, e.StartPlace, e.EndPlace, e.ErrorKind = ptrStr(user), ptrStr(start), ptrStr(end), ptrStr(kind)
		if lat.Valid && lon.Valid {
			e.Midpoint = &domain.Coordinate{Lat: lat.Float64, Lon: lon.Float64}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
