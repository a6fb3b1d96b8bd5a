package mysql

const insertSearchSQL = `
INSERT INTO search_log
  (user_id, start_place, end_place, midpoint_lat, midpoint_lon, query, state, error_kind, hotel_count, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Newest first; aligns with idx_search_log_created.
const listRecentSQL = `
SELECT id, user_id, start_place, end_place, midpoint_lat, midpoint_lon, query, state, error_kind, hotel_count, created_at
FROM search_log
ORDER BY created_at DESC, id DESC
LIMIT ?
`
