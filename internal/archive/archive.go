// Package archive keeps an audit trail of raw explorer responses in a
// local SQLite database. It is deliberately separate from the known-set
// store: losing the archive loses history, not monitoring state.
package archive

import (
	"database/sql"
	"fmt"
	"time"

	logging "wallet-watch/internal/infra/log"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS api_responses (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    endpoint  TEXT NOT NULL,
    response  BLOB NOT NULL,
    timestamp TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_api_responses_endpoint ON api_responses (endpoint, id);
`

type Archive struct {
	db *sql.DB
}

// Open opens (creating if needed) the archive database at path.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create archive tables: %w", err)
	}

	logging.LogDebug("Opened response archive", zap.String("file", path))
	return &Archive{db: db}, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

// SaveResponse records one raw fetch payload for an endpoint.
func (a *Archive) SaveResponse(endpoint string, payload []byte) error {
	_, err := a.db.Exec(
		"INSERT INTO api_responses (endpoint, response, timestamp) VALUES (?, ?, ?)",
		endpoint, payload, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save response for %s: %w", endpoint, err)
	}
	return nil
}

// LatestResponse returns the most recent payload stored for an endpoint.
// sql.ErrNoRows is returned untouched when nothing has been archived yet.
func (a *Archive) LatestResponse(endpoint string) ([]byte, time.Time, error) {
	var payload []byte
	var ts string
	err := a.db.QueryRow(
		"SELECT response, timestamp FROM api_responses WHERE endpoint = ? ORDER BY id DESC LIMIT 1",
		endpoint,
	).Scan(&payload, &ts)
	if err != nil {
		return nil, time.Time{}, err
	}

	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return payload, time.Time{}, fmt.Errorf("failed to parse archived timestamp: %w", err)
	}
	return payload, t, nil
}

// Count returns how many responses are archived for an endpoint.
func (a *Archive) Count(endpoint string) (int, error) {
	var n int
	err := a.db.QueryRow(
		"SELECT COUNT(*) FROM api_responses WHERE endpoint = ?", endpoint,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count archived responses: %w", err)
	}
	return n, nil
}
