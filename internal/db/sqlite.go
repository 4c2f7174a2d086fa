package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Mario928/life-context-api/internal/auth"
	"github.com/Mario928/life-context-api/internal/db/models"
)

type Database struct {
	db *sql.DB
}

func NewSQLite(path string) (*Database, error) {
	sqlDB, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	d := &Database{db: sqlDB}
	if err := d.migrate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Database) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'member',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS uploads (
		id TEXT PRIMARY KEY,
		member_id TEXT NOT NULL,
		original_filename TEXT NOT NULL,
		recording_time DATETIME,
		duration_seconds REAL NOT NULL DEFAULT 0,
		total_chunks INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'received',
		uploaded_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		processed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		upload_id TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		start_time_sec REAL NOT NULL,
		duration_sec REAL NOT NULL,
		blob_key TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(upload_id, chunk_index),
		FOREIGN KEY (upload_id) REFERENCES uploads(id)
	);

	CREATE TABLE IF NOT EXISTS chunk_transcripts (
		upload_id TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		text TEXT NOT NULL,
		language TEXT NOT NULL,
		language_probability REAL NOT NULL,
		segments TEXT NOT NULL,
		processed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (upload_id, chunk_index),
		FOREIGN KEY (upload_id) REFERENCES uploads(id)
	);

	CREATE TABLE IF NOT EXISTS gps_points (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		member_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		received_at DATETIME NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_uploads_member ON uploads(member_id);
	CREATE INDEX IF NOT EXISTS idx_chunks_upload ON chunks(upload_id);
	CREATE INDEX IF NOT EXISTS idx_transcripts_upload ON chunk_transcripts(upload_id);
	CREATE INDEX IF NOT EXISTS idx_gps_member ON gps_points(member_id);
	`
	_, err := d.db.Exec(schema)
	return err
}

func (d *Database) EnsureAdmin(username, password string) error {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM users WHERE role = 'admin'").Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(
		"INSERT INTO users (username, password, role) VALUES (?, ?, 'admin')",
		username, hash,
	)
	return err
}

func (d *Database) GetUserByUsername(username string) (*models.User, error) {
	u := &models.User{}
	err := d.db.QueryRow(
		"SELECT id, username, password, role, created_at, updated_at FROM users WHERE username = ?",
		username,
	).Scan(&u.ID, &u.Username, &u.Password, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (d *Database) GetUserByID(id int64) (*models.User, error) {
	u := &models.User{}
	err := d.db.QueryRow(
		"SELECT id, username, password, role, created_at, updated_at FROM users WHERE id = ?",
		id,
	).Scan(&u.ID, &u.Username, &u.Password, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUpload inserts a new upload in the 'received' state.
func (d *Database) CreateUpload(u *models.Upload) error {
	_, err := d.db.Exec(`
		INSERT INTO uploads (id, member_id, original_filename, recording_time, status, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.MemberID, u.OriginalFilename, u.RecordingTime, models.StatusReceived, u.UploadedAt,
	)
	return err
}

func (d *Database) GetUpload(id string) (*models.Upload, error) {
	u := &models.Upload{}
	var recTime, procAt sql.NullTime
	err := d.db.QueryRow(`
		SELECT id, member_id, original_filename, recording_time, duration_seconds,
		       total_chunks, status, uploaded_at, processed_at
		FROM uploads WHERE id = ?`, id,
	).Scan(&u.ID, &u.MemberID, &u.OriginalFilename, &recTime, &u.DurationSeconds,
		&u.TotalChunks, &u.Status, &u.UploadedAt, &procAt)
	if err != nil {
		return nil, err
	}
	if recTime.Valid {
		u.RecordingTime = &recTime.Time
	}
	if procAt.Valid {
		u.ProcessedAt = &procAt.Time
	}
	return u, nil
}

// ListUploads returns a member's uploads, newest first.
func (d *Database) ListUploads(memberID string) ([]*models.Upload, error) {
	rows, err := d.db.Query(`
		SELECT id, member_id, original_filename, recording_time, duration_seconds,
		       total_chunks, status, uploaded_at, processed_at
		FROM uploads WHERE member_id = ? ORDER BY uploaded_at DESC`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	uploads := []*models.Upload{}
	for rows.Next() {
		u := &models.Upload{}
		var recTime, procAt sql.NullTime
		if err := rows.Scan(&u.ID, &u.MemberID, &u.OriginalFilename, &recTime, &u.DurationSeconds,
			&u.TotalChunks, &u.Status, &u.UploadedAt, &procAt); err != nil {
			return nil, err
		}
		if recTime.Valid {
			u.RecordingTime = &recTime.Time
		}
		if procAt.Valid {
			u.ProcessedAt = &procAt.Time
		}
		uploads = append(uploads, u)
	}
	return uploads, rows.Err()
}

// MarkChunked records a completed chunking pass in one transaction:
// existing chunk rows for the upload are replaced and the upload moves
// received -> chunked. A retried pass therefore never leaves orphans.
func (d *Database) MarkChunked(uploadID string, duration float64, chunks []models.Chunk) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM chunks WHERE upload_id = ?", uploadID); err != nil {
		return err
	}
	for _, c := range chunks {
		_, err := tx.Exec(`
			INSERT INTO chunks (id, upload_id, chunk_index, start_time_sec, duration_sec, blob_key)
			VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, uploadID, c.Index, c.Start, c.Duration, c.BlobKey,
		)
		if err != nil {
			return err
		}
	}
	res, err := tx.Exec(`
		UPDATE uploads SET duration_seconds = ?, total_chunks = ?, status = ?
		WHERE id = ? AND status = ?`,
		duration, len(chunks), models.StatusChunked, uploadID, models.StatusReceived,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("upload %s not in received state", uploadID)
	}
	return tx.Commit()
}

// GetChunks returns an upload's chunks in index order.
func (d *Database) GetChunks(uploadID string) ([]models.Chunk, error) {
	rows, err := d.db.Query(`
		SELECT id, upload_id, chunk_index, start_time_sec, duration_sec, blob_key
		FROM chunks WHERE upload_id = ? ORDER BY chunk_index ASC`, uploadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		var c models.Chunk
		if err := rows.Scan(&c.ID, &c.UploadID, &c.Index, &c.Start, &c.Duration, &c.BlobKey); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// TryStartProcessing attempts the guarded transition into 'transcribing'.
// Allowed sources: chunked (first run), failed (manual re-drive) and
// transcribing itself (resume after a crash or cancellation). Returns
// false when the upload is in any other state.
func (d *Database) TryStartProcessing(uploadID string) (bool, error) {
	res, err := d.db.Exec(`
		UPDATE uploads SET status = ? WHERE id = ? AND status IN (?, ?, ?)`,
		models.StatusTranscribing, uploadID,
		models.StatusChunked, models.StatusFailed, models.StatusTranscribing,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkCompleted finalizes a fully transcribed upload.
func (d *Database) MarkCompleted(uploadID string) error {
	_, err := d.db.Exec(
		"UPDATE uploads SET status = ?, processed_at = ? WHERE id = ?",
		models.StatusCompleted, time.Now().UTC(), uploadID,
	)
	return err
}

// MarkFailed records an unrecoverable transcription failure. Chunk
// transcripts folded so far are retained.
func (d *Database) MarkFailed(uploadID string) error {
	_, err := d.db.Exec(
		"UPDATE uploads SET status = ? WHERE id = ?",
		models.StatusFailed, uploadID,
	)
	return err
}

// SaveChunkTranscript upserts one chunk's transcription result, keyed by
// (upload, chunk index) so a re-run folds each chunk at most once.
func (d *Database) SaveChunkTranscript(ct *models.ChunkTranscript) error {
	segments, err := json.Marshal(ct.Segments)
	if err != nil {
		return fmt.Errorf("marshal segments: %w", err)
	}
	_, err = d.db.Exec(`
		INSERT INTO chunk_transcripts (upload_id, chunk_index, text, language, language_probability, segments, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(upload_id, chunk_index) DO UPDATE SET
			text = excluded.text,
			language = excluded.language,
			language_probability = excluded.language_probability,
			segments = excluded.segments,
			processed_at = excluded.processed_at`,
		ct.UploadID, ct.ChunkIndex, ct.Text, ct.Language, ct.LanguageProbability,
		string(segments), time.Now().UTC(),
	)
	return err
}

// GetChunkTranscripts returns the stored per-chunk results in index order.
func (d *Database) GetChunkTranscripts(uploadID string) ([]models.ChunkTranscript, error) {
	rows, err := d.db.Query(`
		SELECT upload_id, chunk_index, text, language, language_probability, segments, processed_at
		FROM chunk_transcripts WHERE upload_id = ? ORDER BY chunk_index ASC`, uploadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.ChunkTranscript
	for rows.Next() {
		var ct models.ChunkTranscript
		var segments string
		if err := rows.Scan(&ct.UploadID, &ct.ChunkIndex, &ct.Text, &ct.Language,
			&ct.LanguageProbability, &segments, &ct.ProcessedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(segments), &ct.Segments); err != nil {
			return nil, fmt.Errorf("unmarshal segments for chunk %d: %w", ct.ChunkIndex, err)
		}
		results = append(results, ct)
	}
	return results, rows.Err()
}

// InsertGPSPoint appends one raw location payload for a member.
func (d *Database) InsertGPSPoint(memberID string, payload []byte, receivedAt time.Time) (int64, error) {
	res, err := d.db.Exec(
		"INSERT INTO gps_points (member_id, payload, received_at) VALUES (?, ?, ?)",
		memberID, string(payload), receivedAt,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListGPSPoints returns a member's most recent points, newest first.
func (d *Database) ListGPSPoints(memberID string, limit int) ([]models.GPSPoint, error) {
	rows, err := d.db.Query(`
		SELECT id, member_id, payload, received_at FROM gps_points
		WHERE member_id = ? ORDER BY received_at DESC LIMIT ?`, memberID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []models.GPSPoint{}
	for rows.Next() {
		var p models.GPSPoint
		var payload string
		if err := rows.Scan(&p.ID, &p.MemberID, &payload, &p.ReceivedAt); err != nil {
			return nil, err
		}
		p.Payload = json.RawMessage(payload)
		points = append(points, p)
	}
	return points, rows.Err()
}

// GetGPSStats returns a member's point count and logging time range.
func (d *Database) GetGPSStats(memberID string) (*models.GPSStats, error) {
	var total int64
	var first, last sql.NullTime
	err := d.db.QueryRow(`
		SELECT COUNT(*), MIN(received_at), MAX(received_at)
		FROM gps_points WHERE member_id = ?`, memberID,
	).Scan(&total, &first, &last)
	if err != nil {
		return nil, err
	}
	stats := &models.GPSStats{TotalPoints: total}
	if first.Valid {
		stats.FirstLog = &first.Time
	}
	if last.Valid {
		stats.LastLog = &last.Time
	}
	return stats, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// DB returns the underlying sql.DB for use by other packages.
func (d *Database) DB() *sql.DB {
	return d.db
}
