package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/VanishVault/Vault-Service/internal/models"
)

// PostgresStorage persists file records.
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage connects, verifies the connection and ensures the
// schema exists.
func NewPostgresStorage(connectionString string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	p := &PostgresStorage{db: db}
	if err := p.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %v", err)
	}

	zap.S().Info("Connected to PostgreSQL successfully")
	return p, nil
}

func (p *PostgresStorage) createTables() error {
	query := `
    CREATE TABLE IF NOT EXISTS files (
        id UUID PRIMARY KEY,
        owner_id VARCHAR(128) NOT NULL,
        file_url VARCHAR(500) NOT NULL,
        file_name VARCHAR(255) NOT NULL,
        file_type VARCHAR(20) NOT NULL,
        created_at TIMESTAMPTZ NOT NULL,
        expires_at TIMESTAMPTZ NOT NULL,
        allowed_emails TEXT[] NOT NULL DEFAULT '{}',
        self_destruct_after_view BOOLEAN NOT NULL DEFAULT false,
        self_destruct_after_10sec BOOLEAN NOT NULL DEFAULT false,
        views BIGINT NOT NULL DEFAULT 0,
        viewed_by TEXT[] NOT NULL DEFAULT '{}',
        scan_status VARCHAR(50) DEFAULT 'pending',
        scanned_at TIMESTAMPTZ
    );
    `
	_, err := p.db.Exec(query)
	if err != nil {
		return err
	}

	indexQuery := `
    CREATE INDEX IF NOT EXISTS idx_files_owner_id ON files(owner_id);
    CREATE INDEX IF NOT EXISTS idx_files_created_at ON files(created_at DESC);
    CREATE INDEX IF NOT EXISTS idx_files_expires_at ON files(expires_at);
    `

	_, err = p.db.Exec(indexQuery)
	return err
}

// Ping is used by the health endpoint.
func (p *PostgresStorage) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close releases the connection pool.
func (p *PostgresStorage) Close() error {
	return p.db.Close()
}

// Save writes a new record (or overwrites one re-uploaded under the same
// id). The view counter and viewer log are never written from here after
// creation; ConsumeView owns those columns.
func (p *PostgresStorage) Save(ctx context.Context, rec models.FileRecord) error {
	query := `
    INSERT INTO files (id, owner_id, file_url, file_name, file_type, created_at, expires_at, allowed_emails, self_destruct_after_view, self_destruct_after_10sec, views, viewed_by, scan_status)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, '{}', $11)
    ON CONFLICT (id) DO UPDATE SET
        owner_id = EXCLUDED.owner_id,
        file_url = EXCLUDED.file_url,
        file_name = EXCLUDED.file_name,
        file_type = EXCLUDED.file_type,
        expires_at = EXCLUDED.expires_at,
        allowed_emails = EXCLUDED.allowed_emails,
        self_destruct_after_view = EXCLUDED.self_destruct_after_view,
        self_destruct_after_10sec = EXCLUDED.self_destruct_after_10sec,
        scan_status = EXCLUDED.scan_status
    `

	allowed := rec.AllowedEmails
	if allowed == nil {
		allowed = []string{}
	}

	_, err := p.db.ExecContext(ctx, query,
		rec.ID,
		rec.OwnerID,
		rec.FileURL,
		rec.FileName,
		rec.FileType,
		rec.CreatedAt,
		rec.ExpiresAt,
		pq.Array(allowed),
		rec.SelfDestructAfterView,
		rec.SelfDestructAfter10Sec,
		"pending",
	)

	return err
}

// Get fetches one record by file id. A missing row or a query failure
// both come back as not-ok; callers treat either as not-found.
func (p *PostgresStorage) Get(ctx context.Context, fileID string) (models.FileRecord, bool) {
	query := `
    SELECT id, owner_id, file_url, file_name, file_type, created_at, expires_at, allowed_emails, self_destruct_after_view, self_destruct_after_10sec, views, viewed_by, scan_status, scanned_at
    FROM files WHERE id = $1
    `

	var rec models.FileRecord
	var allowed, viewedBy pq.StringArray
	var scanStatus sql.NullString
	err := p.db.QueryRowContext(ctx, query, fileID).Scan(
		&rec.ID,
		&rec.OwnerID,
		&rec.FileURL,
		&rec.FileName,
		&rec.FileType,
		&rec.CreatedAt,
		&rec.ExpiresAt,
		&allowed,
		&rec.SelfDestructAfterView,
		&rec.SelfDestructAfter10Sec,
		&rec.Views,
		&viewedBy,
		&scanStatus,
		&rec.ScannedAt,
	)

	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			zap.S().Errorf("Error getting file record: %v", err)
		}
		return models.FileRecord{}, false
	}

	rec.AllowedEmails = allowed
	rec.ViewedBy = viewedBy
	rec.ScanStatus = scanStatus.String
	return rec, true
}

// ConsumeView increments the view counter and records the viewer in a
// single UPDATE, so concurrent viewers each add exactly 1 (a true atomic
// add, never read-modify-write). viewed_by keeps set semantics: a repeat
// viewer is not appended twice. Returns the post-increment count.
func (p *PostgresStorage) ConsumeView(ctx context.Context, fileID, viewer string) (int64, error) {
	query := `
    UPDATE files
    SET views = views + 1,
        viewed_by = CASE WHEN $2 = ANY(viewed_by) THEN viewed_by ELSE array_append(viewed_by, $2) END
    WHERE id = $1
    RETURNING views
    `

	var views int64
	err := p.db.QueryRowContext(ctx, query, fileID, viewer).Scan(&views)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("file %s no longer exists", fileID)
		}
		return 0, err
	}
	return views, nil
}

// Delete removes a record. Deleting a row that is already gone is
// success.
func (p *PostgresStorage) Delete(ctx context.Context, fileID string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, fileID)
	return err
}

// ListByOwner returns all records uploaded by a user, newest first.
func (p *PostgresStorage) ListByOwner(ctx context.Context, ownerID string) ([]models.FileRecord, error) {
	query := `
    SELECT id, owner_id, file_url, file_name, file_type, created_at, expires_at, allowed_emails, self_destruct_after_view, self_destruct_after_10sec, views, viewed_by, scan_status, scanned_at
    FROM files WHERE owner_id = $1 ORDER BY created_at DESC
    `

	rows, err := p.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		if cerr := rows.Close(); cerr != nil {
			zap.S().Errorf("Error closing rows: %v", cerr)
		}
	}(rows)

	var files []models.FileRecord
	for rows.Next() {
		var rec models.FileRecord
		var allowed, viewedBy pq.StringArray
		var scanStatus sql.NullString
		if err := rows.Scan(
			&rec.ID,
			&rec.OwnerID,
			&rec.FileURL,
			&rec.FileName,
			&rec.FileType,
			&rec.CreatedAt,
			&rec.ExpiresAt,
			&allowed,
			&rec.SelfDestructAfterView,
			&rec.SelfDestructAfter10Sec,
			&rec.Views,
			&viewedBy,
			&scanStatus,
			&rec.ScannedAt,
		); err != nil {
			zap.S().Errorf("Error scanning row: %v", err)
			continue
		}
		rec.AllowedEmails = allowed
		rec.ViewedBy = viewedBy
		rec.ScanStatus = scanStatus.String
		files = append(files, rec)
	}

	return files, rows.Err()
}

// UpdateScanStatus stamps the result of the async virus scan.
func (p *PostgresStorage) UpdateScanStatus(ctx context.Context, fileID, status string, scannedAt time.Time) error {
	query := `
    UPDATE files
    SET scan_status = $1,
        scanned_at = $2
    WHERE id = $3
    `
	_, err := p.db.ExecContext(ctx, query, status, scannedAt, fileID)
	return err
}
