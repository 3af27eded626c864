package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/hks-corretora/proposal-intake/internal/common"
	"github.com/hks-corretora/proposal-intake/internal/proposal"
	"github.com/hks-corretora/proposal-intake/internal/registry"
)

// Store persists proposal sessions and their extracted documents over
// database/sql. The driver is chosen from the DSN: postgres URLs go through
// pgx, everything else is treated as a sqlite path.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver := "sqlite"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "pgx"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, common.WrapWith(common.ErrDatabase, "open database", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, common.WrapWith(common.ErrDatabase, "ping database", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("store.open", "driver", driver)
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Schema is shared between sqlite and postgres; session state rides as a
// JSON payload because the session is edited as a whole, while documents get
// their own rows so removal by id stays a row delete.
func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS proposal_sessions (
			id         TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			payload    TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS extracted_documents (
			id               TEXT PRIMARY KEY,
			session_id       TEXT NOT NULL,
			target_key       TEXT NOT NULL,
			file_name        TEXT NOT NULL,
			file_size        INTEGER NOT NULL,
			file_mime        TEXT NOT NULL,
			linked_entity_id TEXT NOT NULL DEFAULT '',
			uploaded_at      TEXT NOT NULL,
			payload          TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_session ON extracted_documents (session_id, uploaded_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return common.WrapWith(common.ErrDatabase, "migrate schema", err)
		}
	}
	return nil
}

// SaveSession upserts the full session snapshot and rewrites its document
// rows to match the in-memory registry.
func (s *Store) SaveSession(ctx context.Context, sess *proposal.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return common.WrapWith(common.ErrInternal, "encode session", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapWith(common.ErrDatabase, "begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO proposal_sessions (id, created_at, updated_at, payload)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET updated_at = $3, payload = $4`,
		sess.ID, sess.CreatedAt.UTC().Format(time.RFC3339Nano), now, string(payload))
	if err != nil {
		return common.WrapWith(common.ErrDatabase, "upsert session", err)
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM extracted_documents WHERE session_id = $1`, sess.ID); err != nil {
		return common.WrapWith(common.ErrDatabase, "clear session documents", err)
	}
	for _, doc := range sess.Registry.All() {
		docPayload, err := json.Marshal(doc)
		if err != nil {
			return common.WrapWith(common.ErrInternal, "encode document", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO extracted_documents
			 (id, session_id, target_key, file_name, file_size, file_mime, linked_entity_id, uploaded_at, payload)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			doc.ID, sess.ID, doc.Target.Key(), doc.FileName, doc.FileSize, doc.FileMime,
			doc.LinkedEntityID, doc.UploadedAt.UTC().Format(time.RFC3339Nano), string(docPayload))
		if err != nil {
			return common.WrapWith(common.ErrDatabase, "insert document", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return common.WrapWith(common.ErrDatabase, "commit session", err)
	}
	s.logger.Debug("store.session_saved", "session_id", sess.ID, "documents", sess.Registry.Len())
	return nil
}

// LoadSession reads one session and rebuilds its registry from the document
// rows, oldest first.
func (s *Store) LoadSession(ctx context.Context, id string) (*proposal.Session, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM proposal_sessions WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.WrapWith(common.ErrNotFound, fmt.Sprintf("session %s", id), err)
	}
	if err != nil {
		return nil, common.WrapWith(common.ErrDatabase, "query session", err)
	}

	sess := &proposal.Session{}
	if err := json.Unmarshal([]byte(payload), sess); err != nil {
		return nil, common.WrapWith(common.ErrInternal, "decode session", err)
	}
	sess.Registry = registry.New()

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM extracted_documents WHERE session_id = $1 ORDER BY uploaded_at`, id)
	if err != nil {
		return nil, common.WrapWith(common.ErrDatabase, "query documents", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []*registry.ExtractedDocument
	for rows.Next() {
		var docPayload string
		if err := rows.Scan(&docPayload); err != nil {
			return nil, common.WrapWith(common.ErrDatabase, "scan document", err)
		}
		doc := &registry.ExtractedDocument{}
		if err := json.Unmarshal([]byte(docPayload), doc); err != nil {
			return nil, common.WrapWith(common.ErrInternal, "decode document", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapWith(common.ErrDatabase, "iterate documents", err)
	}
	sess.Registry.Restore(docs)
	return sess, nil
}

// SessionInfo is the listing row for stored sessions.
type SessionInfo struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListSessions returns stored sessions, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, updated_at FROM proposal_sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil, common.WrapWith(common.ErrDatabase, "list sessions", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SessionInfo
	for rows.Next() {
		var info SessionInfo
		var created, updated string
		if err := rows.Scan(&info.ID, &created, &updated); err != nil {
			return nil, common.WrapWith(common.ErrDatabase, "scan session", err)
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		info.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapWith(common.ErrDatabase, "iterate sessions", err)
	}
	return out, nil
}

// DeleteSession removes a session and its documents.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapWith(common.ErrDatabase, "begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM extracted_documents WHERE session_id = $1`, id); err != nil {
		return common.WrapWith(common.ErrDatabase, "delete documents", err)
	}
	res, err := tx.ExecContext(ctx,
		`DELETE FROM proposal_sessions WHERE id = $1`, id)
	if err != nil {
		return common.WrapWith(common.ErrDatabase, "delete session", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.WrapWith(common.ErrNotFound, fmt.Sprintf("session %s", id), sql.ErrNoRows)
	}
	return tx.Commit()
}
