package history

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "doctrail/pkg/domain"
	txcontext "doctrail/pkg/platform/tx"
)

// PostgresStore persists actions and document-action links. When the context
// carries a transaction the pair joins it; otherwise the store opens its own
// so the pair still commits or rolls back as a unit.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) AppendPair(ctx context.Context, docID id.DocumentID, action *Action) error {
	if _, ok := txcontext.From(ctx); ok {
		return s.appendPair(ctx, txcontext.ExecutorFor(ctx, s.db), docID, action)
	}

	ownTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin action append: %w", err)
	}
	defer func() {
		_ = ownTx.Rollback()
	}()
	if err := s.appendPair(ctx, ownTx, docID, action); err != nil {
		return err
	}
	if err := ownTx.Commit(); err != nil {
		return fmt.Errorf("commit action append: %w", err)
	}
	return nil
}

func (s *PostgresStore) appendPair(ctx context.Context, exec txcontext.Executor, docID id.DocumentID, action *Action) error {
	row := exec.QueryRowContext(ctx, `
		INSERT INTO actions (kind, description, actor_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, string(action.Kind), action.Description, uuid.UUID(action.ActorID))
	if err := row.Scan(&action.ID, &action.CreatedAt); err != nil {
		return fmt.Errorf("insert action: %w", err)
	}

	_, err := exec.ExecContext(ctx, `
		INSERT INTO document_actions (document_id, action_id, description, actor_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.UUID(docID), action.ID, action.Description, uuid.UUID(action.ActorID), action.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert document-action link: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByDocument(ctx context.Context, docID id.DocumentID, page PageRequest) ([]Entry, error) {
	return s.list(ctx, docID, "", page)
}

func (s *PostgresStore) ListByDocumentAndKind(ctx context.Context, docID id.DocumentID, kind Kind, page PageRequest) ([]Entry, error) {
	return s.list(ctx, docID, kind, page)
}

func (s *PostgresStore) list(ctx context.Context, docID id.DocumentID, kind Kind, page PageRequest) ([]Entry, error) {
	page = page.normalize()
	exec := txcontext.ExecutorFor(ctx, s.db)

	order := "ORDER BY a.created_at DESC, a.id DESC"
	if page.Direction == Ascending {
		order = "ORDER BY a.created_at ASC, a.id ASC"
	}

	query := `
		SELECT a.id, a.kind, a.description, a.actor_id, a.created_at, da.document_id
		FROM actions a
		JOIN document_actions da ON da.action_id = a.id
		WHERE da.document_id = $1
	`
	args := []any{uuid.UUID(docID)}
	if kind != "" {
		query += " AND a.kind = $2"
		args = append(args, string(kind))
	}
	query += fmt.Sprintf(" %s LIMIT %d OFFSET %d", order, page.Size, page.Offset)

	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query document history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			kindRaw string
			actorID uuid.UUID
			rawDoc  uuid.UUID
		)
		if err := rows.Scan(&e.ID, &kindRaw, &e.Description, &actorID, &e.CreatedAt, &rawDoc); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.Kind = Kind(kindRaw)
		e.ActorID = id.UserID(actorID)
		e.DocumentID = id.DocumentID(rawDoc)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history entries: %w", err)
	}
	return entries, nil
}

func (s *PostgresStore) RegisterKind(ctx context.Context, info KindInfo) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO action_kinds (name, description)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
	`, string(info.Name), info.Description)
	if err != nil {
		return fmt.Errorf("register action kind: %w", err)
	}
	return nil
}

func (s *PostgresStore) Kinds(ctx context.Context) ([]KindInfo, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `SELECT name, description FROM action_kinds ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query action kinds: %w", err)
	}
	defer rows.Close()

	var kinds []KindInfo
	for rows.Next() {
		var info KindInfo
		var name string
		if err := rows.Scan(&name, &info.Description); err != nil {
			return nil, fmt.Errorf("scan action kind: %w", err)
		}
		info.Name = Kind(name)
		kinds = append(kinds, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action kinds: %w", err)
	}
	return kinds, nil
}
