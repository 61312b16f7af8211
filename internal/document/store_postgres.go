package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "doctrail/pkg/domain"
	"doctrail/pkg/platform/sentinel"
	txcontext "doctrail/pkg/platform/tx"
)

// PostgresStore persists documents in PostgreSQL. Statements run through the
// context transaction when one is active so a whole lifecycle operation
// shares a single transaction boundary.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByID(ctx context.Context, docID id.DocumentID) (*Document, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)

	query := `
		SELECT id, name, description, policy_id, loss_id, claimant_id, producer_id,
		       status, trashed_at, version, created_at, created_by, updated_at, updated_by
		FROM documents
		WHERE id = $1
	`

	var (
		doc                                      Document
		rawID, createdBy, updatedBy              uuid.UUID
		policyID, lossID, claimantID, producerID *uuid.UUID
		trashedAt                                sql.NullTime
		status                                   string
	)
	err := exec.QueryRowContext(ctx, query, uuid.UUID(docID)).Scan(
		&rawID, &doc.Name, &doc.Description,
		&policyID, &lossID, &claimantID, &producerID,
		&status, &trashedAt, &doc.Version,
		&doc.CreatedAt, &createdBy, &doc.UpdatedAt, &updatedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find document: %w", err)
	}

	doc.ID = id.DocumentID(rawID)
	doc.Status = Status(status)
	doc.CreatedBy = id.UserID(createdBy)
	doc.UpdatedBy = id.UserID(updatedBy)
	if trashedAt.Valid {
		t := trashedAt.Time
		doc.TrashedAt = &t
	}
	if policyID != nil {
		v := id.PolicyID(*policyID)
		doc.PolicyID = &v
	}
	if lossID != nil {
		v := id.LossID(*lossID)
		doc.LossID = &v
	}
	if claimantID != nil {
		v := id.ClaimantID(*claimantID)
		doc.ClaimantID = &v
	}
	if producerID != nil {
		v := id.ProducerID(*producerID)
		doc.ProducerID = &v
	}

	if err := s.loadAssignees(ctx, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *PostgresStore) loadAssignees(ctx context.Context, doc *Document) error {
	exec := txcontext.ExecutorFor(ctx, s.db)

	rows, err := exec.QueryContext(ctx,
		`SELECT user_id FROM document_users WHERE document_id = $1 ORDER BY user_id`,
		uuid.UUID(doc.ID))
	if err != nil {
		return fmt.Errorf("load assigned users: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var userID uuid.UUID
		if err := rows.Scan(&userID); err != nil {
			return fmt.Errorf("scan assigned user: %w", err)
		}
		doc.AssignedUsers = append(doc.AssignedUsers, id.UserID(userID))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate assigned users: %w", err)
	}

	groupRows, err := exec.QueryContext(ctx,
		`SELECT group_id FROM document_groups WHERE document_id = $1 ORDER BY group_id`,
		uuid.UUID(doc.ID))
	if err != nil {
		return fmt.Errorf("load assigned groups: %w", err)
	}
	defer groupRows.Close()
	for groupRows.Next() {
		var groupID uuid.UUID
		if err := groupRows.Scan(&groupID); err != nil {
			return fmt.Errorf("scan assigned group: %w", err)
		}
		doc.AssignedGroups = append(doc.AssignedGroups, id.GroupID(groupID))
	}
	if err := groupRows.Err(); err != nil {
		return fmt.Errorf("iterate assigned groups: %w", err)
	}
	return nil
}

// Update writes scalar fields guarded by the optimistic version token, then
// replaces assignee membership wholesale. RowsAffected zero means either the
// document vanished or the version is stale; the follow-up existence probe
// tells the two apart.
func (s *PostgresStore) Update(ctx context.Context, doc *Document) error {
	exec := txcontext.ExecutorFor(ctx, s.db)

	query := `
		UPDATE documents
		SET name = $3, description = $4,
		    policy_id = $5, loss_id = $6, claimant_id = $7, producer_id = $8,
		    status = $9, trashed_at = $10,
		    version = version + 1, updated_at = now(), updated_by = $11
		WHERE id = $1 AND version = $2
	`
	res, err := exec.ExecContext(ctx, query,
		uuid.UUID(doc.ID), doc.Version,
		doc.Name, doc.Description,
		uuidPtr(doc.PolicyID), uuidPtrLoss(doc.LossID), uuidPtrClaimant(doc.ClaimantID), uuidPtrProducer(doc.ProducerID),
		string(doc.Status), doc.TrashedAt,
		uuid.UUID(doc.UpdatedBy),
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document rows affected: %w", err)
	}
	if affected == 0 {
		var exists bool
		probe := exec.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1)`, uuid.UUID(doc.ID))
		if err := probe.Scan(&exists); err != nil {
			return fmt.Errorf("probe document existence: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	doc.Version++

	if err := s.replaceAssignees(ctx, doc); err != nil {
		return err
	}
	return nil
}

func (s *PostgresStore) replaceAssignees(ctx context.Context, doc *Document) error {
	exec := txcontext.ExecutorFor(ctx, s.db)

	if _, err := exec.ExecContext(ctx,
		`DELETE FROM document_users WHERE document_id = $1`, uuid.UUID(doc.ID)); err != nil {
		return fmt.Errorf("clear assigned users: %w", err)
	}
	for _, userID := range doc.AssignedUsers {
		if _, err := exec.ExecContext(ctx,
			`INSERT INTO document_users (document_id, user_id) VALUES ($1, $2)`,
			uuid.UUID(doc.ID), uuid.UUID(userID)); err != nil {
			return fmt.Errorf("insert assigned user: %w", err)
		}
	}

	if _, err := exec.ExecContext(ctx,
		`DELETE FROM document_groups WHERE document_id = $1`, uuid.UUID(doc.ID)); err != nil {
		return fmt.Errorf("clear assigned groups: %w", err)
	}
	for _, groupID := range doc.AssignedGroups {
		if _, err := exec.ExecContext(ctx,
			`INSERT INTO document_groups (document_id, group_id) VALUES ($1, $2)`,
			uuid.UUID(doc.ID), uuid.UUID(groupID)); err != nil {
			return fmt.Errorf("insert assigned group: %w", err)
		}
	}
	return nil
}

func uuidPtr(v *id.PolicyID) *uuid.UUID {
	if v == nil {
		return nil
	}
	u := uuid.UUID(*v)
	return &u
}

func uuidPtrLoss(v *id.LossID) *uuid.UUID {
	if v == nil {
		return nil
	}
	u := uuid.UUID(*v)
	return &u
}

func uuidPtrClaimant(v *id.ClaimantID) *uuid.UUID {
	if v == nil {
		return nil
	}
	u := uuid.UUID(*v)
	return &u
}

func uuidPtrProducer(v *id.ProducerID) *uuid.UUID {
	if v == nil {
		return nil
	}
	u := uuid.UUID(*v)
	return &u
}

// PostgresHierarchy answers membership and display lookups against the
// relationship tables.
type PostgresHierarchy struct {
	db *sql.DB
}

func NewPostgresHierarchy(db *sql.DB) *PostgresHierarchy {
	return &PostgresHierarchy{db: db}
}

func (s *PostgresHierarchy) PolicyLossLinked(ctx context.Context, policyID id.PolicyID, lossID id.LossID) (bool, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	var linked bool
	err := exec.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM policy_losses WHERE policy_id = $1 AND loss_id = $2)`,
		uuid.UUID(policyID), uuid.UUID(lossID)).Scan(&linked)
	if err != nil {
		return false, fmt.Errorf("check policy-loss link: %w", err)
	}
	return linked, nil
}

func (s *PostgresHierarchy) LossClaimantLinked(ctx context.Context, lossID id.LossID, claimantID id.ClaimantID) (bool, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	var linked bool
	err := exec.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM loss_claimants WHERE loss_id = $1 AND claimant_id = $2)`,
		uuid.UUID(lossID), uuid.UUID(claimantID)).Scan(&linked)
	if err != nil {
		return false, fmt.Errorf("check loss-claimant link: %w", err)
	}
	return linked, nil
}

// LossSequence ranks the loss among its policy's associations by creation
// time. Derived on read with a window function, never stored.
func (s *PostgresHierarchy) LossSequence(ctx context.Context, lossID id.LossID) (int, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	query := `
		SELECT seq FROM (
			SELECT loss_id,
			       ROW_NUMBER() OVER (PARTITION BY policy_id ORDER BY created_at, loss_id) AS seq
			FROM policy_losses
		) ranked
		WHERE loss_id = $1
	`
	var seq int
	err := exec.QueryRowContext(ctx, query, uuid.UUID(lossID)).Scan(&seq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("derive loss sequence: %w", err)
	}
	return seq, nil
}

func (s *PostgresHierarchy) PolicyDisplay(ctx context.Context, policyID id.PolicyID) (string, error) {
	return s.displayColumn(ctx, `SELECT number FROM policies WHERE id = $1`, uuid.UUID(policyID))
}

func (s *PostgresHierarchy) LossDisplay(ctx context.Context, lossID id.LossID) (string, error) {
	var exists bool
	exec := txcontext.ExecutorFor(ctx, s.db)
	if err := exec.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM losses WHERE id = $1)`, uuid.UUID(lossID)).Scan(&exists); err != nil {
		return "", fmt.Errorf("probe loss existence: %w", err)
	}
	if !exists {
		return "", sentinel.ErrNotFound
	}
	seq, err := s.LossSequence(ctx, lossID)
	if err != nil {
		return "", err
	}
	return Loss{ID: lossID}.DisplayString(seq), nil
}

func (s *PostgresHierarchy) ClaimantDisplay(ctx context.Context, claimantID id.ClaimantID) (string, error) {
	return s.displayColumn(ctx, `SELECT name FROM claimants WHERE id = $1`, uuid.UUID(claimantID))
}

func (s *PostgresHierarchy) ProducerDisplay(ctx context.Context, producerID id.ProducerID) (string, error) {
	return s.displayColumn(ctx, `SELECT number FROM producers WHERE id = $1`, uuid.UUID(producerID))
}

func (s *PostgresHierarchy) UserDisplay(ctx context.Context, userID id.UserID) (string, error) {
	return s.displayColumn(ctx, `SELECT name FROM users WHERE id = $1`, uuid.UUID(userID))
}

func (s *PostgresHierarchy) GroupDisplay(ctx context.Context, groupID id.GroupID) (string, error) {
	return s.displayColumn(ctx, `SELECT name FROM groups WHERE id = $1`, uuid.UUID(groupID))
}

func (s *PostgresHierarchy) displayColumn(ctx context.Context, query string, key uuid.UUID) (string, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	var display string
	err := exec.QueryRowContext(ctx, query, key).Scan(&display)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("resolve display string: %w", err)
	}
	return display, nil
}
