//go:build integration

package document_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"doctrail/internal/document"
	id "doctrail/pkg/domain"
	"doctrail/pkg/platform/sentinel"
	"doctrail/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	store     *document.PostgresStore
	hierarchy *document.PostgresHierarchy

	actor id.UserID
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	migrations, err := filepath.Abs(filepath.Join("..", "..", "migrations", "001_init.sql"))
	s.Require().NoError(err)
	s.postgres = containers.NewPostgresContainer(s.T(), migrations)
	s.store = document.NewPostgresStore(s.postgres.DB)
	s.hierarchy = document.NewPostgresHierarchy(s.postgres.DB)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	s.postgres.Terminate(s.T())
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx,
		"document_actions", "actions", "document_users", "document_groups", "documents",
		"policy_losses", "loss_claimants", "producer_policies",
		"losses", "claimants", "producers", "policies", "groups", "users")
	s.Require().NoError(err)

	s.actor = id.UserID(uuid.New())
	s.execf(`INSERT INTO users (id, name) VALUES ($1, $2)`, uuid.UUID(s.actor), "Avery Quinn")
}

func (s *PostgresStoreSuite) execf(query string, args ...any) {
	s.T().Helper()
	_, err := s.postgres.DB.ExecContext(context.Background(), query, args...)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) insertDocument(docID id.DocumentID) {
	s.execf(`
		INSERT INTO documents (id, name, description, status, version, created_by, updated_by)
		VALUES ($1, $2, '', 'unprocessed', 1, $3, $3)
	`, uuid.UUID(docID), "estimate.pdf", uuid.UUID(s.actor))
}

func (s *PostgresStoreSuite) TestFindByID() {
	ctx := context.Background()

	s.Run("unknown document", func() {
		_, err := s.store.FindByID(ctx, id.DocumentID(uuid.New()))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("round trip with assignees", func() {
		docID := id.DocumentID(uuid.New())
		s.insertDocument(docID)
		s.execf(`INSERT INTO document_users (document_id, user_id) VALUES ($1, $2)`,
			uuid.UUID(docID), uuid.UUID(s.actor))

		doc, err := s.store.FindByID(ctx, docID)
		s.Require().NoError(err)
		s.Equal("estimate.pdf", doc.Name)
		s.Equal(document.StatusUnprocessed, doc.Status)
		s.Equal(int64(1), doc.Version)
		s.Require().Len(doc.AssignedUsers, 1)
		s.Equal(s.actor, doc.AssignedUsers[0])
	})
}

func (s *PostgresStoreSuite) TestUpdate() {
	ctx := context.Background()
	docID := id.DocumentID(uuid.New())
	s.insertDocument(docID)

	s.Run("bumps the version", func() {
		doc, err := s.store.FindByID(ctx, docID)
		s.Require().NoError(err)

		doc.Description = "updated"
		doc.Status = document.StatusProcessed
		s.Require().NoError(s.store.Update(ctx, doc))
		s.Equal(int64(2), doc.Version)

		reloaded, err := s.store.FindByID(ctx, docID)
		s.Require().NoError(err)
		s.Equal("updated", reloaded.Description)
		s.Equal(document.StatusProcessed, reloaded.Status)
	})

	s.Run("stale version conflicts", func() {
		doc, err := s.store.FindByID(ctx, docID)
		s.Require().NoError(err)

		doc.Version = 1 // already at 2
		err = s.store.Update(ctx, doc)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("vanished document", func() {
		ghost := &document.Document{ID: id.DocumentID(uuid.New()), Version: 1, UpdatedBy: s.actor}
		err := s.store.Update(ctx, ghost)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PostgresStoreSuite) TestHierarchy() {
	ctx := context.Background()

	policyA := uuid.New()
	policyB := uuid.New()
	lossA1 := uuid.New()
	lossA2 := uuid.New()
	claimantX := uuid.New()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	s.execf(`INSERT INTO policies (id, number) VALUES ($1, 'POL-1001'), ($2, 'POL-2002')`, policyA, policyB)
	s.execf(`INSERT INTO losses (id) VALUES ($1), ($2)`, lossA1, lossA2)
	s.execf(`INSERT INTO claimants (id, name) VALUES ($1, 'Morgan Hale')`, claimantX)
	s.execf(`INSERT INTO policy_losses (policy_id, loss_id, created_at) VALUES ($1, $2, $3)`, policyA, lossA1, base)
	s.execf(`INSERT INTO policy_losses (policy_id, loss_id, created_at) VALUES ($1, $2, $3)`, policyA, lossA2, base.Add(time.Hour))
	s.execf(`INSERT INTO loss_claimants (loss_id, claimant_id) VALUES ($1, $2)`, lossA1, claimantX)

	s.Run("membership checks", func() {
		linked, err := s.hierarchy.PolicyLossLinked(ctx, id.PolicyID(policyA), id.LossID(lossA1))
		s.Require().NoError(err)
		s.True(linked)

		linked, err = s.hierarchy.PolicyLossLinked(ctx, id.PolicyID(policyB), id.LossID(lossA1))
		s.Require().NoError(err)
		s.False(linked)

		linked, err = s.hierarchy.LossClaimantLinked(ctx, id.LossID(lossA2), id.ClaimantID(claimantX))
		s.Require().NoError(err)
		s.False(linked)
	})

	s.Run("loss sequence follows association age", func() {
		seq, err := s.hierarchy.LossSequence(ctx, id.LossID(lossA1))
		s.Require().NoError(err)
		s.Equal(1, seq)

		seq, err = s.hierarchy.LossSequence(ctx, id.LossID(lossA2))
		s.Require().NoError(err)
		s.Equal(2, seq)
	})

	s.Run("display strings", func() {
		display, err := s.hierarchy.PolicyDisplay(ctx, id.PolicyID(policyA))
		s.Require().NoError(err)
		s.Equal("POL-1001", display)

		display, err = s.hierarchy.LossDisplay(ctx, id.LossID(lossA2))
		s.Require().NoError(err)
		s.Equal("Loss 2", display)

		_, err = s.hierarchy.ClaimantDisplay(ctx, id.ClaimantID(uuid.New()))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}
