package domain

import (
	"github.com/google/uuid"

	dErrors "doctrail/pkg/domain-errors"
)

// Typed IDs prevent cross-entity assignment at compile time. A DocumentID can
// never be passed where a PolicyID is expected, which matters in a codebase
// where four nullable foreign keys sit next to each other.
type (
	DocumentID uuid.UUID
	UserID     uuid.UUID
	PolicyID   uuid.UUID
	LossID     uuid.UUID
	ClaimantID uuid.UUID
	ProducerID uuid.UUID
	GroupID    uuid.UUID
)

func (id DocumentID) String() string { return uuid.UUID(id).String() }
func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id PolicyID) String() string   { return uuid.UUID(id).String() }
func (id LossID) String() string     { return uuid.UUID(id).String() }
func (id ClaimantID) String() string { return uuid.UUID(id).String() }
func (id ProducerID) String() string { return uuid.UUID(id).String() }
func (id GroupID) String() string    { return uuid.UUID(id).String() }

func (id DocumentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id PolicyID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id LossID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ClaimantID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ProducerID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id GroupID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// parseUUID enforces the shared invariant: ids must be valid, non-empty,
// non-nil UUIDs. Parsing happens once at the trust boundary.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be nil")
	}
	return parsed, nil
}

func ParseDocumentID(raw string) (DocumentID, error) {
	parsed, err := parseUUID(raw, "document")
	return DocumentID(parsed), err
}

func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user")
	return UserID(parsed), err
}

func ParsePolicyID(raw string) (PolicyID, error) {
	parsed, err := parseUUID(raw, "policy")
	return PolicyID(parsed), err
}

func ParseLossID(raw string) (LossID, error) {
	parsed, err := parseUUID(raw, "loss")
	return LossID(parsed), err
}

func ParseClaimantID(raw string) (ClaimantID, error) {
	parsed, err := parseUUID(raw, "claimant")
	return ClaimantID(parsed), err
}

func ParseProducerID(raw string) (ProducerID, error) {
	parsed, err := parseUUID(raw, "producer")
	return ProducerID(parsed), err
}

func ParseGroupID(raw string) (GroupID, error) {
	parsed, err := parseUUID(raw, "group")
	return GroupID(parsed), err
}
