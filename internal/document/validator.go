package document

import (
	"context"
	"fmt"
	"sort"
	"strings"

	id "doctrail/pkg/domain"
	dErrors "doctrail/pkg/domain-errors"
)

// EmptyValue is the literal token used in audit descriptions when one side of
// a comparison is null or absent.
const EmptyValue = "(empty)"

// Human field labels, in the fixed order changes appear in audit
// descriptions.
const (
	LabelPolicyNumber   = "Policy Number"
	LabelLossSequence   = "Loss Sequence"
	LabelClaimant       = "Claimant"
	LabelProducerNumber = "Producer Number"
	LabelDescription    = "Document Description"
	LabelAssignedUsers  = "Assigned Users"
	LabelAssignedGroups = "Assigned Groups"
)

// Validator gates every metadata write. It checks hierarchy membership before
// any persistence occurs and computes the structured change diff that feeds
// the audit description. All failures are data; the orchestrator decides
// transaction fate.
type Validator struct {
	hierarchy HierarchyStore
}

func NewValidator(hierarchy HierarchyStore) *Validator {
	return &Validator{hierarchy: hierarchy}
}

// ValidateRelationships evaluates each membership rule independently, and
// only when both sides of the rule are proposed with non-nil values. Partial
// updates are legal: proposing a new policy without touching the loss skips
// the policy-loss rule entirely, even if the document currently has a loss.
func (v *Validator) ValidateRelationships(ctx context.Context, u MetadataUpdate) ([]dErrors.FieldError, error) {
	var fieldErrs []dErrors.FieldError

	if u.PolicyID.Present && u.LossID.Present && u.PolicyID.Value != nil && u.LossID.Value != nil {
		linked, err := v.hierarchy.PolicyLossLinked(ctx, *u.PolicyID.Value, *u.LossID.Value)
		if err != nil {
			return nil, fmt.Errorf("check policy-loss association: %w", err)
		}
		if !linked {
			fieldErrs = append(fieldErrs, dErrors.FieldError{
				Field:   "loss_id",
				Message: "loss does not belong to the proposed policy",
			})
		}
	}

	if u.LossID.Present && u.ClaimantID.Present && u.LossID.Value != nil && u.ClaimantID.Value != nil {
		linked, err := v.hierarchy.LossClaimantLinked(ctx, *u.LossID.Value, *u.ClaimantID.Value)
		if err != nil {
			return nil, fmt.Errorf("check loss-claimant association: %w", err)
		}
		if !linked {
			fieldErrs = append(fieldErrs, dErrors.FieldError{
				Field:   "claimant_id",
				Message: "claimant does not belong to the proposed loss",
			})
		}
	}

	return fieldErrs, nil
}

// FieldChange is one structured (label, old, new) triple. Both sides are
// resolved to display strings at diff time so the description stays accurate
// even if the referenced entity is later deleted.
type FieldChange struct {
	Label string
	Old   string
	New   string
}

// DiffChanges compares proposed fields against the current persisted values
// and returns display-resolved changes in label order. Fields proposed with
// their current value produce no change; an entirely unchanged update yields
// an empty diff, which the orchestrator treats as a silent no-op.
func (v *Validator) DiffChanges(ctx context.Context, current *Document, u MetadataUpdate) ([]FieldChange, error) {
	var changes []FieldChange

	if u.PolicyID.Present && !idPtrEqual(current.PolicyID, u.PolicyID.Value) {
		oldVal, err := v.policyDisplay(ctx, current.PolicyID)
		if err != nil {
			return nil, err
		}
		newVal, err := v.policyDisplay(ctx, u.PolicyID.Value)
		if err != nil {
			return nil, err
		}
		changes = append(changes, FieldChange{Label: LabelPolicyNumber, Old: oldVal, New: newVal})
	}

	if u.LossID.Present && !idPtrEqual(current.LossID, u.LossID.Value) {
		oldVal, err := v.lossDisplay(ctx, current.LossID)
		if err != nil {
			return nil, err
		}
		newVal, err := v.lossDisplay(ctx, u.LossID.Value)
		if err != nil {
			return nil, err
		}
		changes = append(changes, FieldChange{Label: LabelLossSequence, Old: oldVal, New: newVal})
	}

	if u.ClaimantID.Present && !idPtrEqual(current.ClaimantID, u.ClaimantID.Value) {
		oldVal, err := v.claimantDisplay(ctx, current.ClaimantID)
		if err != nil {
			return nil, err
		}
		newVal, err := v.claimantDisplay(ctx, u.ClaimantID.Value)
		if err != nil {
			return nil, err
		}
		changes = append(changes, FieldChange{Label: LabelClaimant, Old: oldVal, New: newVal})
	}

	if u.ProducerID.Present && !idPtrEqual(current.ProducerID, u.ProducerID.Value) {
		oldVal, err := v.producerDisplay(ctx, current.ProducerID)
		if err != nil {
			return nil, err
		}
		newVal, err := v.producerDisplay(ctx, u.ProducerID.Value)
		if err != nil {
			return nil, err
		}
		changes = append(changes, FieldChange{Label: LabelProducerNumber, Old: oldVal, New: newVal})
	}

	if u.Description.Present {
		proposed := ""
		if u.Description.Value != nil {
			proposed = *u.Description.Value
		}
		if proposed != current.Description {
			changes = append(changes, FieldChange{
				Label: LabelDescription,
				Old:   orEmpty(current.Description),
				New:   orEmpty(proposed),
			})
		}
	}

	if u.AssignedUsers.Present {
		var proposed []id.UserID
		if u.AssignedUsers.Value != nil {
			proposed = *u.AssignedUsers.Value
		}
		if !userSetEqual(current.AssignedUsers, proposed) {
			oldVal, err := v.userListDisplay(ctx, current.AssignedUsers)
			if err != nil {
				return nil, err
			}
			newVal, err := v.userListDisplay(ctx, proposed)
			if err != nil {
				return nil, err
			}
			changes = append(changes, FieldChange{Label: LabelAssignedUsers, Old: oldVal, New: newVal})
		}
	}

	if u.AssignedGroups.Present {
		var proposed []id.GroupID
		if u.AssignedGroups.Value != nil {
			proposed = *u.AssignedGroups.Value
		}
		if !groupSetEqual(current.AssignedGroups, proposed) {
			oldVal, err := v.groupListDisplay(ctx, current.AssignedGroups)
			if err != nil {
				return nil, err
			}
			newVal, err := v.groupListDisplay(ctx, proposed)
			if err != nil {
				return nil, err
			}
			changes = append(changes, FieldChange{Label: LabelAssignedGroups, Old: oldVal, New: newVal})
		}
	}

	return changes, nil
}

// FormatChanges renders the diff into the canonical audit description. Pure
// string building; the diff stays testable without string matching.
func FormatChanges(changes []FieldChange) string {
	clauses := make([]string, 0, len(changes))
	for _, c := range changes {
		clauses = append(clauses, fmt.Sprintf("%s changed from '%s' to '%s'", c.Label, c.Old, c.New))
	}
	return strings.Join(clauses, "; ")
}

func (v *Validator) policyDisplay(ctx context.Context, policyID *id.PolicyID) (string, error) {
	if policyID == nil {
		return EmptyValue, nil
	}
	display, err := v.hierarchy.PolicyDisplay(ctx, *policyID)
	if err != nil {
		return "", fmt.Errorf("resolve policy display: %w", err)
	}
	return display, nil
}

func (v *Validator) lossDisplay(ctx context.Context, lossID *id.LossID) (string, error) {
	if lossID == nil {
		return EmptyValue, nil
	}
	display, err := v.hierarchy.LossDisplay(ctx, *lossID)
	if err != nil {
		return "", fmt.Errorf("resolve loss display: %w", err)
	}
	return display, nil
}

func (v *Validator) claimantDisplay(ctx context.Context, claimantID *id.ClaimantID) (string, error) {
	if claimantID == nil {
		return EmptyValue, nil
	}
	display, err := v.hierarchy.ClaimantDisplay(ctx, *claimantID)
	if err != nil {
		return "", fmt.Errorf("resolve claimant display: %w", err)
	}
	return display, nil
}

func (v *Validator) producerDisplay(ctx context.Context, producerID *id.ProducerID) (string, error) {
	if producerID == nil {
		return EmptyValue, nil
	}
	display, err := v.hierarchy.ProducerDisplay(ctx, *producerID)
	if err != nil {
		return "", fmt.Errorf("resolve producer display: %w", err)
	}
	return display, nil
}

func (v *Validator) userListDisplay(ctx context.Context, users []id.UserID) (string, error) {
	if len(users) == 0 {
		return EmptyValue, nil
	}
	names := make([]string, 0, len(users))
	for _, userID := range users {
		name, err := v.hierarchy.UserDisplay(ctx, userID)
		if err != nil {
			return "", fmt.Errorf("resolve user display: %w", err)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", "), nil
}

func (v *Validator) groupListDisplay(ctx context.Context, groups []id.GroupID) (string, error) {
	if len(groups) == 0 {
		return EmptyValue, nil
	}
	names := make([]string, 0, len(groups))
	for _, groupID := range groups {
		name, err := v.hierarchy.GroupDisplay(ctx, groupID)
		if err != nil {
			return "", fmt.Errorf("resolve group display: %w", err)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", "), nil
}

func orEmpty(s string) string {
	if s == "" {
		return EmptyValue
	}
	return s
}

func idPtrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func userSetEqual(a, b []id.UserID) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[id.UserID]int, len(a))
	for _, v := range a {
		seen[v]++
	}
	for _, v := range b {
		seen[v]--
		if seen[v] < 0 {
			return false
		}
	}
	return true
}

func groupSetEqual(a, b []id.GroupID) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[id.GroupID]int, len(a))
	for _, v := range a {
		seen[v]++
	}
	for _, v := range b {
		seen[v]--
		if seen[v] < 0 {
			return false
		}
	}
	return true
}
