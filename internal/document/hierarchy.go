package document

import (
	"fmt"
	"time"

	id "doctrail/pkg/domain"
)

// Hierarchy entities: Policy owns Losses, a Loss owns Claimants, and a
// Producer writes Policies. The diff formatter treats DisplayString as a
// black box so renumbering or reformatting never rewrites history.

type Policy struct {
	ID     id.PolicyID
	Number string
}

func (p Policy) DisplayString() string { return p.Number }

type Loss struct {
	ID         id.LossID
	PolicyID   id.PolicyID
	OccurredAt time.Time
}

// DisplayString renders the loss with its sequence position under the parent
// policy. The sequence is a presentation artifact derived on read from
// association creation order; it is never stored.
func (l Loss) DisplayString(sequence int) string {
	return fmt.Sprintf("Loss %d", sequence)
}

type Claimant struct {
	ID   id.ClaimantID
	Name string
}

func (c Claimant) DisplayString() string { return c.Name }

type Producer struct {
	ID     id.ProducerID
	Number string
}

func (p Producer) DisplayString() string { return p.Number }
