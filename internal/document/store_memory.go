package document

import (
	"context"
	"sort"
	"sync"
	"time"

	id "doctrail/pkg/domain"
	"doctrail/pkg/platform/sentinel"
)

// InMemoryStore keeps documents in a map. It backs unit tests and implements
// Snapshot/Restore so the in-memory transaction runner can roll back failed
// operations the way a database transaction would.
type InMemoryStore struct {
	mu   sync.RWMutex
	docs map[id.DocumentID]*Document
	now  func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{docs: make(map[id.DocumentID]*Document), now: time.Now}
}

// Put seeds a document, bypassing the version check. Test setup only.
func (s *InMemoryStore) Put(doc *Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[doc.ID] = cloneDocument(doc)
}

func (s *InMemoryStore) FindByID(_ context.Context, docID id.DocumentID) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[docID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (s *InMemoryStore) Update(_ context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.docs[doc.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Version != doc.Version {
		return sentinel.ErrConflict
	}
	updated := cloneDocument(doc)
	updated.Version++
	updated.UpdatedAt = s.now()
	s.docs[doc.ID] = updated
	doc.Version = updated.Version
	doc.UpdatedAt = updated.UpdatedAt
	return nil
}

// Snapshot returns a deep copy of the store state.
func (s *InMemoryStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[id.DocumentID]*Document, len(s.docs))
	for k, v := range s.docs {
		snap[k] = cloneDocument(v)
	}
	return snap
}

// Restore replaces the store state with a previously taken snapshot.
func (s *InMemoryStore) Restore(snapshot any) {
	snap, ok := snapshot.(map[id.DocumentID]*Document)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = make(map[id.DocumentID]*Document, len(snap))
	for k, v := range snap {
		s.docs[k] = cloneDocument(v)
	}
}

func cloneDocument(doc *Document) *Document {
	cloned := *doc
	if doc.TrashedAt != nil {
		t := *doc.TrashedAt
		cloned.TrashedAt = &t
	}
	cloned.PolicyID = clonePtr(doc.PolicyID)
	cloned.LossID = clonePtr(doc.LossID)
	cloned.ClaimantID = clonePtr(doc.ClaimantID)
	cloned.ProducerID = clonePtr(doc.ProducerID)
	cloned.AssignedUsers = append([]id.UserID(nil), doc.AssignedUsers...)
	cloned.AssignedGroups = append([]id.GroupID(nil), doc.AssignedGroups...)
	return &cloned
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

type policyLossLink struct {
	PolicyID  id.PolicyID
	LossID    id.LossID
	CreatedAt time.Time
}

type lossClaimantLink struct {
	LossID     id.LossID
	ClaimantID id.ClaimantID
	CreatedAt  time.Time
}

type producerPolicyLink struct {
	ProducerID id.ProducerID
	PolicyID   id.PolicyID
	CreatedAt  time.Time
}

// InMemoryHierarchy holds the relationship graph for tests: entities plus the
// pairwise association rows whose creation timestamps drive the derived loss
// sequence number.
type InMemoryHierarchy struct {
	mu sync.RWMutex

	policies  map[id.PolicyID]Policy
	losses    map[id.LossID]Loss
	claimants map[id.ClaimantID]Claimant
	producers map[id.ProducerID]Producer
	users     map[id.UserID]string
	groups    map[id.GroupID]string

	policyLosses     []policyLossLink
	lossClaimants    []lossClaimantLink
	producerPolicies []producerPolicyLink
}

func NewInMemoryHierarchy() *InMemoryHierarchy {
	return &InMemoryHierarchy{
		policies:  make(map[id.PolicyID]Policy),
		losses:    make(map[id.LossID]Loss),
		claimants: make(map[id.ClaimantID]Claimant),
		producers: make(map[id.ProducerID]Producer),
		users:     make(map[id.UserID]string),
		groups:    make(map[id.GroupID]string),
	}
}

func (s *InMemoryHierarchy) AddPolicy(p Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[p.ID] = p
}

func (s *InMemoryHierarchy) AddLoss(l Loss) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.losses[l.ID] = l
}

func (s *InMemoryHierarchy) AddClaimant(c Claimant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claimants[c.ID] = c
}

func (s *InMemoryHierarchy) AddProducer(p Producer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.producers[p.ID] = p
}

func (s *InMemoryHierarchy) AddUser(userID id.UserID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = name
}

func (s *InMemoryHierarchy) AddGroup(groupID id.GroupID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[groupID] = name
}

func (s *InMemoryHierarchy) LinkPolicyLoss(policyID id.PolicyID, lossID id.LossID, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policyLosses = append(s.policyLosses, policyLossLink{PolicyID: policyID, LossID: lossID, CreatedAt: createdAt})
}

func (s *InMemoryHierarchy) LinkLossClaimant(lossID id.LossID, claimantID id.ClaimantID, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lossClaimants = append(s.lossClaimants, lossClaimantLink{LossID: lossID, ClaimantID: claimantID, CreatedAt: createdAt})
}

func (s *InMemoryHierarchy) LinkProducerPolicy(producerID id.ProducerID, policyID id.PolicyID, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.producerPolicies = append(s.producerPolicies, producerPolicyLink{ProducerID: producerID, PolicyID: policyID, CreatedAt: createdAt})
}

func (s *InMemoryHierarchy) PolicyLossLinked(_ context.Context, policyID id.PolicyID, lossID id.LossID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, link := range s.policyLosses {
		if link.PolicyID == policyID && link.LossID == lossID {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryHierarchy) LossClaimantLinked(_ context.Context, lossID id.LossID, claimantID id.ClaimantID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, link := range s.lossClaimants {
		if link.LossID == lossID && link.ClaimantID == claimantID {
			return true, nil
		}
	}
	return false, nil
}

// LossSequence ranks the loss among its policy's associations by creation
// time, falling back to insertion order on equal timestamps.
func (s *InMemoryHierarchy) LossSequence(_ context.Context, lossID id.LossID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var own *policyLossLink
	for i := range s.policyLosses {
		if s.policyLosses[i].LossID == lossID {
			own = &s.policyLosses[i]
			break
		}
	}
	if own == nil {
		return 0, sentinel.ErrNotFound
	}

	siblings := make([]policyLossLink, 0)
	for _, link := range s.policyLosses {
		if link.PolicyID == own.PolicyID {
			siblings = append(siblings, link)
		}
	}
	sort.SliceStable(siblings, func(i, j int) bool {
		return siblings[i].CreatedAt.Before(siblings[j].CreatedAt)
	})
	for i, link := range siblings {
		if link.LossID == lossID {
			return i + 1, nil
		}
	}
	return 0, sentinel.ErrNotFound
}

func (s *InMemoryHierarchy) PolicyDisplay(_ context.Context, policyID id.PolicyID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	policy, ok := s.policies[policyID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return policy.DisplayString(), nil
}

func (s *InMemoryHierarchy) LossDisplay(ctx context.Context, lossID id.LossID) (string, error) {
	s.mu.RLock()
	loss, ok := s.losses[lossID]
	s.mu.RUnlock()
	if !ok {
		return "", sentinel.ErrNotFound
	}
	seq, err := s.LossSequence(ctx, lossID)
	if err != nil {
		return "", err
	}
	return loss.DisplayString(seq), nil
}

func (s *InMemoryHierarchy) ClaimantDisplay(_ context.Context, claimantID id.ClaimantID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	claimant, ok := s.claimants[claimantID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return claimant.DisplayString(), nil
}

func (s *InMemoryHierarchy) ProducerDisplay(_ context.Context, producerID id.ProducerID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	producer, ok := s.producers[producerID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return producer.DisplayString(), nil
}

func (s *InMemoryHierarchy) UserDisplay(_ context.Context, userID id.UserID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.users[userID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return name, nil
}

func (s *InMemoryHierarchy) GroupDisplay(_ context.Context, groupID id.GroupID) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.groups[groupID]
	if !ok {
		return "", sentinel.ErrNotFound
	}
	return name, nil
}
