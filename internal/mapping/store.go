// Package mapping owns the authoritative collection of field mappings and
// the conflicts detected among them. The store is the only component allowed
// to mutate either collection; the parser and processor exchange ephemeral
// commands and results around it.
package mapping

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mapper-cli/internal/model"
)

// ErrNotFound is returned when an operation references a mapping or conflict
// id the store does not hold.
var ErrNotFound = eris.New("mapping: not found")

// Resolution is an accepted verb for ResolveConflict.
type Resolution string

const (
	ResolutionAccept Resolution = "accept"
	ResolutionReject Resolution = "reject"
	ResolutionModify Resolution = "modify"
)

// Store holds mappings in insertion order plus the conflicts from the most
// recent validation pass. All mutation is synchronous; the lock exists so
// read-only surfaces (the serve endpoints) can snapshot state while the
// processor worker mutates.
type Store struct {
	mu         sync.RWMutex
	documentID string
	mappings   []*model.Mapping
	conflicts  []model.Conflict
	now        func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the timestamp source. Tests use a fixed clock.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetDocumentMappings replaces the whole collection with fresh records
// derived from the supplied suggestions, then validates. Ids are derived
// from the document id and position so re-analysis of the same document
// produces the same ids.
func (s *Store) SetDocumentMappings(documentID string, suggestions []model.Mapping) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.documentID = documentID
	s.mappings = make([]*model.Mapping, 0, len(suggestions))
	for i, sug := range suggestions {
		m := sug
		m.ID = fmt.Sprintf("%s-mapping-%d", documentID, i)
		m.Status = model.StatusActive
		m.UserModified = false
		m.CreatedAt = now
		m.UpdatedAt = now
		if m.TransformationType == "" {
			m.TransformationType = model.TransformDirect
		}
		s.mappings = append(s.mappings, &m)
	}
	s.validateLocked()

	zap.L().Info("mapping: document mappings set",
		zap.String("document_id", documentID),
		zap.Int("count", len(s.mappings)),
		zap.Int("conflicts", len(s.conflicts)),
	)
}

// Add appends a new mapping, assigning an id and timestamps, validates, and
// returns the id.
func (s *Store) Add(m model.Mapping) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.Status == "" {
		m.Status = model.StatusActive
	}
	if m.TransformationType == "" {
		m.TransformationType = model.TransformDirect
	}
	m.CreatedAt = now
	m.UpdatedAt = now
	s.mappings = append(s.mappings, &m)
	s.validateLocked()
	return m.ID
}

// Update merges the patch into the mapping with the given id, marks it user
// modified, refreshes updated_at, and revalidates. An unknown id is an
// error: callers that want check-then-write semantics use GetByFields first.
func (s *Store) Update(id string, patch model.MappingPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.byIDLocked(id)
	if m == nil {
		return eris.Wrapf(ErrNotFound, "mapping: update %s", id)
	}
	patch.Apply(m)
	m.UserModified = true
	m.UpdatedAt = s.now()
	s.validateLocked()
	return nil
}

// Remove deletes the mapping with the given id and strips the id from every
// conflict's affected list. It deliberately does not revalidate: conflicts
// shrink in place and the next full validation pass rebuilds from scratch.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, m := range s.mappings {
		if m.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return eris.Wrapf(ErrNotFound, "mapping: remove %s", id)
	}
	s.mappings = append(s.mappings[:idx], s.mappings[idx+1:]...)

	for i := range s.conflicts {
		affected := s.conflicts[i].AffectedMappings[:0]
		for _, mid := range s.conflicts[i].AffectedMappings {
			if mid != id {
				affected = append(affected, mid)
			}
		}
		s.conflicts[i].AffectedMappings = affected
	}
	return nil
}

// ResolveConflict applies a resolution to every mapping the conflict names
// and drops the conflict. "accept" reactivates the mappings as they are,
// "reject" disables them, "modify" merges the patch and reactivates. The
// resolution is authoritative for this conflict, so no revalidation runs; a
// later validation pass may still detect a fresh conflict the resolution
// itself introduced.
func (s *Store) ResolveConflict(conflictID string, resolution Resolution, patch *model.MappingPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, c := range s.conflicts {
		if c.ID == conflictID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return eris.Wrapf(ErrNotFound, "mapping: resolve conflict %s", conflictID)
	}
	conflict := s.conflicts[idx]

	now := s.now()
	for _, mid := range conflict.AffectedMappings {
		m := s.byIDLocked(mid)
		if m == nil {
			continue
		}
		switch resolution {
		case ResolutionAccept:
			m.Status = model.StatusActive
		case ResolutionReject:
			m.Status = model.StatusDisabled
		case ResolutionModify:
			if patch != nil {
				patch.Apply(m)
			}
			m.Status = model.StatusActive
			m.UserModified = true
		default:
			return eris.Errorf("mapping: unknown resolution %q", resolution)
		}
		m.UpdatedAt = now
	}

	s.conflicts = append(s.conflicts[:idx], s.conflicts[idx+1:]...)

	zap.L().Info("mapping: conflict resolved",
		zap.String("conflict_id", conflictID),
		zap.String("resolution", string(resolution)),
	)
	return nil
}

// Validate recomputes the conflict list from scratch over active mappings
// and replaces the store's conflict state. Duplicate source and duplicate
// target detection runs today; circular_reference and type_mismatch are
// reserved categories with no detection pass.
func (s *Store) Validate() []model.Conflict {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.validateLocked()
	return copyConflicts(s.conflicts)
}

func (s *Store) validateLocked() {
	var conflicts []model.Conflict
	conflicts = append(conflicts, s.duplicateConflictsLocked(
		model.ConflictDuplicateSource,
		func(m *model.Mapping) string { return m.SourceField },
		"source field",
	)...)
	conflicts = append(conflicts, s.duplicateConflictsLocked(
		model.ConflictDuplicateTarget,
		func(m *model.Mapping) string { return m.TargetField },
		"target field",
	)...)
	s.conflicts = conflicts
}

// duplicateConflictsLocked groups active mappings by key (exact, as stored)
// and emits one conflict per key with more than one member. Conflict ids are
// derived from the type and field value, so repeated passes are stable.
func (s *Store) duplicateConflictsLocked(typ model.ConflictType, key func(*model.Mapping) string, label string) []model.Conflict {
	groups := make(map[string][]string)
	var order []string
	for _, m := range s.mappings {
		if m.Status != model.StatusActive {
			continue
		}
		k := key(m)
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], m.ID)
	}

	var conflicts []model.Conflict
	for _, k := range order {
		ids := groups[k]
		if len(ids) < 2 {
			continue
		}
		conflicts = append(conflicts, model.Conflict{
			ID:          fmt.Sprintf("conflict-%s-%s", typ, k),
			Type:        typ,
			Description: fmt.Sprintf("%d active mappings share the %s %q", len(ids), label, k),
			SuggestedResolution: fmt.Sprintf(
				"keep one mapping for %s %q and disable or redirect the others", label, k),
			AffectedMappings: append([]string(nil), ids...),
		})
	}
	return conflicts
}

// Export returns the active mappings in insertion order, as copies.
func (s *Store) Export() []model.Mapping {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Mapping
	for _, m := range s.mappings {
		if m.Status == model.StatusActive {
			out = append(out, *m)
		}
	}
	return out
}

// GetByFields returns a copy of the first mapping whose source field matches
// (and target field, when given), or nil. Lookups are exact and
// case-sensitive, matching how conflicts group.
func (s *Store) GetByFields(sourceField, targetField string) *model.Mapping {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.mappings {
		if m.SourceField != sourceField {
			continue
		}
		if targetField != "" && m.TargetField != targetField {
			continue
		}
		cp := *m
		return &cp
	}
	return nil
}

// ActiveBySource returns a copy of the first active mapping with the given
// source field, or nil. Command execution resolves fields through this.
func (s *Store) ActiveBySource(sourceField string) *model.Mapping {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.mappings {
		if m.Status == model.StatusActive && m.SourceField == sourceField {
			cp := *m
			return &cp
		}
	}
	return nil
}

// Mappings returns a copy of every mapping regardless of status, in
// insertion order.
func (s *Store) Mappings() []model.Mapping {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Mapping, 0, len(s.mappings))
	for _, m := range s.mappings {
		out = append(out, *m)
	}
	return out
}

// Conflicts returns a copy of the conflicts from the last validation pass.
func (s *Store) Conflicts() []model.Conflict {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyConflicts(s.conflicts)
}

// DocumentID returns the id passed to the last SetDocumentMappings call.
func (s *Store) DocumentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documentID
}

// Len returns the total number of mappings, any status.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.mappings)
}

// Restore replaces the store contents with a previously exported snapshot.
// Used when reloading a persisted session; no validation runs until the
// next mutation.
func (s *Store) Restore(documentID string, mappings []model.Mapping, conflicts []model.Conflict) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.documentID = documentID
	s.mappings = make([]*model.Mapping, 0, len(mappings))
	for i := range mappings {
		m := mappings[i]
		s.mappings = append(s.mappings, &m)
	}
	s.conflicts = copyConflicts(conflicts)
}

// Clear tears the store down to its initial empty state.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documentID = ""
	s.mappings = nil
	s.conflicts = nil
}

func (s *Store) byIDLocked(id string) *model.Mapping {
	for _, m := range s.mappings {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func copyConflicts(in []model.Conflict) []model.Conflict {
	if in == nil {
		return nil
	}
	out := make([]model.Conflict, len(in))
	for i, c := range in {
		out[i] = c
		out[i].AffectedMappings = append([]string(nil), c.AffectedMappings...)
	}
	return out
}
