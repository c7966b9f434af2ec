package mapping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mapper-cli/internal/model"
)

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestStore_SetDocumentMappings(t *testing.T) {
	s := New(WithClock(fixedClock()))
	s.SetDocumentMappings("doc1", []model.Mapping{
		{SourceField: "id", TargetField: "user_id", Confidence: 0.7},
		{SourceField: "email", TargetField: "email_address", Confidence: 0.9},
	})

	all := s.Mappings()
	require.Len(t, all, 2)
	assert.Equal(t, "doc1-mapping-0", all[0].ID)
	assert.Equal(t, "doc1-mapping-1", all[1].ID)
	assert.Equal(t, model.StatusActive, all[0].Status)
	assert.False(t, all[0].UserModified)
	assert.Equal(t, model.TransformDirect, all[0].TransformationType)
	assert.Empty(t, s.Conflicts())
	assert.Equal(t, "doc1", s.DocumentID())

	// Replaces wholesale on a second call.
	s.SetDocumentMappings("doc2", []model.Mapping{
		{SourceField: "phone", TargetField: "phone_number"},
	})
	require.Len(t, s.Mappings(), 1)
	assert.Equal(t, "doc2-mapping-0", s.Mappings()[0].ID)
}

func TestStore_AddAssignsIDAndDefaults(t *testing.T) {
	s := New()
	id := s.Add(model.Mapping{SourceField: "a", TargetField: "b"})
	require.NotEmpty(t, id)

	m := s.GetByFields("a", "")
	require.NotNil(t, m)
	assert.Equal(t, id, m.ID)
	assert.Equal(t, model.StatusActive, m.Status)
	assert.Equal(t, model.TransformDirect, m.TransformationType)
	assert.False(t, m.CreatedAt.IsZero())
}

func TestStore_UpdateMarksUserModified(t *testing.T) {
	s := New(WithClock(fixedClock()))
	id := s.Add(model.Mapping{SourceField: "a", TargetField: "b"})
	created := s.GetByFields("a", "").UpdatedAt

	err := s.Update(id, model.MappingPatch{TargetField: model.Ptr("c")})
	require.NoError(t, err)

	m := s.GetByFields("a", "")
	assert.Equal(t, "c", m.TargetField)
	assert.True(t, m.UserModified)
	assert.True(t, m.UpdatedAt.After(created))
}

func TestStore_UpdateUnknownID(t *testing.T) {
	s := New()
	err := s.Update("nope", model.MappingPatch{TargetField: model.Ptr("c")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_DuplicateSourceConflictInvariant(t *testing.T) {
	s := New()
	id1 := s.Add(model.Mapping{SourceField: "email", TargetField: "email_address"})
	assert.Empty(t, s.Conflicts())

	id2 := s.Add(model.Mapping{SourceField: "email", TargetField: "contact_email"})

	conflicts := s.Conflicts()
	require.Len(t, conflicts, 1)
	c := conflicts[0]
	assert.Equal(t, model.ConflictDuplicateSource, c.Type)
	assert.Equal(t, []string{id1, id2}, c.AffectedMappings)

	// Revalidation is stable: same id, still exactly one conflict.
	again := s.Validate()
	require.Len(t, again, 1)
	assert.Equal(t, c.ID, again[0].ID)

	// Disabling one member clears the conflict on the next pass.
	require.NoError(t, s.Update(id2, model.MappingPatch{Status: model.Ptr(model.StatusDisabled)}))
	assert.Empty(t, s.Conflicts())
}

func TestStore_DuplicateTargetConflict(t *testing.T) {
	s := New()
	id1 := s.Add(model.Mapping{SourceField: "a", TargetField: "full_name"})
	id2 := s.Add(model.Mapping{SourceField: "b", TargetField: "full_name"})

	conflicts := s.Conflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, model.ConflictDuplicateTarget, conflicts[0].Type)
	assert.Equal(t, []string{id1, id2}, conflicts[0].AffectedMappings)
}

func TestStore_CaseSensitiveGrouping(t *testing.T) {
	s := New()
	s.Add(model.Mapping{SourceField: "Email", TargetField: "a"})
	s.Add(model.Mapping{SourceField: "email", TargetField: "b"})
	// Grouping is exact, as stored.
	assert.Empty(t, s.Conflicts())
}

func TestStore_RemoveStripsConflictReferences(t *testing.T) {
	s := New()
	id1 := s.Add(model.Mapping{SourceField: "email", TargetField: "a"})
	id2 := s.Add(model.Mapping{SourceField: "email", TargetField: "b"})
	require.Len(t, s.Conflicts(), 1)

	require.NoError(t, s.Remove(id1))

	// Remove does not revalidate; the conflict shrinks in place.
	conflicts := s.Conflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, []string{id2}, conflicts[0].AffectedMappings)

	// The next full pass prunes it.
	assert.Empty(t, s.Validate())
}

func TestStore_RemoveUnknownID(t *testing.T) {
	s := New()
	assert.ErrorIs(t, s.Remove("nope"), ErrNotFound)
}

func TestStore_ResolveConflict(t *testing.T) {
	tests := []struct {
		name       string
		resolution Resolution
		patch      *model.MappingPatch
		wantStatus model.MappingStatus
	}{
		{"accept keeps active", ResolutionAccept, nil, model.StatusActive},
		{"reject disables", ResolutionReject, nil, model.StatusDisabled},
		{"modify merges and reactivates", ResolutionModify,
			&model.MappingPatch{TargetField: model.Ptr("other")}, model.StatusActive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.Add(model.Mapping{SourceField: "email", TargetField: "a"})
			s.Add(model.Mapping{SourceField: "email", TargetField: "b"})
			conflicts := s.Conflicts()
			require.Len(t, conflicts, 1)

			require.NoError(t, s.ResolveConflict(conflicts[0].ID, tt.resolution, tt.patch))
			assert.Empty(t, s.Conflicts(), "conflict record is removed")

			for _, m := range s.Mappings() {
				assert.Equal(t, tt.wantStatus, m.Status)
				if tt.resolution == ResolutionModify {
					assert.Equal(t, "other", m.TargetField)
					assert.True(t, m.UserModified)
				}
			}
		})
	}
}

func TestStore_ResolveConflictUnknown(t *testing.T) {
	s := New()
	assert.ErrorIs(t, s.ResolveConflict("nope", ResolutionAccept, nil), ErrNotFound)
}

func TestStore_ExportRoundTrip(t *testing.T) {
	s := New()
	id1 := s.Add(model.Mapping{SourceField: "a", TargetField: "x"})
	id2 := s.Add(model.Mapping{SourceField: "b", TargetField: "y"})
	id3 := s.Add(model.Mapping{SourceField: "c", TargetField: "z"})

	require.NoError(t, s.Update(id2, model.MappingPatch{Status: model.Ptr(model.StatusDisabled)}))
	require.NoError(t, s.Update(id3, model.MappingPatch{TargetField: model.Ptr("z2")}))
	require.NoError(t, s.Remove(id1))

	exported := s.Export()
	require.Len(t, exported, 1)
	assert.Equal(t, id3, exported[0].ID)
	assert.Equal(t, "z2", exported[0].TargetField)
}

func TestStore_ExportIsACopy(t *testing.T) {
	s := New()
	s.Add(model.Mapping{SourceField: "a", TargetField: "x"})
	exported := s.Export()
	exported[0].TargetField = "mutated"
	assert.Equal(t, "x", s.GetByFields("a", "").TargetField)
}

func TestStore_GetByFields(t *testing.T) {
	s := New()
	s.Add(model.Mapping{SourceField: "a", TargetField: "x"})
	s.Add(model.Mapping{SourceField: "a", TargetField: "y"})

	assert.Equal(t, "x", s.GetByFields("a", "").TargetField, "first match wins")
	assert.Equal(t, "y", s.GetByFields("a", "y").TargetField)
	assert.Nil(t, s.GetByFields("a", "z"))
	assert.Nil(t, s.GetByFields("missing", ""))
}

func TestStore_RestoreAndClear(t *testing.T) {
	s := New()
	s.Restore("doc9", []model.Mapping{
		{ID: "m1", SourceField: "a", TargetField: "x", Status: model.StatusActive},
	}, []model.Conflict{
		{ID: "c1", Type: model.ConflictDuplicateSource, AffectedMappings: []string{"m1"}},
	})
	assert.Equal(t, "doc9", s.DocumentID())
	assert.Len(t, s.Mappings(), 1)
	assert.Len(t, s.Conflicts(), 1)

	s.Clear()
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Conflicts())
	assert.Empty(t, s.DocumentID())
}
