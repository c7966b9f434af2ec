package processor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mapper-cli/internal/mapping"
	"github.com/sells-group/mapper-cli/internal/model"
)

func newTestProcessor() *Processor {
	store := mapping.New()
	vocab := model.Vocabulary{
		SourceFields: []string{"id", "name", "email"},
		TargetFields: []string{"user_id", "full_name", "email_address"},
	}
	return New(store, vocab, DefaultConfig())
}

// The end-to-end flow from the design discussion: create, redirect, delete.
func TestProcess_Scenario(t *testing.T) {
	p := newTestProcessor()

	res := p.Process("Map id to user_id")
	require.True(t, res.Success, res.Message)
	require.Len(t, res.AppliedChanges, 1)
	assert.Equal(t, model.ChangeCreated, res.AppliedChanges[0].Type)

	exported := p.Store().Export()
	require.Len(t, exported, 1)
	assert.Equal(t, "id", exported[0].SourceField)
	assert.Equal(t, "user_id", exported[0].TargetField)
	assert.Equal(t, 0.85, exported[0].Confidence)
	assert.Equal(t, model.StatusActive, exported[0].Status)
	assert.True(t, exported[0].UserModified)

	res = p.Process("Map id to full_name")
	require.True(t, res.Success, res.Message)
	require.Len(t, res.AppliedChanges, 1)
	assert.Equal(t, model.ChangeUpdated, res.AppliedChanges[0].Type)

	exported = p.Store().Export()
	require.Len(t, exported, 1, "redirect must not create a second record")
	assert.Equal(t, "full_name", exported[0].TargetField)

	res = p.Process("Delete mapping for id")
	require.True(t, res.Success, res.Message)
	require.Len(t, res.AppliedChanges, 1)
	assert.Equal(t, model.ChangeDeleted, res.AppliedChanges[0].Type)
	assert.Equal(t, "full_name", res.AppliedChanges[0].TargetField)
	assert.Empty(t, p.Store().Export())
}

func TestProcess_IdempotentExactMapping(t *testing.T) {
	p := newTestProcessor()

	first := p.Process("Map id to user_id")
	require.True(t, first.Success)
	second := p.Process("Map id to user_id")
	require.True(t, second.Success, "re-applying is still a success")
	require.Len(t, second.AppliedChanges, 1)
	assert.Equal(t, model.ChangeUpdated, second.AppliedChanges[0].Type)

	exported := p.Store().Export()
	require.Len(t, exported, 1)
	assert.Equal(t, "user_id", exported[0].TargetField)
}

func TestProcess_DeleteMissingField(t *testing.T) {
	p := newTestProcessor()
	p.Process("Map id to user_id")

	res := p.Process("Delete the mapping for email")
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "email")
	assert.Contains(t, res.Suggestions, "id", "suggests fields that do have mappings")
	assert.Len(t, p.Store().Export(), 1, "no mutation on failure")
}

func TestProcess_ModifyTransformation(t *testing.T) {
	p := newTestProcessor()
	p.Process("Map email to email_address")

	res := p.Process("Set the transformation for email to value_normalization")
	require.True(t, res.Success, res.Message)
	require.Len(t, res.AppliedChanges, 1)
	assert.Equal(t, model.ChangeModified, res.AppliedChanges[0].Type)
	assert.Equal(t, model.TransformNormalization, p.Store().Export()[0].TransformationType)
}

func TestProcess_SetConfidence(t *testing.T) {
	p := newTestProcessor()
	p.Process("Map email to email_address")

	res := p.Process("Set the confidence for email to 90%")
	require.True(t, res.Success, res.Message)
	assert.Contains(t, res.AppliedChanges[0].Details, "90%")
	assert.InDelta(t, 0.9, p.Store().Export()[0].Confidence, 1e-9)
}

func TestProcess_MultiCommand(t *testing.T) {
	p := newTestProcessor()

	res := p.Process("Map id to user_id, map email to email_address")
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "2/2 changes applied.", res.Message)
	assert.Len(t, res.AppliedChanges, 2)
	assert.Len(t, p.Store().Export(), 2)
}

func TestProcess_MultiCommandPartial(t *testing.T) {
	p := newTestProcessor()

	res := p.Process("Map id to user_id and frobnicate the widget")
	require.True(t, res.Success, res.Message)
	assert.Equal(t, "1/2 changes applied.", res.Message)
	assert.Len(t, p.Store().Export(), 1)
}

func TestProcess_BulkMap(t *testing.T) {
	p := newTestProcessor()

	res := p.Process("Map all fields automatically")
	require.True(t, res.Success, res.Message)
	// "id"→"user_id" (containment), "name"→"full_name" (containment),
	// "email"→"email_address" (containment) all clear the 0.6 bar.
	assert.Len(t, res.AppliedChanges, 3)

	exported := p.Store().Export()
	require.Len(t, exported, 3)
	for _, m := range exported {
		assert.Equal(t, model.TransformDirect, m.TransformationType)
		assert.Greater(t, m.Confidence, 0.6)
		assert.Equal(t, "Map all fields automatically", m.UserCommand)
	}

	// Already-mapped fields are skipped on a second pass.
	res = p.Process("Map all fields automatically")
	assert.False(t, res.Success)
}

func TestProcess_BulkMapHonorsLimit(t *testing.T) {
	store := mapping.New()
	vocab := model.Vocabulary{
		SourceFields: []string{"f1", "f2", "f3", "f4", "f5", "f6", "f7"},
		TargetFields: []string{"f1", "f2", "f3", "f4", "f5", "f6", "f7"},
	}
	cfg := DefaultConfig()
	p := New(store, vocab, cfg)

	res := p.Process("map all the things")
	require.True(t, res.Success)
	assert.Len(t, res.AppliedChanges, cfg.BulkMapLimit)
}

func TestProcess_BulkClear(t *testing.T) {
	p := newTestProcessor()
	p.Process("Map id to user_id")
	p.Process("Map email to email_address")
	require.Len(t, p.Store().Export(), 2)

	res := p.Process("Delete all mappings")
	require.True(t, res.Success, res.Message)
	assert.Len(t, res.AppliedChanges, 2)
	assert.Empty(t, p.Store().Export())

	for _, c := range res.AppliedChanges {
		assert.Equal(t, model.ChangeDeleted, c.Type)
	}
}

func TestProcess_BulkClearVerbClear(t *testing.T) {
	p := newTestProcessor()
	p.Process("Map id to user_id")

	res := p.Process("clear everything")
	require.True(t, res.Success, res.Message)
	assert.Len(t, res.AppliedChanges, 1)
	assert.Empty(t, p.Store().Export())
}

func TestProcess_SimilarFieldsClarification(t *testing.T) {
	store := mapping.New()
	vocab := model.Vocabulary{
		SourceFields: []string{"email", "email_home", "email_work", "zip"},
		TargetFields: []string{"contact"},
	}
	p := New(store, vocab, DefaultConfig())

	res := p.Process("what about fields similar to email?")
	assert.False(t, res.Success)
	assert.True(t, res.NeedsClarification)
	assert.Contains(t, res.ClarificationQuestion, "email_home")
	assert.Contains(t, res.ClarificationQuestion, "email_work")
	assert.NotContains(t, res.ClarificationQuestion, "zip")
	assert.Zero(t, p.Store().Len(), "clarifications never mutate")
}

func TestProcess_DetectedFieldsClarification(t *testing.T) {
	p := newTestProcessor()

	res := p.Process("the id column should probably become user_id I think")
	assert.False(t, res.Success)
	assert.True(t, res.NeedsClarification)
	assert.Contains(t, res.ClarificationQuestion, "id")
	assert.Contains(t, res.ClarificationQuestion, "user_id")
	assert.Contains(t, res.Suggestions, "map id to user_id")
}

func TestProcess_Unintelligible(t *testing.T) {
	p := newTestProcessor()
	res := p.Process("purple monkey dishwasher")
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Suggestions)
}

func TestProcess_NeverPanics(t *testing.T) {
	p := newTestProcessor()
	for _, text := range []string{"", "   ", "map", "map , and then also"} {
		assert.NotPanics(t, func() { p.Process(text) }, text)
	}
}

func TestProcess_SingleFlightQueue(t *testing.T) {
	p := newTestProcessor()

	// Simulate an in-flight instruction.
	p.mu.Lock()
	p.busy = true
	p.mu.Unlock()

	res := p.Process("Map id to user_id")
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "please wait")
	assert.Empty(t, p.Store().Export(), "queued instruction has not run yet")

	// The in-flight instruction completes; drain retries the queued one.
	p.drain()

	select {
	case queued := <-p.Results():
		assert.True(t, queued.Success, queued.Message)
	case <-time.After(2 * time.Second):
		t.Fatal("queued instruction result never arrived")
	}
	assert.Len(t, p.Store().Export(), 1)
}

func TestProcess_QueueOverflow(t *testing.T) {
	p := New(mapping.New(), model.Vocabulary{}, Config{QueueSize: 1})

	p.mu.Lock()
	p.busy = true
	p.pending = []string{"queued"}
	p.mu.Unlock()

	res := p.Process("one more")
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "Too many pending")
}
