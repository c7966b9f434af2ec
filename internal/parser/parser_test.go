package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mapper-cli/internal/model"
)

func testVocab() model.Vocabulary {
	return model.Vocabulary{
		SourceFields: []string{"customer_id", "email", "phone", "order_date"},
		TargetFields: []string{"user_id", "email_address", "phone_number", "created_at"},
	}
}

func TestParse_CreateExact(t *testing.T) {
	res := Parse("Map customer_id to user_id", testVocab())
	require.NotNil(t, res.Command)
	assert.Equal(t, model.CommandCreate, res.Command.Type)
	assert.Equal(t, "customer_id", res.Command.SourceField)
	assert.Equal(t, "user_id", res.Command.TargetField)
	assert.Equal(t, 0.9, res.Confidence)
	assert.Empty(t, res.Ambiguities)
	assert.Equal(t, "Map customer_id to user_id", res.Command.OriginalCommand)
}

func TestParse_CreateCanonicalizesSpelling(t *testing.T) {
	res := Parse("map CUSTOMER_ID to User_ID", testVocab())
	require.NotNil(t, res.Command)
	assert.Equal(t, "customer_id", res.Command.SourceField)
	assert.Equal(t, "user_id", res.Command.TargetField)
	assert.Equal(t, 0.9, res.Confidence)
}

func TestParse_CreateVariants(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"create mapping from", "create a mapping from customer_id to user_id"},
		{"create mapping", "create mapping customer_id to user_id"},
		{"connect with", "connect customer_id with user_id"},
		{"connect to", "connect customer_id to user_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse(tt.text, testVocab())
			require.NotNil(t, res.Command)
			assert.Equal(t, model.CommandCreate, res.Command.Type)
			assert.Equal(t, "customer_id", res.Command.SourceField)
			assert.Equal(t, "user_id", res.Command.TargetField)
			assert.Equal(t, 0.9, res.Confidence)
		})
	}
}

func TestParse_MisspelledSourceField(t *testing.T) {
	res := Parse("Map custmer_id to user_id", testVocab())
	require.NotNil(t, res.Command)
	assert.Equal(t, model.CommandCreate, res.Command.Type)
	assert.Equal(t, 0.6, res.Confidence)
	assert.NotEmpty(t, res.Ambiguities)
	assert.Contains(t, res.Suggestions, "customer_id")
	// The unresolved token is preserved for error reporting downstream.
	assert.Equal(t, "custmer_id", res.Command.SourceField)
}

func TestParse_Update(t *testing.T) {
	res := Parse("update the mapping for email to email_address", testVocab())
	require.NotNil(t, res.Command)
	assert.Equal(t, model.CommandUpdate, res.Command.Type)
	assert.Equal(t, "email", res.Command.SourceField)
	assert.Equal(t, "email_address", res.Command.TargetField)
	assert.Equal(t, 0.9, res.Confidence)
}

func TestParse_Delete(t *testing.T) {
	for _, text := range []string{
		"delete the mapping for phone",
		"remove mapping for phone",
		"unmap the mapping for phone",
	} {
		res := Parse(text, testVocab())
		require.NotNil(t, res.Command, text)
		assert.Equal(t, model.CommandDelete, res.Command.Type, text)
		assert.Equal(t, "phone", res.Command.SourceField, text)
		assert.Equal(t, 0.9, res.Confidence, text)
	}
}

func TestParse_ModifyTransformation(t *testing.T) {
	res := Parse("set the transformation type for email to data_type_conversion", testVocab())
	require.NotNil(t, res.Command)
	assert.Equal(t, model.CommandModifyTransformation, res.Command.Type)
	assert.Equal(t, "email", res.Command.SourceField)
	assert.Equal(t, model.TransformTypeConversion, res.Command.TransformationType)
	assert.Equal(t, 0.9, res.Confidence)
}

func TestParse_ModifyTransformationSpaced(t *testing.T) {
	res := Parse("change the transformation for email to format standardization", testVocab())
	require.NotNil(t, res.Command)
	assert.Equal(t, model.TransformFormat, res.Command.TransformationType)
	assert.Equal(t, 0.9, res.Confidence)
}

func TestParse_ModifyTransformationUnknownType(t *testing.T) {
	res := Parse("set the transformation for email to frobnication", testVocab())
	require.NotNil(t, res.Command)
	assert.Equal(t, 0.6, res.Confidence)
	assert.NotEmpty(t, res.Ambiguities)
	assert.Contains(t, res.Suggestions, "direct_mapping")
}

func TestParse_SetConfidence(t *testing.T) {
	tests := []struct {
		text string
		want float64
	}{
		{"set the confidence for email to 0.8", 0.8},
		{"set confidence for email to 90%", 0.9},
		{"change the confidence for email to 85", 0.85},
		{"set the confidence for email to 1", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			res := Parse(tt.text, testVocab())
			require.NotNil(t, res.Command)
			assert.Equal(t, model.CommandSetConfidence, res.Command.Type)
			require.NotNil(t, res.Command.Confidence)
			assert.InDelta(t, tt.want, *res.Command.Confidence, 1e-9)
			assert.Equal(t, 0.9, res.Confidence)
		})
	}
}

func TestParse_UnknownWithFieldMention(t *testing.T) {
	res := Parse("please do something clever with customer_id", testVocab())
	require.NotNil(t, res.Command)
	assert.Equal(t, model.CommandUnknown, res.Command.Type)
	assert.Equal(t, 0.3, res.Confidence)
	assert.Contains(t, res.Suggestions, "detected field: customer_id")
	// Usage examples ride along so the caller can show the user what works.
	assert.Contains(t, res.Suggestions, UsageExamples[0])
}

func TestParse_NothingRecognized(t *testing.T) {
	res := Parse("hello there", testVocab())
	assert.Nil(t, res.Command)
	assert.Equal(t, 0.0, res.Confidence)
}

func TestParse_NeverPanics(t *testing.T) {
	for _, text := range []string{"", "map", "map to", "set the confidence for x to banana%", "   "} {
		assert.NotPanics(t, func() { Parse(text, testVocab()) }, text)
	}
}

// Pattern dispatch is strictly ordered: "change the mapping ..." must hit
// the update pattern even though the modify-transformation pattern also
// begins with "change".
func TestParser_PatternOrder(t *testing.T) {
	res := Parse("change the mapping for email to email_address", testVocab())
	require.NotNil(t, res.Command)
	assert.Equal(t, model.CommandUpdate, res.Command.Type)

	// Greedy whole-line match: the first pattern consumes everything after
	// "to", it is not re-split on trailing clauses.
	res = Parse("map customer_id to user_id quickly please", testVocab())
	require.NotNil(t, res.Command)
	assert.Equal(t, model.CommandCreate, res.Command.Type)
	assert.Equal(t, 0.6, res.Confidence, "unresolvable target downgrades confidence")
}

func TestParse_TrailingPunctuation(t *testing.T) {
	res := Parse("Map customer_id to user_id.", testVocab())
	require.NotNil(t, res.Command)
	assert.Equal(t, "user_id", res.Command.TargetField)
	assert.Equal(t, 0.9, res.Confidence)
}
