// Package parser turns free-text mapping instructions into structured
// commands. Parsing is a pure read over the field vocabularies: malformed
// input degrades confidence, it never errors.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sells-group/mapper-cli/internal/model"
	"github.com/sells-group/mapper-cli/internal/similarity"
)

// maxFieldSuggestions caps the did-you-mean list per unresolved field.
const maxFieldSuggestions = 3

// UsageExamples are canonical instruction shapes, surfaced whenever the
// parser cannot make sense of an instruction.
var UsageExamples = []string{
	`map customer_id to user_id`,
	`update the mapping for email to email_address`,
	`delete the mapping for phone`,
	`set the transformation for amount to data_type_conversion`,
	`set the confidence for customer_id to 90%`,
}

// Result is the outcome of parsing a single instruction.
type Result struct {
	// Command is nil when nothing in the instruction was recognizable.
	Command     *model.MappingCommand
	Confidence  float64
	Ambiguities []string
	Suggestions []string
}

// Parse matches text against the structural pattern table and resolves the
// extracted field tokens against the vocabulary. Confidence is 0.9 for a
// clean parse, 0.6 when a field token could not be resolved exactly, 0.3 for
// an unrecognized instruction that still mentions a known field, and 0 when
// nothing matched.
func Parse(text string, vocab model.Vocabulary) Result {
	instruction := strings.TrimSpace(text)
	instruction = strings.TrimRight(instruction, ".!?")

	raw, ok := matchPattern(instruction)
	if !ok {
		return fallback(text, instruction, vocab)
	}

	res := Result{
		Command: &model.MappingCommand{
			Type:            raw.typ,
			OriginalCommand: text,
		},
	}

	res.Command.SourceField = resolveField(raw.source, vocab.SourceFields, "source", &res)

	switch raw.typ {
	case model.CommandCreate, model.CommandUpdate:
		res.Command.TargetField = resolveField(raw.target, vocab.TargetFields, "target", &res)

	case model.CommandModifyTransformation:
		res.Command.TransformationType = resolveTransformation(raw.transformation, &res)

	case model.CommandSetConfidence:
		if conf, ok := parseConfidence(raw.confidence); ok {
			res.Command.Confidence = &conf
		} else {
			res.Ambiguities = append(res.Ambiguities,
				fmt.Sprintf("could not read %q as a confidence value", raw.confidence))
		}
	}

	if len(res.Ambiguities) == 0 {
		res.Confidence = 0.9
	} else {
		res.Confidence = 0.6
	}
	return res
}

// resolveField maps a raw token to its canonical vocabulary spelling.
// On an exact case-insensitive hit the canonical spelling is returned.
// Otherwise the token is kept as-is and up to three close candidates
// (containment or edit distance <= 2) are recorded as suggestions.
func resolveField(token string, candidates []string, side string, res *Result) string {
	if token == "" {
		return ""
	}
	for _, c := range candidates {
		if strings.EqualFold(token, c) {
			return c
		}
	}

	var close []string
	for _, c := range candidates {
		if len(close) >= maxFieldSuggestions {
			break
		}
		nt, nc := similarity.Normalize(token), similarity.Normalize(c)
		if nt != "" && nc != "" && (strings.Contains(nc, nt) || strings.Contains(nt, nc)) {
			close = append(close, c)
			continue
		}
		if similarity.EditDistance(token, c) <= 2 {
			close = append(close, c)
		}
	}

	res.Ambiguities = append(res.Ambiguities,
		fmt.Sprintf("unknown %s field %q", side, token))
	res.Suggestions = append(res.Suggestions, close...)
	return token
}

// resolveTransformation normalizes a transformation-type token ("data type
// conversion" and "data_type_conversion" both work) and validates it.
func resolveTransformation(token string, res *Result) model.TransformationType {
	normalized := strings.ToLower(strings.TrimSpace(token))
	normalized = strings.ReplaceAll(normalized, " ", "_")
	tt := model.TransformationType(normalized)
	if model.ValidTransformationType(tt) {
		return tt
	}

	res.Ambiguities = append(res.Ambiguities,
		fmt.Sprintf("unknown transformation type %q", token))
	for _, known := range model.TransformationTypes {
		res.Suggestions = append(res.Suggestions, string(known))
	}
	return tt
}

// parseConfidence accepts 0-1 decimals, 0-100 percentages, and a trailing
// percent sign. Values above 1 are treated as percentages.
func parseConfidence(token string) (float64, bool) {
	token = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(token), "%"))
	v, err := strconv.ParseFloat(token, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	if v > 1 {
		v /= 100
	}
	if v > 1 {
		return 0, false
	}
	return v, true
}

// fallback handles instructions no structural pattern recognized. If a known
// field name is mentioned the result is an "unknown" command at confidence
// 0.3 with usage examples; otherwise there is no command at all.
func fallback(original, instruction string, vocab model.Vocabulary) Result {
	mentioned := mentionedFields(instruction, vocab.SourceFields)
	mentioned = append(mentioned, mentionedFields(instruction, vocab.TargetFields)...)

	if len(mentioned) == 0 {
		return Result{Confidence: 0}
	}

	res := Result{
		Command: &model.MappingCommand{
			Type:            model.CommandUnknown,
			OriginalCommand: original,
		},
		Confidence: 0.3,
	}
	for _, f := range mentioned {
		res.Suggestions = append(res.Suggestions, fmt.Sprintf("detected field: %s", f))
	}
	res.Suggestions = append(res.Suggestions, UsageExamples...)
	return res
}

// mentionedFields returns every field whose name appears verbatim
// (case-insensitive) in the instruction, in vocabulary order.
func mentionedFields(instruction string, fields []string) []string {
	lower := strings.ToLower(instruction)
	var out []string
	for _, f := range fields {
		if f == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(f)) {
			out = append(out, f)
		}
	}
	return out
}
