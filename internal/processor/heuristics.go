package processor

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/mapper-cli/internal/model"
	"github.com/sells-group/mapper-cli/internal/parser"
	"github.com/sells-group/mapper-cli/internal/similarity"
)

var (
	// "map" must match as a whole word so "delete all mappings" doesn't
	// read as a bulk-map request.
	reAllWord     = regexp.MustCompile(`(?i)\ball\b`)
	reMapWord     = regexp.MustCompile(`(?i)\bmap\b`)
	reSimilarWord = regexp.MustCompile(`(?i)\b(?:similar|like)\b`)
	reClearWord   = regexp.MustCompile(`(?i)\b(?:delete|remove|clear)\b`)
)

// applyHeuristics handles instructions that neither a direct parse nor
// multi-command extraction could resolve. Heuristics run in priority order;
// the first applicable one decides the outcome.
func (p *Processor) applyHeuristics(text string, parsed parser.Result) model.ProcessingResult {
	if reAllWord.MatchString(text) && reMapWord.MatchString(text) {
		return p.AutoMap(text)
	}

	if reSimilarWord.MatchString(text) {
		if res, ok := p.similarFields(text); ok {
			return res
		}
	}

	if reClearWord.MatchString(text) {
		return p.clearAll()
	}

	if res, ok := p.detectedFields(text); ok {
		return res
	}

	res := model.ProcessingResult{
		Success:     false,
		Message:     "I couldn't understand that instruction.",
		Suggestions: parser.UsageExamples,
	}
	// Keep any did-you-mean hints the parser collected on the way here.
	res.Suggestions = append(res.Suggestions, parsed.Suggestions...)
	return res
}

// AutoMap bulk-maps unmapped source fields to their best-scoring target
// fields. At most BulkMapLimit unmapped fields are considered per call, and
// only matches above the similarity threshold create mappings.
func (p *Processor) AutoMap(instruction string) model.ProcessingResult {
	var changes []model.MappingChange
	considered := 0

	for _, src := range p.vocab.SourceFields {
		if considered >= p.cfg.BulkMapLimit {
			break
		}
		if p.store.ActiveBySource(src) != nil {
			continue
		}
		considered++

		target, score := similarity.BestMatch(src, p.vocab.TargetFields)
		if score <= p.cfg.SimilarityThreshold {
			continue
		}

		p.store.Add(model.Mapping{
			SourceField:        src,
			TargetField:        target,
			TransformationType: model.TransformDirect,
			Confidence:         score,
			Reasoning:          fmt.Sprintf("Auto-mapped by field-name similarity (%.2f).", score),
			Status:             model.StatusActive,
			UserModified:       true,
			UserCommand:        instruction,
		})
		changes = append(changes, model.MappingChange{
			Type:        model.ChangeCreated,
			SourceField: src,
			TargetField: target,
			Details:     fmt.Sprintf("Auto-mapped %s → %s (similarity %.2f).", src, target, score),
		})
	}

	if len(changes) == 0 {
		return model.ProcessingResult{
			Success: false,
			Message: "No unmapped source fields matched a target field closely enough to map automatically.",
		}
	}

	zap.L().Info("processor: bulk mapping applied", zap.Int("created", len(changes)))
	return model.ProcessingResult{
		Success:        true,
		Message:        fmt.Sprintf("Automatically mapped %d field(s).", len(changes)),
		AppliedChanges: changes,
	}
}

// similarFields finds the first source field mentioned in the instruction
// and proposes the other source fields similar to it. It never mutates
// state; the proposal comes back as a clarification.
func (p *Processor) similarFields(text string) (model.ProcessingResult, bool) {
	mentioned := fieldsIn(text, p.vocab.SourceFields)
	if len(mentioned) == 0 {
		return model.ProcessingResult{}, false
	}
	ref := mentioned[0]

	var similar []string
	for _, f := range p.vocab.SourceFields {
		if f == ref {
			continue
		}
		if similarity.Score(ref, f) > p.cfg.SimilarityThreshold {
			similar = append(similar, f)
		}
	}

	if len(similar) == 0 {
		return model.ProcessingResult{
			Success: false,
			Message: fmt.Sprintf("No other source fields look similar to %q.", ref),
		}, true
	}
	return model.ProcessingResult{
		Success:            false,
		NeedsClarification: true,
		ClarificationQuestion: fmt.Sprintf(
			"Fields similar to %q: %s. Should these be mapped the same way?",
			ref, strings.Join(similar, ", ")),
	}, true
}

// clearAll removes every active mapping and reports one deleted change per
// mapping removed.
func (p *Processor) clearAll() model.ProcessingResult {
	active := p.store.Export()
	if len(active) == 0 {
		return model.ProcessingResult{
			Success: false,
			Message: "There are no active mappings to remove.",
		}
	}

	var changes []model.MappingChange
	for _, m := range active {
		if err := p.store.Remove(m.ID); err != nil {
			zap.L().Warn("processor: bulk clear skipped mapping",
				zap.String("id", m.ID),
				zap.Error(err),
			)
			continue
		}
		changes = append(changes, model.MappingChange{
			Type:        model.ChangeDeleted,
			SourceField: m.SourceField,
			TargetField: m.TargetField,
			Details:     fmt.Sprintf("Removed %s → %s.", m.SourceField, m.TargetField),
		})
	}
	return model.ProcessingResult{
		Success:        true,
		Message:        fmt.Sprintf("Removed %d mapping(s).", len(changes)),
		AppliedChanges: changes,
	}
}

// detectedFields asks for confirmation when the instruction mentions both a
// source-side and a target-side field but no recognizable verb.
func (p *Processor) detectedFields(text string) (model.ProcessingResult, bool) {
	sources := fieldsIn(text, p.vocab.SourceFields)
	targets := fieldsIn(text, p.vocab.TargetFields)
	if len(sources) == 0 || len(targets) == 0 {
		return model.ProcessingResult{}, false
	}

	return model.ProcessingResult{
		Success:            false,
		NeedsClarification: true,
		ClarificationQuestion: fmt.Sprintf(
			"Do you want to map %s to %s?",
			strings.Join(sources, ", "), strings.Join(targets, ", ")),
		Suggestions: []string{
			fmt.Sprintf("map %s to %s", sources[0], targets[0]),
		},
	}, true
}
