package processor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/mapper-cli/internal/model"
	"github.com/sells-group/mapper-cli/internal/parser"
)

// execute applies one resolved command to the store. Every successful
// execution records exactly one change entry. Re-applying an instruction the
// store already reflects is reported as success with no structural change.
func (p *Processor) execute(cmd model.MappingCommand) model.ProcessingResult {
	switch cmd.Type {
	case model.CommandCreate:
		return p.executeCreate(cmd)
	case model.CommandUpdate:
		return p.executeUpdate(cmd)
	case model.CommandDelete:
		return p.executeDelete(cmd)
	case model.CommandModifyTransformation:
		return p.executeModifyTransformation(cmd)
	case model.CommandSetConfidence:
		return p.executeSetConfidence(cmd)
	default:
		return model.ProcessingResult{
			Success:     false,
			Message:     "I couldn't work out a concrete action from that instruction.",
			Suggestions: parser.UsageExamples,
		}
	}
}

// executeCreate creates a mapping, or redirects the existing one for the
// same source field: the old target is replaced, not merged.
func (p *Processor) executeCreate(cmd model.MappingCommand) model.ProcessingResult {
	if existing := p.store.ActiveBySource(cmd.SourceField); existing != nil {
		oldTarget := existing.TargetField
		if err := p.store.Update(existing.ID, model.MappingPatch{
			TargetField: model.Ptr(cmd.TargetField),
			UserCommand: model.Ptr(cmd.OriginalCommand),
		}); err != nil {
			return failed(err)
		}

		details := fmt.Sprintf("Redirected %s from %s to %s.", cmd.SourceField, oldTarget, cmd.TargetField)
		if oldTarget == cmd.TargetField {
			details = fmt.Sprintf("Mapping %s → %s already existed; left unchanged.", cmd.SourceField, cmd.TargetField)
		}
		return model.ProcessingResult{
			Success: true,
			Message: fmt.Sprintf("Updated mapping: %s → %s.", cmd.SourceField, cmd.TargetField),
			AppliedChanges: []model.MappingChange{{
				Type:        model.ChangeUpdated,
				SourceField: cmd.SourceField,
				TargetField: cmd.TargetField,
				Details:     details,
			}},
		}
	}

	p.store.Add(model.Mapping{
		SourceField:        cmd.SourceField,
		TargetField:        cmd.TargetField,
		TransformationType: model.TransformDirect,
		Confidence:         0.85,
		Reasoning:          "Created from user instruction.",
		Status:             model.StatusActive,
		UserModified:       true,
		UserCommand:        cmd.OriginalCommand,
	})
	zap.L().Debug("processor: mapping created",
		zap.String("source", cmd.SourceField),
		zap.String("target", cmd.TargetField),
	)
	return model.ProcessingResult{
		Success: true,
		Message: fmt.Sprintf("Created mapping: %s → %s.", cmd.SourceField, cmd.TargetField),
		AppliedChanges: []model.MappingChange{{
			Type:        model.ChangeCreated,
			SourceField: cmd.SourceField,
			TargetField: cmd.TargetField,
			Details:     fmt.Sprintf("Created %s → %s (direct mapping).", cmd.SourceField, cmd.TargetField),
		}},
	}
}

// executeUpdate redirects an existing mapping. Unlike create it does not
// fall back to creating one: the user asked to change something that should
// already exist.
func (p *Processor) executeUpdate(cmd model.MappingCommand) model.ProcessingResult {
	existing := p.store.ActiveBySource(cmd.SourceField)
	if existing == nil {
		return p.noMappingFor(cmd.SourceField)
	}
	if err := p.store.Update(existing.ID, model.MappingPatch{
		TargetField: model.Ptr(cmd.TargetField),
		UserCommand: model.Ptr(cmd.OriginalCommand),
	}); err != nil {
		return failed(err)
	}
	return model.ProcessingResult{
		Success: true,
		Message: fmt.Sprintf("Updated mapping: %s → %s.", cmd.SourceField, cmd.TargetField),
		AppliedChanges: []model.MappingChange{{
			Type:        model.ChangeUpdated,
			SourceField: cmd.SourceField,
			TargetField: cmd.TargetField,
			Details:     fmt.Sprintf("Redirected %s from %s to %s.", cmd.SourceField, existing.TargetField, cmd.TargetField),
		}},
	}
}

func (p *Processor) executeDelete(cmd model.MappingCommand) model.ProcessingResult {
	existing := p.store.ActiveBySource(cmd.SourceField)
	if existing == nil {
		return p.noMappingFor(cmd.SourceField)
	}
	if err := p.store.Remove(existing.ID); err != nil {
		return failed(err)
	}
	return model.ProcessingResult{
		Success: true,
		Message: fmt.Sprintf("Removed mapping for %s.", cmd.SourceField),
		AppliedChanges: []model.MappingChange{{
			Type:        model.ChangeDeleted,
			SourceField: cmd.SourceField,
			TargetField: existing.TargetField,
			Details:     fmt.Sprintf("Removed %s → %s.", cmd.SourceField, existing.TargetField),
		}},
	}
}

func (p *Processor) executeModifyTransformation(cmd model.MappingCommand) model.ProcessingResult {
	if !model.ValidTransformationType(cmd.TransformationType) {
		return model.ProcessingResult{
			Success:     false,
			Message:     fmt.Sprintf("%q is not a transformation type I know.", string(cmd.TransformationType)),
			Suggestions: transformationNames(),
		}
	}
	existing := p.store.ActiveBySource(cmd.SourceField)
	if existing == nil {
		return p.noMappingFor(cmd.SourceField)
	}
	if err := p.store.Update(existing.ID, model.MappingPatch{
		TransformationType: model.Ptr(cmd.TransformationType),
		UserCommand:        model.Ptr(cmd.OriginalCommand),
	}); err != nil {
		return failed(err)
	}
	return model.ProcessingResult{
		Success: true,
		Message: fmt.Sprintf("Transformation for %s set to %s.", cmd.SourceField, cmd.TransformationType),
		AppliedChanges: []model.MappingChange{{
			Type:        model.ChangeModified,
			SourceField: cmd.SourceField,
			TargetField: existing.TargetField,
			Details:     fmt.Sprintf("Transformation type changed to %s.", cmd.TransformationType),
		}},
	}
}

func (p *Processor) executeSetConfidence(cmd model.MappingCommand) model.ProcessingResult {
	if cmd.Confidence == nil {
		return model.ProcessingResult{
			Success: false,
			Message: "I couldn't read a confidence value from that instruction. Use a 0-1 decimal or a percentage.",
		}
	}
	existing := p.store.ActiveBySource(cmd.SourceField)
	if existing == nil {
		return p.noMappingFor(cmd.SourceField)
	}
	if err := p.store.Update(existing.ID, model.MappingPatch{
		Confidence:  cmd.Confidence,
		UserCommand: model.Ptr(cmd.OriginalCommand),
	}); err != nil {
		return failed(err)
	}
	pct := int(*cmd.Confidence*100 + 0.5)
	return model.ProcessingResult{
		Success: true,
		Message: fmt.Sprintf("Confidence for %s set to %d%%.", cmd.SourceField, pct),
		AppliedChanges: []model.MappingChange{{
			Type:        model.ChangeModified,
			SourceField: cmd.SourceField,
			TargetField: existing.TargetField,
			Details:     fmt.Sprintf("Confidence set to %d%%.", pct),
		}},
	}
}

// noMappingFor builds the failure result for commands that target a source
// field with no active mapping, suggesting the fields that do have one.
func (p *Processor) noMappingFor(sourceField string) model.ProcessingResult {
	var known []string
	for _, m := range p.store.Export() {
		known = append(known, m.SourceField)
	}
	return model.ProcessingResult{
		Success:     false,
		Message:     fmt.Sprintf("No active mapping found for field %q.", sourceField),
		Suggestions: known,
	}
}

func failed(err error) model.ProcessingResult {
	return model.ProcessingResult{Success: false, Message: err.Error()}
}

func transformationNames() []string {
	out := make([]string, 0, len(model.TransformationTypes))
	for _, t := range model.TransformationTypes {
		out = append(out, string(t))
	}
	return out
}
