package model

// CommandType is the kind of mutation a parsed instruction requests.
type CommandType string

const (
	CommandCreate               CommandType = "create"
	CommandUpdate               CommandType = "update"
	CommandDelete               CommandType = "delete"
	CommandModifyTransformation CommandType = "modify_transformation"
	CommandSetConfidence        CommandType = "set_confidence"
	CommandUnknown              CommandType = "unknown"
)

// MappingCommand is the structured form of a free-text instruction.
// It is ephemeral parser output; the mapping store never holds one.
type MappingCommand struct {
	Type               CommandType        `json:"type"`
	SourceField        string             `json:"source_field,omitempty"`
	TargetField        string             `json:"target_field,omitempty"`
	TransformationType TransformationType `json:"transformation_type,omitempty"`
	Confidence         *float64           `json:"confidence,omitempty"`
	// OriginalCommand preserves the verbatim instruction for audit trails.
	OriginalCommand string `json:"original_command"`
}

// ChangeType labels one applied mutation in a ProcessingResult.
type ChangeType string

const (
	ChangeCreated  ChangeType = "created"
	ChangeUpdated  ChangeType = "updated"
	ChangeDeleted  ChangeType = "deleted"
	ChangeModified ChangeType = "modified"
)

// MappingChange describes a single mutation applied while processing an
// instruction.
type MappingChange struct {
	Type        ChangeType `json:"type"`
	SourceField string     `json:"source_field"`
	TargetField string     `json:"target_field,omitempty"`
	Details     string     `json:"details"`
}

// ProcessingResult is the uniform outcome of processing one instruction.
// Expected failures (unknown field, unrecognized command) surface here, not
// as errors.
type ProcessingResult struct {
	Success               bool            `json:"success"`
	Message               string          `json:"message"`
	AppliedChanges        []MappingChange `json:"applied_changes,omitempty"`
	Suggestions           []string        `json:"suggestions,omitempty"`
	NeedsClarification    bool            `json:"needs_clarification,omitempty"`
	ClarificationQuestion string          `json:"clarification_question,omitempty"`
}
