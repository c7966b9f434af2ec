package model

import "time"

// TransformationType describes how a source value becomes a target value.
type TransformationType string

const (
	TransformDirect          TransformationType = "direct_mapping"
	TransformTypeConversion  TransformationType = "data_type_conversion"
	TransformFormat          TransformationType = "format_standardization"
	TransformNormalization   TransformationType = "value_normalization"
	TransformCombination     TransformationType = "field_combination"
	TransformSplitting       TransformationType = "field_splitting"
	TransformLookup          TransformationType = "lookup_transformation"
	TransformConditional     TransformationType = "conditional_mapping"
	TransformAggregation     TransformationType = "aggregation"
	TransformFiltering       TransformationType = "filtering"
)

// TransformationTypes lists every valid transformation type in declaration order.
var TransformationTypes = []TransformationType{
	TransformDirect,
	TransformTypeConversion,
	TransformFormat,
	TransformNormalization,
	TransformCombination,
	TransformSplitting,
	TransformLookup,
	TransformConditional,
	TransformAggregation,
	TransformFiltering,
}

// ValidTransformationType reports whether t is a declared transformation type.
func ValidTransformationType(t TransformationType) bool {
	for _, known := range TransformationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// MappingStatus is the lifecycle state of a mapping. Only active mappings
// participate in conflict detection and exports.
type MappingStatus string

const (
	StatusActive   MappingStatus = "active"
	StatusPending  MappingStatus = "pending"
	StatusConflict MappingStatus = "conflict"
	StatusDisabled MappingStatus = "disabled"
)

// Mapping is a single field-to-field rule with transformation metadata.
type Mapping struct {
	ID                  string             `json:"id" yaml:"id"`
	SourceField         string             `json:"source_field" yaml:"source_field"`
	TargetField         string             `json:"target_field" yaml:"target_field"`
	TransformationType  TransformationType `json:"transformation_type" yaml:"transformation_type"`
	Confidence          float64            `json:"confidence" yaml:"confidence"`
	Reasoning           string             `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
	TransformationLogic string             `json:"transformation_logic,omitempty" yaml:"transformation_logic,omitempty"`
	PotentialIssues     []string           `json:"potential_issues,omitempty" yaml:"potential_issues,omitempty"`
	Status              MappingStatus      `json:"status" yaml:"status"`
	UserModified        bool               `json:"user_modified" yaml:"user_modified"`
	UserCommand         string             `json:"user_command,omitempty" yaml:"user_command,omitempty"`
	CreatedAt           time.Time          `json:"created_at" yaml:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at" yaml:"updated_at"`
}

// MappingPatch is a partial update to a Mapping. Nil fields are left unchanged.
type MappingPatch struct {
	SourceField         *string             `json:"source_field,omitempty"`
	TargetField         *string             `json:"target_field,omitempty"`
	TransformationType  *TransformationType `json:"transformation_type,omitempty"`
	Confidence          *float64            `json:"confidence,omitempty"`
	Reasoning           *string             `json:"reasoning,omitempty"`
	TransformationLogic *string             `json:"transformation_logic,omitempty"`
	PotentialIssues     []string            `json:"potential_issues,omitempty"`
	Status              *MappingStatus      `json:"status,omitempty"`
	UserCommand         *string             `json:"user_command,omitempty"`
}

// Apply merges the patch into m.
func (p MappingPatch) Apply(m *Mapping) {
	if p.SourceField != nil {
		m.SourceField = *p.SourceField
	}
	if p.TargetField != nil {
		m.TargetField = *p.TargetField
	}
	if p.TransformationType != nil {
		m.TransformationType = *p.TransformationType
	}
	if p.Confidence != nil {
		m.Confidence = *p.Confidence
	}
	if p.Reasoning != nil {
		m.Reasoning = *p.Reasoning
	}
	if p.TransformationLogic != nil {
		m.TransformationLogic = *p.TransformationLogic
	}
	if p.PotentialIssues != nil {
		m.PotentialIssues = append([]string(nil), p.PotentialIssues...)
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
	if p.UserCommand != nil {
		m.UserCommand = *p.UserCommand
	}
}

// ConflictType classifies a detected inconsistency among active mappings.
type ConflictType string

const (
	ConflictDuplicateSource ConflictType = "duplicate_source"
	ConflictDuplicateTarget ConflictType = "duplicate_target"
	// ConflictCircularReference and ConflictTypeMismatch are declared for the
	// resolve surface and serialized conflicts but no detection pass emits
	// them yet.
	ConflictCircularReference ConflictType = "circular_reference"
	ConflictTypeMismatch      ConflictType = "type_mismatch"
)

// Conflict records a structural inconsistency among active mappings.
// IDs are derived from the conflict type and the offending field so repeated
// validation passes produce stable, de-duplicated conflicts.
type Conflict struct {
	ID                  string       `json:"id" yaml:"id"`
	Type                ConflictType `json:"type" yaml:"type"`
	Description         string       `json:"description" yaml:"description"`
	SuggestedResolution string       `json:"suggested_resolution,omitempty" yaml:"suggested_resolution,omitempty"`
	AffectedMappings    []string     `json:"affected_mappings" yaml:"affected_mappings"`
}

// Vocabulary holds the known source and target field names, order-preserving.
// Field lists come from the host's document-analysis step; they are not
// required to be unique.
type Vocabulary struct {
	SourceFields []string `json:"source_fields" yaml:"source_fields"`
	TargetFields []string `json:"target_fields" yaml:"target_fields"`
}

// Ptr returns a pointer to v. Convenience for building MappingPatch values.
func Ptr[T any](v T) *T { return &v }
