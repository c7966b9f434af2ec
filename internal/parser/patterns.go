package parser

import (
	"regexp"
	"strings"

	"github.com/sells-group/mapper-cli/internal/model"
)

// rawCommand holds the raw tokens a structural pattern extracted from an
// instruction, before field names are resolved against the vocabulary.
type rawCommand struct {
	typ            model.CommandType
	source         string
	target         string
	transformation string
	confidence     string
}

// pattern recognizes one instruction shape. Patterns are tried in table
// order and the first structural match wins, even when a later pattern
// would also match.
type pattern struct {
	name    string
	re      *regexp.Regexp
	extract func(groups []string) rawCommand
}

// patterns is the ordered dispatch table. Keep new shapes at the bottom
// unless they must shadow an existing one; reordering changes behavior.
var patterns = []pattern{
	{
		name: "create/map",
		re:   regexp.MustCompile(`(?i)^map\s+(.+?)\s+to\s+(.+)$`),
		extract: func(g []string) rawCommand {
			return rawCommand{typ: model.CommandCreate, source: g[1], target: g[2]}
		},
	},
	{
		name: "create/create-mapping",
		re:   regexp.MustCompile(`(?i)^create\s+(?:a\s+)?mapping\s+(?:from\s+)?(.+?)\s+to\s+(.+)$`),
		extract: func(g []string) rawCommand {
			return rawCommand{typ: model.CommandCreate, source: g[1], target: g[2]}
		},
	},
	{
		name: "create/connect",
		re:   regexp.MustCompile(`(?i)^connect\s+(.+?)\s+(?:with|to)\s+(.+)$`),
		extract: func(g []string) rawCommand {
			return rawCommand{typ: model.CommandCreate, source: g[1], target: g[2]}
		},
	},
	{
		name: "update",
		re:   regexp.MustCompile(`(?i)^(?:update|change|modify)\s+(?:the\s+)?mapping\s+(?:for\s+)?(.+?)\s+to\s+(.+)$`),
		extract: func(g []string) rawCommand {
			return rawCommand{typ: model.CommandUpdate, source: g[1], target: g[2]}
		},
	},
	{
		name: "delete",
		re:   regexp.MustCompile(`(?i)^(?:delete|remove|unmap)\s+(?:the\s+)?mapping\s+(?:for\s+)?(.+)$`),
		extract: func(g []string) rawCommand {
			return rawCommand{typ: model.CommandDelete, source: g[1]}
		},
	},
	{
		name: "modify-transformation",
		re:   regexp.MustCompile(`(?i)^(?:set|change)\s+(?:the\s+)?transformation\s+(?:type\s+)?(?:for\s+)?(.+?)\s+to\s+([a-z_ ]+)$`),
		extract: func(g []string) rawCommand {
			return rawCommand{typ: model.CommandModifyTransformation, source: g[1], transformation: g[2]}
		},
	},
	{
		name: "set-confidence",
		re:   regexp.MustCompile(`(?i)^(?:set|change)\s+(?:the\s+)?confidence\s+(?:for\s+)?(.+?)\s+to\s+([0-9]*\.?[0-9]+\s*%?)$`),
		extract: func(g []string) rawCommand {
			return rawCommand{typ: model.CommandSetConfidence, source: g[1], confidence: g[2]}
		},
	},
}

// matchPattern runs the instruction through the dispatch table.
func matchPattern(text string) (rawCommand, bool) {
	for _, p := range patterns {
		if g := p.re.FindStringSubmatch(text); g != nil {
			raw := p.extract(g)
			raw.source = strings.TrimSpace(raw.source)
			raw.target = strings.TrimSpace(raw.target)
			raw.transformation = strings.TrimSpace(raw.transformation)
			raw.confidence = strings.TrimSpace(raw.confidence)
			return raw, true
		}
	}
	return rawCommand{}, false
}
