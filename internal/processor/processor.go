// Package processor orchestrates instruction handling: parse, execute,
// multi-command splitting, and contextual heuristics, applied against the
// mapping store one instruction at a time.
package processor

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/mapper-cli/internal/mapping"
	"github.com/sells-group/mapper-cli/internal/model"
	"github.com/sells-group/mapper-cli/internal/parser"
)

// Config tunes the processor's heuristics and queueing.
type Config struct {
	// SimilarityThreshold gates bulk mapping and similar-field detection.
	SimilarityThreshold float64
	// BulkMapLimit caps how many unmapped source fields one bulk-map
	// instruction considers.
	BulkMapLimit int
	// QueueSize bounds the pending-instruction FIFO.
	QueueSize int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.6,
		BulkMapLimit:        5,
		QueueSize:           16,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SimilarityThreshold <= 0 {
		c.SimilarityThreshold = d.SimilarityThreshold
	}
	if c.BulkMapLimit <= 0 {
		c.BulkMapLimit = d.BulkMapLimit
	}
	if c.QueueSize <= 0 {
		c.QueueSize = d.QueueSize
	}
	return c
}

// Processor applies instructions to a mapping store, at most one in flight.
// An instruction submitted while another is processing is queued and
// rejected immediately with a "please wait" result; it is retried
// automatically when the in-flight instruction completes, and the retry's
// result is delivered on Results.
type Processor struct {
	store *mapping.Store
	vocab model.Vocabulary
	cfg   Config

	mu      sync.Mutex
	busy    bool
	pending []string

	results chan model.ProcessingResult
}

// New creates a Processor bound to a store and field vocabulary.
func New(store *mapping.Store, vocab model.Vocabulary, cfg Config) *Processor {
	cfg = cfg.withDefaults()
	return &Processor{
		store:   store,
		vocab:   vocab,
		cfg:     cfg,
		results: make(chan model.ProcessingResult, cfg.QueueSize),
	}
}

// Store returns the processor's mapping store.
func (p *Processor) Store() *mapping.Store { return p.store }

// Vocabulary returns the field vocabulary the processor resolves against.
func (p *Processor) Vocabulary() model.Vocabulary { return p.vocab }

// Results delivers the outcomes of instructions that were queued while
// another instruction was in flight.
func (p *Processor) Results() <-chan model.ProcessingResult { return p.results }

// Process handles one instruction and returns its outcome. Expected
// failures (unknown field, unrecognized instruction) come back as
// unsuccessful results, never as panics.
func (p *Processor) Process(text string) model.ProcessingResult {
	p.mu.Lock()
	if p.busy {
		if len(p.pending) >= p.cfg.QueueSize {
			p.mu.Unlock()
			return model.ProcessingResult{
				Success: false,
				Message: "Too many pending instructions; try again in a moment.",
			}
		}
		p.pending = append(p.pending, text)
		p.mu.Unlock()
		return model.ProcessingResult{
			Success: false,
			Message: "Another instruction is being processed. Yours is queued and will run automatically, please wait.",
		}
	}
	p.busy = true
	p.mu.Unlock()

	res := p.runSafe(text)
	p.drain()
	return res
}

// drain retries the oldest queued instruction, if any, on its own goroutine.
// Each retry emits its result on the results channel and then drains again,
// so the queue empties in FIFO order without blocking the caller.
func (p *Processor) drain() {
	p.mu.Lock()
	if len(p.pending) == 0 {
		p.busy = false
		p.mu.Unlock()
		return
	}
	next := p.pending[0]
	p.pending = p.pending[1:]
	p.mu.Unlock()

	go func() {
		res := p.runSafe(next)
		select {
		case p.results <- res:
		default:
			zap.L().Warn("processor: dropping queued-instruction result, channel full",
				zap.String("instruction", next),
			)
		}
		p.drain()
	}()
}

// runSafe converts panics from instruction handling into failed results so
// the public surface never throws.
func (p *Processor) runSafe(text string) (res model.ProcessingResult) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("processor: instruction handling panicked",
				zap.String("instruction", text),
				zap.Any("panic", r),
			)
			res = model.ProcessingResult{
				Success: false,
				Message: fmt.Sprintf("Internal error while processing the instruction: %v", r),
			}
		}
	}()
	return p.run(text)
}

var instructionSeparators = regexp.MustCompile(`(?i)\s*,\s*|\s+and\s+|\s+then\s+|\s+also\s+`)

func (p *Processor) run(text string) model.ProcessingResult {
	// Step 1: a confident single-command parse executes directly.
	parsed := parser.Parse(text, p.vocab)
	if parsed.Command != nil && parsed.Confidence > 0.6 {
		return p.execute(*parsed.Command)
	}

	// Step 2: multi-command extraction. Only meaningful when splitting
	// actually produced multiple fragments; a lone fragment already failed
	// the step-1 bar.
	if res, ok := p.processFragments(text); ok {
		return res
	}

	// Step 3: contextual heuristics, in priority order.
	return p.applyHeuristics(text, parsed)
}

// processFragments splits the instruction on command separators and executes
// every fragment that parses above the relaxed multi-command bar.
func (p *Processor) processFragments(text string) (model.ProcessingResult, bool) {
	var fragments []string
	for _, f := range instructionSeparators.Split(text, -1) {
		if f = strings.TrimSpace(f); f != "" {
			fragments = append(fragments, f)
		}
	}
	if len(fragments) < 2 {
		return model.ProcessingResult{}, false
	}

	var (
		combined  model.ProcessingResult
		succeeded int
		attempted int
	)
	for _, frag := range fragments {
		parsed := parser.Parse(frag, p.vocab)
		if parsed.Command == nil || parsed.Confidence <= 0.5 {
			continue
		}
		attempted++
		res := p.execute(*parsed.Command)
		combined.AppliedChanges = append(combined.AppliedChanges, res.AppliedChanges...)
		combined.Suggestions = append(combined.Suggestions, res.Suggestions...)
		if res.Success {
			succeeded++
		}
	}
	if attempted == 0 {
		return model.ProcessingResult{}, false
	}

	combined.Success = succeeded > 0
	combined.Message = fmt.Sprintf("%d/%d changes applied.", succeeded, len(fragments))
	return combined, true
}

// fieldsIn returns each field whose name occurs verbatim (case-insensitive)
// in the instruction, in vocabulary order.
func fieldsIn(text string, fields []string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, f := range fields {
		if f != "" && strings.Contains(lower, strings.ToLower(f)) {
			out = append(out, f)
		}
	}
	return out
}
