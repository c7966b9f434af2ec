package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mapper-cli/internal/model"
)

// ErrSessionNotFound is returned when a session id does not exist.
var ErrSessionNotFound = eris.New("store: session not found")

// Session is a persisted snapshot of a mapping session: the field
// vocabulary plus the mapping and conflict state at save time.
type Session struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	SourceFields []string        `json:"source_fields"`
	TargetFields []string        `json:"target_fields"`
	Mappings     []model.Mapping `json:"mappings"`
	Conflicts    []model.Conflict `json:"conflicts"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// SessionFilter specifies criteria for listing sessions.
type SessionFilter struct {
	Name   string `json:"name,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for mapping sessions.
type Store interface {
	SaveSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error)
	DeleteSession(ctx context.Context, id string) error

	Migrate(ctx context.Context) error
	Close() error
}
