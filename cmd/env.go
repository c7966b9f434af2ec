package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/mapper-cli/internal/mapping"
	"github.com/sells-group/mapper-cli/internal/model"
	"github.com/sells-group/mapper-cli/internal/processor"
	"github.com/sells-group/mapper-cli/internal/store"
	"github.com/sells-group/mapper-cli/internal/vocab"
)

// mapperEnv holds the snapshot store, the loaded session, and the
// instruction processor used by the apply/automap/serve commands.
type mapperEnv struct {
	Snapshots store.Store
	Session   *store.Session
	Proc      *processor.Processor
}

// Close releases resources held by the environment.
func (e *mapperEnv) Close() {
	if e.Snapshots != nil {
		_ = e.Snapshots.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "mapper.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "memory":
		return store.NewMemory(), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEnv opens the snapshot store and loads or creates a session.
// When sessionID is set the session is loaded from the store and the
// fields file is ignored; otherwise fieldsPath must name a vocabulary
// file and a fresh session is created. Callers should defer env.Close().
func initEnv(ctx context.Context, sessionID, fieldsPath, sessionName string) (*mapperEnv, error) {
	snapshots, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := snapshots.Migrate(ctx); err != nil {
		snapshots.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	env := &mapperEnv{Snapshots: snapshots}

	var sess *store.Session
	switch {
	case sessionID != "":
		sess, err = snapshots.GetSession(ctx, sessionID)
		if err != nil {
			env.Close()
			return nil, eris.Wrapf(err, "load session %s", sessionID)
		}
		zap.L().Info("session loaded",
			zap.String("session_id", sess.ID),
			zap.Int("mappings", len(sess.Mappings)),
		)
	case fieldsPath != "":
		v, err := vocab.LoadFile(fieldsPath)
		if err != nil {
			env.Close()
			return nil, err
		}
		sess = &store.Session{
			Name:         sessionName,
			SourceFields: v.SourceFields,
			TargetFields: v.TargetFields,
		}
	default:
		env.Close()
		return nil, eris.New("either --session or --fields is required")
	}
	env.Session = sess

	ms := mapping.New()
	ms.Restore(sess.ID, sess.Mappings, sess.Conflicts)

	env.Proc = processor.New(ms, model.Vocabulary{
		SourceFields: sess.SourceFields,
		TargetFields: sess.TargetFields,
	}, processor.Config{
		SimilarityThreshold: cfg.Mapping.SimilarityThreshold,
		BulkMapLimit:        cfg.Mapping.BulkMapLimit,
		QueueSize:           cfg.Mapping.QueueSize,
	})

	return env, nil
}

// save writes the current mapping state back to the snapshot store.
func (e *mapperEnv) save(ctx context.Context) error {
	ms := e.Proc.Store()
	e.Session.Mappings = ms.Mappings()
	e.Session.Conflicts = ms.Conflicts()
	if err := e.Snapshots.SaveSession(ctx, e.Session); err != nil {
		return err
	}
	zap.L().Info("session saved",
		zap.String("session_id", e.Session.ID),
		zap.Int("mappings", len(e.Session.Mappings)),
		zap.Int("conflicts", len(e.Session.Conflicts)),
	)
	return nil
}
