package source

import (
	"errors"
	"log/slog"
	"sync"

	"argus-hq/argus/pkg/policy/engine"
)

// Syncer keeps a policy engine in sync with a directory of policy files.
// Each Sync loads the directory, installs every document that parses and
// validates, and unloads documents whose files have disappeared.
type Syncer struct {
	loader *Loader
	engine *engine.Engine
	logger *slog.Logger

	// mu guards loaded, mapping installed document names to the file each
	// was last loaded from.
	mu     sync.Mutex
	loaded map[string]string
}

// NewSyncer creates a syncer binding a loader to an engine.
func NewSyncer(loader *Loader, eng *engine.Engine, logger *slog.Logger) *Syncer {
	if loader == nil {
		loader = NewLoader(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		loader: loader,
		engine: eng,
		logger: logger.With("component", "policy.source"),
		loaded: make(map[string]string),
	}
}

// Sync loads dir into the engine. Documents that fail to load or install are
// reported through the returned *ErrorList but do not block the rest; a
// previously installed version of a failing document stays active.
func (s *Syncer) Sync(dir string) error {
	docs, loadErr := s.loader.LoadDirectory(dir)

	errList := &ErrorList{}
	if loadErr != nil {
		if el, ok := loadErr.(*ErrorList); ok {
			errList.Errors = append(errList.Errors, el.Errors...)
		} else {
			return loadErr
		}
	}

	// Paths that failed this round. Documents last loaded from one of them
	// must not be unloaded: the file is still there, only its current
	// content is broken, and the installed version keeps serving.
	failedPaths := make(map[string]bool)
	for _, err := range errList.Errors {
		var le *LoadError
		if errors.As(err, &le) {
			failedPaths[le.FilePath] = true
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool, len(docs))
	for _, doc := range docs {
		if err := s.engine.Load(doc); err != nil {
			s.logger.Warn("policy document rejected",
				"document", doc.Name,
				"error", err,
			)
			errList.Add(err)
			// The file is present; any installed version stays active.
			seen[doc.Name] = true
			continue
		}
		seen[doc.Name] = true
		s.loaded[doc.Name] = doc.Source
	}

	// Unload only documents whose files are actually gone.
	for name, path := range s.loaded {
		if seen[name] || failedPaths[path] {
			continue
		}
		if err := s.engine.Unload(name); err != nil {
			errList.Add(err)
		}
		delete(s.loaded, name)
		s.logger.Info("policy document unloaded", "document", name)
	}

	s.logger.Info("policy directory synced",
		"dir", dir,
		"documents", len(seen),
		"errors", len(errList.Errors),
	)

	if !errList.Empty() {
		return errList
	}
	return nil
}
