// Package source loads policy documents from the file system and keeps a
// running engine in sync with them.
//
// The Loader reads single files or whole directory trees of YAML documents,
// validating size and encoding before parsing. The FileWatcher layers hot
// reload on top: it watches the policy path with fsnotify, debounces bursts
// of events, and re-syncs the engine after each quiet period. A document that
// fails to parse or validate is reported and skipped; the previously loaded
// version stays active.
package source
