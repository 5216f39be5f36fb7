// Package filesystem keeps a conversation in step with a local directory.
// Supported files present at start are ingested in name order; afterwards
// created or modified files are re-ingested and deleted files removed.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sanad/internal/core/domain"
	"github.com/custodia-labs/sanad/internal/core/ports/driving"
	"github.com/custodia-labs/sanad/internal/logger"
)

// DefaultDebounce batches the burst of events an editor produces when saving.
const DefaultDebounce = 200 * time.Millisecond

// ErrWatcherClosed is returned by Run after Close.
var ErrWatcherClosed = errors.New("filesystem: watcher is closed")

// ChangeType classifies a file event.
type ChangeType int

// Change types.
const (
	// ChangeUpserted means the file was created or modified.
	ChangeUpserted ChangeType = iota + 1

	// ChangeDeleted means the file was removed or renamed away.
	ChangeDeleted
)

// String returns the change type name.
func (t ChangeType) String() string {
	switch t {
	case ChangeUpserted:
		return "upserted"
	case ChangeDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Change is a file event relevant to the conversation.
type Change struct {
	Type ChangeType
	Path string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long events settle before they are applied.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// Watcher mirrors the supported files of one directory into a
// conversation. Subdirectories are not watched.
type Watcher struct {
	root     string
	conv     driving.Conversation
	debounce time.Duration

	mu     sync.Mutex
	docs   map[string]string // path -> document ID
	closed bool
	done   chan struct{}
}

// New creates a watcher for root feeding conv.
func New(root string, conv driving.Conversation, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		conv:     conv,
		debounce: DefaultDebounce,
		docs:     make(map[string]string),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run ingests the files already in the directory and then applies changes
// until ctx is cancelled or Close is called.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrWatcherClosed
	}

	info, err := os.Stat(w.root)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", w.root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}

	if err := w.Sync(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	logger.Info("Watching %s", w.root)

	pending := make(map[string]Change)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.done:
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if change := w.handleFsEvent(event); change != nil {
				pending[change.Path] = *change
				timer.Reset(w.debounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watch error on %s: %v", w.root, err)
		case <-timer.C:
			w.flush(ctx, pending)
			pending = make(map[string]Change)
		}
	}
}

// Sync ingests every supported file in the directory, in name order.
func (w *Watcher) Sync(ctx context.Context) error {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return fmt.Errorf("reading %s: %w", w.root, err)
	}

	var paths []string
	var uploads []domain.Upload
	for _, entry := range entries {
		path := filepath.Join(w.root, entry.Name())
		if entry.IsDir() || isHidden(entry.Name()) || !supported(path) {
			continue
		}
		upload, err := readUpload(path)
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			continue
		}
		paths = append(paths, path)
		uploads = append(uploads, upload)
	}
	if len(uploads) == 0 {
		return nil
	}

	outcomes := w.conv.ProcessDocuments(ctx, uploads)
	for i, o := range outcomes {
		if o.Err != nil {
			logger.Warn("Skipping %s: %v", paths[i], o.Err)
			continue
		}
		w.record(paths[i], o.Result)
	}
	return ctx.Err()
}

// Documents returns the document ID of every tracked path.
func (w *Watcher) Documents() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]string, len(w.docs))
	for path, id := range w.docs {
		out[path] = id
	}
	return out
}

// Close stops Run. It is idempotent.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.done)
	}
	return nil
}

// handleFsEvent maps an fsnotify event to a change, or nil when the event
// is irrelevant.
func (w *Watcher) handleFsEvent(event fsnotify.Event) *Change {
	if isHidden(filepath.Base(event.Name)) || !supported(event.Name) {
		return nil
	}

	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		return &Change{Type: ChangeDeleted, Path: event.Name}
	case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return nil
		}
		return &Change{Type: ChangeUpserted, Path: event.Name}
	default:
		return nil
	}
}

// flush applies pending changes in path order.
func (w *Watcher) flush(ctx context.Context, pending map[string]Change) {
	paths := make([]string, 0, len(pending))
	for path := range pending {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		if err := w.apply(ctx, pending[path]); err != nil {
			logger.Warn("Applying %s change to %s: %v", pending[path].Type, path, err)
		}
	}
}

// apply brings the conversation in line with one change. A modified file
// replaces its previous document only once the new version has been
// ingested; until then the old version stays searchable.
func (w *Watcher) apply(ctx context.Context, change Change) error {
	if change.Type == ChangeDeleted {
		return w.forget(ctx, change.Path)
	}

	upload, err := readUpload(change.Path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	previous, tracked := w.docs[change.Path]
	w.mu.Unlock()

	var result *domain.IngestResult
	if tracked {
		result, err = w.conv.ReplaceDocument(ctx, previous, upload)
	} else {
		result, err = w.conv.ProcessDocument(ctx, upload)
	}
	if err != nil {
		return err
	}
	w.record(change.Path, result)
	logger.Info("Ingested %s (%d chunks)", change.Path, result.ChunkCount)
	return nil
}

// forget removes the document tracked for path, if any. Documents already
// evicted by the conversation are skipped.
func (w *Watcher) forget(ctx context.Context, path string) error {
	w.mu.Lock()
	id, ok := w.docs[path]
	delete(w.docs, path)
	w.mu.Unlock()
	if !ok {
		return nil
	}
	if err := w.conv.RemoveDocument(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return nil
}

// record tracks the new document and drops paths whose documents the
// conversation evicted to make room.
func (w *Watcher) record(path string, result *domain.IngestResult) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, e := range result.Evicted {
		for p, id := range w.docs {
			if id == e.DocumentID {
				delete(w.docs, p)
			}
		}
	}
	w.docs[path] = result.Document.ID
}

// readUpload reads a file and declares its format from the extension.
func readUpload(path string) (domain.Upload, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.Upload{}, err
	}
	format, err := domain.ParseFormat(filepath.Ext(path))
	if err != nil {
		return domain.Upload{}, err
	}
	return domain.Upload{
		Filename: filepath.Base(path),
		Format:   format,
		Content:  content,
	}, nil
}

// supported reports whether the extension names an ingestible format.
func supported(path string) bool {
	ext := filepath.Ext(path)
	if ext == "" {
		return false
	}
	_, err := domain.ParseFormat(ext)
	return err == nil
}

// isHidden reports whether any path element starts with a dot.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && strings.HasPrefix(part, ".") && part != ".." {
			return true
		}
	}
	return false
}
