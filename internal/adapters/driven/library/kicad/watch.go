package kicad

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driven"
	"github.com/custodia-labs/kicad-lcsc/internal/logger"
)

// Ensure Watcher implements the interface.
var _ driven.LibraryWatcher = (*Watcher)(nil)

// Watcher reports changes to a project library made by other programs.
type Watcher struct {
	buffer int
}

// NewWatcher creates a new library watcher.
func NewWatcher() *Watcher {
	return &Watcher{buffer: 64}
}

// watchState tracks the paths one Watch call cares about.
type watchState struct {
	tables map[string]bool
	dirs   []string
}

func newWatchState(project string, layout domain.LibraryLayout) *watchState {
	return &watchState{
		tables: map[string]bool{
			filepath.Join(project, domain.TableSymbol.FileName()):    true,
			filepath.Join(project, domain.TableFootprint.FileName()): true,
		},
		dirs: []string{
			project,
			filepath.Join(project, filepath.FromSlash(layout.Root)),
			filepath.Dir(layout.SymbolPath(project)),
			layout.FootprintPath(project),
			layout.ModelsPath(project),
		},
	}
}

// Watch streams LibraryEvents until ctx is cancelled.
func (w *Watcher) Watch(ctx context.Context, project string, layout domain.LibraryLayout) (<-chan domain.LibraryEvent, error) {
	info, err := os.Stat(project)
	if err != nil {
		return nil, fmt.Errorf("project directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project %s is not a directory: %w", project, domain.ErrInvalidInput)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	state := newWatchState(project, layout)
	for _, dir := range state.dirs {
		if err := fw.Add(dir); err != nil && dir == project {
			_ = fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	events := make(chan domain.LibraryEvent, w.buffer)
	go func() {
		defer close(events)
		defer fw.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if state.isDir(ev.Name) && ev.Has(fsnotify.Create) {
					if err := fw.Add(ev.Name); err != nil {
						logger.Debug("watch %s: %v", ev.Name, err)
					}
					continue
				}
				out, ok := state.handleEvent(ev)
				if !ok {
					continue
				}
				select {
				case events <- out:
				case <-ctx.Done():
					return
				}
			case err, ok := <-fw.Errors:
				if !ok {
					return
				}
				logger.Warn("library watcher: %v", err)
			}
		}
	}()
	return events, nil
}

func (s *watchState) isDir(path string) bool {
	for _, d := range s.dirs {
		if d == path {
			return true
		}
	}
	return false
}

// handleEvent maps a filesystem event to a LibraryEvent. Chmod, hidden
// files and our own temporary files are dropped.
func (s *watchState) handleEvent(ev fsnotify.Event) (domain.LibraryEvent, bool) {
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, tmpSuffix) || strings.HasSuffix(base, backupSuffix) {
		return domain.LibraryEvent{}, false
	}
	if !s.relevant(ev.Name) {
		return domain.LibraryEvent{}, false
	}

	var change domain.LibraryChange
	switch {
	case ev.Has(fsnotify.Create):
		change = domain.LibraryCreated
	case ev.Has(fsnotify.Write):
		change = domain.LibraryUpdated
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		change = domain.LibraryDeleted
	default:
		return domain.LibraryEvent{}, false
	}
	return domain.LibraryEvent{Path: ev.Name, Change: change}, true
}

// relevant reports whether path is a table or lies directly inside one of
// the library directories.
func (s *watchState) relevant(path string) bool {
	if s.tables[path] {
		return true
	}
	dir := filepath.Dir(path)
	for _, d := range s.dirs[2:] {
		if dir == d {
			return true
		}
	}
	return false
}
