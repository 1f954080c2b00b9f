package kicad

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/core/ports/driven"
	"github.com/custodia-labs/kicad-lcsc/internal/logger"
)

const (
	// DefaultLockRetry is the poll interval while another process holds
	// the project lock.
	DefaultLockRetry = 50 * time.Millisecond

	// DefaultStaleLock is the age after which a lock file is considered
	// abandoned.
	DefaultStaleLock = 5 * time.Minute

	// defaultLockWait bounds Lock when ctx carries no deadline.
	defaultLockWait = 10 * time.Second

	footprintExt = ".kicad_mod"
)

// Ensure Store implements the interface.
var _ driven.LibraryStore = (*Store)(nil)

// Store reads and writes KiCad libraries on the local filesystem.
type Store struct {
	mu    sync.Mutex
	locks map[string]chan struct{}

	lockRetry time.Duration
	staleLock time.Duration

	// onStep, when set, is called after every commit step.
	onStep func(step string)
}

// NewStore creates a new library store.
func NewStore() *Store {
	return &Store{
		locks:     make(map[string]chan struct{}),
		lockRetry: DefaultLockRetry,
		staleLock: DefaultStaleLock,
	}
}

func (s *Store) step(name string) {
	if s.onStep != nil {
		s.onStep(name)
	}
}

func (s *Store) semaphore(project string) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	sem, ok := s.locks[project]
	if !ok {
		sem = make(chan struct{}, 1)
		s.locks[project] = sem
	}
	return sem
}

// Lock serialises writers of a project within this process and, via an
// exclusive lock file, across processes.
func (s *Store) Lock(ctx context.Context, project string) (func(), error) {
	abs, err := filepath.Abs(project)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("project directory: %w", err)
	} else if !info.IsDir() {
		return nil, fmt.Errorf("project %s is not a directory: %w", abs, domain.ErrInvalidInput)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultLockWait)
		defer cancel()
	}

	sem := s.semaphore(abs)
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("wait for library lock: %w: %w", domain.ErrLocked, ctx.Err())
	}

	path := filepath.Join(abs, lockFileName)
	for {
		err := s.tryLockFile(path)
		if err == nil {
			var once sync.Once
			return func() {
				once.Do(func() {
					if err := removeIfExists(path); err != nil {
						logger.Warn("release library lock %s: %v", path, err)
					}
					<-sem
				})
			}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			<-sem
			return nil, fmt.Errorf("create lock file: %w", err)
		}

		select {
		case <-ctx.Done():
			<-sem
			return nil, fmt.Errorf("library %s is locked by another process: %w: %w", abs, domain.ErrLocked, ctx.Err())
		case <-time.After(s.lockRetry):
		}
	}
}

// tryLockFile creates the lock file exclusively, first breaking one
// older than the stale threshold.
func (s *Store) tryLockFile(path string) error {
	if info, err := os.Stat(path); err == nil && time.Since(info.ModTime()) > s.staleLock {
		s.breakStaleLock(path)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	_, werr := f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	cerr := f.Close()
	return errors.Join(werr, cerr)
}

// breakStaleLock moves the lock at path aside under a unique name and
// removes it there. The rename succeeds for one contender only. If the
// moved file is fresh, another process took the lock after it was judged
// stale, so it is linked back, which fails like O_EXCL if the name was
// taken again meanwhile.
func (s *Store) breakStaleLock(path string) {
	aside := path + ".stale-" + uuid.NewString()
	if err := os.Rename(path, aside); err != nil {
		return
	}
	defer func() {
		if err := os.Remove(aside); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("remove stale library lock %s: %v", aside, err)
		}
	}()

	info, err := os.Stat(aside)
	if err == nil && time.Since(info.ModTime()) <= s.staleLock {
		if err := os.Link(aside, path); err != nil {
			logger.Warn("restore library lock %s: %v", path, err)
		}
		return
	}
	logger.Warn("removing stale library lock %s", path)
}

// LoadIndex reads both tables of a project.
func (s *Store) LoadIndex(project string) (*domain.LibraryIndex, error) {
	if err := recoverIndex(project); err != nil {
		return nil, err
	}
	idx := &domain.LibraryIndex{Project: project}
	var err error
	if idx.Symbols, err = readTable(project, domain.TableSymbol); err != nil {
		return nil, err
	}
	if idx.Footprints, err = readTable(project, domain.TableFootprint); err != nil {
		return nil, err
	}
	return idx, nil
}

func readTable(project string, kind domain.TableKind) (domain.LibTable, error) {
	path := filepath.Join(project, kind.FileName())
	data, err := readOptional(path)
	if err != nil {
		return domain.LibTable{}, fmt.Errorf("read %s: %w", path, err)
	}
	if data == nil {
		return domain.LibTable{Kind: kind, Version: tableVersion}, nil
	}
	table, err := parseTable(kind, data)
	if err != nil {
		return domain.LibTable{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return table, nil
}

// WriteIndex replaces both tables atomically as a pair.
func (s *Store) WriteIndex(index *domain.LibraryIndex) error {
	if index == nil || index.Project == "" {
		return domain.ErrInvalidInput
	}
	return s.commitIndex(index)
}

// SymbolExists reports whether the symbol library holds the part.
func (s *Store) SymbolExists(project string, layout domain.LibraryLayout, sourceID, name string) (bool, error) {
	data, err := readOptional(layout.SymbolPath(project))
	if err != nil || data == nil {
		return false, err
	}
	return findSymbol(data, sourceID, name)
}

// FootprintExists reports whether the footprint file exists.
func (s *Store) FootprintExists(project string, layout domain.LibraryLayout, name string) (bool, error) {
	if err := checkFileName(name); err != nil {
		return false, err
	}
	return exists(filepath.Join(layout.FootprintPath(project), name+footprintExt))
}

// ModelExists reports whether any model file exists for sourceID.
func (s *Store) ModelExists(project string, layout domain.LibraryLayout, sourceID string) (bool, error) {
	base := domain.NormalizeIdentifier(sourceID)
	for _, f := range []domain.ModelFormat{domain.ModelFormatSTEP, domain.ModelFormatVRML} {
		ok, err := exists(filepath.Join(layout.ModelsPath(project), base+f.Extension()))
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// WriteSymbol merges the symbol into the library file.
func (s *Store) WriteSymbol(project string, layout domain.LibraryLayout, sourceID string, symbol domain.SymbolArtifact) (string, error) {
	path := layout.SymbolPath(project)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	existing, err := readOptional(path)
	if err != nil {
		return "", err
	}
	merged, err := mergeSymbols(existing, symbol.Content, sourceID)
	if err != nil {
		return "", err
	}
	if err := writeAtomic(path, merged); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFootprint writes name.kicad_mod into the footprint library.
func (s *Store) WriteFootprint(project string, layout domain.LibraryLayout, footprint domain.FootprintArtifact) (string, error) {
	if err := checkFileName(footprint.Name); err != nil {
		return "", err
	}
	dir := layout.FootprintPath(project)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, footprint.Name+footprintExt)
	if err := writeAtomic(path, footprint.Content); err != nil {
		return "", err
	}
	return path, nil
}

// WriteModel writes a model file into the models directory.
func (s *Store) WriteModel(project string, layout domain.LibraryLayout, asset domain.LocalAsset) (string, error) {
	if err := checkFileName(asset.FileName); err != nil {
		return "", err
	}
	dir := layout.ModelsPath(project)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, asset.FileName)
	if err := writeAtomic(path, asset.Data); err != nil {
		return "", err
	}
	return path, nil
}

// Info lists what the project library holds. It does not recover an
// interrupted commit.
func (s *Store) Info(project string, layout domain.LibraryLayout) (*domain.LibraryInfo, error) {
	info := &domain.LibraryInfo{
		Project:       project,
		Nickname:      layout.Nickname,
		SymbolPath:    layout.SymbolPath(project),
		FootprintPath: layout.FootprintPath(project),
		ModelsPath:    layout.ModelsPath(project),
		Symbols:       []string{},
		Footprints:    []string{},
		Models:        []string{},
	}

	data, err := readOptional(info.SymbolPath)
	if err != nil {
		return nil, err
	}
	if data != nil {
		names, err := symbolNames(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", info.SymbolPath, err)
		}
		info.Symbols = names
	}

	if info.Footprints, err = listFiles(info.FootprintPath, footprintExt, true); err != nil {
		return nil, err
	}
	if info.Models, err = listFiles(info.ModelsPath, "", false); err != nil {
		return nil, err
	}

	for _, kind := range []domain.TableKind{domain.TableSymbol, domain.TableFootprint} {
		table, err := readTable(project, kind)
		if err != nil {
			return nil, err
		}
		_, ok := table.Lookup(layout.Nickname)
		if kind == domain.TableSymbol {
			info.SymbolTable = ok
		} else {
			info.FootprintTable = ok
		}
	}
	return info, nil
}

// listFiles returns the sorted regular file names in dir with the given
// extension, optionally trimmed. A missing dir lists as empty.
func listFiles(dir, ext string, trim bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
			continue
		}
		if trim {
			name = strings.TrimSuffix(name, ext)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func checkFileName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("file name %q: %w", name, domain.ErrInvalidInput)
	}
	return nil
}
