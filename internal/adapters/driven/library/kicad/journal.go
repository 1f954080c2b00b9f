package kicad

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/custodia-labs/kicad-lcsc/internal/core/domain"
	"github.com/custodia-labs/kicad-lcsc/internal/logger"
)

// Commit steps, reported to the step hook.
const (
	stepTempWritten    = "temp-written"
	stepBackupsWritten = "backups-written"
	stepJournalWritten = "journal-written"
	stepCommitted      = "committed"
)

func stepRenamed(kind domain.TableKind) string {
	return "renamed-" + string(kind)
}

// journal records which tables a commit replaces and whether each had
// a previous version backed up.
type journal struct {
	ID     string         `json:"id"`
	Tables []journalEntry `json:"tables"`
}

type journalEntry struct {
	Kind    domain.TableKind `json:"kind"`
	Path    string           `json:"path"`
	Existed bool             `json:"existed"`
}

type pendingTable struct {
	kind  domain.TableKind
	table domain.LibTable
}

// commitIndex replaces both tables. The journal removal is the commit
// point: until then a crash is undone by recoverIndex.
func (s *Store) commitIndex(index *domain.LibraryIndex) error {
	project := index.Project
	pending := []pendingTable{
		{domain.TableSymbol, index.Symbols},
		{domain.TableFootprint, index.Footprints},
	}

	j := journal{ID: uuid.NewString()}
	logger.Debug("index commit %s in %s", j.ID, project)
	for _, p := range pending {
		path := filepath.Join(project, p.kind.FileName())
		p.table.Kind = p.kind
		prev, err := readOptional(path)
		if err != nil {
			return &domain.IndexWriteError{Table: p.kind, Path: path, Err: err}
		}
		if err := writeSynced(path+tmpSuffix, formatTable(p.table, prev)); err != nil {
			s.cleanupTemps(project)
			return &domain.IndexWriteError{Table: p.kind, Path: path, Err: err}
		}
		j.Tables = append(j.Tables, journalEntry{Kind: p.kind, Path: path})
	}
	s.step(stepTempWritten)

	for i, e := range j.Tables {
		ok, err := exists(e.Path)
		if err == nil && ok {
			err = copyFile(e.Path, e.Path+backupSuffix)
		}
		if err != nil {
			s.cleanupTemps(project)
			return &domain.IndexWriteError{Table: e.Kind, Path: e.Path, Err: fmt.Errorf("backup: %w", err)}
		}
		j.Tables[i].Existed = ok
	}
	s.step(stepBackupsWritten)

	data, err := json.Marshal(j)
	if err == nil {
		err = writeAtomic(filepath.Join(project, journalFileName), data)
	}
	if err != nil {
		s.cleanupTemps(project)
		return &domain.IndexWriteError{Table: domain.TableSymbol, Path: filepath.Join(project, journalFileName), Err: fmt.Errorf("journal: %w", err)}
	}
	s.step(stepJournalWritten)

	for _, e := range j.Tables {
		if err := os.Rename(e.Path+tmpSuffix, e.Path); err != nil {
			if rbErr := rollback(project, j); rbErr != nil {
				logger.Warn("index rollback in %s: %v", project, rbErr)
			}
			return &domain.IndexWriteError{Table: e.Kind, Path: e.Path, Err: err}
		}
		s.step(stepRenamed(e.Kind))
	}

	if err := os.Remove(filepath.Join(project, journalFileName)); err != nil {
		if rbErr := rollback(project, j); rbErr != nil {
			logger.Warn("index rollback in %s: %v", project, rbErr)
		}
		return &domain.IndexWriteError{Table: domain.TableFootprint, Path: filepath.Join(project, journalFileName), Err: err}
	}
	s.step(stepCommitted)

	s.cleanupTemps(project)
	return nil
}

// recoverIndex undoes an interrupted commit and clears leftovers.
func recoverIndex(project string) error {
	path := filepath.Join(project, journalFileName)
	data, err := readOptional(path)
	if err != nil {
		return fmt.Errorf("read index journal: %w", err)
	}
	if data != nil {
		var j journal
		if err := json.Unmarshal(data, &j); err != nil {
			return fmt.Errorf("decode index journal %s: %w", path, err)
		}
		logger.Warn("recovering interrupted library index commit %s in %s", j.ID, project)
		if err := rollback(project, j); err != nil {
			return fmt.Errorf("roll back index commit: %w", err)
		}
	}
	return removeLeftovers(project)
}

// rollback restores every table named in j to its backed-up state.
func rollback(project string, j journal) error {
	var errs []error
	for _, e := range j.Tables {
		if e.Existed {
			if err := os.Rename(e.Path+backupSuffix, e.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
		} else if err := removeIfExists(e.Path); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if err := removeIfExists(filepath.Join(project, journalFileName)); err != nil {
		return err
	}
	return removeLeftovers(project)
}

func removeLeftovers(project string) error {
	var errs []error
	for _, kind := range []domain.TableKind{domain.TableSymbol, domain.TableFootprint} {
		path := filepath.Join(project, kind.FileName())
		errs = append(errs, removeIfExists(path+tmpSuffix), removeIfExists(path+backupSuffix))
	}
	return errors.Join(errs...)
}

func (s *Store) cleanupTemps(project string) {
	if err := removeLeftovers(project); err != nil {
		logger.Warn("clean index temp files in %s: %v", project, err)
	}
}
