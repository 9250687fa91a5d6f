package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	appLog "daycal/internal/log"
	"daycal/internal/model"
)

// eventRecord is the on-disk shape of one event. The date field
// duplicates the map key on purpose: it keeps the file self-describing
// and lets load recover events even when a hand-edited key disagrees.
type eventRecord struct {
	Title      string           `json:"title"`
	Date       model.Date       `json:"date"`
	Recurrence model.Recurrence `json:"recurrence"`
	EndDate    *model.Date      `json:"endDate,omitempty"`
}

// FilePersister stores the event mapping as a pretty-printed JSON
// document keyed by YYYY-MM-DD date strings. Writes are atomic
// (temp file + rename) with 0600 permissions.
type FilePersister struct {
	path string
}

// NewFilePersister creates a persister writing to the given path.
func NewFilePersister(path string) *FilePersister {
	return &FilePersister{path: path}
}

// Path returns the data file path.
func (p *FilePersister) Path() string {
	return p.path
}

// Save writes the full event mapping to the data file.
func (p *FilePersister) Save(events map[model.Date][]model.Event) error {
	if p.path == "" {
		return errors.New("data file path is empty")
	}

	doc := make(map[string][]eventRecord, len(events))
	for anchor, list := range events {
		records := make([]eventRecord, 0, len(list))
		for _, ev := range list {
			records = append(records, eventRecord{
				Title:      ev.Title,
				Date:       ev.Anchor,
				Recurrence: ev.Recurrence,
				EndDate:    ev.End,
			})
		}
		doc[anchor.String()] = records
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	// Atomic write: temp file in the same directory, then rename.
	tmp, err := os.CreateTemp(dir, ".daycal-events-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, p.path)
}

// Load reads the data file and returns the event mapping.
//
// A missing or unreadable file is not fatal: Load returns an empty
// mapping together with an error wrapping model.ErrPersistence, and
// the caller decides whether to log or surface it. Records with a bad
// shape fail the whole parse (the file is machine-written; a partial
// read would silently drop events on the next save).
func (p *FilePersister) Load() (map[model.Date][]model.Event, error) {
	empty := make(map[model.Date][]model.Event)

	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: nothing saved yet.
			return empty, nil
		}
		return empty, fmt.Errorf("%w: read %s: %v", model.ErrPersistence, p.path, err)
	}

	var doc map[string][]eventRecord
	if err := json.Unmarshal(data, &doc); err != nil {
		return empty, fmt.Errorf("%w: parse %s: %v", model.ErrPersistence, p.path, err)
	}

	out := make(map[model.Date][]model.Event, len(doc))
	for key, records := range doc {
		anchor, err := model.ParseDate(key)
		if err != nil {
			return empty, fmt.Errorf("%w: parse %s: bad date key %q", model.ErrPersistence, p.path, key)
		}
		if len(records) == 0 {
			// No key maps to an empty list; drop it on load.
			continue
		}
		list := make([]model.Event, 0, len(records))
		for _, rec := range records {
			ev := model.Event{
				Title:      rec.Title,
				Anchor:     rec.Date,
				Recurrence: rec.Recurrence,
				End:        rec.EndDate,
			}
			if ev.Anchor.IsZero() {
				ev.Anchor = anchor
			}
			list = append(list, ev)
		}
		out[anchor] = list
	}
	return out, nil
}

// Backup copies the current data file into a backups/ directory next
// to it, with a timestamped name. Used by the cron-driven snapshot in
// cmd/daycal. A missing data file is not an error; there is simply
// nothing to back up yet.
func (p *FilePersister) Backup() (string, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("%w: read %s: %v", model.ErrPersistence, p.path, err)
	}

	dir := filepath.Join(filepath.Dir(p.path), "backups")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}

	name := fmt.Sprintf("%d_%s", time.Now().Unix(), filepath.Base(p.path))
	dst := filepath.Join(dir, name)
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", model.ErrPersistence, dst, err)
	}
	return dst, nil
}

// PruneBackups keeps the newest keep backups and removes the rest.
func (p *FilePersister) PruneBackups(keep int) error {
	if keep < 0 {
		keep = 0
	}
	dir := filepath.Join(filepath.Dir(p.path), "backups")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	// Timestamped prefixes sort oldest first.
	sort.Strings(names)
	if len(names) <= keep {
		return nil
	}
	for _, name := range names[:len(names)-keep] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			appLog.Error("failed to prune backup", err, "file", name)
		}
	}
	return nil
}
