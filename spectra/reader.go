// Public domain.

package spectra

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/sagasurvey/saga/site"
	"github.com/sagasurvey/saga/table"
)

// Reader reads the spectra of one telescope found at path.  Spectra
// observed after before are dropped; a zero before keeps everything.
// The result has the canonical columns of Schema.
type Reader interface {
	Read(path string, before time.Time) (*table.Table, error)
}

// ReadError is returned when no spectra could be read at all.  Err is the
// cause when the directory itself could not be read.
type ReadError struct {
	Telescope string
	Path      string
	Err       error
}

func (e *ReadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("spectra: no %s spectra read from %s: %v", e.Telescope, e.Path, e.Err)
	}
	return fmt.Sprintf("spectra: no %s spectra read from %s", e.Telescope, e.Path)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Options configure the readers returned by Readers.
type Options struct {
	Log   *zap.Logger // nil means no logging
	Sites site.Map    // nil means site.Builtin()
}

// Telescopes lists the reader names known to Readers.
var Telescopes = []string{"mmt", "aat", "aat_mz", "imacs", "wiyn", "deimos", "palomar"}

// Readers returns the reader of every telescope by name.  Every site a
// reader needs for heliocentric correction must be in opt.Sites.
func Readers(opt Options) (map[string]Reader, error) {
	log := opt.Log
	if log == nil {
		log = zap.NewNop()
	}
	sites := opt.Sites
	if sites == nil {
		sites = site.Builtin()
	}
	m := map[string]Reader{
		"wiyn":    &wiynReader{log: log.With(zap.String("telescope", "wiyn"))},
		"deimos":  deimosReader{},
		"palomar": palomarReader{},
	}
	for _, f := range textFormats() {
		r := &textReader{TextFormat: f, log: log.With(zap.String("telescope", f.Telescope))}
		if f.Helio != nil {
			s, err := sites.Lookup(f.Helio.Site)
			if err != nil {
				return nil, fmt.Errorf("spectra: %s: %w", f.Telescope, err)
			}
			r.site = s
		}
		m[f.Telescope] = r
	}
	return m, nil
}

// Read is shorthand for looking up a telescope in Readers and reading path.
func Read(telescope, path string, before time.Time, opt Options) (*table.Table, error) {
	rs, err := Readers(opt)
	if err != nil {
		return nil, err
	}
	r, ok := rs[strings.ToLower(telescope)]
	if !ok {
		return nil, fmt.Errorf("spectra: unknown telescope %q", telescope)
	}
	return r.Read(path, before)
}

// scanDir returns the names of regular files in dir matching pattern, in
// name order.  Sync conflict copies are skipped with a warning.
func scanDir(telescope, dir, pattern string, log *zap.Logger) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, &ReadError{Telescope: telescope, Path: dir, Err: err}
	}
	var names []string
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ok, err := doublestar.Match(pattern, name)
		if err != nil {
			return nil, fmt.Errorf("spectra: bad pattern %q: %w", pattern, err)
		}
		if !ok {
			continue
		}
		if strings.Contains(name, "conflicted copy") {
			log.Warn("skipping conflicted copy", zap.String("file", filepath.Join(dir, name)))
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// setString sets column name of t to v on every row.
func setString(t *table.Table, name, v string) error {
	c, err := table.Filled(name, table.String, t.Len(), v)
	if err != nil {
		return err
	}
	return t.Set(c)
}

// widen turns non-canonical int columns into float columns, so that files
// that happen to hold only whole numbers stack with files that do not.
func widen(t *table.Table) error {
	canon := make(map[string]bool, len(Schema))
	for _, f := range Schema {
		canon[f.Name] = true
	}
	for _, c := range t.Cols() {
		if c.Kind != table.Int || canon[c.Name] {
			continue
		}
		f, err := c.Convert(table.Float)
		if err != nil {
			return err
		}
		if err = t.Set(f); err != nil {
			return err
		}
	}
	return nil
}

// finish stacks the per-file tables, sets TELNAME, runs post and
// normalizes.
func finish(telescope, telname, path string, parts []*table.Table,
	post func(*table.Table) error) (*table.Table, error) {
	if len(parts) == 0 {
		return nil, &ReadError{Telescope: telescope, Path: path}
	}
	t, err := table.VStack(parts...)
	if err != nil {
		return nil, fmt.Errorf("spectra: %s: %w", telescope, err)
	}
	if t.Len() == 0 {
		return nil, &ReadError{Telescope: telescope, Path: path}
	}
	if err = setString(t, "TELNAME", telname); err != nil {
		return nil, err
	}
	if post != nil {
		if err = post(t); err != nil {
			return nil, fmt.Errorf("spectra: %s: %w", telescope, err)
		}
	}
	return Normalize(t, true)
}
