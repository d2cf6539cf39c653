// Public domain.

package spectra

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sagasurvey/saga/site"
	"github.com/sagasurvey/saga/table"
)

// TextFormat describes a directory of delimited text redshift files.
type TextFormat struct {
	Telescope string
	TelName   string // TELNAME value
	Pattern   string // file name glob
	// Columns maps 1-based field numbers to column names.  Other fields
	// are ignored.
	Columns map[int]string
	NumCols int  // fields per row
	Comma   bool // comma rather than white space separated
	Cuts    table.Query
	Helio   *Helio // nil for no heliocentric correction
	Post    func(*table.Table) error
}

// Helio names the header keys of the FITS file that accompanies each
// redshift file and the observing site.  The FITS file has the stem of
// the redshift file and extension .fits.gz.
type Helio struct {
	Site                   string
	RAKey, DecKey, TimeKey string // RA in hours, Dec in degrees, time as MJD
}

// companionExt replaces the extension of a redshift file to name its
// FITS header file.
const companionExt = ".fits.gz"

type textReader struct {
	TextFormat
	site site.Site
	log  *zap.Logger
}

func (r *textReader) Read(dir string, before time.Time) (*table.Table, error) {
	names, err := scanDir(r.Telescope, dir, r.Pattern, r.log)
	if err != nil {
		return nil, err
	}
	var parts []*table.Table
	for _, name := range names {
		path := filepath.Join(dir, name)
		log := r.log.With(zap.String("file", path))
		t, err := r.readFile(path)
		if err != nil {
			log.Warn("cannot read redshift file", zap.Error(err))
			continue
		}
		if t.Len() == 0 {
			log.Debug("no spectra pass cuts")
			continue
		}
		if !t.Has("MASKNAME") {
			if err = setString(t, "MASKNAME", name); err != nil {
				return nil, err
			}
		}
		if r.Helio != nil {
			keep, err := r.correct(t, path, before, log)
			if err != nil {
				return nil, err
			}
			if !keep {
				continue
			}
		}
		parts = append(parts, t)
	}
	return finish(r.Telescope, r.TelName, dir, parts, r.Post)
}

// readFile parses, coerces and cuts one file.
func (r *textReader) readFile(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := r.parse(f)
	if err != nil || t.Len() == 0 {
		return t, err
	}
	if t, err = Coerce(t); err != nil {
		return nil, err
	}
	if err = widen(t); err != nil {
		return nil, err
	}
	return table.Filter(t, r.Cuts)
}

func (r *textReader) parse(rd io.Reader) (*table.Table, error) {
	fields := make([]int, 0, len(r.Columns))
	for i := range r.Columns {
		fields = append(fields, i)
	}
	sort.Ints(fields)
	raw := make([][]string, len(fields))

	sc := bufio.NewScanner(rd)
	sc.Buffer(nil, 1<<20)
	for line := 1; sc.Scan(); line++ {
		s := strings.TrimSpace(sc.Text())
		if s == "" || s[0] == '#' {
			continue
		}
		var f []string
		if r.Comma {
			f = strings.Split(s, ",")
		} else {
			f = strings.Fields(s)
		}
		if len(f) != r.NumCols {
			return nil, fmt.Errorf("line %d: %d fields, want %d", line, len(f), r.NumCols)
		}
		for k, i := range fields {
			raw[k] = append(raw[k], strings.TrimSpace(f[i-1]))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	t, _ := table.New()
	for k, i := range fields {
		if err := t.Add(table.Infer(r.Columns[i], raw[k])); err != nil {
			return nil, err
		}
	}
	return t, nil
}
