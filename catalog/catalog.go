// Public domain.

// Package catalog stores tables on disk.
//
// The format of a file is chosen by its extension:
//
//	.fits .fits.gz   FITS binary table, first table extension
//	.csv  .csv.gz    comma separated text with a header row
//	.sqlite .db      SQLite database, table "catalog"
//
// A Database names files by key under a root directory and caches what it
// reads.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/sagasurvey/saga/table"
)

type format int

const (
	formatFITS format = iota
	formatCSV
	formatSQLite
)

// formatOf returns the storage format of path and whether it is gzipped.
func formatOf(path string) (format, bool, error) {
	p := strings.ToLower(path)
	gz := strings.HasSuffix(p, ".gz")
	p = strings.TrimSuffix(p, ".gz")
	switch {
	case strings.HasSuffix(p, ".fits"), strings.HasSuffix(p, ".fit"):
		return formatFITS, gz, nil
	case strings.HasSuffix(p, ".csv"):
		return formatCSV, gz, nil
	case strings.HasSuffix(p, ".sqlite"), strings.HasSuffix(p, ".db"):
		if gz {
			break
		}
		return formatSQLite, false, nil
	}
	return 0, false, fmt.Errorf("catalog: unknown file format %s", path)
}

// File is a table stored at Path.
type File struct {
	Path string
}

// Read reads the whole table.
func (f File) Read() (*table.Table, error) {
	return ReadFile(f.Path)
}

// Write stores t.  An existing file is an error unless overwrite is set.
func (f File) Write(t *table.Table, overwrite bool) error {
	return WriteFile(f.Path, t, overwrite)
}

// ReadFile reads the table stored at path.
func ReadFile(path string) (*table.Table, error) {
	ft, gz, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	if ft == formatSQLite {
		return readSQLite(path)
	}
	r, err := openReader(path, gz)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var t *table.Table
	if ft == formatFITS {
		t, err = readFITS(r)
	} else {
		t, err = readCSV(r)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return t, nil
}

// ErrExists is returned when writing over an existing file without
// overwrite.
var ErrExists = errors.New("catalog: file exists")

// WriteFile stores t at path in the format given by its extension.  The
// table is written to a temporary file beside path and renamed into place,
// so a failed write leaves any existing file as it was.
func WriteFile(path string, t *table.Table, overwrite bool) error {
	ft, gz, err := formatOf(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("%w: %s", ErrExists, path)
	}
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if ft == formatSQLite {
		f.Close()
		err = writeSQLite(tmp, t)
	} else {
		err = writeStream(f, ft, gz, t)
	}
	if err == nil {
		err = os.Chmod(tmp, 0o644)
	}
	if err == nil {
		err = os.Rename(tmp, path)
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("catalog: %s: %w", path, err)
	}
	return nil
}

// writeStream writes a FITS or CSV table to f and closes it.
func writeStream(f *os.File, ft format, gz bool, t *table.Table) error {
	var w io.Writer = f
	var z *gzip.Writer
	if gz {
		z = gzip.NewWriter(f)
		w = z
	}
	var err error
	if ft == formatFITS {
		err = writeFITS(w, t)
	} else {
		err = WriteCSV(w, t)
	}
	if err == nil && z != nil {
		err = z.Close()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g gzipFile) Close() error {
	g.Reader.Close()
	return g.f.Close()
}

func openReader(path string, gz bool) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !gz {
		return f, nil
	}
	z, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return gzipFile{z, f}, nil
}
