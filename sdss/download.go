// Public domain.

package sdss

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/sagasurvey/saga/table"
)

// DefaultMinSize is the smallest file size taken as a complete catalog.
const DefaultMinSize = 1000000

// DownloadOptions control DownloadForHosts.
type DownloadOptions struct {
	Overwrite bool // replace existing files
	Compress  bool // gzip downloads
	// MinSize is the smallest acceptable file.  Zero means DefaultMinSize,
	// negative disables the check.
	MinSize int64
	// Host table columns.  Empty means NSAID, RA and DEC.
	IDColumn, RAColumn, DECColumn string
	Log                           *zap.Logger
}

// DownloadForHosts fetches a catalog for each row of hosts, one at a time,
// into pattern with "{}" replaced by the host ID.  Existing files are kept
// unless opt.Overwrite.  A failed fetch or a file smaller than the minimum
// size marks the host failed; the partial file is removed.  It returns the
// IDs of failed hosts, in table order.  The error is non-nil only for bad
// input or a cancelled ctx.
func DownloadForHosts(ctx context.Context, hosts *table.Table, f Fetcher,
	pattern string, opt DownloadOptions) (failed []int64, err error) {
	log := opt.Log
	if log == nil {
		log = zap.NewNop()
	}
	minSize := opt.MinSize
	if minSize == 0 {
		minSize = DefaultMinSize
	}
	col := func(name, def string) (*table.Column, error) {
		if name == "" {
			name = def
		}
		c := hosts.Col(name)
		if c == nil {
			return nil, fmt.Errorf("sdss: host table has no column %s", name)
		}
		return c, nil
	}
	idc, err := col(opt.IDColumn, "NSAID")
	if err != nil {
		return nil, err
	}
	rac, err := col(opt.RAColumn, "RA")
	if err != nil {
		return nil, err
	}
	decc, err := col(opt.DECColumn, "DEC")
	if err != nil {
		return nil, err
	}
	if idc, err = idc.Convert(table.Int); err != nil {
		return nil, fmt.Errorf("sdss: host ids: %w", err)
	}

	failed = []int64{}
	for i, id := range idc.Ints {
		if err = ctx.Err(); err != nil {
			return failed, err
		}
		path := strings.ReplaceAll(pattern, "{}", strconv.FormatInt(id, 10))
		hl := log.With(zap.Int64("host", id), zap.String("file", path))
		if _, serr := os.Stat(path); serr == nil && !opt.Overwrite {
			hl.Debug("catalog exists")
			continue
		}
		ra, ok1 := rac.Float(i)
		dec, ok2 := decc.Float(i)
		if !ok1 || !ok2 {
			hl.Warn("host has no position")
			failed = append(failed, id)
			continue
		}
		hl.Info("getting catalog")
		if err = download(ctx, f, ra, dec, path, opt.Compress); err != nil {
			hl.Warn("failed to get catalog", zap.Error(err))
			os.Remove(path)
			failed = append(failed, id)
			if ctx.Err() != nil {
				return failed, ctx.Err()
			}
			continue
		}
		if fi, serr := os.Stat(path); serr != nil || (minSize > 0 && fi.Size() < minSize) {
			hl.Warn("downloaded catalog corrupted")
			os.Remove(path)
			failed = append(failed, id)
		}
	}
	return failed, nil
}

func download(ctx context.Context, f Fetcher, ra, dec float64, path string, compress bool) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	var w io.Writer = out
	var z *gzip.Writer
	if compress {
		z = gzip.NewWriter(out)
		w = z
	}
	err = f.Fetch(ctx, ra, dec, w)
	if z != nil {
		if cerr := z.Close(); err == nil {
			err = cerr
		}
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}
