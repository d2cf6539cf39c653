// Public domain.

package spectra

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sagasurvey/saga/astro"
	"github.com/sagasurvey/saga/catalog"
	"github.com/sagasurvey/saga/table"
)

// pointing is what a FITS companion header says about a mask.
type pointing struct {
	ra, dec float64 // degrees
	mjd     float64
}

func readPointing(path string, h *Helio) (pointing, error) {
	hdr, err := catalog.ReadFITSHeader(path)
	if err != nil {
		return pointing{}, err
	}
	var p pointing
	ra, err := headerFloat(hdr, h.RAKey)
	if err != nil {
		return p, err
	}
	p.ra = ra * 15
	if p.dec, err = headerFloat(hdr, h.DecKey); err != nil {
		return p, err
	}
	p.mjd, err = headerFloat(hdr, h.TimeKey)
	return p, err
}

// headerFloat returns a numeric header value.  Strings are parsed as
// sexagesimal or decimal numbers.
func headerFloat(hdr map[string]interface{}, key string) (float64, error) {
	v, ok := hdr[key]
	if !ok {
		return 0, fmt.Errorf("no header key %s", key)
	}
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case string:
		f, err := astro.ParseSexagesimal(x)
		if err != nil {
			return 0, fmt.Errorf("header key %s: %w", key, err)
		}
		return f, nil
	}
	return 0, fmt.Errorf("header key %s has type %T", key, v)
}

// correct applies the heliocentric correction to SPEC_Z of t, the spectra
// of the redshift file at path, and sets HELIO_CORR.  keep is false when
// the mask was observed after before.
func (r *textReader) correct(t *table.Table, path string, before time.Time,
	log *zap.Logger) (keep bool, err error) {
	fits := strings.TrimSuffix(path, filepath.Ext(path)) + companionExt
	p, err := readPointing(fits, r.Helio)
	if err != nil {
		log.Debug("no heliocentric correction", zap.String("header", fits), zap.Error(err))
		c, _ := table.Filled("HELIO_CORR", table.Bool, t.Len(), false)
		return true, t.Set(c)
	}
	if obs := astro.MJDToTime(p.mjd); !before.IsZero() && obs.After(before) {
		log.Info("observed after cutoff", zap.Time("observed", obs))
		return false, nil
	}
	dz := astro.HeliocentricCorrection(r.site, p.ra, p.dec, p.mjd) / astro.SpeedOfLight
	log.Debug("heliocentric correction",
		zap.String("pointing", astro.FormatPosition(p.ra, p.dec)),
		zap.Float64("dz", dz))
	z := t.Col("SPEC_Z")
	if z == nil {
		return false, fmt.Errorf("spectra: %s: no SPEC_Z column", path)
	}
	for i := range z.Floats {
		z.Floats[i] += dz
	}
	c, _ := table.Filled("HELIO_CORR", table.Bool, t.Len(), true)
	return true, t.Set(c)
}
