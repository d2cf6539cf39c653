// Public domain.

// Package site holds observatory locations needed for velocity corrections.
//
// A site is stored as geocentric parallax constants, the same form used by
// the MPC observatory code list, so that sites can come either from geodetic
// latitude, longitude and height or from an obscode.dat file.
package site

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/soniakeys/meeus/v3/globe"
	"github.com/soniakeys/unit"
)

// Site is an observatory location.
//
// Longitude is measured east of Greenwich.  RhoCosPhi and RhoSinPhi are
// geocentric parallax constants in units of the Earth equatorial radius.
type Site struct {
	Name      string
	Longitude unit.Angle
	RhoCosPhi float64
	RhoSinPhi float64
}

// Map holds sites by name or observatory code.
type Map map[string]Site

// FromGeodetic computes a site from geodetic latitude, east longitude and
// height above sea level in meters.
func FromGeodetic(name string, lat, lon unit.Angle, height float64) Site {
	s, c := globe.Earth76.ParallaxConstants(lat, height)
	return Site{Name: name, Longitude: lon, RhoCosPhi: c, RhoSinPhi: s}
}

// Builtin returns the sites of the telescopes SAGA has observed with.
// Keys are lower case site names as used by the spectra readers.
func Builtin() Map {
	m := Map{}
	for _, b := range []struct {
		name          string
		lat, lon, hgt float64
	}{
		{"mmt", 31.688944, -110.884611, 2608},
		{"sso", -31.273333, 149.061194, 1164},
		{"kpno", 31.958092, -111.600562, 2096},
		{"lco", -29.014167, -70.692500, 2380},
		{"keck", 19.826218, -155.474996, 4160},
		{"palomar", 33.356000, -116.865000, 1706},
	} {
		m[b.name] = FromGeodetic(b.name,
			unit.AngleFromDeg(b.lat), unit.AngleFromDeg(b.lon), b.hgt)
	}
	return m
}

// Names returns the map keys in sorted order.
func (m Map) Names() []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup finds a site by name, ignoring case.
func (m Map) Lookup(name string) (Site, error) {
	if s, ok := m[name]; ok {
		return s, nil
	}
	if s, ok := m[strings.ToLower(name)]; ok {
		return s, nil
	}
	return Site{}, fmt.Errorf("unknown observatory site %q", name)
}

// ObscodesURL links to the present location of the MPC list of observatory
// codes, the file known as obscode.dat.  The page has enclosing <pre></pre>
// tags; these are safely ignored by ReadObscodes.
var ObscodesURL = "https://www.minorplanetcenter.net/iau/lists/ObsCodes.html"

// FetchObscodes gets a fresh copy of the data at url and writes it to a new
// file with the path and file name fn.
func FetchObscodes(url, fn string) error {
	r, err := http.Get(url)
	if err != nil {
		return err
	}
	defer r.Body.Close()
	if r.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: %s", url, r.Status)
	}
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	if _, err = io.Copy(f, r.Body); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadObscodesFile reads an MPC obscode.dat file.
func ReadObscodesFile(fn string) (Map, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadObscodes(f)
}

// ReadObscodes reads data in the obscode.dat format.
//
// Column headings and the enclosing <pre> tag are not required; lines that
// do not parse as data are quietly ignored.  Sites with both parallax
// constants zero (space based observatories) are omitted.  Keys are the
// 3-character MPC codes; Name is the observatory name.
func ReadObscodes(r io.Reader) (Map, error) {
	m := Map{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if len(line) < 30 {
			continue // quietly ignore extraneous lines such as <pre>
		}
		var lon, cos, sin float64
		var err error
		if ts := strings.TrimSpace(line[4:13]); ts != "" {
			lon, err = strconv.ParseFloat(ts, 64)
			if err != nil || lon < 0 || lon >= 360 {
				// column heading line or otherwise invalid
				continue
			}
		}
		if ts := strings.TrimSpace(line[13:21]); ts != "" {
			cos, err = strconv.ParseFloat(ts, 64)
			if err != nil || cos < 0 || cos > 1 {
				continue
			}
		}
		if ts := strings.TrimSpace(line[21:30]); ts != "" {
			sin, err = strconv.ParseFloat(ts, 64)
			if err != nil || sin < -1 || sin > 1 {
				continue
			}
		}
		if cos == 0 && sin == 0 {
			continue
		}
		m[line[0:3]] = Site{
			Name:      strings.TrimSpace(line[30:]),
			Longitude: unit.AngleFromDeg(lon),
			RhoCosPhi: cos,
			RhoSinPhi: sin,
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, errors.New("no observatory codes readable")
	}
	return m, nil
}
