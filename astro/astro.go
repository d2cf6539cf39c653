// Public domain.

// Package astro, sky geometry and corrections generally useful for
// spectroscopic catalogs.
package astro

import (
	"math"
	"sort"

	"github.com/soniakeys/coord"
	"github.com/soniakeys/unit"
)

// SpeedOfLight in km/s.
const SpeedOfLight = 299792.458

// UnitVector returns the unit vector for equatorial coordinates given in
// degrees.
func UnitVector(raDeg, decDeg float64) coord.Cart {
	sdec, cdec := math.Sincos(decDeg * math.Pi / 180)
	sra, cra := math.Sincos(raDeg * math.Pi / 180)
	return coord.Cart{
		X: cra * cdec,
		Y: sra * cdec,
		Z: sdec,
	}
}

// Separation returns the angle between two unit vectors.
//
// It works from the chord length, so identical vectors give exactly zero
// and small angles keep their precision.
func Separation(a, b *coord.Cart) unit.Angle {
	var d coord.Cart
	d.Sub(a, b)
	return unit.Angle(2 * math.Asin(math.Min(1, math.Sqrt(d.Square())*.5)))
}

// Match is a pair of row indexes, I into the first coordinate set and
// J into the second.
type Match struct {
	I, J int
}

// SearchAround finds all pairs of points, one from each set, separated by
// no more than tol.  Coordinates are in degrees.  Points with NaN
// coordinates never match.
//
// Every pair is reported, not just the nearest.  Pairs are ordered by I,
// then by J.
func SearchAround(ra1, dec1, ra2, dec2 []float64, tol unit.Angle) []Match {
	if tol < 0 {
		return nil
	}
	// second set, sorted by declination for a window search
	type point struct {
		dec float64
		j   int
		v   coord.Cart
	}
	pts := make([]point, 0, len(ra2))
	for j := range ra2 {
		if math.IsNaN(ra2[j]) || math.IsNaN(dec2[j]) {
			continue
		}
		pts = append(pts, point{dec2[j], j, UnitVector(ra2[j], dec2[j])})
	}
	sort.SliceStable(pts, func(a, b int) bool { return pts[a].dec < pts[b].dec })

	// squared chord length of the tolerance
	ch := 2 * math.Sin(math.Min(tol.Rad(), math.Pi)*.5)
	maxSq := ch * ch
	// window half width in degrees, widened slightly so rounding in the
	// window never excludes a pair the chord test accepts
	w := tol.Deg() + 1e-9

	var matches []Match
	var js []int
	for i := range ra1 {
		if math.IsNaN(ra1[i]) || math.IsNaN(dec1[i]) {
			continue
		}
		v := UnitVector(ra1[i], dec1[i])
		lo := sort.Search(len(pts), func(k int) bool {
			return pts[k].dec >= dec1[i]-w
		})
		js = js[:0]
		for k := lo; k < len(pts) && pts[k].dec <= dec1[i]+w; k++ {
			var d coord.Cart
			d.Sub(&v, &pts[k].v)
			if d.Square() <= maxSq {
				js = append(js, pts[k].j)
			}
		}
		sort.Ints(js)
		for _, j := range js {
			matches = append(matches, Match{i, j})
		}
	}
	return matches
}
