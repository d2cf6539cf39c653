// Public domain.

package astro

import (
	"math"

	ephem "github.com/soniakeys/astro"
	"github.com/soniakeys/coord"
	"github.com/soniakeys/meeus/v3/globe"
	"github.com/soniakeys/meeus/v3/sidereal"

	"github.com/sagasurvey/saga/site"
)

const (
	auKm           = 149597870.7
	siderealDaySec = 86164.0905
	// half interval in days for differencing the solar ephemeris
	ephemerisStep = .01
)

// HeliocentricCorrection computes the velocity of an observer at site s
// relative to the Sun, projected on the direction of a target, at time mjd.
//
// Target position is in degrees.  The result is in km/s and is to be added to
// a measured radial velocity to obtain a heliocentric one.  It includes the
// orbital motion of the Earth and the diurnal rotation of the site.
func HeliocentricCorrection(s site.Site, raDeg, decDeg, mjd float64) float64 {
	u := UnitVector(raDeg, decDeg)

	// Se2000 gives the geocentric vector of the Sun; the Earth's heliocentric
	// velocity is the negated rate of change.
	before, _, _ := ephem.Se2000(mjd - ephemerisStep)
	after, _, _ := ephem.Se2000(mjd + ephemerisStep)
	var v coord.Cart
	v.Sub(&before, &after)
	v.MulScalar(&v, auKm/(2*ephemerisStep*86400))
	orbital := v.Dot(&u)

	// site rotation.  hour angle from Greenwich mean sidereal time.
	lst := sidereal.Mean(mjd+mjdOffset).Rad() + s.Longitude.Rad()
	h := lst - raDeg*math.Pi/180
	speed := 2 * math.Pi * globe.Earth76.Er * s.RhoCosPhi / siderealDaySec
	diurnal := -speed * math.Cos(decDeg*math.Pi/180) * math.Sin(h)

	return orbital + diurnal
}
