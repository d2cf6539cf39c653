// Public domain.

package site_test

import (
	"math"
	"strings"
	"testing"

	"github.com/soniakeys/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagasurvey/saga/site"
)

const obscodes = `<pre>
Code  Long.   cos      sin    Name
000   0.0000 0.62411 +0.77873 Greenwich
250                           Hubble Space Telescope
E12 149.0642 0.85563 -0.51621 Siding Spring Survey
</pre>`

var siteTestCases = []struct {
	code          string
	lon, cos, sin float64
}{
	{"000", 0, .62411, .77873},
	{"E12", 149.0642, .85563, -.51621},
}

func TestReadObscodes(t *testing.T) {
	m, err := site.ReadObscodes(strings.NewReader(obscodes))
	require.NoError(t, err)
	assert.Len(t, m, 2)
	_, ok := m["250"]
	assert.False(t, ok, "space based site should be omitted")
	for _, c := range siteTestCases {
		s, ok := m[c.code]
		require.True(t, ok, "missing %s", c.code)
		assert.InDelta(t, c.lon, s.Longitude.Deg(), 1e-10, c.code)
		assert.InDelta(t, c.cos, s.RhoCosPhi, 1e-10, c.code)
		assert.InDelta(t, c.sin, s.RhoSinPhi, 1e-10, c.code)
	}
	assert.Equal(t, "Siding Spring Survey", m["E12"].Name)
}

func TestReadObscodesEmpty(t *testing.T) {
	_, err := site.ReadObscodes(strings.NewReader("<pre>\n</pre>\n"))
	assert.Error(t, err)
}

func TestFromGeodetic(t *testing.T) {
	// Siding Spring, compare with the MPC parallax constants of E12.
	s := site.FromGeodetic("sso",
		unit.AngleFromDeg(-31.2733), unit.AngleFromDeg(149.0642), 1150)
	assert.InDelta(t, .85563, s.RhoCosPhi, 5e-4)
	assert.InDelta(t, -.51621, s.RhoSinPhi, 5e-4)
	assert.InDelta(t, 149.0642, s.Longitude.Deg(), 1e-12)
	// any site lies close to the geoid
	r := math.Hypot(s.RhoCosPhi, s.RhoSinPhi)
	assert.InDelta(t, 1, r, .01)
}

func TestBuiltinLookup(t *testing.T) {
	m := site.Builtin()
	for _, n := range []string{"mmt", "sso", "kpno", "lco", "keck", "palomar"} {
		_, err := m.Lookup(n)
		assert.NoError(t, err, n)
	}
	_, err := m.Lookup("MMT")
	assert.NoError(t, err)
	_, err = m.Lookup("atlantis")
	assert.Error(t, err)
	assert.Equal(t, []string{"keck", "kpno", "lco", "mmt", "palomar", "sso"},
		m.Names())
}
