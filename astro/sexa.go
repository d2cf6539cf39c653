// Public domain.

package astro

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	sexa "github.com/soniakeys/sexagesimal"
	"github.com/soniakeys/unit"
)

// ParseSexagesimal parses text such as "10:20:30.5", "-05 10 20" or a plain
// decimal number.  The result is in the unit of the leading field, hours or
// degrees as the caller knows.
func ParseSexagesimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	f := strings.FieldsFunc(s, func(r rune) bool {
		return r == ':' || r == ' ' || r == '\t'
	})
	if len(f) == 0 || len(f) > 3 {
		return 0, fmt.Errorf("invalid sexagesimal value %q", s)
	}
	if len(f) == 1 {
		return strconv.ParseFloat(f[0], 64)
	}
	var neg byte
	switch f[0][0] {
	case '-':
		neg = '-'
		f[0] = f[0][1:]
	case '+':
		f[0] = f[0][1:]
	}
	d, err := strconv.Atoi(f[0])
	if err != nil {
		return 0, fmt.Errorf("invalid sexagesimal value %q: %v", s, err)
	}
	var m int
	var sec float64
	if len(f) == 3 {
		if m, err = strconv.Atoi(f[1]); err == nil {
			sec, err = strconv.ParseFloat(f[2], 64)
		}
	} else {
		var fm float64
		fm, err = strconv.ParseFloat(f[1], 64)
		sec = (fm - float64(int(fm))) * 60
		m = int(fm)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid sexagesimal value %q: %v", s, err)
	}
	if m < 0 || m >= 60 || sec < 0 || sec >= 60 {
		return 0, fmt.Errorf("invalid sexagesimal value %q: field out of range", s)
	}
	return unit.FromSexa(neg, d, m, sec), nil
}

// FormatPosition formats a position given in degrees as sexagesimal
// right ascension and declination, for log output.
func FormatPosition(raDeg, decDeg float64) string {
	return fmt.Sprintf("%.2s %.1s",
		sexa.FmtRA(unit.RAFromDeg(raDeg)),
		sexa.FmtAngle(unit.AngleFromDeg(decDeg)))
}

// MJD zero point on the Julian day scale.
const mjdOffset = 2400000.5

// MJDToTime converts a modified Julian date to a UTC time.
func MJDToTime(mjd float64) time.Time {
	return julian.JDToTime(mjd + mjdOffset).UTC()
}

// TimeToMJD converts a time to a modified Julian date.
func TimeToMJD(t time.Time) float64 {
	return julian.TimeToJD(t.UTC()) - mjdOffset
}
