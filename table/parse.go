// Public domain.

package table

import (
	"strconv"
	"strings"
)

// Infer builds a column from text values, choosing the narrowest kind that
// parses every value: Int, then Float, then Bool (True/False in any case),
// falling back to String.
func Infer(name string, values []string) *Column {
	if len(values) == 0 {
		return NewStrings(name, []string{})
	}
	if ints, ok := parseInts(values); ok {
		return NewInts(name, ints)
	}
	if floats, ok := parseFloats(values); ok {
		return NewFloats(name, floats)
	}
	if bools, ok := parseBools(values); ok {
		return NewBools(name, bools)
	}
	return NewStrings(name, append([]string(nil), values...))
}

func parseInts(values []string) ([]int64, bool) {
	v := make([]int64, len(values))
	for i, s := range values {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return nil, false
		}
		v[i] = n
	}
	return v, true
}

// parseFloats accepts blank values as NaN, as long as one value is not
// blank.
func parseFloats(values []string) ([]float64, bool) {
	v := make([]float64, len(values))
	blank := true
	for i, s := range values {
		f, err := toFloat(s)
		if err != nil {
			return nil, false
		}
		v[i] = f
		blank = blank && strings.TrimSpace(s) == ""
	}
	return v, !blank
}

func parseBools(values []string) ([]bool, bool) {
	v := make([]bool, len(values))
	for i, s := range values {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "t":
			v[i] = true
		case "false", "f":
		default:
			return nil, false
		}
	}
	return v, true
}

// Format returns the text form of row i, as read back by Infer.
func (c *Column) Format(i int) string {
	switch c.Kind {
	case Float:
		return strconv.FormatFloat(c.Floats[i], 'g', -1, 64)
	case Int:
		return strconv.FormatInt(c.Ints[i], 10)
	case Bool:
		if c.Bools[i] {
			return "True"
		}
		return "False"
	}
	return c.Strings[i]
}
