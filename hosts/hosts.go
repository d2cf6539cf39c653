// Public domain.

// Package hosts resolves SAGA host galaxies, given by NSA ID, by name, or
// by named group, to lists of NSA IDs.
package hosts

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/sagasurvey/saga/table"
)

// Paper I host lists.
var (
	Paper1Complete   = []int64{166313, 147100, 165536, 61945, 132339, 149781, 33446, 150887}
	Paper1Incomplete = []int64{161174, 85746, 145729, 140594, 126115, 13927, 137625, 129237}
)

// UnknownName is returned by IDToName for IDs without a name.
const UnknownName = "unknown"

// Source reads tables by key.  *catalog.Database is a Source.
type Source interface {
	Read(key string, reload bool) (*table.Table, error)
}

// Database keys and columns read by Catalog.
const (
	DefaultHostType = "no_flags"
	NamedKey        = "hosts_named"
	IDColumn        = "NSAID"
	NameColumn      = "SAGA"
	NamedIDColumn   = "NSA"
)

// ResolutionError reports a host token that names nothing.
type ResolutionError struct {
	Token string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("hosts: cannot resolve %q", e.Token)
}

// Catalog resolves host names and IDs against the host tables of a
// database.
type Catalog struct {
	src Source

	mu  sync.RWMutex
	idx *index
}

type index struct {
	all    []int64
	byName map[string]int64 // lower case names
	byID   map[int64]string
}

// New builds a Catalog from the default host list and the named host
// table of src.
func New(src Source) (*Catalog, error) {
	c := &Catalog{src: src}
	idx, err := c.build(false)
	if err != nil {
		return nil, err
	}
	c.idx = idx
	return c, nil
}

// Reload rereads the host tables from disk and replaces the index.  On
// error the old index stays in use.
func (c *Catalog) Reload() error {
	idx, err := c.build(true)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.idx = idx
	c.mu.Unlock()
	return nil
}

func (c *Catalog) build(reload bool) (*index, error) {
	hosts, err := c.Load(DefaultHostType, reload)
	if err != nil {
		return nil, err
	}
	all, err := intColumn(hosts, IDColumn)
	if err != nil {
		return nil, err
	}
	named, err := c.src.Read(NamedKey, reload)
	if err != nil {
		return nil, err
	}
	ids, err := intColumn(named, NamedIDColumn)
	if err != nil {
		return nil, err
	}
	nc := named.Col(NameColumn)
	if nc == nil {
		return nil, fmt.Errorf("hosts: %s has no column %s", NamedKey, NameColumn)
	}
	if nc, err = nc.Convert(table.String); err != nil {
		return nil, err
	}
	idx := &index{
		all:    all,
		byName: make(map[string]int64, len(ids)),
		byID:   make(map[int64]string, len(ids)),
	}
	for i, id := range ids {
		name := strings.TrimSpace(nc.Strings[i])
		if name == "" {
			continue
		}
		idx.byName[strings.ToLower(name)] = id
		idx.byID[id] = name
	}
	return idx, nil
}

func intColumn(t *table.Table, name string) ([]int64, error) {
	c := t.Col(name)
	if c == nil {
		return nil, fmt.Errorf("hosts: no column %s", name)
	}
	c, err := c.Convert(table.Int)
	if err != nil {
		return nil, fmt.Errorf("hosts: column %s: %w", name, err)
	}
	return c.Ints, nil
}

// Load returns the host list hosts_<hostType>, such as hosts_no_flags or
// hosts_no_sdss_flags.  Cached tables are used unless reload is set.
func (c *Catalog) Load(hostType string, reload bool) (*table.Table, error) {
	return c.src.Read("hosts_"+hostType, reload)
}

func (c *Catalog) current() *index {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.idx
}

// ResolveID returns the NSA IDs named by hosts.
//
// An integer, a whole valued float such as a decoded JSON or YAML number,
// or a string holding one, is taken as an ID.  Other strings
// are compared without case against "all" for every host in the host list,
// "paper1_complete", "paper1_incomplete", "paper1" for both, and then the
// named hosts.  A slice resolves each element in turn and concatenates the
// results, keeping duplicates.
func (c *Catalog) ResolveID(hosts interface{}) ([]int64, error) {
	idx := c.current()
	switch h := hosts.(type) {
	case int:
		return []int64{int64(h)}, nil
	case int32:
		return []int64{int64(h)}, nil
	case int64:
		return []int64{h}, nil
	case uint:
		return uintID(uint64(h))
	case uint32:
		return []int64{int64(h)}, nil
	case uint64:
		return uintID(h)
	case float32:
		return floatID(float64(h))
	case float64:
		return floatID(h)
	case json.Number:
		if id, err := h.Int64(); err == nil {
			return []int64{id}, nil
		}
		if f, err := h.Float64(); err == nil {
			return floatID(f)
		}
		return nil, &ResolutionError{h.String()}
	case string:
		return idx.resolve(h)
	case []int64:
		return append([]int64{}, h...), nil
	case []int:
		out := make([]int64, len(h))
		for i, id := range h {
			out[i] = int64(id)
		}
		return out, nil
	case []string:
		out := []int64{}
		for _, s := range h {
			ids, err := idx.resolve(s)
			if err != nil {
				return nil, err
			}
			out = append(out, ids...)
		}
		return out, nil
	case []interface{}:
		out := []int64{}
		for _, v := range h {
			ids, err := c.ResolveID(v)
			if err != nil {
				return nil, err
			}
			out = append(out, ids...)
		}
		return out, nil
	}
	return nil, &ResolutionError{fmt.Sprint(hosts)}
}

func uintID(u uint64) ([]int64, error) {
	if u > math.MaxInt64 {
		return nil, &ResolutionError{strconv.FormatUint(u, 10)}
	}
	return []int64{int64(u)}, nil
}

// floatID takes f as an ID if it is whole and fits an int64.
func floatID(f float64) ([]int64, error) {
	if f != math.Trunc(f) || !(f >= -1<<63 && f < 1<<63) {
		return nil, &ResolutionError{strconv.FormatFloat(f, 'g', -1, 64)}
	}
	return []int64{int64(f)}, nil
}

func (idx *index) resolve(s string) ([]int64, error) {
	if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
		return []int64{id}, nil
	}
	switch k := strings.ToLower(strings.TrimSpace(s)); k {
	case "all":
		return append([]int64{}, idx.all...), nil
	case "paper1_complete":
		return append([]int64{}, Paper1Complete...), nil
	case "paper1_incomplete":
		return append([]int64{}, Paper1Incomplete...), nil
	case "paper1":
		return append(append([]int64{}, Paper1Complete...), Paper1Incomplete...), nil
	default:
		if id, ok := idx.byName[k]; ok {
			return []int64{id}, nil
		}
	}
	return nil, &ResolutionError{s}
}

// IDToName returns the SAGA name of a host, or UnknownName.
func (c *Catalog) IDToName(id int64) string {
	if name, ok := c.current().byID[id]; ok {
		return name
	}
	return UnknownName
}
