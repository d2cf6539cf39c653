// Public domain.

package sdss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/soniakeys/unit"
	xrand "golang.org/x/exp/rand"
)

// Fetcher writes the catalog around a position, in degrees, to w.
type Fetcher interface {
	Fetch(ctx context.Context, ra, dec float64, w io.Writer) error
}

// SDSSFetcher fetches SDSS catalogs with the SAGA query.
type SDSSFetcher struct {
	Runner  Runner
	Context string     // database context, such as DR14
	Radius  unit.Angle // zero means DefaultRadius
	Rand    *xrand.Rand
}

// NewSDSSFetcher returns a fetcher running staged jobs with r, naming
// staging tables from a time seeded generator.
func NewSDSSFetcher(r Runner, dbContext string) *SDSSFetcher {
	rnd := xrand.New(&xrand.PCGSource{})
	rnd.Seed(uint64(time.Now().UnixNano()))
	return &SDSSFetcher{Runner: r, Context: dbContext, Rand: rnd}
}

func (f *SDSSFetcher) Fetch(ctx context.Context, ra, dec float64, w io.Writer) error {
	r := f.Radius
	if r == 0 {
		r = DefaultRadius
	}
	j := Job{Context: f.Context}
	if f.Runner.Staged() {
		j.Table = SanitizeTableName(RandomTableName(f.Rand))
	}
	j.Query = ConstructQuery(ra, dec, r, j.Table)
	return f.Runner.Run(ctx, j, w)
}

// WISEFetcher fetches unWISE photometry.
type WISEFetcher struct {
	BaseURL string     // empty means DefaultWiseURL
	Radius  unit.Angle // zero means DefaultRadius
	HTTP    *http.Client
}

func (f *WISEFetcher) Fetch(ctx context.Context, ra, dec float64, w io.Writer) error {
	r := f.Radius
	if r == 0 {
		r = DefaultRadius
	}
	u := WiseURL(f.BaseURL, ra, dec, r)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	hc := f.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: %s", u, resp.Status)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}
