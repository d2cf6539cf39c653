// Public domain.

package sdss_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/soniakeys/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xrand "golang.org/x/exp/rand"

	"github.com/sagasurvey/saga/sdss"
	"github.com/sagasurvey/saga/table"
)

func TestConstructQuery(t *testing.T) {
	q := sdss.ConstructQuery(354.1303, 0.3324, unit.AngleFromDeg(1), "")
	assert.Contains(t, q, "FROM dbo.fGetNearbyObjEq(354.1303,0.3324,60) n,PhotoPrimary p")
	assert.NotContains(t, q, "INTO")
	assert.NotContains(t, q, ", ")
	assert.NotContains(t, q, "  ")
	assert.True(t, strings.HasPrefix(q, "SELECT p.objId as OBJID,p.ra as RA"))
	assert.True(t, strings.HasSuffix(q, "WHERE n.objID = p.objID"))

	q = sdss.ConstructQuery(10, -5, unit.AngleFromDeg(0.5), "SAGAabcd")
	assert.Contains(t, q, "fGetNearbyObjEq(10,-5,30) n,PhotoPrimary p INTO mydb.SAGAabcd LEFT JOIN")
}

func TestTableNames(t *testing.T) {
	rnd := xrand.New(&xrand.PCGSource{})
	rnd.Seed(3)
	a := sdss.RandomTableName(rnd)
	assert.Regexp(t, regexp.MustCompile(`^SAGA[a-z]{4}$`), a)
	rnd.Seed(3)
	assert.Equal(t, a, sdss.RandomTableName(rnd), "repeatable with a seed")

	assert.Equal(t, "SAGAxyz", sdss.SanitizeTableName("SAGA_x-y 9z"))
}

func TestWiseURL(t *testing.T) {
	assert.Equal(t,
		"http://unwise.me/phot_near/?ra=10.500000&dec=-2.000000&radius=1.000000&datatype=flat&version=sdss-dr10d",
		sdss.WiseURL("", 10.5, -2, sdss.DefaultRadius))
}

// fakeCasJobs serves the parts of the CasJobs REST API the runners use.
type fakeCasJobs struct {
	mu       sync.Mutex
	statuses []int // returned in turn, the last one repeatedly
	queries  []string
	submits  []string
	token    string
}

func (f *fakeCasJobs) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = r.Header.Get("X-Auth-Token")
	var req struct{ Query, TaskName string }
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	switch {
	case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/jobs"):
		f.submits = append(f.submits, req.TaskName)
		fmt.Fprint(w, "42")
	case r.Method == http.MethodGet && r.URL.Path == "/jobs/42":
		st := f.statuses[0]
		if len(f.statuses) > 1 {
			f.statuses = f.statuses[1:]
		}
		json.NewEncoder(w).Encode(map[string]int{"Status": st})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/query"):
		ctx := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/contexts/"), "/query")
		f.queries = append(f.queries, ctx+": "+req.Query)
		fmt.Fprint(w, "SIMPLE  =                    T")
	default:
		http.NotFound(w, r)
	}
}

func TestJobRunner(t *testing.T) {
	fake := &fakeCasJobs{statuses: []int{sdss.StatusStarted, sdss.StatusFinished}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	r := &sdss.JobRunner{
		Client:       &sdss.Client{BaseURL: srv.URL, Token: "tok"},
		PollInterval: time.Millisecond,
	}
	var buf bytes.Buffer
	err := r.Run(context.Background(), sdss.Job{Query: "SELECT 1", Context: "DR14", Table: "SAGAabcd"}, &buf)
	require.NoError(t, err)
	assert.Equal(t, "SIMPLE  =                    T", buf.String())
	assert.Equal(t, []string{"saga_SAGAabcd"}, fake.submits)
	assert.Equal(t, []string{
		"MyDB: SELECT * FROM SAGAabcd",
		"MyDB: DROP TABLE SAGAabcd",
	}, fake.queries)
	assert.Equal(t, "tok", fake.token)

	err = r.Run(context.Background(), sdss.Job{Query: "SELECT 1"}, &buf)
	assert.Error(t, err, "no table")
}

func TestJobRunnerFailed(t *testing.T) {
	for _, st := range []int{sdss.StatusCancelled, sdss.StatusFailed} {
		fake := &fakeCasJobs{statuses: []int{sdss.StatusReady, st}}
		srv := httptest.NewServer(fake)
		r := &sdss.JobRunner{Client: &sdss.Client{BaseURL: srv.URL}, PollInterval: time.Millisecond}
		err := r.Run(context.Background(), sdss.Job{Query: "q", Context: "DR14", Table: "SAGAx"}, io.Discard)
		var je *sdss.RemoteJobError
		require.True(t, errors.As(err, &je), "status %d", st)
		assert.Equal(t, st, je.Status)
		assert.Equal(t, int64(42), je.Job)
		assert.Empty(t, fake.queries, "nothing to download or drop")
		srv.Close()
	}
}

func TestJobRunnerCancel(t *testing.T) {
	fake := &fakeCasJobs{statuses: []int{sdss.StatusStarted}}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	r := &sdss.JobRunner{Client: &sdss.Client{BaseURL: srv.URL}, PollInterval: time.Hour}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := r.Run(ctx, sdss.Job{Query: "q", Context: "DR14", Table: "SAGAx"}, io.Discard)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestSDSSFetcherPortal(t *testing.T) {
	fake := &fakeCasJobs{}
	srv := httptest.NewServer(fake)
	defer srv.Close()
	f := sdss.NewSDSSFetcher(&sdss.PortalRunner{Client: &sdss.Client{BaseURL: srv.URL}}, "DR14")
	var buf bytes.Buffer
	require.NoError(t, f.Fetch(context.Background(), 10, -5, &buf))
	require.Len(t, fake.queries, 1)
	assert.True(t, strings.HasPrefix(fake.queries[0], "DR14: SELECT"))
	assert.NotContains(t, fake.queries[0], "INTO")
	assert.Empty(t, fake.submits)
}

func TestClientHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()
	c := &sdss.Client{BaseURL: srv.URL}
	err := c.Execute(context.Background(), "q", "DR14", io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestWISEFetcher(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/phot_near/" {
			http.NotFound(w, r)
			return
		}
		got = r.URL.RawQuery
		fmt.Fprint(w, "wise")
	}))
	defer srv.Close()
	f := &sdss.WISEFetcher{BaseURL: srv.URL + "/phot_near/", Radius: unit.AngleFromDeg(0.5)}
	var buf bytes.Buffer
	require.NoError(t, f.Fetch(context.Background(), 1, 2, &buf))
	assert.Equal(t, "wise", buf.String())
	assert.Equal(t, "ra=1.000000&dec=2.000000&radius=0.500000&datatype=flat&version=sdss-dr10d", got)

	f.BaseURL = srv.URL + "/missing"
	assert.Error(t, f.Fetch(context.Background(), 1, 2, io.Discard))
}

// sizeFetcher writes n bytes for each host, or fails for RA < 0.
type sizeFetcher struct {
	n     int
	calls int
}

func (f *sizeFetcher) Fetch(_ context.Context, ra, dec float64, w io.Writer) error {
	f.calls++
	if ra < 0 {
		return errors.New("no coverage")
	}
	_, err := w.Write(bytes.Repeat([]byte{'x'}, f.n))
	return err
}

func hostList(t *testing.T) *table.Table {
	tb, err := table.New(
		table.NewInts("NSAID", []int64{1, 2, 3}),
		table.NewFloats("RA", []float64{10, -1, 30}),
		table.NewFloats("DEC", []float64{0, 0, 0}),
	)
	require.NoError(t, err)
	return tb
}

func TestDownloadForHosts(t *testing.T) {
	dir := t.TempDir()
	pattern := filepath.Join(dir, "nsa{}.fits")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nsa3.fits"), []byte("old"), 0o644))

	f := &sizeFetcher{n: 100}
	failed, err := sdss.DownloadForHosts(context.Background(), hostList(t), f, pattern,
		sdss.DownloadOptions{MinSize: 50})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, failed)
	assert.Equal(t, 2, f.calls, "existing file kept")
	assert.FileExists(t, filepath.Join(dir, "nsa1.fits"))
	assert.NoFileExists(t, filepath.Join(dir, "nsa2.fits"))
	old, err := os.ReadFile(filepath.Join(dir, "nsa3.fits"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(old))

	// small downloads are removed
	f = &sizeFetcher{n: 10}
	failed, err = sdss.DownloadForHosts(context.Background(), hostList(t), f, pattern,
		sdss.DownloadOptions{MinSize: 50, Overwrite: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, failed)
	assert.NoFileExists(t, filepath.Join(dir, "nsa3.fits"))
}

func TestDownloadCompressed(t *testing.T) {
	dir := t.TempDir()
	f := &sizeFetcher{n: 1000}
	failed, err := sdss.DownloadForHosts(context.Background(), hostList(t), f,
		filepath.Join(dir, "nsa{}.fits.gz"), sdss.DownloadOptions{Compress: true, MinSize: -1})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, failed)

	z, err := os.Open(filepath.Join(dir, "nsa1.fits.gz"))
	require.NoError(t, err)
	defer z.Close()
	zr, err := gzip.NewReader(z)
	require.NoError(t, err)
	b, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Len(t, b, 1000)
}

func TestDownloadErrors(t *testing.T) {
	bad, err := table.New(table.NewInts("ID", []int64{1}))
	require.NoError(t, err)
	_, err = sdss.DownloadForHosts(context.Background(), bad, &sizeFetcher{}, "x{}", sdss.DownloadOptions{})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sdss.DownloadForHosts(ctx, hostList(t), &sizeFetcher{}, filepath.Join(t.TempDir(), "{}"),
		sdss.DownloadOptions{})
	assert.True(t, errors.Is(err, context.Canceled))
}
