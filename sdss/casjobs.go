// Public domain.

package sdss

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the CasJobs REST service.
const DefaultBaseURL = "https://skyserver.sdss.org/CasJobs/RestApi"

// Client talks to the CasJobs REST API.  Token, if set, is sent as the
// X-Auth-Token header.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client // nil means http.DefaultClient
}

type queryRequest struct {
	Query    string `json:"Query"`
	TaskName string `json:"TaskName,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path, accept string, body interface{}) (*http.Response, error) {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(base, "/")+path, rd)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.Token != "" {
		req.Header.Set("X-Auth-Token", c.Token)
	}
	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("casjobs %s %s: %w", method, path, err)
	}
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("casjobs %s %s: %s: %s",
			method, path, resp.Status, strings.TrimSpace(string(msg)))
	}
	return resp, nil
}

// Execute runs query synchronously in dbContext and copies the FITS
// result to w.
func (c *Client) Execute(ctx context.Context, query, dbContext string, w io.Writer) error {
	resp, err := c.do(ctx, http.MethodPost,
		"/contexts/"+url.PathEscape(dbContext)+"/query", "application/fits",
		queryRequest{Query: query})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, err = io.Copy(w, resp.Body)
	return err
}

// Submit queues query as a batch job and returns its ID.
func (c *Client) Submit(ctx context.Context, query, dbContext, taskName string) (int64, error) {
	resp, err := c.do(ctx, http.MethodPut,
		"/contexts/"+url.PathEscape(dbContext)+"/jobs", "text/plain",
		queryRequest{Query: query, TaskName: taskName})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(strings.Trim(strings.TrimSpace(string(b)), `"`), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("casjobs: bad job id %q", b)
	}
	return id, nil
}

// Job status codes.
const (
	StatusReady     = 0
	StatusStarted   = 1
	StatusCanceling = 2
	StatusCancelled = 3
	StatusFailed    = 4
	StatusFinished  = 5
)

// Status returns the status code of a job.
func (c *Client) Status(ctx context.Context, id int64) (int, error) {
	resp, err := c.do(ctx, http.MethodGet, "/jobs/"+strconv.FormatInt(id, 10), "application/json", nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	var js struct {
		Status int `json:"Status"`
	}
	if err = json.NewDecoder(resp.Body).Decode(&js); err != nil {
		return 0, fmt.Errorf("casjobs: job %d status: %w", id, err)
	}
	return js.Status, nil
}

// RemoteJobError reports a batch job that was cancelled or failed.
type RemoteJobError struct {
	Job    int64
	Table  string
	Status int
}

func (e *RemoteJobError) Error() string {
	s := "failed"
	if e.Status == StatusCancelled {
		s = "cancelled"
	}
	return fmt.Sprintf("sdss: casjob %d (%s) %s", e.Job, e.Table, s)
}

// Job is a query to run.  Table names the mydb table a staged query
// selects into; it is empty for direct queries.
type Job struct {
	Query   string
	Context string
	Table   string
}

// Runner runs a query and writes its FITS result to w.
type Runner interface {
	Run(ctx context.Context, j Job, w io.Writer) error
	// Staged reports whether queries must select into a mydb table.
	Staged() bool
}

// PortalRunner executes queries synchronously.
type PortalRunner struct {
	Client *Client
}

func (r *PortalRunner) Staged() bool { return false }

func (r *PortalRunner) Run(ctx context.Context, j Job, w io.Writer) error {
	return r.Client.Execute(ctx, j.Query, j.Context, w)
}

// JobRunner submits queries as batch jobs, waits for them, downloads the
// staging table and drops it.
type JobRunner struct {
	Client       *Client
	PollInterval time.Duration // zero means 10s
	Log          *zap.Logger
}

func (r *JobRunner) Staged() bool { return true }

func (r *JobRunner) Run(ctx context.Context, j Job, w io.Writer) error {
	if j.Table == "" {
		return fmt.Errorf("sdss: batch job needs a table name")
	}
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("table", j.Table))
	id, err := r.Client.Submit(ctx, j.Query, j.Context, "saga_"+j.Table)
	if err != nil {
		return err
	}
	log.Info("casjob submitted", zap.Int64("job", id))
	if err = r.wait(ctx, id, j.Table); err != nil {
		return err
	}
	log.Info("casjob finished, downloading", zap.Int64("job", id))
	err = r.Client.Execute(ctx, "SELECT * FROM "+j.Table, "MyDB", w)
	// the staging table is dropped even when the download fails
	if derr := r.Client.Execute(ctx, "DROP TABLE "+j.Table, "MyDB", io.Discard); derr != nil {
		log.Warn("cannot drop staging table", zap.Error(derr))
	}
	return err
}

func (r *JobRunner) wait(ctx context.Context, id int64, tbl string) error {
	d := r.PollInterval
	if d <= 0 {
		d = 10 * time.Second
	}
	tick := time.NewTicker(d)
	defer tick.Stop()
	for {
		st, err := r.Client.Status(ctx, id)
		if err != nil {
			return err
		}
		switch st {
		case StatusFinished:
			return nil
		case StatusCancelled, StatusFailed:
			return &RemoteJobError{Job: id, Table: tbl, Status: st}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}
