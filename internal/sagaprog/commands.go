// Public domain.

package sagaprog

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	sexa "github.com/soniakeys/sexagesimal"
	"github.com/soniakeys/unit"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sagasurvey/saga/astro"
	"github.com/sagasurvey/saga/catalog"
	"github.com/sagasurvey/saga/hosts"
	"github.com/sagasurvey/saga/sdss"
	"github.com/sagasurvey/saga/site"
	"github.com/sagasurvey/saga/spectra"
	"github.com/sagasurvey/saga/table"
)

func (a *app) resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <host>...",
		Short: "Resolve host names, IDs and group names to NSA IDs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hc, err := hosts.New(a.db)
			if err != nil {
				return err
			}
			ids, err := hc.ResolveID(args)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, id := range ids {
				fmt.Fprintf(w, "%d\t%s\n", id, hc.IDToName(id))
			}
			return nil
		},
	}
}

// writeTable writes t to out, or as CSV to the command output when out
// is empty.
func writeTable(cmd *cobra.Command, t *table.Table, out string, overwrite bool) error {
	if out == "" {
		return catalog.WriteCSV(cmd.OutOrStdout(), t)
	}
	return catalog.WriteFile(out, t, overwrite)
}

// parseTime accepts a date, an RFC 3339 time or an MJD.  Empty is the
// zero time.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	mjd, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q", s)
	}
	return astro.MJDToTime(mjd), nil
}

func (a *app) specsCmd() *cobra.Command {
	var (
		before    string
		out       string
		key       string
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:   "specs <telescope> [path]",
		Short: "Read a telescope's redshift files into the common schema",
		Long: `specs reads the redshift files of one telescope and writes them in the
common spectroscopic schema.  Telescopes: ` + strings.Join(spectra.Telescopes, ", ") + `.
The path defaults to the telescope's entry in the config file.  With --key
the table is stored under that database key instead of --out.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cutoff, err := parseTime(before)
			if err != nil {
				return err
			}
			path := a.cfg.SpectraPath(args[0])
			if len(args) == 2 {
				path = args[1]
			}
			if path == "" {
				return fmt.Errorf("no path for telescope %s", args[0])
			}
			t, err := spectra.Read(args[0], path, cutoff,
				spectra.Options{Log: a.log, Sites: a.cfg.SiteMap()})
			if err != nil {
				return err
			}
			a.log.Info("read spectra", zap.String("telescope", args[0]), zap.Int("rows", t.Len()))
			if key == "" {
				return writeTable(cmd, t, out, overwrite)
			}
			if out != "" {
				return errors.New("--key and --out are exclusive")
			}
			e, err := a.db.Get(key)
			if err != nil {
				return err
			}
			if err = e.Write(t, overwrite); err != nil {
				return err
			}
			a.log.Info("stored spectra", zap.String("key", key), zap.String("path", e.File.Path))
			return nil
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "drop masks observed after this date, time or MJD")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (.fits, .csv, .sqlite, optionally .gz)")
	cmd.Flags().StringVar(&key, "key", "", "store under this database key")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing output file")
	return cmd
}

// parseCoord parses a coordinate in degrees.  Sexagesimal right ascension
// is taken as hours.
func parseCoord(s string, ra bool) (float64, error) {
	v, err := astro.ParseSexagesimal(s)
	if err != nil {
		return 0, err
	}
	if ra && strings.ContainsAny(strings.TrimSpace(s), ": ") {
		v *= 15
	}
	return v, nil
}

func (a *app) queryCmd() *cobra.Command {
	var (
		radius float64
		dbTbl  string
	)
	cmd := &cobra.Command{
		Use:   "query <ra> <dec>",
		Short: "Print the SDSS catalog query around a position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ra, err := parseCoord(args[0], true)
			if err != nil {
				return err
			}
			dec, err := parseCoord(args[1], false)
			if err != nil {
				return err
			}
			r := a.cfg.Download.Radius
			if cmd.Flags().Changed("radius") {
				r = radius
			}
			fmt.Fprintln(cmd.OutOrStdout(),
				sdss.ConstructQuery(ra, dec, unit.AngleFromDeg(r), sdss.SanitizeTableName(dbTbl)))
			return nil
		},
	}
	cmd.Flags().Float64Var(&radius, "radius", 1, "search radius in degrees")
	cmd.Flags().StringVar(&dbTbl, "table", "", "mydb table to select into")
	return cmd
}

// hostRows returns the rows of the host list for ids, in the order of ids.
// IDs not in the list are logged and skipped.
func hostRows(list *table.Table, ids []int64, log *zap.Logger) (*table.Table, error) {
	c := list.Col(hosts.IDColumn)
	if c == nil {
		return nil, fmt.Errorf("host list has no column %s", hosts.IDColumn)
	}
	c, err := c.Convert(table.Int)
	if err != nil {
		return nil, err
	}
	row := make(map[int64]int, len(c.Ints))
	for i, id := range c.Ints {
		row[id] = i
	}
	rows := make([]int, 0, len(ids))
	for _, id := range ids {
		i, ok := row[id]
		if !ok {
			log.Warn("host not in host list", zap.Int64("host", id))
			continue
		}
		rows = append(rows, i)
	}
	return list.Take(rows), nil
}

func (a *app) fetcher(source string) (sdss.Fetcher, error) {
	r := unit.AngleFromDeg(a.cfg.Download.Radius)
	switch source {
	case "sdss":
		c := &sdss.Client{BaseURL: a.cfg.SDSS.BaseURL, Token: a.cfg.SDSS.Token}
		var run sdss.Runner
		if a.cfg.SDSS.UsePortal {
			run = &sdss.PortalRunner{Client: c}
		} else {
			run = &sdss.JobRunner{Client: c, PollInterval: a.cfg.SDSS.PollInterval, Log: a.log}
		}
		f := sdss.NewSDSSFetcher(run, a.cfg.SDSS.Context)
		f.Radius = r
		return f, nil
	case "wise":
		return &sdss.WISEFetcher{BaseURL: a.cfg.WISE.BaseURL, Radius: r}, nil
	}
	return nil, fmt.Errorf("unknown catalog source %q, want sdss or wise", source)
}

func (a *app) downloadCmd() *cobra.Command {
	var (
		pattern   string
		hostType  string
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:   "download sdss|wise <host>...",
		Short: "Download catalogs around hosts",
		Long: `download fetches the SDSS or unWISE catalog around each host, one host
at a time, to the file named by --pattern with {} replaced by the NSA ID.
Hosts are resolved as by the resolve command.`,
		Args:      cobra.MinimumNArgs(2),
		ValidArgs: []string{"sdss", "wise"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !strings.Contains(pattern, "{}") {
				return errors.New("--pattern must contain {}")
			}
			f, err := a.fetcher(args[0])
			if err != nil {
				return err
			}
			hc, err := hosts.New(a.db)
			if err != nil {
				return err
			}
			ids, err := hc.ResolveID(args[1:])
			if err != nil {
				return err
			}
			list, err := hc.Load(hostType, false)
			if err != nil {
				return err
			}
			tbl, err := hostRows(list, ids, a.log)
			if err != nil {
				return err
			}
			if a.cfg.Download.Compress && !strings.HasSuffix(pattern, ".gz") {
				pattern += ".gz"
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			failed, err := sdss.DownloadForHosts(ctx, tbl, f, pattern, sdss.DownloadOptions{
				Overwrite: overwrite,
				Compress:  strings.HasSuffix(pattern, ".gz"),
				MinSize:   a.cfg.Download.MinSize,
				Log:       a.log,
			})
			if err != nil {
				return err
			}
			if len(failed) > 0 {
				w := cmd.OutOrStdout()
				fmt.Fprint(w, "failed:")
				for _, id := range failed {
					fmt.Fprintf(w, " %d", id)
				}
				fmt.Fprintln(w)
				return fmt.Errorf("%d of %d downloads failed", len(failed), tbl.Len())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&pattern, "pattern", "p", "", "output file pattern, {} is replaced by the host ID")
	cmd.Flags().StringVar(&hostType, "host-type", hosts.DefaultHostType, "host list to take positions from")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing files")
	cmd.MarkFlagRequired("pattern")
	return cmd
}

func (a *app) joinCmd() *cobra.Command {
	var (
		columns   []string
		rename    map[string]string
		tolerance float64
		out       string
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:   "join <base> <other>",
		Short: "Copy columns of other into base for rows matched by position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := catalog.ReadFile(args[0])
			if err != nil {
				return err
			}
			other, err := catalog.ReadFile(args[1])
			if err != nil {
				return err
			}
			opt := table.JoinOptions{
				Rename:    rename,
				Tolerance: unit.AngleFromSec(tolerance),
			}
			if cmd.Flags().Changed("columns") {
				opt.Columns = columns
			}
			t, n, err := table.JoinByCoordinates(base, other, opt)
			if err != nil {
				return err
			}
			a.log.Info("joined", zap.Int("matches", n), zap.Int("rows", t.Len()),
				zap.Int("columns", t.NumCols()))
			return writeTable(cmd, t, out, overwrite)
		},
	}
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "columns of other to join (default all)")
	cmd.Flags().StringToStringVar(&rename, "rename", nil, "rename joined columns, OLD=NEW")
	cmd.Flags().Float64Var(&tolerance, "tolerance", table.DefaultTolerance.Sec(), "match radius in arc seconds")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default CSV to stdout)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing output file")
	return cmd
}

// parseValue reads a literal for fill.
func parseValue(s string) interface{} {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

func (a *app) fillCmd() *cobra.Command {
	var (
		out       string
		overwrite bool
	)
	cmd := &cobra.Command{
		Use:   "fill <file> <condition> COL=VALUE...",
		Short: "Set column values on rows matching a condition",
		Long: `fill sets each COL to VALUE on the rows of file where condition holds.
A condition compares one column with a value, for example "ZQUALITY >= 3"
or 'TELNAME == "MMT"'.`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := table.ParseCmp(args[1])
			if err != nil {
				return err
			}
			values := map[string]interface{}{}
			for _, kv := range args[2:] {
				k, v, ok := strings.Cut(kv, "=")
				if !ok || k == "" {
					return fmt.Errorf("invalid assignment %q, want COL=VALUE", kv)
				}
				values[k] = parseValue(v)
			}
			t, err := catalog.ReadFile(args[0])
			if err != nil {
				return err
			}
			t, n, err := table.FillValuesByQuery(t, q, values)
			if err != nil {
				return err
			}
			a.log.Info("filled", zap.Int("rows", n))
			return writeTable(cmd, t, out, overwrite)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default CSV to stdout)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace an existing output file")
	return cmd
}

// readObscodes reads an obscode file, fetching a fresh copy if it cannot
// be read.
func readObscodes(fn string, log *zap.Logger) (site.Map, error) {
	m, readErr := site.ReadObscodesFile(fn)
	if readErr == nil {
		return m, nil
	}
	log.Warn("cannot read obscodes, fetching", zap.String("file", fn), zap.Error(readErr))
	if err := site.FetchObscodes(site.ObscodesURL, fn); err != nil {
		return nil, err
	}
	return site.ReadObscodesFile(fn)
}

func (a *app) sitesCmd() *cobra.Command {
	var obscodes string
	cmd := &cobra.Command{
		Use:   "sites",
		Short: "List observatory sites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := a.cfg.SiteMap()
			if obscodes != "" {
				var err error
				if m, err = readObscodes(obscodes, a.log); err != nil {
					return err
				}
			}
			w := cmd.OutOrStdout()
			for _, k := range m.Names() {
				s := m[k]
				fmt.Fprintf(w, "%-8s %.1s  %.6f %+.6f  %s\n",
					k, sexa.FmtAngle(s.Longitude), s.RhoCosPhi, s.RhoSinPhi, s.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&obscodes, "obscodes", "", "list sites of an MPC obscode file instead")
	return cmd
}
