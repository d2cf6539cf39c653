// Public domain.

package sagaprog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagasurvey/saga/sdss"
)

func writeConfig(t *testing.T, yml string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "saga.yaml")
	require.NoError(t, os.WriteFile(p, []byte(yml), 0o644))
	return p
}

func TestDefaultConfig(t *testing.T) {
	c, err := LoadConfig("")
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	assert.Equal(t, "DR14", c.SDSS.Context)
	assert.Equal(t, sdss.DefaultBaseURL, c.SDSS.BaseURL)
	assert.Equal(t, int64(sdss.DefaultMinSize), c.Download.MinSize)
	assert.Contains(t, c.Database.Tables, "hosts_named")
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SAGA_TEST_TOKEN", "secret")
	p := writeConfig(t, `
database:
  root: /data/SAGA
  tables:
    hosts_named: hosts/named.csv
spectra:
  MMT: Spectra/MMT
sites:
  mytel: {lat: 10.5, lon: -20, height: 100}
sdss:
  token: ${SAGA_TEST_TOKEN}
  use_portal: true
  poll_interval: 30s
download:
  min_size: -1
`)
	c, err := LoadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, "/data/SAGA", c.Database.Root)
	assert.Equal(t, "hosts/named.csv", c.Database.Tables["hosts_named"])
	assert.Equal(t, "hosts/host_list_no_flags.fits.gz", c.Database.Tables["hosts_no_flags"], "defaults kept")
	assert.Equal(t, "secret", c.SDSS.Token)
	assert.True(t, c.SDSS.UsePortal)
	assert.Equal(t, 30*time.Second, c.SDSS.PollInterval)
	assert.Equal(t, "DR14", c.SDSS.Context)
	assert.Equal(t, int64(-1), c.Download.MinSize)
	assert.Equal(t, "Spectra/MMT", c.SpectraPath("mmt"))
	assert.Empty(t, c.SpectraPath("aat"))

	m := c.SiteMap()
	s, err := m.Lookup("MyTel")
	require.NoError(t, err)
	assert.InDelta(t, -20, s.Longitude.Deg(), 1e-12)
	_, err = m.Lookup("mmt")
	assert.NoError(t, err, "builtin sites kept")

	db := c.OpenDatabase()
	e, err := db.Get("hosts_named")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data/SAGA", "hosts/named.csv"), e.File.Path)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	for _, tc := range []struct {
		name, yml string
	}{
		{"syntax", "database: [\n"},
		{"root", "database: {root: ''}\n"},
		{"table path", "database: {tables: {hosts_named: ''}}\n"},
		{"telescope", "spectra: {hubble: x}\n"},
		{"latitude", "sites: {x: {lat: 91}}\n"},
		{"context", "sdss: {context: ''}\n"},
		{"poll", "sdss: {poll_interval: -1s}\n"},
		{"radius", "download: {radius: 0}\n"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.yml))
			assert.Error(t, err)
		})
	}
}
