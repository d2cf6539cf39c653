// Public domain.

/*
Command saga reads and combines the catalogs of the SAGA survey, a search
for satellite galaxies around Milky Way analogs.

# Program overview

Redshifts measured by SAGA come from several telescopes, each with its own
file format.  The specs command reads one telescope's files into a common
table with the columns

	SPECOBJID  RA  DEC  SPEC_Z  SPEC_Z_ERR  ZQUALITY  MASKNAME  TELNAME  HELIO_CORR

RA and DEC are degrees.  SPEC_Z_ERR is 99 when a source gives no error.
HELIO_CORR is true when a heliocentric velocity correction has been added
to SPEC_Z.

Tables can be stored as FITS binary tables, CSV, or SQLite, chosen by the
file extension: .fits or .fit, .csv, .sqlite or .db.  FITS and CSV files
may be gzip compressed with a further .gz extension.

The join command combines two tables by sky position and the fill command
sets values on rows matching a condition.  The resolve command turns host
names such as "AnaK", NSA IDs, and the group names all, paper1,
paper1_complete and paper1_incomplete into lists of NSA IDs.

# Command line usage

	saga resolve <host>...
	saga specs <telescope> [path] [--before date] [--out file | --key name]
	saga query <ra> <dec> [--radius deg] [--table name]
	saga download sdss|wise <host>... --pattern file{}.fits
	saga join <base> <other> [--columns a,b] [--rename a=b] [--tolerance arcsec]
	saga fill <file> <condition> COL=VALUE...
	saga sites [--obscodes file]
	saga version

All commands take --config and --log-level.  Output tables go to --out, or
as CSV to stdout.  Right ascension on the command line may be decimal
degrees or sexagesimal hours, as 10:30:00.

# Configuration file

The configuration file is YAML.  All sections are optional.

	database:
	  root: /data/SAGA
	  tables:
	    hosts_no_flags: hosts/host_list_no_flags.fits.gz
	    hosts_named: hosts/named_hosts.csv
	spectra:
	  mmt: Spectra/Final/MMT
	sites:
	  mmt: {lat: 31.6883, lon: -110.885, height: 2608}
	sdss:
	  context: DR14
	  token: ${SCISERVER_TOKEN}
	  use_portal: false
	  poll_interval: 10s
	download:
	  min_size: 1000000
	  compress: true
	  radius: 1

${VAR} references are replaced from the environment.  Table paths are
relative to database.root.  Sites add to or replace the builtin sites
mmt, sso, kpno, lco, keck and palomar.

# Telescope file formats

	mmt, aat          zlog text files, with a .fits.gz header beside each
	                  for the heliocentric correction
	aat_mz            comma separated .mz files, RA and DEC in radians,
	                  corrected like aat
	imacs             zlog text files with a mask name column
	wiyn              .fits.gz tables, RA in hours
	deimos            a fixed list
	palomar           one table file already in the common schema

Files named as conflicted copies by file sync tools are skipped.  With
--before, masks observed after the given date, time, or MJD are dropped.

# Downloading catalogs

The download command fetches one host at a time.  Files that exist are
kept unless --overwrite is given.  A download smaller than
download.min_size is taken as corrupt and removed.  IDs of hosts that
failed are printed and the command exits with an error.

SDSS queries go through the CasJobs REST service.  By default each query
runs as a batch job selecting into a temporary mydb table, which is
downloaded and then dropped.  With use_portal, queries run synchronously.
*/
package main
