// Public domain.

// Package sdss builds the SAGA catalog query for the SDSS SkyServer, runs it
// through the CasJobs REST service, fetches unWISE photometry, and
// downloads catalogs for lists of hosts.
package sdss

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/soniakeys/unit"
	xrand "golang.org/x/exp/rand"
)

// DefaultRadius is the search radius around a host.
var DefaultRadius = unit.AngleFromDeg(1)

const queryTemplate = `
SELECT  p.objId  as OBJID,
p.ra as RA, p.dec as DEC,
p.type as PHOTPTYPE,  dbo.fPhotoTypeN(p.type) as PHOT_SG,

p.flags as FLAGS, p.clean,
flags & dbo.fPhotoFlags('SATURATED') as SATURATED,
flags & dbo.fPhotoFlags('BAD_COUNTS_ERROR') as BAD_COUNTS_ERROR,
flags & dbo.fPhotoFlags('BINNED1') as BINNED1,
flags & dbo.fPhotoFlags('TOO_FEW_GOOD_DETECTIONS') as TOO_FEW_GOOD_DETECTIONS,

p.modelMag_u as u, p.modelMag_g as g, p.modelMag_r as r,p.modelMag_i as i,p.modelMag_z as z,
p.modelMagErr_u as u_err, p.modelMagErr_g as g_err,
p.modelMagErr_r as r_err,p.modelMagErr_i as i_err,p.modelMagErr_z as z_err,

p.MODELMAGERR_U,p.MODELMAGERR_G,p.MODELMAGERR_R,p.MODELMAGERR_I,p.MODELMAGERR_Z,

p.EXTINCTION_U, p.EXTINCTION_G, p.EXTINCTION_R, p.EXTINCTION_I, p.EXTINCTION_Z,
p.DERED_U,p.DERED_G,p.DERED_R,p.DERED_I,p.DERED_Z,

p.PETRORAD_U,p.PETRORAD_G,p.PETRORAD_R,p.PETRORAD_I,p.PETRORAD_Z,
p.PETRORADERR_U,p.PETRORADERR_G,p.PETRORADERR_R,p.PETRORADERR_I,p.PETRORADERR_Z,

p.DEVRAD_U,p.DEVRADERR_U,p.DEVRAD_G,p.DEVRADERR_G,p.DEVRAD_R,p.DEVRADERR_R,
p.DEVRAD_I,p.DEVRADERR_I,p.DEVRAD_Z,p.DEVRADERR_Z,
p.DEVAB_U,p.DEVAB_G,p.DEVAB_R,p.DEVAB_I,p.DEVAB_Z,

p.CMODELMAG_U, p.CMODELMAGERR_U, p.CMODELMAG_G,p.CMODELMAGERR_G,
p.CMODELMAG_R, p.CMODELMAGERR_R, p.CMODELMAG_I,p.CMODELMAGERR_I,
p.CMODELMAG_Z, p.CMODELMAGERR_Z,

p.PSFMAG_U, p.PSFMAGERR_U, p.PSFMAG_G, p.PSFMAGERR_G,
p.PSFMAG_R, p.PSFMAGERR_R, p.PSFMAG_I, p.PSFMAGERR_I,
p.PSFMAG_Z, p.PSFMAGERR_Z,

p.FIBERMAG_U, p.FIBERMAGERR_U, p.FIBERMAG_G, p.FIBERMAGERR_G,
p.FIBERMAG_R, p.FIBERMAGERR_R, p.FIBERMAG_I, p.FIBERMAGERR_I,
p.FIBERMAG_Z, p.FIBERMAGERR_Z,

p.FRACDEV_U, p.FRACDEV_G, p.FRACDEV_R, p.FRACDEV_I, p.FRACDEV_Z,
p.Q_U,p.U_U, p.Q_G,p.U_G, p.Q_R,p.U_R, p.Q_I,p.U_I, p.Q_Z,p.U_Z,

p.EXPAB_U, p.EXPRAD_U, p.EXPPHI_U, p.EXPAB_G, p.EXPRAD_G, p.EXPPHI_G,
p.EXPAB_R, p.EXPRAD_R, p.EXPPHI_R, p.EXPAB_I, p.EXPRAD_I, p.EXPPHI_I,
p.EXPAB_Z, p.EXPRAD_Z, p.EXPPHI_Z,

p.FIBER2MAG_R, p.FIBER2MAGERR_R,
p.EXPMAG_R, p.EXPMAGERR_R,

p.PETROR50_R, p.PETROR90_R, p.PETROMAG_R,
p.expMag_r + 2.5*log10(2*PI()*p.expRad_r*p.expRad_r + 1e-20) as SB_EXP_R,
p.petroMag_r + 2.5*log10(2*PI()*p.petroR50_r*p.petroR50_r) as SB_PETRO_R,

ISNULL(w.j_m_2mass,9999) as J, ISNULL(w.j_msig_2mass,9999) as JERR,
ISNULL(w.H_m_2mass,9999) as H, ISNULL(w.h_msig_2mass,9999) as HERR,
ISNULL(w.k_m_2mass,9999) as K, ISNULL(w.k_msig_2mass,9999) as KERR,

s.survey,
ISNULL(s.z, -1) as SPEC_Z, ISNULL(s.zErr, -1) as SPEC_Z_ERR, ISNULL(s.zWarning, -1) as SPEC_Z_WARN,
ISNULL(pz.z,-1) as PHOTOZ, ISNULL(pz.zerr,-1) as PHOTOZ_ERR

FROM dbo.fGetNearbyObjEq(%.10g, %.10g, %.10g) n, PhotoPrimary p
INTO mydb.%s
LEFT JOIN SpecObj s ON p.specObjID = s.specObjID
LEFT JOIN PHOTOZ  pz ON p.ObjID = pz.ObjID
LEFT join WISE_XMATCH as wx on p.objid = wx.sdss_objid
LEFT join wise_ALLSKY as w on  wx.wise_cntr = w.cntr
WHERE n.objID = p.objID
`

var (
	rxSpace    = regexp.MustCompile(`\s+`)
	rxNotAlpha = regexp.MustCompile(`[^A-Za-z]`)
)

// ConstructQuery returns the SkyServer SQL selecting SDSS photometry,
// spectra, photo-z and 2MASS magnitudes of objects within radius of a
// position given in degrees.  Results go to the CasJobs table
// mydb.dbTable; with an empty dbTable they are returned directly.
func ConstructQuery(ra, dec float64, radius unit.Angle, dbTable string) string {
	name := dbTable
	if name == "" {
		name = "TO_BE_REMOVED"
	}
	q := fmt.Sprintf(queryTemplate, ra, dec, radius.Deg()*60, name)
	q = strings.TrimSpace(rxSpace.ReplaceAllString(q, " "))
	q = strings.ReplaceAll(q, ", ", ",")
	if dbTable == "" {
		q = strings.Replace(q, "INTO mydb."+name+" ", "", 1)
	}
	return q
}

// RandomTableName returns "SAGA" followed by four random lower case
// letters.
func RandomTableName(rnd *xrand.Rand) string {
	b := []byte("SAGA....")
	for i := 4; i < len(b); i++ {
		b[i] = byte('a' + rnd.Intn(26))
	}
	return string(b)
}

// SanitizeTableName keeps only the ASCII letters of s.
func SanitizeTableName(s string) string {
	return rxNotAlpha.ReplaceAllString(s, "")
}

// DefaultWiseURL is the unWISE forced photometry service.
const DefaultWiseURL = "http://unwise.me/phot_near/"

// WiseURL returns the unWISE query for sources within radius of a position
// in degrees.  An empty base means DefaultWiseURL.
func WiseURL(base string, ra, dec float64, radius unit.Angle) string {
	if base == "" {
		base = DefaultWiseURL
	}
	return fmt.Sprintf("%s?ra=%f&dec=%f&radius=%f&datatype=flat&version=sdss-dr10d",
		base, ra, dec, radius.Deg())
}
