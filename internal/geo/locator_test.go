package geo_test

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/SergeiKhy/shorturls/internal/geo"
	"github.com/maxmind/mmdbwriter"
	"github.com/maxmind/mmdbwriter/mmdbtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticLocator(t *testing.T) {
	var l geo.Locator = geo.StaticLocator{}
	assert.Equal(t, geo.Unknown, l.Locate("127.0.0.1"))
	assert.Equal(t, geo.Unknown, l.Locate("8.8.8.8"))
}

func TestNewMaxMindLocator_MissingDatabase(t *testing.T) {
	l, err := geo.NewMaxMindLocator(filepath.Join(t.TempDir(), "missing.mmdb"))
	assert.Error(t, err)
	assert.Nil(t, l)
}

func TestMaxMindLocator_ClosedOrPrivate(t *testing.T) {
	l := &geo.MaxMindLocator{}

	for _, ip := range []string{"127.0.0.1", "10.0.0.1", "192.168.1.10", "::1", "not-an-ip", "8.8.8.8"} {
		assert.Equal(t, geo.Unknown, l.Locate(ip), ip)
	}
	assert.NoError(t, l.Close())
}

// writeCityDatabase строит небольшую базу GeoIP2-City с одной сетью
func writeCityDatabase(t *testing.T) string {
	t.Helper()

	tree, err := mmdbwriter.New(mmdbwriter.Options{
		DatabaseType: "GeoIP2-City",
		RecordSize:   28,
	})
	require.NoError(t, err)

	_, network, err := net.ParseCIDR("81.2.69.0/24")
	require.NoError(t, err)
	require.NoError(t, tree.Insert(network, mmdbtype.Map{
		"city": mmdbtype.Map{
			"names": mmdbtype.Map{"en": mmdbtype.String("London")},
		},
		"country": mmdbtype.Map{
			"iso_code": mmdbtype.String("GB"),
			"names":    mmdbtype.Map{"en": mmdbtype.String("United Kingdom")},
		},
	}))

	path := filepath.Join(t.TempDir(), "GeoIP2-City-Test.mmdb")
	f, err := os.Create(path)
	require.NoError(t, err)
	_, err = tree.WriteTo(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	return path
}

func TestMaxMindLocator_Lookup(t *testing.T) {
	l, err := geo.NewMaxMindLocator(writeCityDatabase(t))
	require.NoError(t, err)
	defer l.Close()

	assert.Equal(t, "London, GB", l.Locate("81.2.69.142"))
	assert.Equal(t, geo.Unknown, l.Locate("8.8.8.8"), "address outside the database")
	assert.Equal(t, geo.Unknown, l.Locate("127.0.0.1"))

	require.NoError(t, l.Close())
	assert.Equal(t, geo.Unknown, l.Locate("81.2.69.142"), "closed reader")
}
