package choropleth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegionCatalog(t *testing.T) {
	catalog := DefaultRegionCatalog()
	assert.Equal(t, 52, catalog.Len())
	assert.True(t, catalog.Has("Texas"))
	assert.True(t, catalog.Has("District of Columbia"))
	assert.False(t, catalog.Has("texas"))
	assert.Equal(t, "TX", catalog.Code("Texas"))

	names := catalog.Names()
	assert.True(t, strings.Compare(names[0], names[1]) < 0)
	assert.Same(t, catalog, DefaultRegionCatalog())
}

func TestDecodeRegionCatalog(t *testing.T) {
	catalog, err := DecodeRegionCatalog(strings.NewReader("regions:\n  - code: TX\n    name: Texas\n  - code: OH\n    name: Ohio\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Ohio", "Texas"}, catalog.Names())

	_, err = DecodeRegionCatalog(strings.NewReader("regions:\n  - name: Texas\n  - name: Texas\n"))
	assert.Error(t, err)

	_, err = NewRegionCatalog([]RegionEntry{{Code: "XX", Name: "  "}})
	assert.Error(t, err)
}

func TestRegionSlug(t *testing.T) {
	assert.Equal(t, "new-york", RegionSlug("New York"))
	assert.Equal(t, "district-of-columbia", RegionSlug("District of Columbia"))
	assert.Equal(t, "texas", RegionSlug("Texas"))
}

func TestNilCatalog(t *testing.T) {
	var catalog *RegionCatalog
	assert.False(t, catalog.Has("Texas"))
	assert.Zero(t, catalog.Len())
	assert.Nil(t, catalog.Names())
}
