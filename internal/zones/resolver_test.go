package zones

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ongkir/fare-service/internal/geo"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		text   string
		postal []string
	}{
		{"fillers and numbers", "Jl. Margonda Raya No. 100, RT 05/RW 02, Depok", "margonda raya depok", nil},
		{"postal code extracted", "Jalan Kemang Raya 12, Jakarta Selatan 12730", "kemang raya jakarta selatan", []string{"12730"}},
		{"diacritics", "Kecamatan Cinéré, Kota Dépok", "cinere depok", nil},
		{"mixed alnum dropped", "Gg. Kelinci 12A, Kel. Beji", "kelinci beji", nil},
		{"punctuation", "Bintaro-Sektor/9; Tangsel!", "bintaro sektor tangsel", nil},
		{"empty", "   ", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Normalize(tt.input)
			assert.Equal(t, tt.text, n.Text)
			assert.Equal(t, tt.postal, n.PostalCodes)
		})
	}
}

func TestResolveDefaults(t *testing.T) {
	r := MustDefault()

	tests := []struct {
		address string
		zone    string
	}{
		{"Jl. Margonda Raya No. 100, Depok", "Depok"},
		{"Jl. Kemang Raya 12, Jakarta Selatan", "Jakarta Selatan"},
		{"Menteng, Jakarta Pusat", "Jakarta Pusat"},
		{"Perumahan Summarecon, Bekasi Utara", "Bekasi"},
		{"Jl. Boulevard, Tangerang Selatan", "Tangerang Selatan"},
		{"Jl. Imam Bonjol, Karawaci, Tangerang", "Tangerang"},
		{"Sentul City, Kabupaten Bogor", "Bogor"},
		{"Kelapa Gading, Jakut", "Jakarta Utara"},
		{"Ruko 12 blok C, 16424", "Depok"},
		{"Jakarta", "Jakarta Selatan"},
	}
	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			m := r.Resolve(tt.address)
			assert.True(t, m.Matched)
			assert.Equal(t, tt.zone, m.Zone.Name)
		})
	}
}

func TestResolveUnknownFallsToRemote(t *testing.T) {
	r := MustDefault()
	for _, addr := range []string{"zzz-unknown-9999", "", "Jl. 12 No. 3", "Kota Surabaya"} {
		m := r.Resolve(addr)
		assert.False(t, m.Matched, addr)
		assert.Equal(t, 0, m.Score)
		assert.Equal(t, RemoteZoneName, m.Zone.Name)
	}
}

func TestResolveIsTotalAndDeterministic(t *testing.T) {
	r := MustDefault()
	inputs := []string{"", "a", "!!!", "Jl. Margonda Raya", "☃ snowman ☃", "12345", "tangerang selatan tangerang"}
	for _, in := range inputs {
		first := r.Resolve(in)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, r.Resolve(in))
		}
	}
}

func TestScoring(t *testing.T) {
	table := []DeliveryZone{
		{
			Name:             "Alpha",
			CityKeywords:     []string{"alpha city"},
			DistrictKeywords: []string{"north gate"},
			PostalPrefixes:   []string{"111"},
			Centroid:         geo.Coordinate{Lat: -6.2, Lng: 106.8},
			DistanceClass:    Near,
		},
		{
			Name:             "Beta",
			CityKeywords:     []string{"beta"},
			DistrictKeywords: []string{"south gate"},
			Centroid:         geo.Coordinate{Lat: -6.3, Lng: 106.8},
			DistanceClass:    Medium,
		},
		{Name: "Remote", Centroid: geo.Coordinate{Lat: -6.5, Lng: 106.8}, DistanceClass: Far},
	}
	r, err := NewResolver(table)
	require.NoError(t, err)

	tests := []struct {
		name  string
		addr  string
		zone  string
		score int
	}{
		{"city", "Alpha City", "Alpha", CityScore},
		{"city and district", "North Gate, Alpha City", "Alpha", CityScore + DistrictScore},
		{"fragment only", "Alpha", "Alpha", FragmentScore},
		{"postal only", "11150", "Alpha", PostalScore},
		{"district beats fragment", "South Gate", "Beta", DistrictScore},
		{"city beats fragment", "Alpha Beta", "Beta", CityScore},
		{"shared fragment goes to first zone", "Gate", "Alpha", FragmentScore},
		{"every fragment counts", "North Alpha", "Alpha", 2 * FragmentScore},
		{"full match beats two fragments", "North Gate South", "Alpha", DistrictScore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := r.Resolve(tt.addr)
			assert.Equal(t, tt.zone, m.Zone.Name)
			assert.Equal(t, tt.score, m.Score)
		})
	}
}

func TestResolveFragmentsInDefaultTable(t *testing.T) {
	r := MustDefault()

	tests := []struct {
		addr  string
		zone  string
		score int
	}{
		{"Selatan", "Jakarta Selatan", FragmentScore},
		{"Indah Pondok", "Jakarta Selatan", 2 * FragmentScore},
		{"Petamburan Grogol", "Jakarta Barat", 2 * FragmentScore},
		{"Surabaya, Jawa Timur", "Jakarta Timur", FragmentScore},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			m := r.Resolve(tt.addr)
			assert.True(t, m.Matched)
			assert.Equal(t, tt.zone, m.Zone.Name)
			assert.Equal(t, tt.score, m.Score)
		})
	}
}

func TestFragmentStopwords(t *testing.T) {
	r, err := NewResolver(DefaultZones(), WithFragmentStopwords("Selatan", "pondok"))
	require.NoError(t, err)

	assert.False(t, r.Resolve("Selatan").Matched)
	m := r.Resolve("Indah Pondok")
	assert.Equal(t, FragmentScore, m.Score, "indah still counts")

	full := r.Resolve("Jl. Kemang Raya 12, Jakarta Selatan")
	assert.Equal(t, "Jakarta Selatan", full.Zone.Name)
	assert.Equal(t, CityScore+DistrictScore, full.Score)
}

func TestTieGoesToFirstListedZone(t *testing.T) {
	table := []DeliveryZone{
		{Name: "First", CityKeywords: []string{"shared"}, Centroid: geo.Coordinate{Lat: -6.2, Lng: 106.8}, DistanceClass: Near},
		{Name: "Second", CityKeywords: []string{"shared"}, Centroid: geo.Coordinate{Lat: -6.3, Lng: 106.8}, DistanceClass: Near},
		{Name: "Remote", Centroid: geo.Coordinate{Lat: -6.5, Lng: 106.8}, DistanceClass: Far},
	}
	r, err := NewResolver(table)
	require.NoError(t, err)

	assert.Equal(t, "First", r.Resolve("shared").Zone.Name)
	assert.Equal(t, []Duplicate{{Keyword: "shared", Zones: []string{"First", "Second"}}}, r.Duplicates())
}

func TestDefaultTableHasNoDuplicateKeywords(t *testing.T) {
	assert.Empty(t, MustDefault().Duplicates())
}

func TestResolverDoesNotLeakMutableState(t *testing.T) {
	r := MustDefault()
	m := r.Resolve("Depok")
	m.Zone.Rates["gosend-instant"] = ZoneRate{Base: 1}
	m.Zone.CityKeywords[0] = "mutated"

	again := r.Resolve("Depok")
	assert.Equal(t, int64(28000), again.Zone.Rates["gosend-instant"].Base)
	assert.Equal(t, "depok", again.Zone.CityKeywords[0])
}

func TestNearestAndLookup(t *testing.T) {
	r := MustDefault()
	assert.Equal(t, "Jakarta Selatan", r.Nearest(DefaultOrigin).Name)

	z, ok := r.Lookup("depok")
	require.True(t, ok)
	assert.Equal(t, "Depok", z.Name)

	_, ok = r.Lookup("Bandung")
	assert.False(t, ok)

	assert.True(t, r.IsRemote(RemoteZoneName))
	assert.False(t, r.IsRemote("Depok"))
	assert.Equal(t, RemoteZoneName, r.Remote().Name)
	assert.Len(t, r.Zones(), len(DefaultZones()))
}

func TestValidate(t *testing.T) {
	ok := geo.Coordinate{Lat: -6.2, Lng: 106.8}
	tests := []struct {
		name  string
		table []DeliveryZone
	}{
		{"empty", nil},
		{"missing name", []DeliveryZone{{Centroid: ok, DistanceClass: Far}}},
		{"bad class", []DeliveryZone{{Name: "A", Centroid: ok, DistanceClass: "close"}}},
		{"remote not far", []DeliveryZone{{Name: "A", Centroid: ok, DistanceClass: Near}}},
		{"duplicate names", []DeliveryZone{
			{Name: "A", Centroid: ok, DistanceClass: Near},
			{Name: "a", Centroid: ok, DistanceClass: Far},
		}},
		{"negative rate", []DeliveryZone{{Name: "A", Centroid: ok, DistanceClass: Far, Rates: map[string]ZoneRate{"paxel": {Base: -1}}}}},
		{"bad centroid", []DeliveryZone{{Name: "A", Centroid: geo.Coordinate{Lat: 100}, DistanceClass: Far}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, Validate(tt.table))
		})
	}

	assert.NoError(t, Validate(DefaultZones()))
}
