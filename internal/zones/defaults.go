package zones

import "github.com/ongkir/fare-service/internal/geo"

// DefaultOrigin is the pickup point every quote is measured from (the store
// in Kemang, Jakarta Selatan).
var DefaultOrigin = geo.Coordinate{Lat: -6.2615, Lng: 106.8106}

// RemoteZoneName names the catch-all zone.
const RemoteZoneName = "Luar Jabodetabek"

// DefaultZones returns the built-in Jabodetabek table. The remote zone is last.
func DefaultZones() []DeliveryZone {
	return []DeliveryZone{
		{
			Name:         "Jakarta Selatan",
			CityKeywords: []string{"jakarta selatan", "jaksel"},
			DistrictKeywords: []string{
				"kebayoran baru", "kebayoran lama", "kemang", "mampang prapatan", "pancoran",
				"cilandak", "pasar minggu", "jagakarsa", "pesanggrahan", "setiabudi", "tebet",
				"senayan", "fatmawati", "pondok indah", "kuningan",
			},
			PostalPrefixes: []string{"121", "122", "123", "124", "125", "126", "127", "128", "129"},
			Centroid:       geo.Coordinate{Lat: -6.2650, Lng: 106.8100},
			DistanceClass:  Near,
		},
		{
			Name:         "Jakarta Pusat",
			CityKeywords: []string{"jakarta pusat", "jakpus"},
			DistrictKeywords: []string{
				"menteng", "tanah abang", "gambir", "sawah besar", "kemayoran", "senen",
				"cempaka putih", "johar baru", "thamrin", "monas",
			},
			PostalPrefixes: []string{"101", "102", "103", "104", "105", "106", "107"},
			Centroid:       geo.Coordinate{Lat: -6.1865, Lng: 106.8341},
			DistanceClass:  Near,
		},
		{
			Name:         "Jakarta Barat",
			CityKeywords: []string{"jakarta barat", "jakbar"},
			DistrictKeywords: []string{
				"kebon jeruk", "palmerah", "grogol petamburan", "kembangan", "cengkareng",
				"kalideres", "taman sari", "tambora", "puri indah", "slipi",
			},
			PostalPrefixes: []string{"111", "112", "113", "114", "115", "116", "117", "118"},
			Centroid:       geo.Coordinate{Lat: -6.1674, Lng: 106.7637},
			DistanceClass:  Medium,
		},
		{
			Name:         "Jakarta Timur",
			CityKeywords: []string{"jakarta timur", "jaktim"},
			DistrictKeywords: []string{
				"jatinegara", "kramat jati", "pasar rebo", "ciracas", "cipayung", "makasar",
				"duren sawit", "cakung", "pulo gadung", "matraman", "rawamangun",
			},
			PostalPrefixes: []string{"131", "132", "133", "134", "135", "136", "137", "138", "139"},
			Centroid:       geo.Coordinate{Lat: -6.2250, Lng: 106.9004},
			DistanceClass:  Medium,
		},
		{
			Name:         "Jakarta Utara",
			CityKeywords: []string{"jakarta utara", "jakut"},
			DistrictKeywords: []string{
				"kelapa gading", "tanjung priok", "koja", "cilincing", "pademangan",
				"penjaringan", "pluit", "sunter", "ancol",
			},
			PostalPrefixes: []string{"141", "142", "143", "144", "145"},
			Centroid:       geo.Coordinate{Lat: -6.1384, Lng: 106.8636},
			DistanceClass:  Medium,
		},
		{
			Name:         "Depok",
			CityKeywords: []string{"depok"},
			DistrictKeywords: []string{
				"beji", "margonda", "pancoran mas", "sukmajaya", "cimanggis", "sawangan",
				"limo", "cinere", "tapos", "bojongsari", "cilodong", "cipayung jaya",
			},
			PostalPrefixes: []string{"164"},
			Centroid:       geo.Coordinate{Lat: -6.4025, Lng: 106.7942},
			Rates: map[string]ZoneRate{
				"gosend-instant": {Base: 28000},
				"grab-instant":   {Base: 27000},
			},
			DistanceClass: Medium,
		},
		{
			Name:         "Tangerang Selatan",
			CityKeywords: []string{"tangerang selatan", "tangsel"},
			DistrictKeywords: []string{
				"bintaro", "bsd", "serpong", "ciputat", "pamulang", "pondok aren", "setu",
				"alam sutera",
			},
			PostalPrefixes: []string{"153", "154"},
			Centroid:       geo.Coordinate{Lat: -6.2886, Lng: 106.7179},
			DistanceClass:  Medium,
		},
		{
			Name:         "Tangerang",
			CityKeywords: []string{"tangerang"},
			DistrictKeywords: []string{
				"karawaci", "cipondoh", "ciledug", "batuceper", "benda", "cikokol",
				"gading serpong", "kelapa dua", "tigaraksa",
			},
			PostalPrefixes: []string{"151", "152", "155", "156", "157"},
			Centroid:       geo.Coordinate{Lat: -6.1783, Lng: 106.6319},
			Rates: map[string]ZoneRate{
				"gosend-sameday": {MinFare: 20000},
				"grab-sameday":   {MinFare: 20000},
			},
			DistanceClass: Far,
		},
		{
			Name:         "Bekasi",
			CityKeywords: []string{"bekasi"},
			DistrictKeywords: []string{
				"bekasi barat", "bekasi timur", "bekasi utara", "bekasi selatan", "jatiasih",
				"pondok gede", "jatisampurna", "mustika jaya", "summarecon", "harapan indah",
				"cikarang", "tambun",
			},
			PostalPrefixes: []string{"171", "172", "173", "174", "175", "176", "177"},
			Centroid:       geo.Coordinate{Lat: -6.2383, Lng: 106.9756},
			Rates: map[string]ZoneRate{
				"gosend-sameday": {Base: 22000},
			},
			DistanceClass: Far,
		},
		{
			Name:         "Bogor",
			CityKeywords: []string{"bogor"},
			DistrictKeywords: []string{
				"cibinong", "bojong gede", "citeureup", "sentul", "cileungsi", "gunung putri",
				"parung", "dramaga", "cisarua",
			},
			PostalPrefixes: []string{"161", "166", "167", "168", "169"},
			Centroid:       geo.Coordinate{Lat: -6.5971, Lng: 106.8060},
			Rates: map[string]ZoneRate{
				"paxel": {Base: 30000},
			},
			DistanceClass: Far,
		},
		{
			Name:          RemoteZoneName,
			Centroid:      geo.Coordinate{Lat: -6.4817, Lng: 106.8540},
			DistanceClass: Far,
			Rates: map[string]ZoneRate{
				"gosend-sameday": {Base: 32000},
				"grab-sameday":   {Base: 32000},
				"paxel":          {Base: 35000},
			},
		},
	}
}
