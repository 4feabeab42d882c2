package fare

import (
	"strings"

	"github.com/ongkir/fare-service/internal/geo"
)

// UnknownSizeWeightKg is used for size classes missing from the table.
const UnknownSizeWeightKg = 0.2

// sizeWeightsKg maps a product size class to its shipping weight.
var sizeWeightsKg = map[string]float64{
	"xs":    0.1,
	"s":     0.2,
	"m":     0.35,
	"l":     0.5,
	"xl":    0.75,
	"xxl":   1.0,
	"jumbo": 2.0,
}

// CartItem is one cart line as far as shipping weight is concerned.
type CartItem struct {
	SizeClass string `json:"sizeClass" jsonschema:"example=m"`
	Quantity  int    `json:"quantity" jsonschema:"minimum=0"`
}

// SizeWeightKg returns the weight of one item of sizeClass.
func SizeWeightKg(sizeClass string) float64 {
	if w, ok := sizeWeightsKg[strings.ToLower(strings.TrimSpace(sizeClass))]; ok {
		return w
	}
	return UnknownSizeWeightKg
}

// CartWeightKg sums the cart's shipping weight. Negative quantities count as
// zero.
func CartWeightKg(items []CartItem) float64 {
	total := 0.0
	for _, it := range items {
		if it.Quantity <= 0 {
			continue
		}
		total += SizeWeightKg(it.SizeClass) * float64(it.Quantity)
	}
	return geo.Round2(total)
}
