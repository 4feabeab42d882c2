package geo

// VehicleProfile selects the straight-line to road adjustment curve.
type VehicleProfile string

const (
	// ProfileMotorcycle is used by instant bike couriers, which cut through
	// smaller streets and need less detour.
	ProfileMotorcycle VehicleProfile = "motorcycle"
	// ProfileGeneric is used by van/car based same-day couriers.
	ProfileGeneric VehicleProfile = "generic"
)

type adjustmentTier struct {
	belowKm    float64 // upper bound (exclusive); 0 = unbounded
	multiplier float64
}

// Tiers must stay monotonically non-decreasing in distance.
var adjustmentTiers = map[VehicleProfile][]adjustmentTier{
	ProfileMotorcycle: {
		{belowKm: 10, multiplier: 1.2},
		{belowKm: 30, multiplier: 1.35},
		{belowKm: 0, multiplier: 1.45},
	},
	ProfileGeneric: {
		{belowKm: 10, multiplier: 1.3},
		{belowKm: 30, multiplier: 1.45},
		{belowKm: 0, multiplier: 1.6},
	},
}

// AdjustmentMultiplier returns the factor applied to a straight-line distance
// when no routing provider answered. Unknown profiles use ProfileGeneric.
func AdjustmentMultiplier(profile VehicleProfile, straightKm float64) float64 {
	tiers, ok := adjustmentTiers[profile]
	if !ok {
		tiers = adjustmentTiers[ProfileGeneric]
	}
	for _, t := range tiers {
		if t.belowKm == 0 || straightKm < t.belowKm {
			return t.multiplier
		}
	}
	return tiers[len(tiers)-1].multiplier
}

// EstimatedRoadKm converts a straight-line distance into an approximate road
// distance, rounded to two decimals.
func EstimatedRoadKm(profile VehicleProfile, straightKm float64) float64 {
	if straightKm <= 0 {
		return 0
	}
	return Round2(straightKm * AdjustmentMultiplier(profile, straightKm))
}
