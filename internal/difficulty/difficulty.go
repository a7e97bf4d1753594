// Package difficulty grades routes into ordinal tiers from distance and
// elevation gain. Tiers are produced only here; callers can read them but
// never set them.
package difficulty

import "fmt"

// Tier is an ordinal difficulty grade. Higher values are harder.
type Tier int

const (
	Easy Tier = iota
	Moderate
	Difficult
	VeryDifficult
	Extreme
)

var tierNames = [...]string{"easy", "moderate", "difficult", "very_difficult", "extreme"}

func (t Tier) String() string {
	if t < Easy || t > Extreme {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierNames[t]
}

func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(text []byte) error {
	for i, name := range tierNames {
		if string(text) == name {
			*t = Tier(i)
			return nil
		}
	}
	return fmt.Errorf("unknown difficulty tier %q", text)
}

// Thresholds holds the lower bounds at which a route attains each tier above
// Easy. They arrive with the call, not from process-wide state, so products
// can tune them per deployment.
type Thresholds struct {
	ModerateKm        float64 `json:"moderate_km"`
	ModerateGainM     float64 `json:"moderate_gain_m"`
	DifficultKm       float64 `json:"difficult_km"`
	DifficultGainM    float64 `json:"difficult_gain_m"`
	VeryDifficultKm   float64 `json:"very_difficult_km"`
	VeryDifficultGainM float64 `json:"very_difficult_gain_m"`
	ExtremeKm         float64 `json:"extreme_km"`
	ExtremeGainM      float64 `json:"extreme_gain_m"`
}

// DefaultThresholds carries the reference boundaries: easy below 30 km and
// 500 m gain, extreme from 150 km or 2500 m gain.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ModerateKm: 30, ModerateGainM: 500,
		DifficultKm: 60, DifficultGainM: 1000,
		VeryDifficultKm: 100, VeryDifficultGainM: 1500,
		ExtremeKm: 150, ExtremeGainM: 2500,
	}
}

type bound struct {
	tier  Tier
	km    float64
	gainM float64
}

func (th Thresholds) bounds() [4]bound {
	return [4]bound{
		{Extreme, th.ExtremeKm, th.ExtremeGainM},
		{VeryDifficult, th.VeryDifficultKm, th.VeryDifficultGainM},
		{Difficult, th.DifficultKm, th.DifficultGainM},
		{Moderate, th.ModerateKm, th.ModerateGainM},
	}
}

// Classify returns the highest tier whose distance or elevation-gain bound is
// met; whichever dimension is more severe wins. Absent elevation grades by
// distance alone. The function is pure and total.
func Classify(distanceKm float64, elevationGainM *float64, th Thresholds) Tier {
	for _, b := range th.bounds() {
		if distanceKm >= b.km {
			return b.tier
		}
		if elevationGainM != nil && *elevationGainM >= b.gainM {
			return b.tier
		}
	}
	return Easy
}
