// Package fortune keeps the AFK and ASAP fortune inputs either linked to a
// single value or independently tunable.
package fortune

import "github.com/GiantWizard/wiz/mutations/internal/profit"

const MaxFortune = 4000

type Target string

const (
	TargetAFK  Target = "afk"
	TargetASAP Target = "asap"
)

// Fields are the two per-strategy fortune inputs.
type Fields struct {
	AFK  float64 `json:"fortuneAfk"`
	ASAP float64 `json:"fortuneAsap"`
}

var fortuneDomain profit.Domain = profit.IntegerRangeDomain{Min: 0, Max: MaxFortune}

// Sanitize rounds v to an integer in [0, MaxFortune]; non-finite is 0.
func Sanitize(v float64) float64 {
	return fortuneDomain.Normalize(v)
}

// SyncOnToggle is applied when the link flag changes. Linking copies the
// AFK value onto both fields; unlinking leaves the pair untouched.
func SyncOnToggle(linked bool, cur Fields) Fields {
	if !linked {
		return cur
	}
	v := Sanitize(cur.AFK)
	return Fields{AFK: v, ASAP: v}
}

// ApplyChange writes next to target, or to both fields while linked.
func ApplyChange(target Target, next float64, linked bool, cur Fields) Fields {
	v := Sanitize(next)
	if linked {
		return Fields{AFK: v, ASAP: v}
	}
	if target == TargetAFK {
		return Fields{AFK: v, ASAP: cur.ASAP}
	}
	return Fields{AFK: cur.AFK, ASAP: v}
}
