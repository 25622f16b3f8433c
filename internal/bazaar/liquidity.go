package bazaar

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const week = 7 * 24 * time.Hour

var ErrNoVolume = errors.New("no insta-sell volume")

// InstasellFillTime estimates how long insta-selling qty units takes, given
// that buy orders absorb BuyMovingWeek units per week at a steady rate.
func InstasellFillTime(qty float64, qs QuickStatus) (time.Duration, error) {
	if math.IsNaN(qty) || qty <= 0 {
		return 0, nil
	}
	if qs.BuyMovingWeek <= 0 {
		return 0, fmt.Errorf("%w for %s", ErrNoVolume, qs.ProductID)
	}
	perSecond := float64(qs.BuyMovingWeek) / week.Seconds()
	secs := qty / perSecond
	if math.IsInf(secs, 0) || secs > math.MaxInt64/float64(time.Second) {
		return 0, fmt.Errorf("%w for %s", ErrNoVolume, qs.ProductID)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
