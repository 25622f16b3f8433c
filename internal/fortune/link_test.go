package fortune

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncOnToggle(t *testing.T) {
	linked := SyncOnToggle(true, Fields{AFK: 1234, ASAP: 2500})
	assert.Equal(t, Fields{AFK: 1234, ASAP: 1234}, linked)

	unlinked := SyncOnToggle(false, Fields{AFK: 1200, ASAP: 900})
	assert.Equal(t, Fields{AFK: 1200, ASAP: 900}, unlinked)
}

func TestSyncOnToggleSanitizesLinkedValue(t *testing.T) {
	assert.Equal(t, Fields{AFK: 4000, ASAP: 4000}, SyncOnToggle(true, Fields{AFK: 99999, ASAP: 1}))
	assert.Equal(t, Fields{AFK: 0, ASAP: 0}, SyncOnToggle(true, Fields{AFK: math.NaN(), ASAP: 1}))
}

func TestApplyChange(t *testing.T) {
	tests := []struct {
		name   string
		target Target
		next   float64
		linked bool
		cur    Fields
		want   Fields
	}{
		{"linked afk change updates both", TargetAFK, 2800, true, Fields{1000, 1000}, Fields{2800, 2800}},
		{"linked asap change updates both", TargetASAP, 2800, true, Fields{1000, 500}, Fields{2800, 2800}},
		{"unlinked asap change", TargetASAP, 3000, false, Fields{1000, 1000}, Fields{1000, 3000}},
		{"unlinked afk change", TargetAFK, 3000, false, Fields{1000, 1000}, Fields{3000, 1000}},
		{"clamped high", TargetAFK, 5000, false, Fields{1000, 1000}, Fields{4000, 1000}},
		{"clamped low", TargetASAP, -20, false, Fields{1000, 1000}, Fields{1000, 0}},
		{"rounded", TargetAFK, 1234.6, true, Fields{}, Fields{1235, 1235}},
		{"non-finite", TargetAFK, math.Inf(1), false, Fields{1000, 1000}, Fields{0, 1000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApplyChange(tt.target, tt.next, tt.linked, tt.cur))
		})
	}
}
