package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThresholdsEvaluate(t *testing.T) {
	th := Thresholds{WarnDays: 180, AlarmDays: 200}

	tests := []struct {
		name        string
		current     int
		total       int
		wantWarning bool
		wantAlarm   bool
	}{
		{"far below", 10, 10, false, false},
		{"warn boundary is strict", 180, 180, false, false},
		{"just over warn", 181, 0, true, false},
		{"alarm boundary is strict", 0, 200, true, false},
		{"over alarm sets both", 201, 0, true, true},
		{"total alone can trigger", 0, 250, true, true},
		{"current alone can trigger", 185, 3, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warning, alarm := th.Evaluate(tt.current, tt.total)
			assert.Equal(t, tt.wantWarning, warning)
			assert.Equal(t, tt.wantAlarm, alarm)
		})
	}
}

func TestBarcodeSettingsHash(t *testing.T) {
	a := DefaultBarcodeSettings()
	b := DefaultBarcodeSettings()

	// Same parameters must always produce the same fingerprint
	assert.Equal(t, a.Hash(), b.Hash())

	// Any parameter change must change the fingerprint
	b.ModuleWidth = 0.5
	assert.NotEqual(t, a.Hash(), b.Hash())

	c := DefaultBarcodeSettings()
	c.WriteText = true
	assert.NotEqual(t, a.Hash(), c.Hash())
}
