package notify

import (
	"testing"
	"time"

	"fleetops/internal/driver"

	"github.com/stretchr/testify/assert"
)

func TestReport_Render(t *testing.T) {
	report := Report{
		Driver:        driver.Identity{ID: "drv-1", DisplayName: "A Driver", RegNo: "KA-01-1234"},
		Action:        "START",
		Timestamp:     time.Date(2026, 9, 1, 8, 30, 0, 0, time.UTC),
		OdometerValue: 1200,
		Items: []ReportItem{
			{Name: "Tyres", Passed: true},
			{Name: "Brakes", Passed: false},
		},
	}

	out, err := report.Render()
	assert.NoError(t, err)

	assert.Contains(t, out, "Duty START report")
	assert.Contains(t, out, "A Driver (KA-01-1234)")
	assert.Contains(t, out, "01 Sep 2026 08:30:00 UTC")
	assert.Contains(t, out, "1200 km")
	assert.Contains(t, out, "ITEM")
	assert.Contains(t, out, "Tyres")
	assert.Contains(t, out, "OK")
	assert.Contains(t, out, "Brakes")
	assert.Contains(t, out, "FAIL")
}

func TestReport_Render_NoItems(t *testing.T) {
	report := Report{
		Driver:        driver.Identity{DisplayName: "A Driver", RegNo: "KA-01-1234"},
		Action:        "END",
		Timestamp:     time.Now(),
		OdometerValue: 1300,
	}

	out, err := report.Render()
	assert.NoError(t, err)
	assert.Contains(t, out, "Duty END report")
	assert.Contains(t, out, "ITEM")
	assert.Contains(t, out, "RESULT")
}
