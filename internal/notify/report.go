package notify

import (
	"bytes"
	"fmt"
	"text/tabwriter"
	"text/template"
	"time"

	"fleetops/internal/driver"
)

// ReportItem is one checklist verdict as it appears in the dispatched
// report, in catalog order.
type ReportItem struct {
	Name   string
	Passed bool
}

// Report is the immutable payload handed to the dispatcher after a duty
// transition commits. The background worker owns no other shared state.
type Report struct {
	Driver        driver.Identity
	Action        string // START or END
	Timestamp     time.Time
	OdometerValue int64
	Items         []ReportItem
}

var reportTemplate = template.Must(template.New("duty_report").Parse(
	`Duty {{.Action}} report
Driver   : {{.DriverName}} ({{.RegNo}})
Time     : {{.Timestamp}}
Odometer : {{.Odometer}} km

{{.Table}}`))

// Render produces the human-readable tabular report sent through the
// messaging gateway.
func (r Report) Render() (string, error) {
	var table bytes.Buffer
	w := tabwriter.NewWriter(&table, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tRESULT")
	for _, item := range r.Items {
		result := "OK"
		if !item.Passed {
			result = "FAIL"
		}
		fmt.Fprintf(w, "%s\t%s\n", item.Name, result)
	}
	if err := w.Flush(); err != nil {
		return "", err
	}

	var out bytes.Buffer
	err := reportTemplate.Execute(&out, map[string]any{
		"Action":     r.Action,
		"DriverName": r.Driver.DisplayName,
		"RegNo":      r.Driver.RegNo,
		"Timestamp":  r.Timestamp.Format("02 Jan 2006 15:04:05 MST"),
		"Odometer":   r.OdometerValue,
		"Table":      table.String(),
	})
	if err != nil {
		return "", err
	}
	return out.String(), nil
}
