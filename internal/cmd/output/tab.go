// Package output prints command results as aligned tables or json.
package output

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/vinceanalytics/dash/internal/klient"
	"github.com/vinceanalytics/dash/internal/timeline"
)

func Tab(out io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(rows)
	table.Render()
}

func JSON(out io.Writer, v any) error {
	e := json.NewEncoder(out)
	e.SetIndent("", "  ")
	return e.Encode(v)
}

func Points(out io.Writer, ls []timeline.Point) {
	rows := make([][]string, len(ls))
	for i := range ls {
		rows[i] = []string{ls[i].ID, strconv.FormatInt(ls[i].Count, 10)}
	}
	Tab(out, []string{"bucket", "count"}, rows)
}

func Aggregated(out io.Writer, name string, ls []klient.Aggregated) {
	rows := make([][]string, len(ls))
	for i := range ls {
		rows[i] = []string{ls[i].ID, strconv.FormatInt(ls[i].Count, 10)}
	}
	Tab(out, []string{name, "count"}, rows)
}

func Counts(out io.Writer, c *klient.Counts) {
	if c == nil {
		return
	}
	Tab(out, []string{"metric", "value"}, [][]string{
		{"events", strconv.FormatInt(c.Events, 10)},
		{"visits", strconv.FormatInt(c.Visits, 10)},
		{"sessions", strconv.FormatInt(c.SessionsVisits, 10)},
		{"avg session duration", strconv.FormatFloat(c.AvgSessionDuration, 'f', -1, 64)},
		{"first event", c.FirstEventDate},
		{"first view", c.FirstViewDate},
	})
}
