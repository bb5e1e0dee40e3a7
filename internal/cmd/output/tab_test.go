package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vinceanalytics/dash/internal/klient"
	"github.com/vinceanalytics/dash/internal/timeline"
)

func TestPoints(t *testing.T) {
	var b bytes.Buffer
	Points(&b, []timeline.Point{{ID: "2024-01-01", Count: 0}, {ID: "2024-01-02", Count: 5}})
	out := b.String()
	require.Contains(t, out, "BUCKET")
	require.Contains(t, out, "2024-01-02")
	require.Equal(t, 3, strings.Count(out, "\n"))
}

func TestAggregated(t *testing.T) {
	var b bytes.Buffer
	Aggregated(&b, "page", []klient.Aggregated{{ID: "/pricing", Count: 3}})
	require.Contains(t, b.String(), "PAGE")
	require.Contains(t, b.String(), "/pricing")
}

func TestCounts(t *testing.T) {
	var b bytes.Buffer
	Counts(&b, nil)
	require.Empty(t, b.String())
	Counts(&b, &klient.Counts{Visits: 10, AvgSessionDuration: 1.5})
	require.Contains(t, b.String(), "1.5")
}

func TestJSON(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, JSON(&b, timeline.Series{{ID: "2024", Count: 1}}))
	require.JSONEq(t, `[{"_id":"2024","count":1}]`, b.String())
}
