package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vinceanalytics/dash/internal/tokens"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var b bytes.Buffer
	app := Cli()
	app.Writer = &b
	app.ErrWriter = &b
	err := app.Run(context.Background(), append([]string{"dash", "--config", ""}, args...))
	return b.String(), err
}

func TestRange(t *testing.T) {
	out, err := execute(t, "range", "--slice", "day", "--from", "2024-01-01T10:00:00Z", "--to", "2024-01-03", "--buckets")
	require.NoError(t, err)
	require.Contains(t, out, "2024-01-01T00:00:00.000Z")
	require.Contains(t, out, "2024-01-03T23:59:59.999Z")
	require.Contains(t, out, "2024-01-02")

	out, err = execute(t, "--json", "range", "--slice", "month", "--from", "2024-01-10", "--to", "2024-02-10")
	require.NoError(t, err)
	require.JSONEq(t, `{"from":"2024-01-01T00:00:00.000Z","to":"2024-02-29T23:59:59.999Z"}`, out)

	_, err = execute(t, "range", "--slice", "day", "--from", "2024-01-03", "--to", "2024-01-01")
	require.Error(t, err)
}

func TestTimelineData(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		switch r.URL.Path {
		case "/api/metrics/p1/timeline/visits":
			w.Write([]byte(`{"data":[{"_id":"2024-01-02","count":5}],"from":"2024-01-01","to":"2024-01-03"}`))
		case "/api/metrics/p1/timeline/nothing":
			w.Write([]byte(`null`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	out, err := execute(t, "--endpoint", srv.URL+"/api", "--project", "p1", "--token", "secret", "--json",
		"timeline-data", "--slice", "day", "visits")
	require.NoError(t, err)
	require.JSONEq(t, `[
		{"_id":"2024-01-01","count":0},
		{"_id":"2024-01-02","count":5},
		{"_id":"2024-01-03","count":0}
	]`, out)
	require.Equal(t, "Bearer secret", auth)

	out, err = execute(t, "--endpoint", srv.URL+"/api", "--project", "p1", "timeline-data", "nothing")
	require.NoError(t, err)
	require.Equal(t, "no data\n", out)

	_, err = execute(t, "--endpoint", srv.URL+"/api", "timeline-data", "visits")
	require.Error(t, err, "missing project")
}

func TestKeygen(t *testing.T) {
	file := filepath.Join(t.TempDir(), "key.pem")
	_, err := execute(t, "keygen", "--out", file)
	require.NoError(t, err)
	_, err = tokens.LoadKey(file)
	require.NoError(t, err)

	out, err := execute(t, "keygen")
	require.NoError(t, err)
	_, err = tokens.ParseKey([]byte(out))
	require.NoError(t, err)
}

func TestConfig(t *testing.T) {
	file := filepath.Join(t.TempDir(), "dash.yml")
	require.NoError(t, os.WriteFile(file, []byte("project: p9\n"), 0600))
	var b bytes.Buffer
	app := Cli()
	app.Writer = &b
	err := app.Run(context.Background(), []string{"dash", "--config", file, "--token", "secret", "config"})
	require.NoError(t, err)
	require.Contains(t, b.String(), "project: p9")
	require.False(t, strings.Contains(b.String(), "secret"))
}
