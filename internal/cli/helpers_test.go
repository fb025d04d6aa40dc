package cli

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dsrs-analytics/taskdash/internal/config"
)

// isolate clears taskdash environment variables and resets global flags.
func isolate(t *testing.T) {
	t.Helper()
	for name := range config.EnvVarMapping {
		t.Setenv(name, "")
	}
	t.Setenv("NO_COLOR", "1")

	oldCfg, oldVerbose, oldJSON := cfgFile, verbose, jsonOut
	t.Cleanup(func() { cfgFile, verbose, jsonOut = oldCfg, oldVerbose, oldJSON })
	cfgFile, verbose, jsonOut = "", false, false

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

// writeConfig writes a taskdash.yaml into a temp dir and points --config at it.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taskdash.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	cfgFile = path
	return path
}

const fourTasksJSON = `{"data":[
  {"gid":"1","name":"a","completed":false,"custom_fields":[{"name":"Department","display_value":"ACCY"}]},
  {"gid":"2","name":"b","completed":true,"custom_fields":[{"name":"Department","display_value":"FIN"}]},
  {"gid":"3","name":"c","completed":true,"custom_fields":[]},
  {"gid":"4","name":"d","completed":false,"custom_fields":[{"name":"Department","display_value":"EXTERNAL"}]}
],"next_page":null}`

// fakeAsana serves /tasks and /users/me for token "tok".
func fakeAsana(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/tasks", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"errors":[{"message":"Not Authorized"}]}`)
			return
		}
		fmt.Fprint(w, fourTasksJSON)
	})
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"errors":[{"message":"Not Authorized"}]}`)
			return
		}
		fmt.Fprint(w, `{"data":{"gid":"9","name":"Pat"}}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func asanaConfig(baseURL, token string) string {
	return fmt.Sprintf(`asana:
  token: %s
  project: "1201"
  base_url: %s
  timeout: 2s
  max_retries: 0
`, token, baseURL)
}
