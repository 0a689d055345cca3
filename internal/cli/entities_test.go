package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is written by the CLI and by the event-log goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// platform is a minimal in-memory StructSim backend for the solver list.
type platform struct {
	t *testing.T

	mu          sync.Mutex
	permissions []string
	solvers     []map[string]any
	nextID      int
	posted      []map[string]any
	deleted     []string
}

func newPlatform(t *testing.T, permissions ...string) (*platform, string) {
	p := &platform{t: t, permissions: permissions, nextID: 7}
	srv := httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(srv.Close)
	return p, srv.URL + "/api"
}

func (p *platform) reply(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"code": 0, "msg": "ok", "data": data})
}

func (p *platform) serve(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer tok" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/auth/me":
		p.reply(w, map[string]any{"id": 1, "name": "Admin", "email": "admin@example.com", "permissions": p.permissions})
	case r.Method == http.MethodGet && r.URL.Path == "/api/config/solvers":
		p.reply(w, p.solvers)
	case r.Method == http.MethodPost && r.URL.Path == "/api/config/solvers":
		var body map[string]any
		assert.NoError(p.t, json.NewDecoder(r.Body).Decode(&body))
		p.posted = append(p.posted, body)
		stored := map[string]any{"id": p.nextID}
		for k, v := range body {
			stored[k] = v
		}
		p.nextID++
		p.solvers = append(p.solvers, stored)
		p.reply(w, stored)
	case r.Method == http.MethodGet && r.URL.Path == "/api/config/solvers/7":
		p.reply(w, map[string]any{"id": 7, "name": "ABAQUS", "code": "ABQ"})
	case r.Method == http.MethodDelete && r.URL.Path == "/api/config/solvers/7":
		p.deleted = append(p.deleted, "7")
		p.solvers = nil
		p.reply(w, nil)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// calls returns the create bodies and deleted ids seen so far.
func (p *platform) calls() ([]map[string]any, []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]map[string]any(nil), p.posted...), append([]string(nil), p.deleted...)
}

func runConsole(t *testing.T, apiURL string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("STRUCTSIM_API_URL", "")
	t.Setenv("STRUCTSIM_TOKEN", "")

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)

	var stdout, stderr syncBuffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)

	base := []string{
		"--config", filepath.Join(t.TempDir(), "console.conf"),
		"--api-url", apiURL,
		"--token", "tok",
	}
	rootCmd.SetArgs(append(base, args...))

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestCreateSolverEndToEnd(t *testing.T) {
	p, apiURL := newPlatform(t, "MANAGE_CONFIG")

	_, stderr, err := runConsole(t, apiURL, "solvers", "create",
		"--set", "name=ABAQUS", "--set", "code=ABQ", "--set", "cpuCoreMax=32")
	require.NoError(t, err)

	assert.Contains(t, stderr, "创建成功")
	posted, _ := p.calls()
	require.Len(t, posted, 1)
	body := posted[0]
	assert.Equal(t, "ABAQUS", body["name"])
	assert.Equal(t, float64(32), body["cpu_core_max"])
	assert.Equal(t, float64(8), body["cpu_core_default"], "defaults fill unset fields")
	assert.NotContains(t, body, "id")

	out, _, err := runConsole(t, apiURL, "solvers", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 solver(s)")
	assert.Contains(t, out, "ABAQUS")
}

func TestCreateSolverValidationFailure(t *testing.T) {
	p, apiURL := newPlatform(t, "MANAGE_CONFIG")

	_, stderr, err := runConsole(t, apiURL, "solvers", "create", "--validate", "--set", "code=ABQ")
	require.Error(t, err)

	var shown *shownError
	assert.ErrorAs(t, err, &shown, "the failure was already shown as a toast")
	assert.Contains(t, stderr, "请检查表单输入")
	posted, _ := p.calls()
	assert.Empty(t, posted, "invalid drafts never reach the platform")
}

func TestCreateSendsIncompleteDraftWithoutValidate(t *testing.T) {
	p, apiURL := newPlatform(t, "MANAGE_CONFIG")

	_, stderr, err := runConsole(t, apiURL, "solvers", "create", "--set", "code=ABQ")
	require.NoError(t, err)

	posted, _ := p.calls()
	require.Len(t, posted, 1, "the platform decides whether the draft is acceptable")
	assert.Equal(t, "", posted[0]["name"])
	assert.Contains(t, stderr, "创建成功")
}

func TestCreateRequiresManageConfig(t *testing.T) {
	p, apiURL := newPlatform(t, "VIEW_DASHBOARD")

	_, _, err := runConsole(t, apiURL, "solvers", "create", "--set", "name=ABAQUS", "--set", "code=ABQ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
	posted, _ := p.calls()
	assert.Empty(t, posted)
}

func TestDeleteSolverWithYes(t *testing.T) {
	p, apiURL := newPlatform(t, "MANAGE_CONFIG")

	out, stderr, err := runConsole(t, apiURL, "--yes", "solvers", "delete", "7")
	require.NoError(t, err)

	_, deleted := p.calls()
	assert.Equal(t, []string{"7"}, deleted)
	assert.Contains(t, stderr, "删除成功")
	assert.NotContains(t, out, "Cancelled.")
}

func TestEditRequiresFields(t *testing.T) {
	_, apiURL := newPlatform(t, "MANAGE_CONFIG")

	_, _, err := runConsole(t, apiURL, "solvers", "edit", "7")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "nothing to change"))
}
