package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeCoordinator отвечает как консоль координатора и запоминает запросы.
type fakeCoordinator struct {
	lastBody ConsoleRequest
	lastAuth string
}

func (f *fakeCoordinator) handler() http.Handler {
	mux := http.NewServeMux()

	view := func(status string) map[string]any {
		return map[string]any{"data": map[string]any{
			"status":       status,
			"search_id":    "0b5d1b5e-4a6e-4e51-9d6f-2f8a1c3e9a10",
			"total":        4,
			"programs_run": 120,
			"solutions":    []any{"s1"},
			"unsolved":     []int{2, 3},
			"workers": []any{
				map[string]any{"worker_id": "w1", "cores": 4, "run_rate": 25, "assemblies_completed": 2, "programs_run": 120, "status": "active"},
				map[string]any{"worker_id": "w2", "cores": 2, "run_rate": nil, "assemblies_completed": 0, "programs_run": 0, "status": "inactive"},
			},
			"solved": []any{},
		}}
	}

	mux.HandleFunc("GET /api/v1/console", func(w http.ResponseWriter, r *http.Request) {
		u, p, _ := r.BasicAuth()
		f.lastAuth = u + ":" + p
		json.NewEncoder(w).Encode(view("stopped"))
	})
	mux.HandleFunc("POST /api/v1/console", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&f.lastBody)
		if f.lastBody.Command == "reset" && f.lastBody.Solver != nil && strings.Contains(*f.lastBody.Solver, "depth x") {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"code": "INVALID_SOLVER", "message": "invalid solver"}})
			return
		}
		status := "stopped"
		if f.lastBody.Command == "run" {
			status = "running"
		}
		json.NewEncoder(w).Encode(view(status))
	})

	mux.HandleFunc("GET /api/v1/solvers", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []any{
			map[string]any{"name": "gravity", "text": "# gravity\npattern down\n", "total": 1},
			map[string]any{"name": "huge", "text": "pattern a\ndepth 99\n", "total": 0, "error": "search space too large: limit of 16777216 assemblies"},
		}, "total": 2})
	})

	return mux
}

func newTestClient(t *testing.T) (*Client, *fakeCoordinator) {
	t.Helper()

	fake := &fakeCoordinator{}
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	return NewClient(ClientConfig{URL: srv.URL, User: "admin", Password: "tok"}), fake
}

func TestClient_ConsoleSendsBasicAuth(t *testing.T) {
	client, fake := newTestClient(t)

	view, err := client.Console()
	if err != nil {
		t.Fatalf("Console: %v", err)
	}
	if fake.lastAuth != "admin:tok" {
		t.Errorf("unexpected credentials %q", fake.lastAuth)
	}
	if view.Total != 4 || len(view.Workers) != 2 || view.Workers[1].RunRate != nil {
		t.Errorf("unexpected view: %+v", view)
	}
}

func TestClient_Command(t *testing.T) {
	client, fake := newTestClient(t)

	view, err := client.Command("run")
	if err != nil {
		t.Fatalf("Command: %v", err)
	}
	if fake.lastBody.Command != "run" || view.Status != "running" {
		t.Errorf("unexpected result: body=%+v status=%s", fake.lastBody, view.Status)
	}
}

func TestClient_Reset(t *testing.T) {
	client, fake := newTestClient(t)

	if _, err := client.Reset("", "gravity"); err != nil {
		t.Fatalf("Reset by name: %v", err)
	}
	if fake.lastBody.SolverName != "gravity" || fake.lastBody.Solver != nil {
		t.Errorf("unexpected body: %+v", fake.lastBody)
	}

	_, err := client.Reset("pattern a\ndepth x\n", "")
	if err == nil || !strings.Contains(err.Error(), "INVALID_SOLVER") {
		t.Errorf("expected INVALID_SOLVER error, got %v", err)
	}
}

func TestClient_ArchiveRequiresURL(t *testing.T) {
	client, _ := newTestClient(t)

	if _, err := client.ListSearches(PageOpts{}); !errors.Is(err, ErrNoArchive) {
		t.Errorf("expected ErrNoArchive, got %v", err)
	}
	if _, err := client.GetSearch("x"); !errors.Is(err, ErrNoArchive) {
		t.Errorf("expected ErrNoArchive, got %v", err)
	}
}

func TestClient_ListSearchesPaging(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		if _, _, ok := r.BasicAuth(); ok {
			t.Error("archive requests must not carry console credentials")
		}
		w.Write([]byte(`{"data":[{"id":"a","status":"stopped","total":4}],"total":1}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{URL: "http://coordinator.invalid", ArchiveURL: srv.URL, User: "admin", Password: "tok"})
	searches, err := client.ListSearches(PageOpts{Limit: 5, Offset: 10})
	if err != nil {
		t.Fatalf("ListSearches: %v", err)
	}
	if len(searches) != 1 || searches[0].Total != 4 {
		t.Errorf("unexpected searches: %+v", searches)
	}
	if query != "limit=5&offset=10" {
		t.Errorf("unexpected query %q", query)
	}
}

func TestResetCmd(t *testing.T) {
	client, fake := newTestClient(t)

	var stdout, stderr bytes.Buffer
	out := NewOutputTo(false, &stdout, &stderr)

	clientFn := func() *Client { return client }
	cmds := NewControlCmds(clientFn, func() *Output { return out })

	cmd := cmds[len(cmds)-1]
	if cmd.Name() != "reset" {
		t.Fatalf("expected reset command last, got %s", cmd.Name())
	}

	// Ни --file, ни --name
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error without --file or --name")
	}

	path := filepath.Join(t.TempDir(), "two.solve")
	if err := os.WriteFile(path, []byte("pattern a\npattern b\ndepth 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd.SetArgs([]string{"--file", path})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("reset --file: %v", err)
	}
	if fake.lastBody.Solver == nil || *fake.lastBody.Solver != "pattern a\npattern b\ndepth 2\n" {
		t.Errorf("solver text not sent: %+v", fake.lastBody)
	}
	if !strings.Contains(stdout.String(), "Status:") || !strings.Contains(stderr.String(), "loaded") {
		t.Errorf("unexpected output: %q / %q", stdout.String(), stderr.String())
	}
}

func TestWorkersCmd_JSON(t *testing.T) {
	client, _ := newTestClient(t)

	var stdout bytes.Buffer
	out := NewOutputTo(true, &stdout, &bytes.Buffer{})

	cmd := NewWorkersCmd(func() *Client { return client }, func() *Output { return out })
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("workers: %v", err)
	}

	var workers []WorkerResponse
	if err := json.Unmarshal(stdout.Bytes(), &workers); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(workers) != 2 || workers[0].WorkerID != "w1" {
		t.Errorf("unexpected workers: %+v", workers)
	}
}

func TestFormatRate(t *testing.T) {
	rate := int64(25)
	if got := formatRate(&rate); got != "25/s" {
		t.Errorf("formatRate(25) = %q", got)
	}
	if got := formatRate(nil); got != "-" {
		t.Errorf("formatRate(nil) = %q", got)
	}
}

func TestSolversCmd_ShowsInvalidFiles(t *testing.T) {
	client, _ := newTestClient(t)

	var stdout bytes.Buffer
	out := NewOutputTo(false, &stdout, &bytes.Buffer{})

	cmd := NewSolversCmd(func() *Client { return client }, func() *Output { return out })
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("solvers: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(stdout.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, separator and 2 rows, got:\n%s", stdout.String())
	}
	if !strings.Contains(lines[2], "# gravity") {
		t.Errorf("valid row should show the first line: %q", lines[2])
	}
	if !strings.Contains(lines[3], "invalid") || !strings.Contains(lines[3], "16777216") {
		t.Errorf("invalid row should show the reason: %q", lines[3])
	}
}
