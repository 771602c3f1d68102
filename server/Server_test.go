package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const monitorLog = `#{"t_start": 100, "env_id": "Pendulum-SwingUp", "run_id": "a"}
r,l,t
10,1000,1.5
20,1000,3
15,1000,4.5
`

func newRoot(t *testing.T) string {
	root := t.TempDir()

	run := filepath.Join(root, "ac")
	if err := os.Mkdir(run, 0755); err != nil {
		t.Fatal(err)
	}
	err := os.WriteFile(filepath.Join(run, "monitor.csv"), []byte(monitorLog),
		0644)
	if err != nil {
		t.Fatal(err)
	}

	// Directories without logs are not runs
	if err := os.Mkdir(filepath.Join(root, "empty"), 0755); err != nil {
		t.Fatal(err)
	}
	return root
}

func get(t *testing.T, root, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	NewRouter(root).ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, t.TempDir(), "/health")
	if rec.Code != http.StatusOK {
		t.Errorf("health: expected status %v, got %v", http.StatusOK,
			rec.Code)
	}
}

func TestListRuns(t *testing.T) {
	rec := get(t, newRoot(t), "/runs")
	if rec.Code != http.StatusOK {
		t.Fatalf("runs: expected status %v, got %v", http.StatusOK, rec.Code)
	}

	var body struct {
		Runs []string `json:"runs"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Runs) != 1 || body.Runs[0] != "ac" {
		t.Errorf("runs: expected [ac], got %v", body.Runs)
	}
}

func TestGetEpisodes(t *testing.T) {
	rec := get(t, newRoot(t), "/runs/ac/episodes")
	if rec.Code != http.StatusOK {
		t.Fatalf("episodes: expected status %v, got %v", http.StatusOK,
			rec.Code)
	}

	var body struct {
		Episodes []struct {
			Return float64 `json:"r"`
			Step   int     `json:"step"`
		} `json:"episodes"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Episodes) != 3 {
		t.Fatalf("episodes: expected 3, got %v", len(body.Episodes))
	}
	if body.Episodes[2].Step != 3000 {
		t.Errorf("episodes: expected last step 3000, got %v",
			body.Episodes[2].Step)
	}
}

func TestGetSummary(t *testing.T) {
	rec := get(t, newRoot(t), "/runs/ac/summary")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: expected status %v, got %v", http.StatusOK,
			rec.Code)
	}

	var summary Summary
	if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
		t.Fatal(err)
	}
	if summary.Episodes != 3 || summary.TotalSteps != 3000 {
		t.Errorf("summary: unexpected counts %+v", summary)
	}
	if summary.MeanReturn != 15 {
		t.Errorf("summary: expected mean 15, got %v", summary.MeanReturn)
	}
	if summary.BestReturn != 20 {
		t.Errorf("summary: expected best 20, got %v", summary.BestReturn)
	}
}

func TestNotFound(t *testing.T) {
	root := newRoot(t)
	for _, path := range []string{
		"/runs/missing/summary",
		"/runs/empty/episodes",
		"/runs/ac/curve.png", // too few episodes for the default window
	} {
		if rec := get(t, root, path); rec.Code != http.StatusNotFound {
			t.Errorf("%v: expected status %v, got %v", path,
				http.StatusNotFound, rec.Code)
		}
	}
}

func TestBadRequest(t *testing.T) {
	root := newRoot(t)
	for _, path := range []string{
		"/runs/ac/curve.png?window=0",
		"/runs/ac/curve.html?window=x",
		"/runs/../summary",
	} {
		rec := get(t, root, path)
		if rec.Code != http.StatusBadRequest &&
			rec.Code != http.StatusMovedPermanently {
			t.Errorf("%v: expected a rejected request, got %v", path,
				rec.Code)
		}
	}
}

func TestCurves(t *testing.T) {
	root := newRoot(t)

	rec := get(t, root, "/runs/ac/curve.png?window=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("curve.png: expected status %v, got %v: %v",
			http.StatusOK, rec.Code, rec.Body.String())
	}
	if !strings.HasPrefix(rec.Body.String(), "\x89PNG") {
		t.Errorf("curve.png: body is not a PNG")
	}

	rec = get(t, root, "/runs/ac/curve.html?window=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("curve.html: expected status %v, got %v", http.StatusOK,
			rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "echarts") {
		t.Errorf("curve.html: expected an echarts page")
	}

	rec = get(t, root, "/curves.html?window=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("curves.html: expected status %v, got %v", http.StatusOK,
			rec.Code)
	}
}
