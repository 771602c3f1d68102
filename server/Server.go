// Package server implements a read-only HTTP server for browsing the
// results of training runs. Every subdirectory of the root directory
// that holds results logs is a run.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/samuelfneumann/baselines/experiment/results"
	"github.com/samuelfneumann/baselines/plot"
	"github.com/samuelfneumann/baselines/utils/floatutils"
)

// SummaryWindow is the number of most recent episodes averaged in a
// run summary
const SummaryWindow int = 100

// Summary summarizes the episodes of a run
type Summary struct {
	Name       string  `json:"name"`
	Episodes   int     `json:"episodes"`
	TotalSteps int     `json:"total_steps"`
	MeanReturn float64 `json:"mean_return"`
	BestReturn float64 `json:"best_return"`
	Hours      float64 `json:"walltime_hrs"`
}

// Handler handles requests for the runs under a root directory
type Handler struct {
	root string
}

// NewHandler returns a new handler for the runs under root
func NewHandler(root string) *Handler {
	return &Handler{root: root}
}

// NewRouter returns a router serving the runs under root
func NewRouter(root string) *mux.Router {
	h := NewHandler(root)
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	r.HandleFunc("/runs", h.ListRuns).Methods("GET")
	r.HandleFunc("/runs/{name}/episodes", h.GetEpisodes).Methods("GET")
	r.HandleFunc("/runs/{name}/summary", h.GetSummary).Methods("GET")
	r.HandleFunc("/runs/{name}/curve.png", h.GetCurve).Methods("GET")
	r.HandleFunc("/runs/{name}/curve.html", h.GetCurveHTML).Methods("GET")
	r.HandleFunc("/curves.html", h.CompareHTML).Methods("GET")

	return r
}

// ListRuns lists the names of all runs
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.runs()
	if err != nil {
		http.Error(w, "Failed to read runs: "+err.Error(),
			http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]interface{}{"runs": runs})
}

// CompareHTML returns an interactive page comparing the learning
// curves of all runs
func (h *Handler) CompareHTML(w http.ResponseWriter, r *http.Request) {
	window, ok := windowParam(w, r)
	if !ok {
		return
	}
	names, err := h.runs()
	if err != nil {
		http.Error(w, "Failed to read runs: "+err.Error(),
			http.StatusInternalServerError)
		return
	}

	runs := make([]plot.Run, 0, len(names))
	for _, name := range names {
		eps, err := results.Load(filepath.Join(h.root, name))
		if err != nil {
			http.Error(w, "Failed to load run: "+err.Error(),
				http.StatusInternalServerError)
			return
		}
		runs = append(runs, plot.Run{Name: name, Episodes: eps})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := plot.WriteHTML(w, "Learning Curves", window, runs...); err != nil {
		http.Error(w, "Failed to plot: "+err.Error(),
			http.StatusInternalServerError)
	}
}

// GetEpisodes returns all episodes of a run
func (h *Handler) GetEpisodes(w http.ResponseWriter, r *http.Request) {
	eps, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, map[string]interface{}{"episodes": eps})
}

// GetSummary returns a summary of a run
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	eps, ok := h.load(w, r)
	if !ok {
		return
	}

	returns := results.Returns(eps)
	summary := Summary{
		Name:       mux.Vars(r)["name"],
		Episodes:   len(eps),
		TotalSteps: eps[len(eps)-1].Step,
		MeanReturn: floatutils.Mean(returns, SummaryWindow),
		BestReturn: returns[0],
		Hours:      eps[len(eps)-1].Time / 3600,
	}
	for _, ret := range returns {
		if ret > summary.BestReturn {
			summary.BestReturn = ret
		}
	}

	writeJSON(w, summary)
}

// GetCurve returns the learning curve of a run as a PNG. The moving
// average window can be set with the window query parameter.
func (h *Handler) GetCurve(w http.ResponseWriter, r *http.Request) {
	window, ok := windowParam(w, r)
	if !ok {
		return
	}
	eps, ok := h.load(w, r)
	if !ok {
		return
	}

	name := mux.Vars(r)["name"]
	w.Header().Set("Content-Type", "image/png")
	err := plot.WriteLearningCurve(w, eps, window, "Learning Curve for "+name)
	if errors.Is(err, plot.ErrTooFewEpisodes) {
		http.Error(w, err.Error(), http.StatusNotFound)
	} else if err != nil {
		http.Error(w, "Failed to plot: "+err.Error(),
			http.StatusInternalServerError)
	}
}

// GetCurveHTML returns an interactive learning curve of a run
func (h *Handler) GetCurveHTML(w http.ResponseWriter, r *http.Request) {
	window, ok := windowParam(w, r)
	if !ok {
		return
	}
	eps, ok := h.load(w, r)
	if !ok {
		return
	}

	name := mux.Vars(r)["name"]
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := plot.WriteHTML(w, "Learning Curve for "+name, window,
		plot.Run{Name: name, Episodes: eps})
	if err != nil {
		http.Error(w, "Failed to plot: "+err.Error(),
			http.StatusInternalServerError)
	}
}

// load loads the episodes of the run named in the request, writing an
// error response if it cannot
func (h *Handler) load(w http.ResponseWriter,
	r *http.Request) ([]results.Episode, bool) {
	name := mux.Vars(r)["name"]
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) {
		http.Error(w, "Invalid run name", http.StatusBadRequest)
		return nil, false
	}

	eps, err := results.Load(filepath.Join(h.root, name))
	if errors.Is(err, results.ErrNoResults) || errors.Is(err, os.ErrNotExist) {
		http.Error(w, "No such run: "+name, http.StatusNotFound)
		return nil, false
	} else if err != nil {
		http.Error(w, "Failed to load run: "+err.Error(),
			http.StatusInternalServerError)
		return nil, false
	}

	if len(eps) == 0 {
		http.Error(w, "Run has no finished episodes: "+name,
			http.StatusNotFound)
		return nil, false
	}
	return eps, true
}

// runs returns the sorted names of all subdirectories of the root
// that hold results logs
func (h *Handler) runs() ([]string, error) {
	entries, err := os.ReadDir(h.root)
	if err != nil {
		return nil, err
	}

	runs := []string{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		pattern := filepath.Join(h.root, entry.Name(), "*"+results.FileSuffix)
		if matches, _ := filepath.Glob(pattern); len(matches) > 0 {
			runs = append(runs, entry.Name())
		}
	}
	sort.Strings(runs)
	return runs, nil
}

func windowParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	param := r.URL.Query().Get("window")
	if param == "" {
		return plot.DefaultWindow, true
	}

	window, err := strconv.Atoi(param)
	if err != nil || window <= 0 {
		http.Error(w, "Invalid window", http.StatusBadRequest)
		return 0, false
	}
	return window, true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
