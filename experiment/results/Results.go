// Package results loads and transforms the episode logs written by the
// wrappers.Monitor environment wrapper.
//
// Each monitored run writes a CSV file whose first line is a JSON
// header prefixed by '#', followed by a CSV header "r,l,t" and one row
// per finished episode holding the episodic return, the episode length
// and the wall time in seconds since the run started.
package results

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// FileSuffix is the suffix of every monitor log file
const FileSuffix string = "monitor.csv"

// ErrNoResults is returned when a directory holds no monitor logs
var ErrNoResults = errors.New("no monitor files found")

// Episode is a single finished episode of a training run
type Episode struct {
	Return float64 `json:"r"`
	Length int     `json:"l"`
	Time   float64 `json:"t"` // Seconds since the run started

	// Step is the total number of environment steps taken in the run
	// when the episode finished
	Step int `json:"step"`
}

// Header is the JSON header of a monitor log
type Header struct {
	TStart float64 `json:"t_start"`
	EnvID  string  `json:"env_id"`
	RunID  string  `json:"run_id"`
}

// Returns returns the episodic returns of episodes
func Returns(episodes []Episode) []float64 {
	returns := make([]float64, len(episodes))
	for i := range episodes {
		returns[i] = episodes[i].Return
	}
	return returns
}

// Load loads all monitor logs in dir. Episodes of all logs are sorted
// by their absolute wall time and their Step fields are recomputed as
// the cumulative sum of episode lengths.
func Load(dir string) ([]Episode, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*"+FileSuffix))
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("load: %v: %w", dir, ErrNoResults)
	}

	type timed struct {
		Episode
		abs float64
	}
	var all []timed
	start := math.Inf(1)
	for _, file := range files {
		header, episodes, err := ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		start = math.Min(start, header.TStart)
		for _, ep := range episodes {
			all = append(all, timed{ep, header.TStart + ep.Time})
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].abs < all[j].abs })

	// Episode times are made relative to the earliest run start
	episodes := make([]Episode, len(all))
	steps := 0
	for i, ep := range all {
		steps += ep.Length
		episodes[i] = ep.Episode
		episodes[i].Step = steps
		episodes[i].Time = ep.abs - start
	}
	return episodes, nil
}

// ReadFile reads a single monitor log
func ReadFile(filename string) (Header, []Episode, error) {
	file, err := os.Open(filename)
	if err != nil {
		return Header{}, nil, fmt.Errorf("readFile: %w", err)
	}
	defer file.Close()

	header, episodes, err := Read(file)
	if err != nil {
		return Header{}, nil, fmt.Errorf("readFile: %v: %w", filename, err)
	}
	return header, episodes, nil
}

// Read reads a monitor log from r
func Read(r io.Reader) (Header, []Episode, error) {
	buffered := bufio.NewReader(r)

	line, err := buffered.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return Header{}, nil, fmt.Errorf("read: missing header: %w", err)
	}
	if !strings.HasPrefix(line, "#") {
		return Header{}, nil, fmt.Errorf("read: header should start with '#'")
	}
	var header Header
	if err := json.Unmarshal([]byte(line[1:]), &header); err != nil {
		return Header{}, nil, fmt.Errorf("read: could not decode header: %w",
			err)
	}

	reader := csv.NewReader(buffered)
	reader.FieldsPerRecord = -1

	columns, err := reader.Read()
	if err != nil {
		return Header{}, nil, fmt.Errorf("read: missing columns: %w", err)
	}
	index := make(map[string]int)
	for i, name := range columns {
		index[name] = i
	}
	for _, name := range []string{"r", "l", "t"} {
		if _, ok := index[name]; !ok {
			return Header{}, nil, fmt.Errorf("read: missing column %q", name)
		}
	}

	var episodes []Episode
	steps := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return Header{}, nil, fmt.Errorf("read: %w", err)
		}

		ep, err := parseRecord(record, index)
		if err != nil {
			return Header{}, nil, fmt.Errorf("read: row %v: %w",
				len(episodes)+1, err)
		}
		steps += ep.Length
		ep.Step = steps
		episodes = append(episodes, ep)
	}

	return header, episodes, nil
}

func parseRecord(record []string, index map[string]int) (Episode, error) {
	if len(record) < len(index) {
		return Episode{}, fmt.Errorf("expected %v fields, got %v",
			len(index), len(record))
	}

	r, err := strconv.ParseFloat(record[index["r"]], 64)
	if err != nil {
		return Episode{}, err
	}
	l, err := strconv.Atoi(record[index["l"]])
	if err != nil {
		return Episode{}, err
	}
	t, err := strconv.ParseFloat(record[index["t"]], 64)
	if err != nil {
		return Episode{}, err
	}

	return Episode{Return: r, Length: l, Time: t}, nil
}
