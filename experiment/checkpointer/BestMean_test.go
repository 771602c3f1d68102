package checkpointer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/samuelfneumann/baselines/experiment/results"
	"github.com/samuelfneumann/baselines/storage"
)

// weights is a Serializable agent stand-in
type weights struct {
	Values []float64
}

func (w *weights) GobEncode() ([]byte, error) {
	return json.Marshal(w.Values)
}

func (w *weights) GobDecode(data []byte) error {
	return json.Unmarshal(data, &w.Values)
}

// memStore is an in-memory storage.Store that counts writes and can
// be made to fail
type memStore struct {
	objects map[string][]byte
	puts    int
	putErr  error
	dirErr  error
	dirs    int
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) EnsureDir() error {
	m.dirs++
	return m.dirErr
}

func (m *memStore) Put(name string, data []byte) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	m.objects[name] = data
	return nil
}

func (m *memStore) Get(name string) ([]byte, error) {
	data, ok := m.objects[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (m *memStore) Location(name string) string {
	return "mem://" + name
}

func episodes(returns ...float64) []results.Episode {
	eps := make([]results.Episode, len(returns))
	for i, r := range returns {
		eps[i] = results.Episode{Return: r, Length: 1000, Step: 1000 * (i + 1)}
	}
	return eps
}

func newBestMean(t *testing.T, store storage.Store, cadence int,
	confirm bool) *BestMean {
	t.Helper()
	b, err := NewBestMean(store, BestMeanConfig{
		Cadence:      cadence,
		Window:       DefaultWindow,
		Name:         DefaultName,
		ConfirmWrite: confirm,
	})
	if err != nil {
		t.Fatalf("newBestMean: %v", err)
	}
	return b
}

func TestBestMeanInitial(t *testing.T) {
	store := newMemStore()
	b := newBestMean(t, store, 1000, false)

	if !math.IsInf(b.Best(), -1) {
		t.Errorf("expected initial best of -Inf, got %v", b.Best())
	}
	if store.dirs != 1 {
		t.Errorf("expected the directory to be ensured once, got %d",
			store.dirs)
	}
	if b.Path() != "mem://"+DefaultName {
		t.Errorf("unexpected path %v", b.Path())
	}
}

func TestBestMeanConfigValidate(t *testing.T) {
	tests := []BestMeanConfig{
		{Cadence: 0, Window: 100, Name: "a"},
		{Cadence: -5, Window: 100, Name: "a"},
		{Cadence: 10, Window: 0, Name: "a"},
		{Cadence: 10, Window: 100, Name: ""},
	}
	for _, c := range tests {
		if _, err := NewBestMean(newMemStore(), c); err == nil {
			t.Errorf("expected an error for config %+v", c)
		}
	}
}

func TestBestMeanEnsureDirFails(t *testing.T) {
	store := newMemStore()
	store.dirErr = errors.New("read-only filesystem")

	_, err := NewBestMean(store, BestMeanConfig{Cadence: 1, Window: 1,
		Name: "a"})
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected a StorageError, got %v", err)
	}
	if !errors.Is(err, store.dirErr) {
		t.Errorf("StorageError should wrap the cause, got %v", err)
	}
}

func TestBestMeanOffCadence(t *testing.T) {
	store := newMemStore()
	b := newBestMean(t, store, 1000, false)
	agent := &weights{Values: []float64{1}}

	for _, step := range []int{1, 999, 1001, 1500, 2999} {
		if err := b.OnStep(step, episodes(10, 20, 30), agent); err != nil {
			t.Fatal(err)
		}
	}
	if store.puts != 0 || !math.IsInf(b.Best(), -1) {
		t.Errorf("off-cadence steps changed state: puts %d best %v",
			store.puts, b.Best())
	}

	// Polling must not make later off-cadence steps do anything
	if err := b.OnStep(1000, episodes(10), agent); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := b.OnStep(1001, episodes(10, 50), agent); err != nil {
			t.Fatal(err)
		}
	}
	if store.puts != 1 || b.Best() != 10 {
		t.Errorf("repeated off-cadence step changed state: puts %d best %v",
			store.puts, b.Best())
	}
}

func TestBestMeanEmptyLog(t *testing.T) {
	store := newMemStore()
	b := newBestMean(t, store, 1000, false)

	if err := b.OnStep(1000, nil, &weights{}); err != nil {
		t.Fatal(err)
	}
	if store.puts != 0 || !math.IsInf(b.Best(), -1) {
		t.Errorf("empty log changed state: puts %d best %v", store.puts,
			b.Best())
	}
}

func TestBestMeanGrowingLog(t *testing.T) {
	store := newMemStore()
	b := newBestMean(t, store, 1000, false)
	agent := &weights{Values: []float64{1, 2}}
	log := episodes(10, 20, 15)

	// At each poll the log holds the episodes finished so far
	tests := []struct {
		step  int
		n     int
		best  float64
		saves int
	}{
		{1000, 1, 10, 1},
		{2000, 2, 15, 2},
		{3000, 3, 15, 2},
	}

	for _, test := range tests {
		if err := b.OnStep(test.step, log[:test.n], agent); err != nil {
			t.Fatal(err)
		}
		if b.Best() != test.best || b.Saves() != test.saves {
			t.Errorf("step %d: got best %v saves %d, want %v and %d",
				test.step, b.Best(), b.Saves(), test.best, test.saves)
		}
	}
	if store.puts != 2 {
		t.Errorf("expected 2 writes, got %d", store.puts)
	}
}

func TestBestMeanWholeLog(t *testing.T) {
	store := newMemStore()
	b := newBestMean(t, store, 1000, false)
	agent := &weights{}

	if err := b.OnStep(2000, episodes(10, 20, 30), agent); err != nil {
		t.Fatal(err)
	}
	if b.Best() != 20 || store.puts != 1 {
		t.Fatalf("expected best 20 after one save, got %v after %d",
			b.Best(), store.puts)
	}

	// A lower mean over the whole log does not save
	if err := b.OnStep(3000, episodes(10, 20, 15), agent); err != nil {
		t.Fatal(err)
	}
	if b.Best() != 20 || store.puts != 1 {
		t.Errorf("lower mean changed state: best %v puts %d", b.Best(),
			store.puts)
	}
}

func TestBestMeanEqualDoesNotSave(t *testing.T) {
	store := newMemStore()
	b := newBestMean(t, store, 1, false)
	agent := &weights{}

	for step := 1; step <= 5; step++ {
		if err := b.OnStep(step, episodes(7, 7), agent); err != nil {
			t.Fatal(err)
		}
	}
	if store.puts != 1 {
		t.Errorf("equal means should not save, got %d writes", store.puts)
	}
}

func TestBestMeanWindow(t *testing.T) {
	store := newMemStore()
	b := newBestMean(t, store, 1, false)

	// 100 episodes of return 1 and 50 of return 4: the last 100 hold
	// 50 of each
	returns := make([]float64, 150)
	for i := range returns {
		returns[i] = 1
		if i >= 100 {
			returns[i] = 4
		}
	}

	if err := b.OnStep(1, episodes(returns...), &weights{}); err != nil {
		t.Fatal(err)
	}
	if b.Best() != 2.5 {
		t.Errorf("expected mean of last 100 episodes 2.5, got %v", b.Best())
	}
}

func TestBestMeanNonDecreasing(t *testing.T) {
	store := newMemStore()
	b := newBestMean(t, store, 10, false)
	agent := &weights{}

	returns := []float64{-5, 3, -1, 8, 2, 8, 12, -20, 0, 11}
	prev := math.Inf(-1)
	max := math.Inf(-1)
	for i := range returns {
		log := episodes(returns[:i+1]...)
		if err := b.OnStep(10*(i+1), log, agent); err != nil {
			t.Fatal(err)
		}

		mean := 0.0
		for _, r := range returns[:i+1] {
			mean += r
		}
		mean /= float64(i + 1)
		max = math.Max(max, mean)

		if b.Best() < prev {
			t.Errorf("best decreased from %v to %v", prev, b.Best())
		}
		if b.Best() != max {
			t.Errorf("poll %d: expected best %v, got %v", i, max, b.Best())
		}
		prev = b.Best()
	}
}

func TestBestMeanSavesAgent(t *testing.T) {
	store := storage.NewLocal(filepath.Join(t.TempDir(), "best_model"))
	b := newBestMean(t, store, 1, false)

	first := &weights{Values: []float64{1, 2, 3}}
	if err := b.OnStep(1, episodes(1), first); err != nil {
		t.Fatal(err)
	}
	second := &weights{Values: []float64{4, 5}}
	if err := b.OnStep(2, episodes(1, 5), second); err != nil {
		t.Fatal(err)
	}

	data, err := store.Get(DefaultName)
	if err != nil {
		t.Fatal(err)
	}
	var restored weights
	if err := Restore(data, &restored); err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(restored.Values) != fmt.Sprint(second.Values) {
		t.Errorf("expected latest best agent %v to overwrite the "+
			"previous one, got %v", second.Values, restored.Values)
	}
}

func TestBestMeanStorageError(t *testing.T) {
	store := newMemStore()
	store.putErr = errors.New("disk full")
	b := newBestMean(t, store, 1, false)

	err := b.OnStep(1, episodes(10), &weights{})
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected a StorageError, got %v", err)
	}
	if !errors.Is(err, store.putErr) {
		t.Errorf("expected the cause to be wrapped, got %v", err)
	}
	if storageErr.Path != b.Path() {
		t.Errorf("expected path %v, got %v", b.Path(), storageErr.Path)
	}

	// The best mean is raised even though the write failed, so an
	// equal mean does not retry the write
	if b.Best() != 10 || b.Saves() != 0 {
		t.Errorf("got best %v saves %d, want 10 and 0", b.Best(), b.Saves())
	}
	store.putErr = nil
	if err := b.OnStep(2, episodes(10), &weights{}); err != nil {
		t.Fatal(err)
	}
	if store.puts != 0 {
		t.Errorf("equal mean retried a failed write")
	}
}

func TestBestMeanConfirmWrite(t *testing.T) {
	store := newMemStore()
	store.putErr = errors.New("disk full")
	b := newBestMean(t, store, 1, true)

	if err := b.OnStep(1, episodes(10), &weights{}); err == nil {
		t.Fatal("expected an error")
	}
	if !math.IsInf(b.Best(), -1) {
		t.Errorf("best should not move without a confirmed write, got %v",
			b.Best())
	}

	store.putErr = nil
	if err := b.OnStep(2, episodes(10), &weights{}); err != nil {
		t.Fatal(err)
	}
	if b.Best() != 10 || store.puts != 1 {
		t.Errorf("expected retried write to raise best: best %v puts %d",
			b.Best(), store.puts)
	}
}
