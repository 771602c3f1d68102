package trackers

import (
	"path/filepath"
	"testing"

	ts "github.com/samuelfneumann/baselines/timestep"
)

// episode returns the timesteps of an episode with the given rewards
func episode(rewards ...float64) []ts.TimeStep {
	steps := []ts.TimeStep{ts.New(ts.First, 0, 1, nil, 0)}
	for i, r := range rewards {
		t := ts.Mid
		if i == len(rewards)-1 {
			t = ts.Last
		}
		steps = append(steps, ts.New(t, r, 1, nil, i+1))
	}
	return steps
}

func TestTrackers(t *testing.T) {
	dir := t.TempDir()
	ret := NewReturn(filepath.Join(dir, "return.gob"))
	length := NewEpisodeLength(filepath.Join(dir, "length.gob"))

	var steps []ts.TimeStep
	steps = append(steps, episode(1, 2, 3)...)
	steps = append(steps, episode(-1, 0.5)...)

	// An unfinished episode is not recorded
	steps = append(steps, episode(10, 10)[:2]...)

	for _, step := range steps {
		ret.Track(step)
		length.Track(step)
	}

	wantReturns := []float64{6, -0.5}
	wantLengths := []int{3, 2}
	if len(ret.Data()) != 2 || len(length.Data()) != 2 {
		t.Fatalf("expected 2 episodes, got %v and %v", ret.Data(),
			length.Data())
	}
	for i := range wantReturns {
		if ret.Data()[i] != wantReturns[i] {
			t.Errorf("return %d: want %v have %v", i, wantReturns[i],
				ret.Data()[i])
		}
		if length.Data()[i] != wantLengths[i] {
			t.Errorf("length %d: want %v have %v", i, wantLengths[i],
				length.Data()[i])
		}
	}

	if err := ret.Save(); err != nil {
		t.Fatal(err)
	}
	if err := length.Save(); err != nil {
		t.Fatal(err)
	}

	var returns []float64
	if err := LoadData(filepath.Join(dir, "return.gob"), &returns); err != nil {
		t.Fatal(err)
	}
	if len(returns) != 2 || returns[0] != 6 {
		t.Errorf("loaded unexpected returns %v", returns)
	}
}

func TestSaveBadPath(t *testing.T) {
	ret := NewReturn(filepath.Join(t.TempDir(), "missing", "return.gob"))
	if err := ret.Save(); err == nil {
		t.Error("expected an error saving to a missing directory")
	}
}
