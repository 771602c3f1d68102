package plot

import (
	"bytes"
	"errors"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samuelfneumann/baselines/agent/linear/continuous/actorcritic"
	"github.com/samuelfneumann/baselines/environment"
	"github.com/samuelfneumann/baselines/environment/envconfig"
	"github.com/samuelfneumann/baselines/experiment/results"
	"github.com/samuelfneumann/baselines/utils/matutils/initializers/weights"
)

func episodes(n int) []results.Episode {
	eps := make([]results.Episode, n)
	for i := range eps {
		eps[i] = results.Episode{
			Return: float64(i % 7),
			Length: 100,
			Time:   float64(i),
			Step:   100 * (i + 1),
		}
	}
	return eps
}

func TestCurve(t *testing.T) {
	x, y, err := Curve(episodes(60), DefaultWindow)
	if err != nil {
		t.Fatal(err)
	}
	if len(x) != 11 || len(y) != 11 {
		t.Fatalf("expected 11 smoothed points, got %v and %v", len(x),
			len(y))
	}
	if x[0] != float64(100*DefaultWindow) {
		t.Errorf("x should be truncated to the end of the first window, "+
			"got %v", x[0])
	}

	if _, _, err := Curve(episodes(10), DefaultWindow); !errors.Is(err,
		ErrTooFewEpisodes) {
		t.Errorf("expected ErrTooFewEpisodes, got %v", err)
	}
}

func decodePNG(t *testing.T, filename string) {
	t.Helper()
	file, err := os.Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		t.Fatalf("%v is not a PNG: %v", filename, err)
	}
	if b := img.Bounds(); b.Dx() != Width || b.Dy() != Height {
		t.Errorf("unexpected image size %v", b)
	}
}

func TestLearningCurve(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "curve.png")
	if err := LearningCurve(episodes(80), DefaultWindow, "Learning Curve",
		filename); err != nil {
		t.Fatal(err)
	}
	decodePNG(t, filename)

	var buf bytes.Buffer
	if err := WriteLearningCurve(&buf, episodes(80), 10, "Curve"); err != nil {
		t.Fatal(err)
	}
	if _, err := png.Decode(&buf); err != nil {
		t.Errorf("written curve is not a PNG: %v", err)
	}
}

func TestScatter(t *testing.T) {
	dir := t.TempDir()
	for _, axis := range []results.Axis{results.Timesteps, results.Episodes,
		results.WallTime} {
		filename := filepath.Join(dir, string(axis)+".png")
		if err := Scatter(episodes(150), axis, "Scatter", filename,
			0); err != nil {
			t.Fatalf("%v: %v", axis, err)
		}
		decodePNG(t, filename)
	}

	// No episode within the limit
	err := Scatter(episodes(10), results.Timesteps, "Scatter",
		filepath.Join(dir, "none.png"), 50)
	if !errors.Is(err, ErrTooFewEpisodes) {
		t.Errorf("expected ErrTooFewEpisodes, got %v", err)
	}
}

func TestHistogram(t *testing.T) {
	values := []float64{1, 1, 2, 3, 3, 3, 4, 10}
	dividers, counts := histogram(values, 3)
	if len(dividers) != 4 || len(counts) != 3 {
		t.Fatalf("unexpected histogram %v %v", dividers, counts)
	}

	var total float64
	for _, c := range counts {
		total += c
	}
	if total != float64(len(values)) {
		t.Errorf("histogram counts %v do not sum to %v", counts, len(values))
	}
	if counts[2] != 1 {
		t.Errorf("expected the maximum in the last bin, got %v", counts)
	}

	// All values equal
	if _, counts := histogram([]float64{5, 5, 5}, 4); counts[0]+counts[1]+
		counts[2]+counts[3] != 3 {
		t.Errorf("equal values were not all counted: %v", counts)
	}

	filename := filepath.Join(t.TempDir(), "hist.png")
	if err := Histogram(values, 5, "Rewards", filename); err != nil {
		t.Fatal(err)
	}
	decodePNG(t, filename)

	if err := Histogram(nil, 5, "Rewards", filename); err == nil {
		t.Error("expected an error for no values")
	}
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	err := WriteHTML(&buf, "Runs", 10,
		Run{Name: "sac", Episodes: episodes(30)},
		Run{Name: "short", Episodes: episodes(3)},
	)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "sac") {
		t.Error("page does not contain the run")
	}
}

func TestGIF(t *testing.T) {
	c := envconfig.NewConfig(envconfig.Pendulum, envconfig.SwingUp, 10, 0.99)
	env, _, err := c.Create(1)
	if err != nil {
		t.Fatal(err)
	}
	agent, err := actorcritic.NewLinearGaussian(env, actorcritic.Config{
		ActorLearningRate:  0.1,
		CriticLearningRate: 0.1,
	}, weights.NewZero(), 1)
	if err != nil {
		t.Fatal(err)
	}

	filename := filepath.Join(t.TempDir(), "pendulum.gif")
	n, err := GIF(env.(environment.Renderer), agent, 50, DefaultFPS,
		filename)
	if err != nil {
		t.Fatal(err)
	}

	// The episode ends after 10 steps
	if n != 10 {
		t.Errorf("expected 10 frames, got %v", n)
	}

	file, err := os.Open(filename)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	anim, err := gif.DecodeAll(file)
	if err != nil {
		t.Fatal(err)
	}
	if len(anim.Image) != 10 {
		t.Errorf("expected 10 frames in GIF, got %v", len(anim.Image))
	}
}
