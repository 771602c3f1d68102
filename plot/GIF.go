package plot

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"os"

	"github.com/samuelfneumann/baselines/agent"
	"github.com/samuelfneumann/baselines/environment"
)

// DefaultFPS is the default frame rate of GIFs
const DefaultFPS int = 30

// Simulate runs the policy in env for at most steps steps, stopping
// early if the episode ends, and returns a frame rendered after every
// step
func Simulate(env environment.Renderer, policy agent.Policy,
	steps int) ([]image.Image, error) {
	step, err := env.Reset()
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}

	frames := make([]image.Image, 0, steps)
	for i := 0; i < steps; i++ {
		action := policy.SelectAction(step)

		var done bool
		step, done, err = env.Step(action)
		if err != nil {
			return frames, fmt.Errorf("simulate: %w", err)
		}
		frames = append(frames, env.Frame())

		if done {
			break
		}
	}
	return frames, nil
}

// EncodeGIF encodes frames as an animated GIF played at fps frames per
// second
func EncodeGIF(w io.Writer, frames []image.Image, fps int) error {
	if len(frames) == 0 {
		return fmt.Errorf("encodeGIF: no frames")
	}
	if fps <= 0 {
		return fmt.Errorf("encodeGIF: fps must be positive, got %v", fps)
	}

	// Delays are in 100ths of a second
	delay := 100 / fps
	if delay == 0 {
		delay = 1
	}

	anim := gif.GIF{}
	for _, frame := range frames {
		bounds := frame.Bounds()
		paletted := image.NewPaletted(bounds, palette.Plan9)
		draw.FloydSteinberg.Draw(paletted, bounds, frame, bounds.Min)

		anim.Image = append(anim.Image, paletted)
		anim.Delay = append(anim.Delay, delay)
	}

	if err := gif.EncodeAll(w, &anim); err != nil {
		return fmt.Errorf("encodeGIF: %w", err)
	}
	return nil
}

// GIF simulates the policy in env for at most steps steps and saves
// the rendered episode as a GIF. It returns the number of frames
// saved.
func GIF(env environment.Renderer, policy agent.Policy, steps, fps int,
	filename string) (int, error) {
	frames, err := Simulate(env, policy, steps)
	if err != nil {
		return 0, fmt.Errorf("gif: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return 0, fmt.Errorf("gif: %w", err)
	}
	defer file.Close()

	if err := EncodeGIF(file, frames, fps); err != nil {
		return 0, fmt.Errorf("gif: %w", err)
	}
	return len(frames), file.Close()
}
