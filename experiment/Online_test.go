package experiment_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samuelfneumann/baselines/agent/linear/continuous/actorcritic"
	"github.com/samuelfneumann/baselines/environment"
	"github.com/samuelfneumann/baselines/environment/envconfig"
	"github.com/samuelfneumann/baselines/environment/wrappers"
	"github.com/samuelfneumann/baselines/experiment"
	"github.com/samuelfneumann/baselines/experiment/checkpointer"
	"github.com/samuelfneumann/baselines/experiment/results"
	"github.com/samuelfneumann/baselines/experiment/trackers"
	"github.com/samuelfneumann/baselines/storage"
	"github.com/samuelfneumann/baselines/utils/matutils/initializers/weights"
)

const cutoff = 20

func setup(t *testing.T, dir string) (environment.Environment,
	*actorcritic.LinearGaussian) {
	t.Helper()
	c := envconfig.NewConfig(envconfig.Pendulum, envconfig.SwingUp, cutoff,
		0.99)
	env, _, err := c.Create(1)
	if err != nil {
		t.Fatal(err)
	}

	agent, err := actorcritic.NewLinearGaussian(env, actorcritic.Config{
		ActorLearningRate:  0.001,
		CriticLearningRate: 0.01,
		Decay:              0.5,
	}, weights.NewZero(), 1)
	if err != nil {
		t.Fatal(err)
	}

	if dir == "" {
		return env, agent
	}
	monitor, err := wrappers.NewMonitor(env, dir, c.ID(), false)
	if err != nil {
		t.Fatal(err)
	}
	return monitor, agent
}

func TestOnlineRunsForMaxSteps(t *testing.T) {
	env, agent := setup(t, "")
	ret := trackers.NewReturn("")
	exp := experiment.NewOnline(env, agent, 5*cutoff+3, ret)

	var steps []int
	var last []results.Episode
	exp.AddCallback(func(step int, log []results.Episode,
		_ checkpointer.Serializable) error {
		steps = append(steps, step)
		last = log
		return nil
	})

	if err := exp.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	if exp.Steps() != 5*cutoff+3 {
		t.Errorf("expected %v steps, got %v", 5*cutoff+3, exp.Steps())
	}
	for i, step := range steps {
		if step != i+1 {
			t.Fatalf("callback %d called with step %v", i, step)
		}
	}

	// Without a Monitor, Online records the episode log itself
	if len(last) != 5 || len(ret.Data()) != 5 {
		t.Fatalf("expected 5 finished episodes, got %v and %v", len(last),
			len(ret.Data()))
	}
	for i, ep := range last {
		if ep.Length != cutoff || ep.Step != cutoff*(i+1) {
			t.Errorf("unexpected episode %+v", ep)
		}
		if ep.Return != ret.Data()[i] {
			t.Errorf("episode %d: return %v does not match tracked %v", i,
				ep.Return, ret.Data()[i])
		}
	}
}

func TestOnlineUsesMonitorLog(t *testing.T) {
	dir := t.TempDir()
	env, agent := setup(t, dir)
	exp := experiment.NewOnline(env, agent, 3*cutoff)

	var sizes []int
	exp.AddCallback(func(step int, log []results.Episode,
		_ checkpointer.Serializable) error {
		sizes = append(sizes, len(log))
		return nil
	})

	if err := exp.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	monitor := env.(*wrappers.Monitor)
	if len(monitor.Episodes()) != 3 {
		t.Fatalf("expected 3 monitored episodes, got %d",
			len(monitor.Episodes()))
	}
	if sizes[cutoff-2] != 0 || sizes[cutoff-1] != 1 ||
		sizes[len(sizes)-1] != 3 {
		t.Errorf("log did not grow as episodes ended: %v", sizes)
	}
}

func TestOnlineLogFromDisk(t *testing.T) {
	dir := t.TempDir()
	env, agent := setup(t, dir)
	exp := experiment.NewOnline(env, agent, 2*cutoff)
	exp.LogFromDisk(dir)

	var last []results.Episode
	exp.AddCallback(func(step int, log []results.Episode,
		_ checkpointer.Serializable) error {
		if step < cutoff && len(log) != 0 {
			t.Errorf("step %v: expected empty log, got %v", step, log)
		}
		last = log
		return nil
	})

	if err := exp.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(last) != 2 || last[1].Step != 2*cutoff {
		t.Errorf("expected both episodes from disk, got %+v", last)
	}
}

func TestOnlineBestMean(t *testing.T) {
	dir := t.TempDir()
	env, agent := setup(t, dir)

	store := storage.NewLocal(dir)
	best, err := checkpointer.NewBestMean(store, checkpointer.BestMeanConfig{
		Cadence: cutoff,
		Window:  checkpointer.DefaultWindow,
		Name:    checkpointer.DefaultName,
	})
	if err != nil {
		t.Fatal(err)
	}

	exp := experiment.NewOnline(env, agent, 4*cutoff)
	exp.AddCallback(best.OnStep)
	if err := exp.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	// The first poll always saves, since the log is not empty
	if best.Saves() < 1 {
		t.Fatalf("expected at least one save, got %d", best.Saves())
	}

	data, err := store.Get(checkpointer.DefaultName)
	if err != nil {
		t.Fatal(err)
	}
	var restored actorcritic.LinearGaussian
	if err := checkpointer.Restore(data, &restored); err != nil {
		t.Fatal(err)
	}
	if restored.Config() != agent.Config() {
		t.Errorf("restored config %+v differs from %+v", restored.Config(),
			agent.Config())
	}
}

func TestOnlineCallbackError(t *testing.T) {
	env, agent := setup(t, "")
	exp := experiment.NewOnline(env, agent, 100)

	storageErr := &checkpointer.StorageError{Op: "put", Path: "best",
		Err: errors.New("disk full")}
	calls := 0
	exp.AddCallback(func(step int, _ []results.Episode,
		_ checkpointer.Serializable) error {
		calls++
		if step == 7 {
			return storageErr
		}
		return nil
	})

	err := exp.Run(context.Background())
	var target *checkpointer.StorageError
	if !errors.As(err, &target) {
		t.Fatalf("expected a StorageError, got %v", err)
	}
	if calls != 7 || exp.Steps() != 7 {
		t.Errorf("experiment did not stop at the failing callback: %d "+
			"calls, %d steps", calls, exp.Steps())
	}
}

func TestOnlineCancel(t *testing.T) {
	env, agent := setup(t, "")
	exp := experiment.NewOnline(env, agent, 1000)

	ctx, cancel := context.WithCancel(context.Background())
	exp.AddCallback(func(step int, _ []results.Episode,
		_ checkpointer.Serializable) error {
		if step == 10 {
			cancel()
		}
		return nil
	})

	if err := exp.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if exp.Steps() != 10 {
		t.Errorf("expected to stop after 10 steps, got %d", exp.Steps())
	}
}

func TestOnlineCheckpointer(t *testing.T) {
	env, agent := setup(t, "")
	exp := experiment.NewOnline(env, agent, 3*cutoff)

	store := storage.NewLocal(t.TempDir())
	periodic, err := checkpointer.NewNStep(cutoff, agent, store,
		checkpointer.FilenameEnumerator(0, "checkpoint", ".gob"))
	if err != nil {
		t.Fatal(err)
	}
	exp.AddCheckpointer(periodic)

	if err := exp.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Checkpoints are taken every cutoff total steps, across episodes
	for _, name := range []string{"checkpoint1.gob", "checkpoint2.gob",
		"checkpoint3.gob"} {
		var restored actorcritic.LinearGaussian
		if err := checkpointer.Load(store, name, &restored); err != nil {
			t.Errorf("missing checkpoint %v: %v", name, err)
		}
	}
}
