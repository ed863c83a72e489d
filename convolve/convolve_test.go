// Copyright (c) 2026, The NEFSims Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package convolve

import (
	"context"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/nefsims/sims/vsa"
)

// difTol is the numerical difference tolerance for exact float comparisons
const difTol = 1.0e-6

func TestBindEnvShapes(t *testing.T) {
	ev := &BindEnv{Name: "Bind", Rand: rand.New(rand.NewSource(7))}
	ev.Config(8, 4, 3)
	if err := ev.Validate(); err != nil {
		t.Fatal(err)
	}
	ev.Init(0)
	ev.Step()
	if len(ev.Input.Values) != 4*3*16 {
		t.Errorf("input has %d values, want %d", len(ev.Input.Values), 4*3*16)
	}
	if len(ev.Target.Values) != 4*3*8 {
		t.Errorf("target has %d values, want %d", len(ev.Target.Values), 4*3*8)
	}
	for b := 0; b < ev.Batch; b++ {
		in, tg := ev.Sample(b, 0)
		cc := vsa.CircConv(in[:8], in[8:])
		for j := range cc {
			if math.Abs(float64(cc[j]-tg[j])) > difTol {
				t.Fatalf("batch %d: target[%d] = %g, want circconv %g", b, j, tg[j], cc[j])
			}
		}
		// same pair repeated across time steps
		for tm := 1; tm < ev.Time; tm++ {
			in2, tg2 := ev.Sample(b, tm)
			for j := range in {
				if in2[j] != in[j] {
					t.Fatalf("batch %d time %d: input differs from time 0", b, tm)
				}
			}
			for j := range tg {
				if tg2[j] != tg[j] {
					t.Fatalf("batch %d time %d: target differs from time 0", b, tm)
				}
			}
		}
	}
}

func TestBindEnvFreshBatches(t *testing.T) {
	ev := &BindEnv{Name: "Bind", Rand: rand.New(rand.NewSource(7))}
	ev.Config(8, 2, 1)
	ev.Init(0)
	ev.Step()
	first := make([]float32, len(ev.Input.Values))
	copy(first, ev.Input.Values)
	ev.Step()
	if ev.Trial.Cur != 1 {
		t.Errorf("trial counter = %d, want 1", ev.Trial.Cur)
	}
	same := true
	for i, v := range ev.Input.Values {
		if v != first[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("second Step produced an identical batch")
	}
}

func TestStateElements(t *testing.T) {
	ev := &BindEnv{Name: "Bind"}
	ev.Config(4, 1, 1)
	if ev.State("Input") == nil || ev.State("Target") == nil {
		t.Error("State must return Input and Target tensors")
	}
	if ev.State("Bogus") != nil {
		t.Error("State of unknown element must be nil")
	}
}

func newTestConfig() *Config {
	cfg := NewConfig()
	cfg.Net.Dims = 8
	cfg.Net.Hidden = 64
	cfg.Train.Epochs = 10
	cfg.Train.Batches = 10
	cfg.Train.BatchSize = 16
	cfg.Train.Time = 2
	return cfg
}

func TestTrainingReducesLoss(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping training in short mode")
	}
	cfg := newTestConfig()
	ss := &Sim{Config: cfg}
	if err := ss.ConfigAll(); err != nil {
		t.Fatal(err)
	}
	initial, err := ss.EvalLoss(ss.Net)
	if err != nil {
		t.Fatal(err)
	}
	if err := ss.TrainEpochs(); err != nil {
		t.Fatal(err)
	}
	final := ss.Stats.Float("CosLoss")
	if final >= initial {
		t.Errorf("loss did not decrease: initial %g, final %g", initial, final)
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping training in short mode")
	}
	cfg := newTestConfig()
	cfg.Train.Epochs = 2
	cfg.Ckpt.Path = filepath.Join(t.TempDir(), "ckpt.db")
	ss := &Sim{Config: cfg}
	if err := ss.ConfigAll(); err != nil {
		t.Fatal(err)
	}
	if err := ss.TrainEpochs(); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := ss.SaveCkpt(ctx); err != nil {
		t.Fatal(err)
	}
	net, loss, err := ss.LoadCkpt(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if loss != ss.Stats.Float("CosLoss") {
		t.Errorf("restored loss = %g, want %g", loss, ss.Stats.Float("CosLoss"))
	}
	in, _ := ss.Env.Sample(0, 0)
	want, err := ss.Net.ForwardCPU(in)
	if err != nil {
		t.Fatal(err)
	}
	got, err := net.ForwardCPU(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Fatalf("restored output has %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > difTol {
			t.Errorf("restored output[%d] = %g, want %g", i, got[i], want[i])
		}
	}
	if err := ss.Ckpt.Close(); err != nil {
		t.Fatal(err)
	}
}
