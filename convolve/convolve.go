// Copyright (c) 2026, The NEFSims Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// convolve: trains a dense network by gradient descent to compute the
// circular convolution of two semantic pointers, the binding operation
// of the vector symbolic architecture. The reported loss is one minus
// the cosine similarity between target and output.
package convolve

import (
	"context"
	"fmt"
	"math/rand"
	"reflect"

	"cogentcore.org/core/math32/minmax"
	"cogentcore.org/lab/base/mpi"
	"cogentcore.org/lab/base/randx"
	"github.com/emer/emergent/v2/elog"
	"github.com/emer/emergent/v2/estats"
	"github.com/emer/emergent/v2/etime"
	"github.com/nefsims/sims/ckptdb"
	"github.com/nefsims/sims/vsa"
	"github.com/openfluke/loom/nn"
)

// Sim holds the binding environment, the trained network, and the
// optional checkpoint store.
type Sim struct {

	// Config has all the sim configuration options.
	Config *Config

	// Env generates the binding problems.
	Env BindEnv

	// Net is the trained network.
	Net *nn.Network

	// Ckpt is the checkpoint store; nil if checkpointing is disabled.
	Ckpt *ckptdb.Store

	// contains computed statistic values
	Stats estats.Stats `display:"-"`

	// logging
	Logs elog.Logs `display:"-"`

	// RandSeeds is a list of random seeds to use for each run.
	RandSeeds randx.Seeds `display:"-"`
}

// RunSim runs the simulation as a standalone app
// with given configuration.
func RunSim(cfg *Config) error {
	ss := &Sim{Config: cfg}
	if err := ss.ConfigAll(); err != nil {
		return err
	}
	return ss.RunNoGUI()
}

// ConfigAll configures all the elements using the standard functions.
func (ss *Sim) ConfigAll() error {
	cfg := ss.Config
	ss.Stats.Init()
	ss.RandSeeds.Init(100)
	ss.RandSeeds.Set(cfg.Run.Seed)
	seed := ss.RandSeeds[cfg.Run.Seed%len(ss.RandSeeds)]

	ss.Env.Name = "Bind"
	ss.Env.Rand = rand.New(rand.NewSource(seed))
	ss.Env.Config(cfg.Net.Dims, cfg.Train.BatchSize, cfg.Train.Time)
	if err := ss.Env.Validate(); err != nil {
		return err
	}
	ss.Env.Init(0)

	ss.ConfigNet()
	ss.ConfigLogs()

	if cfg.Ckpt.Path != "" {
		ss.Ckpt = ckptdb.NewStore(cfg.Ckpt.Path)
		if err := ss.Ckpt.Init(context.Background()); err != nil {
			return err
		}
	}
	return nil
}

func (ss *Sim) ConfigNet() {
	cfg := ss.Config
	ss.Net = nn.BuildSimpleNetwork(nn.SimpleNetworkConfig{
		InputSize:  2 * cfg.Net.Dims,
		HiddenSize: cfg.Net.Hidden,
		OutputSize: cfg.Net.Dims,
		Activation: nn.ActivationLeakyReLU,
		InitScale:  cfg.Net.InitScale,
		NumLayers:  cfg.Net.Layers,
		LayerType:  nn.BrainDense,
		DType:      nn.DTypeFloat32,
	})
}

////////////////////////////////////////////////////////////////////////////////
// 	    Running

// TrainEpochs runs the full training: each epoch presents the
// configured number of fresh environment batches, then evaluates the
// cosine loss on a held-out batch and logs it.
func (ss *Sim) TrainEpochs() error {
	cfg := ss.Config
	tcfg := &nn.TrainingConfig{
		Epochs:          1,
		LearningRate:    cfg.Train.LearningRate,
		LossType:        "mse",
		Verbose:         false,
		PrintEveryBatch: 0,
	}
	for epc := 0; epc < cfg.Train.Epochs; epc++ {
		for bt := 0; bt < cfg.Train.Batches; bt++ {
			ss.Env.Step()
			if _, err := ss.Net.Train(ss.Batches(), tcfg); err != nil {
				return err
			}
		}
		loss, err := ss.EvalLoss(ss.Net)
		if err != nil {
			return err
		}
		ss.Stats.SetInt("Epoch", epc)
		ss.Stats.SetFloat("CosLoss", loss)
		ss.Logs.Log(etime.Train, etime.Epoch)
	}
	return nil
}

// Batches flattens the environment's current [batch, time, dim] state
// into per-step training samples; the mapping is memoryless so every
// time step is an independent sample.
func (ss *Sim) Batches() []nn.TrainingBatch {
	ev := &ss.Env
	bts := make([]nn.TrainingBatch, 0, ev.Batch*ev.Time)
	for b := 0; b < ev.Batch; b++ {
		for t := 0; t < ev.Time; t++ {
			in, tg := ev.Sample(b, t)
			bts = append(bts, nn.TrainingBatch{Input: in, Target: tg})
		}
	}
	return bts
}

// EvalLoss evaluates the given network on a fresh batch, returning the
// mean of one minus the cosine similarity between target and output.
func (ss *Sim) EvalLoss(net *nn.Network) (float64, error) {
	ev := &ss.Env
	ev.Step()
	sum := 0.0
	n := 0
	for b := 0; b < ev.Batch; b++ {
		in, tg := ev.Sample(b, 0)
		out, err := net.ForwardCPU(in)
		if err != nil {
			return 0, err
		}
		sum += 1 - float64(vsa.Cosine(tg, out))
		n++
	}
	return sum / float64(n), nil
}

////////////////////////////////////////////////////////////////////////////////
// 	    Checkpointing

// SaveCkpt saves the trained network parameters to the checkpoint
// store under the configured id, along with the final loss.
func (ss *Sim) SaveCkpt(ctx context.Context) error {
	cfg := ss.Config
	data, err := ss.Net.SaveModelWithDType(cfg.Ckpt.ID, nn.DTypeFloat32)
	if err != nil {
		return err
	}
	return ss.Ckpt.Save(ctx, cfg.Ckpt.ID, ss.Stats.Float("CosLoss"), []byte(data))
}

// LoadCkpt restores a network from the checkpoint store without
// retraining, returning it along with the loss recorded at save time.
func (ss *Sim) LoadCkpt(ctx context.Context) (*nn.Network, float64, error) {
	cfg := ss.Config
	payload, loss, err := ss.Ckpt.Load(ctx, cfg.Ckpt.ID)
	if err != nil {
		return nil, 0, err
	}
	net, _, err := nn.LoadModelWithDType(string(payload), cfg.Ckpt.ID, nn.DTypeFloat32)
	if err != nil {
		return nil, 0, err
	}
	return net, loss, nil
}

////////////////////////////////////////////////////////////////////////////////
// 	    Logging

func (ss *Sim) ConfigLogs() {
	ss.ConfigLogItems()
	ss.Logs.CreateTables()
	ss.Logs.PlotItems("CosLoss")
	ss.Logs.SetContext(&ss.Stats, nil)
	ss.Logs.ResetLog(etime.Train, etime.Epoch)
}

func (ss *Sim) ConfigLogItems() {
	lg := &ss.Logs

	lg.AddItem(&elog.Item{
		Name:   "Epoch",
		Type:   reflect.Int,
		FixMax: false,
		Range:  minmax.F32{Max: 1},
		Write: elog.WriteMap{
			etime.Scope(etime.Train, etime.Epoch): func(ctx *elog.Context) {
				ctx.SetInt(ss.Stats.Int("Epoch"))
			}}})
	lg.AddItem(&elog.Item{
		Name:   "CosLoss",
		Type:   reflect.Float64,
		FixMax: false,
		Range:  minmax.F32{Max: 1},
		Write: elog.WriteMap{
			etime.Scope(etime.Train, etime.Epoch): func(ctx *elog.Context) {
				ctx.SetFloat64(ss.Stats.Float("CosLoss"))
			}}})
}

func (ss *Sim) RunNoGUI() error {
	elog.SetLogFile(&ss.Logs, ss.Config.Log.Epoch, etime.Train, etime.Epoch, "epc", ss.Config.Name, ss.RunName())
	mpi.Printf("Running %s: %d dims, %d epochs x %d batches\n",
		ss.Config.Name, ss.Config.Net.Dims, ss.Config.Train.Epochs, ss.Config.Train.Batches)
	err := ss.TrainEpochs()
	if err == nil {
		mpi.Printf("Final loss (1 - cosine): %.4g\n", ss.Stats.Float("CosLoss"))
		if ss.Ckpt != nil {
			ctx := context.Background()
			if err = ss.SaveCkpt(ctx); err == nil {
				var net *nn.Network
				var loss float64
				net, loss, err = ss.LoadCkpt(ctx)
				if err == nil {
					var reval float64
					reval, err = ss.EvalLoss(net)
					if err == nil {
						mpi.Printf("Checkpoint %q restored: saved loss %.4g, re-evaluated %.4g\n",
							ss.Config.Ckpt.ID, loss, reval)
					}
				}
			}
		}
	}
	ss.Logs.CloseLogFiles()
	if ss.Ckpt != nil {
		if cerr := ss.Ckpt.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// RunName returns a name for this run based on the seed, used for log files.
func (ss *Sim) RunName() string {
	return fmt.Sprintf("seed%d", ss.Config.Run.Seed)
}
