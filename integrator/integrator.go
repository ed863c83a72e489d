// Copyright (c) 2026, The NEFSims Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// integrator: a population of rate units integrates a piecewise-constant
// input through a recurrent connection, and a copy of the same model is
// run with a fraction of its units ablated to show the effect of damage
// on the represented value.
package integrator

import (
	"fmt"
	"math"
	"math/rand"
	"reflect"

	"cogentcore.org/core/math32"
	"cogentcore.org/core/math32/minmax"
	"cogentcore.org/lab/base/mpi"
	"cogentcore.org/lab/base/randx"
	"github.com/emer/emergent/v2/elog"
	"github.com/emer/emergent/v2/estats"
	"github.com/emer/emergent/v2/etime"
	"github.com/nefsims/sims/ablate"
	"github.com/nefsims/sims/nef"
)

// popName is the name of the integrator population in both models.
const popName = "Integrator"

// Sim runs two identically seeded copies of the integrator model in
// lockstep: Intact is left as built, Damaged has a fraction of its
// units ablated before running. Because the builds share a seed, any
// difference between the two decoded outputs is due to the ablation.
type Sim struct {

	// Config has all the sim configuration options.
	Config *Config

	// Intact is the undamaged model.
	Intact *nef.Sim

	// Damaged is the same model after ablation.
	Damaged *nef.Sim

	// Profile is the input value per segment; segments divide the run
	// into equal spans of cycles.
	Profile []float32

	// contains computed statistic values
	Stats estats.Stats `display:"-"`

	// logging
	Logs elog.Logs `display:"-"`

	// RandSeeds is a list of random seeds to use for each run.
	RandSeeds randx.Seeds `display:"-"`

	inBuf []float32
	ideal float32 // running exact integral of the input
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
	ss.Stats.Init()
	ss.RandSeeds.Init(100)
	ss.RandSeeds.Set(ss.Config.Run.Seed)
	if ss.Profile == nil {
		ss.Profile = []float32{0.8, 0, -0.5, 0}
	}
	ss.inBuf = make([]float32, 1)
	if err := ss.ConfigModels(); err != nil {
		return err
	}
	ss.ConfigLogs()
	return nil
}

// ConfigModels builds the intact and damaged models from the same seed
// and applies the configured ablation to the damaged one.
func (ss *Sim) ConfigModels() error {
	seed := ss.RandSeeds[ss.Config.Run.Seed%len(ss.RandSeeds)]
	var err error
	ss.Intact, err = ss.buildModel(rand.New(rand.NewSource(seed)))
	if err != nil {
		return err
	}
	ss.Damaged, err = ss.buildModel(rand.New(rand.NewSource(seed)))
	if err != nil {
		return err
	}
	acfg := &ss.Config.Ablate
	return ablate.Ablate(ss.Damaged, popName, acfg.Proportion, acfg.SuppressBias, rand.New(rand.NewSource(seed+1)))
}

func (ss *Sim) buildModel(rnd *rand.Rand) (*nef.Sim, error) {
	cfg := ss.Config
	md := nef.NewModel(cfg.Name)
	md.AddPopulation(popName, cfg.Pop.Units, 1)
	md.AddStim("Input", 1, ss.InputFunc)
	tau := cfg.Pop.Tau
	// scaling the input by the recurrent tau makes the decoded value
	// track the integral of the input
	md.Connect("Input", popName, [][]float32{{tau}}, tau)
	md.Connect(popName, popName, nil, tau)
	return md.Build(rnd)
}

// InputFunc is the stimulus: a piecewise-constant profile dividing the
// run into len(Profile) equal segments.
func (ss *Sim) InputFunc(t float32) []float32 {
	dur := float32(ss.Config.Run.Cycles) * ss.Intact.Dt
	seg := int(t / dur * float32(len(ss.Profile)))
	if seg >= len(ss.Profile) {
		seg = len(ss.Profile) - 1
	}
	ss.inBuf[0] = ss.Profile[seg]
	return ss.inBuf
}

////////////////////////////////////////////////////////////////////////////////
// 	    Running

// RunCycles steps both models over the configured number of cycles,
// logging the decoded values each cycle, then computes summary stats.
func (ss *Sim) RunCycles() error {
	for cyc := 0; cyc < ss.Config.Run.Cycles; cyc++ {
		if err := ss.Intact.Step(); err != nil {
			return err
		}
		if err := ss.Damaged.Step(); err != nil {
			return err
		}
		ss.Stats.SetInt("Cycle", cyc)
		ss.CycleStats()
		ss.Logs.Log(etime.Test, etime.Cycle)
	}
	ss.FinalStats()
	return nil
}

// CycleStats records the per-cycle decoded values, the exact integral of
// the input, the intact model's integration error, and the
// intact-vs-damaged deviation.
func (ss *Sim) CycleStats() {
	iv, _ := ss.Intact.Decoded(popName)
	dv, _ := ss.Damaged.Decoded(popName)
	in := ss.InputFunc(ss.Intact.Time - ss.Intact.Dt)
	ss.ideal += in[0] * ss.Intact.Dt
	ss.Stats.SetFloat32("Input", in[0])
	ss.Stats.SetFloat32("Ideal", ss.ideal)
	ss.Stats.SetFloat32("Intact", iv[0])
	ss.Stats.SetFloat32("Damaged", dv[0])
	ss.Stats.SetFloat32("IntgErr", math32.Abs(iv[0]-ss.ideal))
	ss.Stats.SetFloat32("Deviation", math32.Abs(dv[0]-iv[0]))
}

// FinalStats computes the run summary: RMS deviation between the
// damaged and intact decoded values over all cycles.
func (ss *Sim) FinalStats() {
	dt := ss.Logs.Table(etime.Test, etime.Cycle)
	sum := 0.0
	for r := 0; r < dt.Rows; r++ {
		d := dt.Float("Deviation", r)
		sum += d * d
	}
	rmsd := 0.0
	if dt.Rows > 0 {
		rmsd = math.Sqrt(sum / float64(dt.Rows))
	}
	ss.Stats.SetFloat("DevRMS", rmsd)
}

////////////////////////////////////////////////////////////////////////////////
// 	    Logging

func (ss *Sim) ConfigLogs() {
	ss.ConfigLogItems()
	ss.Logs.CreateTables()
	ss.Logs.PlotItems("Input", "Intact", "Damaged", "Deviation")
	ss.Logs.SetContext(&ss.Stats, nil)
	ss.Logs.ResetLog(etime.Test, etime.Cycle)
}

func (ss *Sim) ConfigLogItems() {
	lg := &ss.Logs

	lg.AddItem(&elog.Item{
		Name:   "Cycle",
		Type:   reflect.Int,
		FixMax: false,
		Range:  minmax.F32{Max: 1},
		Write: elog.WriteMap{
			etime.Scope(etime.Test, etime.Cycle): func(ctx *elog.Context) {
				ctx.SetInt(ss.Stats.Int("Cycle"))
			}}})

	vars := []string{"Input", "Ideal", "Intact", "Damaged", "IntgErr", "Deviation"}

	for _, vnm := range vars {
		vnm := vnm
		lg.AddItem(&elog.Item{
			Name:   vnm,
			Type:   reflect.Float64,
			FixMax: false,
			Range:  minmax.F32{Min: -1, Max: 1},
			Write: elog.WriteMap{
				etime.Scope(etime.Test, etime.Cycle): func(ctx *elog.Context) {
					ctx.SetFloat64(ss.Stats.Float(vnm))
				}}})
	}
}

func (ss *Sim) RunNoGUI() error {
	elog.SetLogFile(&ss.Logs, ss.Config.Log.Cycle, etime.Test, etime.Cycle, "cyc", ss.Config.Name, ss.RunName())
	mpi.Printf("Running %s: %d units, ablating %.3g (bias suppression %v)\n",
		ss.Config.Name, ss.Config.Pop.Units, ss.Config.Ablate.Proportion, ss.Config.Ablate.SuppressBias)
	err := ss.RunCycles()
	if err == nil {
		mpi.Printf("Deviation RMS over %d cycles: %.4g\n", ss.Config.Run.Cycles, ss.Stats.Float("DevRMS"))
	}
	ss.Logs.CloseLogFiles()
	return err
}

// RunName returns a name for this run based on the seed, used for log files.
func (ss *Sim) RunName() string {
	return fmt.Sprintf("seed%d", ss.Config.Run.Seed)
}
