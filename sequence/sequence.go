// Copyright (c) 2026, The NEFSims Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// sequence: a state population represents a semantic pointer, and each
// trial advances it through a vocabulary sequence by unbinding a
// transition pointer from the decoded state and cleaning up the result
// against the vocabulary.
package sequence

import (
	"fmt"
	"math/rand"
	"reflect"
	"strings"

	"cogentcore.org/core/math32/minmax"
	"cogentcore.org/lab/base/mpi"
	"cogentcore.org/lab/base/randx"
	"github.com/emer/emergent/v2/elog"
	"github.com/emer/emergent/v2/estats"
	"github.com/emer/emergent/v2/etime"
	"github.com/nefsims/sims/nef"
	"github.com/nefsims/sims/vsa"
)

// popName is the name of the state population.
const popName = "State"

// Sim holds the sequencing model: a vocabulary of item pointers chained
// by a NEXT transition pointer, a cleanup memory over the items, and a
// population representing the current state.
type Sim struct {

	// Config has all the sim configuration options.
	Config *Config

	// Vocab holds the item pointers, in sequence order.
	Vocab *vsa.Vocab

	// Cleanup is the associative cleanup memory over Vocab.
	Cleanup *vsa.Cleanup

	// Next is the transition pointer; unbinding it from an item yields
	// the following item in the sequence.
	Next []float32

	// State is the built model holding the state population.
	State *nef.Sim

	// Trace is the name of the item presented on each trial.
	Trace []string

	// contains computed statistic values
	Stats estats.Stats `display:"-"`

	// logging
	Logs elog.Logs `display:"-"`

	// RandSeeds is a list of random seeds to use for each run.
	RandSeeds randx.Seeds `display:"-"`

	cur     []float32 // stimulus buffer holding the current pointer
	curName string
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
	seed := ss.RandSeeds[ss.Config.Run.Seed%len(ss.RandSeeds)]
	rnd := rand.New(rand.NewSource(seed))
	if err := ss.ConfigVocab(rnd); err != nil {
		return err
	}
	if err := ss.ConfigModel(rnd); err != nil {
		return err
	}
	ss.ConfigLogs()
	ss.setState(ss.ItemName(0), ss.Vocab.Get(ss.ItemName(0)))
	return nil
}

// ItemName returns the name of the i-th sequence item: A, B, C, ...
func (ss *Sim) ItemName(i int) string {
	return string(rune('A' + i))
}

// ConfigVocab generates the NEXT transition pointer and the chained item
// vocabulary: each item is the previous one unbound with NEXT, so that
// unbinding NEXT from an item yields its successor.
func (ss *Sim) ConfigVocab(rnd *rand.Rand) error {
	cfg := &ss.Config.Seq
	ss.Next = vsa.RandomPointer(cfg.Dims, rnd)
	ss.Vocab = vsa.NewVocab(cfg.Dims)
	cur := vsa.RandomPointer(cfg.Dims, rnd)
	for i := 0; i < cfg.Items; i++ {
		if err := ss.Vocab.Add(ss.ItemName(i), cur); err != nil {
			return err
		}
		cur = vsa.Unbind(cur, ss.Next)
		vsa.Normalize(cur)
	}
	ss.Cleanup = vsa.NewCleanup(ss.Vocab)
	ss.Cleanup.Threshold = cfg.Threshold
	return nil
}

// ConfigModel builds the state population model: a pointer stimulus
// feeding the state population through a synaptic filter.
func (ss *Sim) ConfigModel(rnd *rand.Rand) error {
	cfg := ss.Config
	ss.cur = make([]float32, cfg.Seq.Dims)
	md := nef.NewModel(cfg.Name)
	md.AddPopulation(popName, cfg.Pop.Units, cfg.Seq.Dims)
	md.AddStim("Pointer", cfg.Seq.Dims, func(t float32) []float32 { return ss.cur })
	md.Connect("Pointer", popName, nil, cfg.Pop.Tau)
	var err error
	ss.State, err = md.Build(rnd)
	return err
}

func (ss *Sim) setState(name string, v []float32) {
	copy(ss.cur, v)
	ss.curName = name
}

////////////////////////////////////////////////////////////////////////////////
// 	    Running

// RunTrials runs the configured number of sequence transitions. Each
// trial lets the state population settle on the current pointer, then
// unbinds NEXT from the decoded state and cleans up the result. A hit
// advances the state to the cleaned item; a miss restarts the sequence.
func (ss *Sim) RunTrials() error {
	cfg := ss.Config
	for trl := 0; trl < cfg.Run.Trials; trl++ {
		ss.Trace = append(ss.Trace, ss.curName)
		for cyc := 0; cyc < cfg.Run.Cycles; cyc++ {
			if err := ss.State.Step(); err != nil {
				return err
			}
			ss.Stats.SetInt("Cycle", trl*cfg.Run.Cycles+cyc)
			ss.CycleStats()
			ss.Logs.Log(etime.Test, etime.Cycle)
		}
		if err := ss.TrialStep(trl); err != nil {
			return err
		}
		ss.Logs.Log(etime.Test, etime.Trial)
	}
	ss.FinalStats()
	return nil
}

// CycleStats records the similarity of the decoded state to every
// vocabulary item.
func (ss *Sim) CycleStats() {
	dec, _ := ss.State.Decoded(popName)
	sims := ss.Cleanup.Similarities(dec)
	for i, nm := range ss.Vocab.Names {
		ss.Stats.SetFloat32("Sim"+nm, sims[i])
	}
}

// TrialStep performs the sequence transition from the settled state.
func (ss *Sim) TrialStep(trl int) error {
	dec, err := ss.State.Decoded(popName)
	if err != nil {
		return err
	}
	raw := vsa.Unbind(dec, ss.Next)
	name, sim, clean, ok := ss.Cleanup.Best(raw)
	ss.Stats.SetInt("Trial", trl)
	ss.Stats.SetString("TrialName", ss.curName)
	ss.Stats.SetString("Cleaned", name)
	ss.Stats.SetFloat32("CleanSim", sim)
	if ok {
		ss.Stats.SetFloat("Hit", 1)
		ss.setState(name, clean)
	} else {
		ss.Stats.SetFloat("Hit", 0)
		first := ss.ItemName(0)
		ss.setState(first, ss.Vocab.Get(first))
	}
	return nil
}

// FinalStats computes the hit percentage over all trials.
func (ss *Sim) FinalStats() {
	dt := ss.Logs.Table(etime.Test, etime.Trial)
	hits := 0.0
	for r := 0; r < dt.Rows; r++ {
		hits += dt.Float("Hit", r)
	}
	pct := 0.0
	if dt.Rows > 0 {
		pct = 100 * hits / float64(dt.Rows)
	}
	ss.Stats.SetFloat("HitPct", pct)
}

////////////////////////////////////////////////////////////////////////////////
// 	    Logging

func (ss *Sim) ConfigLogs() {
	ss.ConfigLogItems()
	ss.Logs.CreateTables()
	ss.Logs.PlotItems("Sim" + ss.ItemName(0))
	ss.Logs.SetContext(&ss.Stats, nil)
	ss.Logs.ResetLog(etime.Test, etime.Cycle)
	ss.Logs.ResetLog(etime.Test, etime.Trial)
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

	for i := 0; i < ss.Config.Seq.Items; i++ {
		nm := "Sim" + ss.ItemName(i)
		lg.AddItem(&elog.Item{
			Name:   nm,
			Type:   reflect.Float64,
			FixMax: false,
			Range:  minmax.F32{Min: -1, Max: 1},
			Write: elog.WriteMap{
				etime.Scope(etime.Test, etime.Cycle): func(ctx *elog.Context) {
					ctx.SetFloat64(ss.Stats.Float(nm))
				}}})
	}

	lg.AddItem(&elog.Item{
		Name:   "Trial",
		Type:   reflect.Int,
		FixMax: false,
		Range:  minmax.F32{Max: 1},
		Write: elog.WriteMap{
			etime.Scope(etime.Test, etime.Trial): func(ctx *elog.Context) {
				ctx.SetInt(ss.Stats.Int("Trial"))
			}}})
	lg.AddStatStringItem(etime.Test, etime.Trial, "TrialName")
	lg.AddStatStringItem(etime.Test, etime.Trial, "Cleaned")
	for _, vnm := range []string{"CleanSim", "Hit"} {
		vnm := vnm
		lg.AddItem(&elog.Item{
			Name:   vnm,
			Type:   reflect.Float64,
			FixMax: false,
			Range:  minmax.F32{Max: 1},
			Write: elog.WriteMap{
				etime.Scope(etime.Test, etime.Trial): func(ctx *elog.Context) {
					ctx.SetFloat64(ss.Stats.Float(vnm))
				}}})
	}
}

func (ss *Sim) RunNoGUI() error {
	elog.SetLogFile(&ss.Logs, ss.Config.Log.Trial, etime.Test, etime.Trial, "trl", ss.Config.Name, ss.RunName())
	elog.SetLogFile(&ss.Logs, ss.Config.Log.Cycle, etime.Test, etime.Cycle, "cyc", ss.Config.Name, ss.RunName())
	mpi.Printf("Running %s: %d items, %d dims, %d trials\n",
		ss.Config.Name, ss.Config.Seq.Items, ss.Config.Seq.Dims, ss.Config.Run.Trials)
	err := ss.RunTrials()
	if err == nil {
		mpi.Printf("Sequence: %s  (cleanup hits %.3g%%)\n",
			strings.Join(ss.Trace, " "), ss.Stats.Float("HitPct"))
	}
	ss.Logs.CloseLogFiles()
	return err
}

// RunName returns a name for this run based on the seed, used for log files.
func (ss *Sim) RunName() string {
	return fmt.Sprintf("seed%d", ss.Config.Run.Seed)
}
