// Copyright (c) 2026, The NEFSims Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nef

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/emer/etensor/tensor"
	"github.com/emer/etensor/tensor/table"
)

var (
	// ErrNotBuilt is returned when resolved population state is accessed
	// before the model has been built into a simulation.
	ErrNotBuilt = errors.New("nef: simulation not built")

	// ErrWriteProtected is returned when mutation of resolved arrays is
	// attempted without scoped write access.
	ErrWriteProtected = errors.New("nef: resolved arrays are write protected")
)

// connState is the runtime state of one connection: the synapse-filtered
// value currently delivered to the target.
type connState struct {
	cn       *Conn
	src      *PopState // nil if source is a stimulus
	stim     *Stim
	filtered []float32
	scratch  []float32
}

// probeState accumulates time-stamped decoded outputs for one population.
type probeState struct {
	pop   *PopState
	times []float32
	vals  []float32 // row-major [len(times)][dims]
}

// Sim is a built, runnable simulation context: the resolved per-unit
// arrays for every population, connection filter state, and probes.
// The zero value is an unbuilt context; all resolved-state accessors
// return ErrNotBuilt until a Model is built into it.
type Sim struct {

	// Model is the declaration this Sim was built from.
	Model *Model

	// Dt is the integration time step in seconds. Default 0.001.
	Dt float32 `default:"0.001"`

	// Time is the current simulation time in seconds.
	Time float32

	// Pops holds resolved population state by name.
	Pops map[string]*PopState

	conns  []*connState
	probes map[string]*probeState
	built  bool
}

func (sc *Sim) build(md *Model, rnd *rand.Rand) error {
	if err := md.validate(); err != nil {
		return err
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	sc.Model = md
	if sc.Dt == 0 {
		sc.Dt = 0.001
	}
	sc.Time = 0
	sc.Pops = make(map[string]*PopState, len(md.Pops))
	for _, pp := range md.Pops {
		ps := &PopState{Pop: pp}
		ps.resolve(rnd)
		ps.calibrate(rnd)
		sc.Pops[pp.Name] = ps
	}
	sc.conns = make([]*connState, len(md.Conns))
	for i, cn := range md.Conns {
		cs := &connState{cn: cn}
		dst := sc.Pops[cn.To]
		cs.filtered = make([]float32, dst.Pop.Dims)
		cs.scratch = make([]float32, dst.Pop.Dims)
		if st := md.stim(cn.From); st != nil {
			cs.stim = st
		} else {
			cs.src = sc.Pops[cn.From]
		}
		sc.conns[i] = cs
	}
	sc.probes = make(map[string]*probeState, len(md.Probes))
	for _, pnm := range md.Probes {
		sc.probes[pnm] = &probeState{pop: sc.Pops[pnm]}
	}
	sc.built = true
	return nil
}

// Built reports whether this context holds resolved state.
func (sc *Sim) Built() bool { return sc.built }

// Pop returns the resolved state for the named population.
func (sc *Sim) Pop(name string) (*PopState, error) {
	if !sc.built {
		return nil, ErrNotBuilt
	}
	ps, ok := sc.Pops[name]
	if !ok {
		return nil, fmt.Errorf("nef: no population %q", name)
	}
	return ps, nil
}

// NumUnits returns the number of units in the named population.
func (sc *Sim) NumUnits(pop string) (int, error) {
	ps, err := sc.Pop(pop)
	if err != nil {
		return 0, err
	}
	return ps.Pop.Units, nil
}

// WritableArrays grants scoped write access to the named population's
// resolved encoder and bias arrays. The returned release func restores
// write protection and must be called on every exit path (defer it).
// Concurrent or nested grants are not supported: a second grant before
// release fails with ErrWriteProtected.
func (sc *Sim) WritableArrays(pop string) (enc, bias *tensor.Float32, release func(), err error) {
	ps, err := sc.Pop(pop)
	if err != nil {
		return nil, nil, nil, err
	}
	if ps.writable {
		return nil, nil, nil, fmt.Errorf("%w: population %q already has an outstanding write grant", ErrWriteProtected, pop)
	}
	ps.writable = true
	release = func() { ps.writable = false }
	return ps.Encoders, ps.Bias, release, nil
}

// Decoded returns the current decoded output of the named population.
func (sc *Sim) Decoded(pop string) ([]float32, error) {
	ps, err := sc.Pop(pop)
	if err != nil {
		return nil, err
	}
	return ps.Out, nil
}

// Step advances the simulation by one Dt: stimuli are sampled, connection
// filters updated, population drives integrated, rates and decoded
// outputs recomputed, and probes recorded.
func (sc *Sim) Step() error {
	if !sc.built {
		return ErrNotBuilt
	}
	// deliver through connections using last step's outputs
	for _, cs := range sc.conns {
		var src []float32
		if cs.stim != nil {
			src = cs.stim.Func(sc.Time)
		} else {
			src = cs.src.Out
		}
		out := cs.scratch
		if cs.cn.Transform == nil {
			copy(out, src)
		} else {
			for j, row := range cs.cn.Transform {
				v := float32(0)
				for k, w := range row {
					v += w * src[k]
				}
				out[j] = v
			}
		}
		if cs.cn.Tau <= 0 {
			copy(cs.filtered, out)
		} else {
			a := sc.Dt / cs.cn.Tau
			for j := range cs.filtered {
				cs.filtered[j] += a * (out[j] - cs.filtered[j])
			}
		}
	}
	// accumulate per-population input
	for _, ps := range sc.Pops {
		for j := range ps.In {
			ps.In[j] = 0
		}
	}
	for _, cs := range sc.conns {
		dst := sc.Pops[cs.cn.To]
		for j, v := range cs.filtered {
			dst.In[j] += v
		}
	}
	// integrate drives, update rates and decoded outputs
	for _, ps := range sc.Pops {
		a := sc.Dt / ps.Pop.Tau
		for i := range ps.Drive {
			ps.Drive[i] += a * (ps.drive(i, ps.In) - ps.Drive[i])
		}
		ps.updateRates()
		ps.decode()
	}
	sc.Time += sc.Dt
	for _, pb := range sc.probes {
		pb.times = append(pb.times, sc.Time)
		pb.vals = append(pb.vals, pb.pop.Out...)
	}
	return nil
}

// RunFor advances the simulation for the given duration in seconds.
func (sc *Sim) RunFor(dur float32) error {
	n := int(dur / sc.Dt)
	for i := 0; i < n; i++ {
		if err := sc.Step(); err != nil {
			return err
		}
	}
	return nil
}

// ResetProbes clears all recorded probe data.
func (sc *Sim) ResetProbes() {
	for _, pb := range sc.probes {
		pb.times = pb.times[:0]
		pb.vals = pb.vals[:0]
	}
}

// ProbeTable returns the recorded probe data for the named population as
// a table with a Time column and a Value tensor column of the
// population's dimensionality.
func (sc *Sim) ProbeTable(pop string) (*table.Table, error) {
	if !sc.built {
		return nil, ErrNotBuilt
	}
	pb, ok := sc.probes[pop]
	if !ok {
		return nil, fmt.Errorf("nef: no probe on population %q", pop)
	}
	d := pb.pop.Pop.Dims
	dt := &table.Table{}
	dt.SetMetaData("name", pop+"Probe")
	dt.AddFloat64Column("Time")
	dt.AddFloat32TensorColumn("Value", []int{d}, "Dim")
	n := len(pb.times)
	dt.SetNumRows(n)
	tc := dt.Columns[0].(*tensor.Float64)
	vc := dt.Columns[1].(*tensor.Float32)
	for r := 0; r < n; r++ {
		tc.Values[r] = float64(pb.times[r])
	}
	copy(vc.Values, pb.vals)
	return dt, nil
}
