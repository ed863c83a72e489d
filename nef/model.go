// Copyright (c) 2026, The NEFSims Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nef

import (
	"fmt"
	"math/rand"
)

// StimFunc returns the value of a stimulus at simulation time t (seconds).
type StimFunc func(t float32) []float32

// Stim is a time-varying input source feeding one or more populations.
type Stim struct {
	Name string
	Dims int
	Func StimFunc
}

// Conn connects a source (population or stimulus) to a target population
// through a linear transform and a first-order synaptic filter.
type Conn struct {

	// From is the name of the source population or stimulus.
	From string

	// To is the name of the target population.
	To string

	// Transform maps source output to target input, shaped
	// [target dims][source dims]. Nil means identity (dims must match).
	Transform [][]float32

	// Tau is the synaptic filter time constant in seconds.
	// Zero means no filtering.
	Tau float32
}

// Model is the declaration phase of a simulation: populations, stimuli,
// connections and probes, before any concrete arrays exist.
type Model struct {
	Name   string
	Pops   []*Population
	Stims  []*Stim
	Conns  []*Conn
	Probes []string
}

func NewModel(name string) *Model {
	return &Model{Name: name}
}

// AddPopulation declares a population of units units representing dims
// dimensions, with default tuning parameters.
func (md *Model) AddPopulation(name string, units, dims int) *Population {
	pp := &Population{Name: name, Units: units, Dims: dims}
	pp.Defaults()
	md.Pops = append(md.Pops, pp)
	return pp
}

// AddStim declares a time-varying input source.
func (md *Model) AddStim(name string, dims int, fn StimFunc) *Stim {
	st := &Stim{Name: name, Dims: dims, Func: fn}
	md.Stims = append(md.Stims, st)
	return st
}

// Connect wires from -> to with the given transform and synaptic time
// constant. Name resolution happens at Build.
func (md *Model) Connect(from, to string, transform [][]float32, tau float32) *Conn {
	cn := &Conn{From: from, To: to, Transform: transform, Tau: tau}
	md.Conns = append(md.Conns, cn)
	return cn
}

// AddProbe records the decoded output of the named population every step.
func (md *Model) AddProbe(pop string) {
	md.Probes = append(md.Probes, pop)
}

// Build resolves the model into a runnable Sim: encoders, gains and biases
// are drawn for every population and the readout calibration is fitted.
// rnd is the random source for all build-time draws; nil uses the shared
// global source.
func (md *Model) Build(rnd *rand.Rand) (*Sim, error) {
	sc := &Sim{}
	if err := sc.build(md, rnd); err != nil {
		return nil, err
	}
	return sc, nil
}

func (md *Model) pop(name string) *Population {
	for _, pp := range md.Pops {
		if pp.Name == name {
			return pp
		}
	}
	return nil
}

func (md *Model) stim(name string) *Stim {
	for _, st := range md.Stims {
		if st.Name == name {
			return st
		}
	}
	return nil
}

// validate checks connection endpoints and transform shapes.
func (md *Model) validate() error {
	for _, cn := range md.Conns {
		var srcDims int
		if st := md.stim(cn.From); st != nil {
			srcDims = st.Dims
		} else if pp := md.pop(cn.From); pp != nil {
			srcDims = pp.Dims
		} else {
			return fmt.Errorf("nef: connection source %q not found in model %q", cn.From, md.Name)
		}
		dst := md.pop(cn.To)
		if dst == nil {
			return fmt.Errorf("nef: connection target %q not found in model %q", cn.To, md.Name)
		}
		if cn.Transform == nil {
			if srcDims != dst.Dims {
				return fmt.Errorf("nef: identity connection %q -> %q has mismatched dims %d != %d", cn.From, cn.To, srcDims, dst.Dims)
			}
			continue
		}
		if len(cn.Transform) != dst.Dims {
			return fmt.Errorf("nef: transform %q -> %q has %d rows, target has %d dims", cn.From, cn.To, len(cn.Transform), dst.Dims)
		}
		for _, row := range cn.Transform {
			if len(row) != srcDims {
				return fmt.Errorf("nef: transform %q -> %q has row of %d cols, source has %d dims", cn.From, cn.To, len(row), srcDims)
			}
		}
	}
	for _, pnm := range md.Probes {
		if md.pop(pnm) == nil {
			return fmt.Errorf("nef: probe target %q not found in model %q", pnm, md.Name)
		}
	}
	return nil
}
