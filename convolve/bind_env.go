// Copyright (c) 2026, The NEFSims Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package convolve

import (
	"fmt"
	"math/rand"

	"github.com/emer/emergent/v2/env"
	"github.com/emer/emergent/v2/etime"
	"github.com/emer/etensor/tensor"
	"github.com/nefsims/sims/vsa"
)

// BindEnv generates paired binding problems: two random unit pointers
// as input and their circular convolution as target, shaped
// [batch, time, dim] with the same pair repeated across time steps.
type BindEnv struct {

	// name of this environment
	Name string

	// Dims is the pointer dimensionality.
	Dims int

	// Batch is the number of pointer pairs per Step.
	Batch int

	// Time is the number of time steps each pair is repeated for.
	Time int

	// Rand is the source for pointer draws; nil uses the global source.
	Rand *rand.Rand

	// input patterns: operands a and b concatenated per step
	Input tensor.Float32

	// target patterns: circular convolution of a and b per step
	Target tensor.Float32

	// trial is the step counter: how many batches have been generated
	Trial env.Counter `display:"inline"`
}

func (ev *BindEnv) Label() string { return ev.Name }

// Config sets the shapes for the given batch geometry; call before Init.
func (ev *BindEnv) Config(dims, batch, time int) {
	ev.Dims = dims
	ev.Batch = batch
	ev.Time = time
	ev.Input.SetShape([]int{batch, time, 2 * dims}, nil, []string{"Batch", "Time", "Dim"})
	ev.Target.SetShape([]int{batch, time, dims}, nil, []string{"Batch", "Time", "Dim"})
}

func (ev *BindEnv) Validate() error {
	if ev.Dims <= 0 || ev.Batch <= 0 || ev.Time <= 0 {
		return fmt.Errorf("BindEnv: %v geometry not set -- call Config", ev.Name)
	}
	return nil
}

func (ev *BindEnv) State(element string) tensor.Tensor {
	switch element {
	case "Input":
		return &ev.Input
	case "Target":
		return &ev.Target
	}
	return nil
}

// String returns the current state as a string
func (ev *BindEnv) String() string {
	return fmt.Sprintf("Batch_%d", ev.Trial.Cur)
}

func (ev *BindEnv) Init(run int) {
	ev.Trial.Scale = etime.Trial
	ev.Trial.Init()
	ev.Trial.Cur = -1 // init state -- key so that first Step() = 0
}

// Step generates a fresh batch of binding problems.
func (ev *BindEnv) Step() bool {
	d := ev.Dims
	for b := 0; b < ev.Batch; b++ {
		pa := vsa.RandomPointer(d, ev.Rand)
		pb := vsa.RandomPointer(d, ev.Rand)
		tg := vsa.CircConv(pa, pb)
		for t := 0; t < ev.Time; t++ {
			io := (b*ev.Time + t) * 2 * d
			copy(ev.Input.Values[io:io+d], pa)
			copy(ev.Input.Values[io+d:io+2*d], pb)
			to := (b*ev.Time + t) * d
			copy(ev.Target.Values[to:to+d], tg)
		}
	}
	ev.Trial.Incr()
	return true
}

func (ev *BindEnv) Action(element string, input tensor.Tensor) {
	// nop
}

// Sample returns the input and target rows for batch element b at time
// step t, as slices into the underlying tensors.
func (ev *BindEnv) Sample(b, t int) (in, tg []float32) {
	io := (b*ev.Time + t) * 2 * ev.Dims
	to := (b*ev.Time + t) * ev.Dims
	return ev.Input.Values[io : io+2*ev.Dims], ev.Target.Values[to : to+ev.Dims]
}

// Compile-time check that implements Env interface
var _ env.Env = (*BindEnv)(nil)
