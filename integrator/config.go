// Copyright (c) 2026, The NEFSims Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package integrator

import (
	"cogentcore.org/core/base/errors"
	"cogentcore.org/core/base/reflectx"
)

// PopConfig has config parameters for the integrator population.
type PopConfig struct {

	// Units is the number of units in the integrator population.
	Units int `default:"225" min:"1"`

	// Tau is the recurrent synaptic time constant in seconds, which sets
	// the integration dynamics.
	Tau float32 `default:"0.1" min:"0.001"`
}

// AblateConfig has config parameters for the ablation condition.
type AblateConfig struct {

	// Proportion of units to ablate.
	Proportion float64 `default:"0.01" min:"0" max:"1"`

	// SuppressBias also drives the ablated units' bias strongly negative,
	// silencing them entirely rather than just decoupling them from input.
	SuppressBias bool `default:"true"`
}

// RunConfig has config parameters related to running the sim.
type RunConfig struct {

	// Seed is the random seed index for this run.
	Seed int `default:"0"`

	// Cycles is the total number of integration time steps to run.
	Cycles int `default:"2000" min:"10"`
}

// LogConfig has config parameters related to logging data.
type LogConfig struct {

	// Cycle saves the cycle-level log to a tsv file.
	Cycle bool `default:"false"`
}

// Config has the overall Sim configuration options.
type Config struct {

	// Name is the short name of the sim.
	Name string `display:"-" default:"Integrator"`

	// Title is the longer title of the sim.
	Title string `display:"-" default:"Controlled integrator with ablation"`

	// Doc is brief documentation of the sim.
	Doc string `display:"-" default:"Integrates a piecewise-constant input in a recurrently connected population, and compares the represented value before and after ablating a fraction of the units."`

	// Debug reports debugging information.
	Debug bool

	// Pop has integrator population options.
	Pop PopConfig `display:"add-fields"`

	// Ablate has ablation condition options.
	Ablate AblateConfig `display:"add-fields"`

	// Run has sim running related options.
	Run RunConfig `display:"add-fields"`

	// Log has data logging related options.
	Log LogConfig `display:"add-fields"`
}

func (cfg *Config) Defaults() {
	errors.Log(reflectx.SetFromDefaultTags(cfg))
}

func NewConfig() *Config {
	cfg := &Config{}
	cfg.Defaults()
	return cfg
}
