// Copyright (c) 2026, The NEFSims Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sequence

import (
	"cogentcore.org/core/base/errors"
	"cogentcore.org/core/base/reflectx"
)

// SeqConfig has config parameters for the vocabulary and sequence.
type SeqConfig struct {

	// Dims is the dimensionality of the semantic pointers.
	Dims int `default:"64" min:"8"`

	// Items is the number of item pointers in the sequence vocabulary.
	Items int `default:"4" min:"2" max:"26"`

	// Threshold is the minimum cleanup similarity to accept a match.
	Threshold float32 `default:"0.25"`
}

// PopConfig has config parameters for the state population.
type PopConfig struct {

	// Units is the number of units representing the state pointer.
	Units int `default:"1500" min:"1"`

	// Tau is the input synaptic time constant in seconds.
	Tau float32 `default:"0.02" min:"0.001"`
}

// RunConfig has config parameters related to running the sim.
type RunConfig struct {

	// Seed is the random seed index for this run.
	Seed int `default:"0"`

	// Trials is the number of sequence transitions to run.
	Trials int `default:"8" min:"1"`

	// Cycles is the number of settling cycles per trial.
	Cycles int `default:"100" min:"10"`
}

// LogConfig has config parameters related to logging data.
type LogConfig struct {

	// Trial saves the trial-level log to a tsv file.
	Trial bool `default:"false"`

	// Cycle saves the cycle-level log to a tsv file.
	Cycle bool `default:"false"`
}

// Config has the overall Sim configuration options.
type Config struct {

	// Name is the short name of the sim.
	Name string `display:"-" default:"Sequence"`

	// Title is the longer title of the sim.
	Title string `display:"-" default:"Semantic pointer sequencing with cleanup"`

	// Doc is brief documentation of the sim.
	Doc string `display:"-" default:"Steps through a sequence of semantic pointers by unbinding a transition pointer from the state represented in a population, snapping each result through a cleanup memory."`

	// Debug reports debugging information.
	Debug bool

	// Seq has vocabulary and sequence options.
	Seq SeqConfig `display:"add-fields"`

	// Pop has state population options.
	Pop PopConfig `display:"add-fields"`

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
