// Copyright (c) 2026, The NEFSims Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package convolve

import (
	"cogentcore.org/core/base/errors"
	"cogentcore.org/core/base/reflectx"
)

// NetConfig has config parameters for the trained network.
type NetConfig struct {

	// Dims is the dimensionality of the bound pointers; network input is
	// the two operands concatenated (2 x Dims) and output is Dims.
	Dims int `default:"16" min:"2"`

	// Hidden is the number of units per hidden layer.
	Hidden int `default:"128" min:"1"`

	// Layers is the number of trainable layers.
	Layers int `default:"2" min:"1"`

	// InitScale scales the initial random weights.
	InitScale float32 `default:"0.5"`
}

// TrainConfig has config parameters for training.
type TrainConfig struct {

	// Epochs is the number of training epochs.
	Epochs int `default:"20" min:"1"`

	// LearningRate for the gradient optimizer.
	LearningRate float32 `default:"0.01"`

	// Batches is the number of environment batches per epoch.
	Batches int `default:"20" min:"1"`

	// BatchSize is the number of pointer pairs per batch.
	BatchSize int `default:"16" min:"1"`

	// Time is the number of time steps each pair is presented for.
	Time int `default:"4" min:"1"`
}

// CkptConfig has config parameters for checkpoint persistence.
type CkptConfig struct {

	// Path is the sqlite database file for checkpoints; empty disables
	// checkpointing.
	Path string `default:""`

	// ID is the checkpoint identifier to save under and restore from.
	ID string `default:"convolve"`
}

// RunConfig has config parameters related to running the sim.
type RunConfig struct {

	// Seed is the random seed index for this run.
	Seed int `default:"0"`
}

// LogConfig has config parameters related to logging data.
type LogConfig struct {

	// Epoch saves the epoch-level log to a tsv file.
	Epoch bool `default:"false"`
}

// Config has the overall Sim configuration options.
type Config struct {

	// Name is the short name of the sim.
	Name string `display:"-" default:"Convolve"`

	// Title is the longer title of the sim.
	Title string `display:"-" default:"Circular convolution learned by gradient descent"`

	// Doc is brief documentation of the sim.
	Doc string `display:"-" default:"Trains a dense network to compute the circular convolution of two semantic pointers, reporting one minus cosine similarity between target and output as the loss."`

	// Debug reports debugging information.
	Debug bool

	// Net has network options.
	Net NetConfig `display:"add-fields"`

	// Train has training options.
	Train TrainConfig `display:"add-fields"`

	// Ckpt has checkpoint persistence options.
	Ckpt CkptConfig `display:"add-fields"`

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
