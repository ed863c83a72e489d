// Copyright (c) 2026, The NEFSims Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vsa

import (
	"github.com/emer/etensor/tensor"
	"github.com/emer/etensor/tensor/stats/metric"
)

// Cleanup is an associative cleanup memory over a vocabulary: given a
// noisy pointer it returns the best-matching entry. Matching compares
// against every vocabulary row; below Threshold the query is a miss.
type Cleanup struct {

	// Vocab is the vocabulary cleaned up against.
	Vocab *Vocab

	// Threshold is the minimum cosine similarity for a match.
	// Default 0.3.
	Threshold float32 `default:"0.3"`

	// Mem holds the vocabulary pointers as rows, shaped [entries, dims].
	Mem *tensor.Float32
}

// NewCleanup builds a cleanup memory over vc.
func NewCleanup(vc *Vocab) *Cleanup {
	cl := &Cleanup{Vocab: vc, Threshold: 0.3}
	cl.Mem = &tensor.Float32{}
	cl.Mem.SetShape([]int{vc.Len(), vc.Dims}, "Entries", "Dim")
	for r, nm := range vc.Names {
		copy(cl.Mem.Values[r*vc.Dims:(r+1)*vc.Dims], vc.Get(nm))
	}
	return cl
}

// Similarities returns the cosine similarity of v to every vocabulary
// entry, in vocabulary order.
func (cl *Cleanup) Similarities(v []float32) []float32 {
	sims := make([]float32, cl.Vocab.Len())
	for r := range sims {
		row := cl.Mem.Values[r*cl.Vocab.Dims : (r+1)*cl.Vocab.Dims]
		sims[r] = metric.Cosine32(v, row)
	}
	return sims
}

// Best returns the name, similarity and clean pointer of the single
// best-matching entry, with ok = false if the best similarity is below
// Threshold.
func (cl *Cleanup) Best(v []float32) (name string, sim float32, clean []float32, ok bool) {
	sims := cl.Similarities(v)
	best := -1
	bestSim := float32(0)
	for r, s := range sims {
		if best < 0 || s > bestSim {
			best = r
			bestSim = s
		}
	}
	if best < 0 {
		return "", 0, nil, false
	}
	name = cl.Vocab.Names[best]
	return name, bestSim, cl.Vocab.Get(name), bestSim >= cl.Threshold
}
