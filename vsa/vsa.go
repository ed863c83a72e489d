// Copyright (c) 2026, The NEFSims Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vsa implements the semantic pointer algebra used by the
// sequencing and binding models: vocabularies of random high-dimensional
// unit vectors, circular convolution binding with involution unbinding,
// and a cleanup memory that snaps noisy pointers to their closest
// vocabulary entry.
package vsa

import (
	"fmt"
	"math/rand"

	"cogentcore.org/core/math32"
)

// Dot returns the dot product of two equal-length vectors.
func Dot(a, b []float32) float32 {
	v := float32(0)
	for i := range a {
		v += a[i] * b[i]
	}
	return v
}

// Norm returns the Euclidean norm of v.
func Norm(v []float32) float32 {
	return math32.Sqrt(Dot(v, v))
}

// Cosine returns the cosine similarity of a and b, 0 if either is zero.
func Cosine(a, b []float32) float32 {
	na := Norm(a)
	nb := Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return Dot(a, b) / (na * nb)
}

// Normalize scales v to unit length in place. A zero vector is left as is.
func Normalize(v []float32) {
	n := Norm(v)
	if n == 0 {
		return
	}
	for i := range v {
		v[i] /= n
	}
}

// CircConv returns the circular convolution of a and b: the binding
// operation of the algebra. Direct O(d^2) computation; the pointer
// dimensionalities in these models are small.
func CircConv(a, b []float32) []float32 {
	d := len(a)
	out := make([]float32, d)
	for i := 0; i < d; i++ {
		v := float32(0)
		for j := 0; j < d; j++ {
			v += a[j] * b[(i-j+d)%d]
		}
		out[i] = v
	}
	return out
}

// Involution returns the approximate inverse of v under circular
// convolution: v reversed in all but its first element. Binding with the
// involution of b approximately unbinds b.
func Involution(v []float32) []float32 {
	d := len(v)
	out := make([]float32, d)
	out[0] = v[0]
	for i := 1; i < d; i++ {
		out[i] = v[d-i]
	}
	return out
}

// Unbind approximately removes b from the binding ab = CircConv(a, b),
// returning a noisy reconstruction of a. Pass the result through a
// cleanup memory to recover the exact pointer.
func Unbind(ab, b []float32) []float32 {
	return CircConv(ab, Involution(b))
}

// RandomPointer returns a random unit vector of dimensionality d drawn
// from the given source; nil rnd uses the shared global source.
func RandomPointer(d int, rnd *rand.Rand) []float32 {
	v := make([]float32, d)
	for i := range v {
		if rnd != nil {
			v[i] = float32(rnd.NormFloat64())
		} else {
			v[i] = float32(rand.NormFloat64())
		}
	}
	Normalize(v)
	return v
}

// Vocab is an ordered vocabulary of named semantic pointers, all of one
// dimensionality.
type Vocab struct {

	// Dims is the dimensionality of all pointers in this vocabulary.
	Dims int

	// Names lists pointer names in insertion order.
	Names []string

	ptrs map[string][]float32
}

func NewVocab(dims int) *Vocab {
	return &Vocab{Dims: dims, ptrs: map[string][]float32{}}
}

// Add inserts a named pointer, copying v. The name must be new and v must
// match the vocabulary dimensionality.
func (vc *Vocab) Add(name string, v []float32) error {
	if len(v) != vc.Dims {
		return fmt.Errorf("vsa: pointer %q has %d dims, vocab has %d", name, len(v), vc.Dims)
	}
	if _, ok := vc.ptrs[name]; ok {
		return fmt.Errorf("vsa: pointer %q already in vocab", name)
	}
	cp := make([]float32, len(v))
	copy(cp, v)
	vc.ptrs[name] = cp
	vc.Names = append(vc.Names, name)
	return nil
}

// AddRandom inserts a new random unit pointer under the given name and
// returns it.
func (vc *Vocab) AddRandom(name string, rnd *rand.Rand) ([]float32, error) {
	v := RandomPointer(vc.Dims, rnd)
	if err := vc.Add(name, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Get returns the named pointer, nil if absent.
func (vc *Vocab) Get(name string) []float32 {
	return vc.ptrs[name]
}

// Len returns the number of pointers.
func (vc *Vocab) Len() int {
	return len(vc.Names)
}
