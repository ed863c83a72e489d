// Copyright (c) 2026, The NEFSims Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vsa

import (
	"math/rand"
	"testing"

	"cogentcore.org/core/math32"
)

const difTol = float32(1.0e-5)

func TestCircConvIdentity(t *testing.T) {
	d := 8
	ident := make([]float32, d)
	ident[0] = 1
	rnd := rand.New(rand.NewSource(1))
	a := RandomPointer(d, rnd)
	out := CircConv(a, ident)
	for i := range a {
		if math32.Abs(out[i]-a[i]) > difTol {
			t.Errorf("conv with identity: out[%d] = %v != %v", i, out[i], a[i])
		}
	}
}

func TestCircConvCommutative(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	a := RandomPointer(16, rnd)
	b := RandomPointer(16, rnd)
	ab := CircConv(a, b)
	ba := CircConv(b, a)
	for i := range ab {
		if math32.Abs(ab[i]-ba[i]) > difTol {
			t.Errorf("commutativity: [%d] %v != %v", i, ab[i], ba[i])
		}
	}
}

func TestUnbindRecovers(t *testing.T) {
	// unbinding is approximate: at higher dimensionality the
	// reconstruction correlates strongly with the original and with
	// nothing else in the vocabulary.
	d := 64
	rnd := rand.New(rand.NewSource(3))
	vc := NewVocab(d)
	for _, nm := range []string{"A", "B", "C", "D", "E"} {
		if _, err := vc.AddRandom(nm, rnd); err != nil {
			t.Fatal(err)
		}
	}
	cl := NewCleanup(vc)
	a := vc.Get("A")
	b := vc.Get("B")
	ab := CircConv(a, b)
	rec := Unbind(ab, b)
	name, sim, clean, ok := cl.Best(rec)
	if !ok {
		t.Fatalf("cleanup missed: best %q at %v", name, sim)
	}
	if name != "A" {
		t.Errorf("cleanup recovered %q, want A (sim %v)", name, sim)
	}
	if Cosine(clean, a) < 0.999 {
		t.Errorf("clean pointer is not the vocab entry")
	}
}

func TestVocab(t *testing.T) {
	vc := NewVocab(8)
	if _, err := vc.AddRandom("A", rand.New(rand.NewSource(4))); err != nil {
		t.Fatal(err)
	}
	if _, err := vc.AddRandom("A", nil); err == nil {
		t.Error("duplicate name must fail")
	}
	if err := vc.Add("Short", []float32{1, 2}); err == nil {
		t.Error("wrong dimensionality must fail")
	}
	if vc.Len() != 1 {
		t.Errorf("len: %d != 1", vc.Len())
	}
	a := vc.Get("A")
	if math32.Abs(Norm(a)-1) > difTol {
		t.Errorf("random pointer norm: %v != 1", Norm(a))
	}
}

func TestCleanupThreshold(t *testing.T) {
	d := 64
	rnd := rand.New(rand.NewSource(5))
	vc := NewVocab(d)
	for _, nm := range []string{"A", "B", "C"} {
		vc.AddRandom(nm, rnd)
	}
	cl := NewCleanup(vc)
	cl.Threshold = 0.4
	// an unrelated random pointer should miss
	noise := RandomPointer(d, rnd)
	if _, sim, _, ok := cl.Best(noise); ok {
		t.Errorf("unrelated pointer matched at sim %v", sim)
	}
	// a vocab member matches itself at similarity ~1
	name, sim, _, ok := cl.Best(vc.Get("B"))
	if !ok || name != "B" || sim < 0.999 {
		t.Errorf("self match: %q at %v, ok=%v", name, sim, ok)
	}
}

func TestSimilaritiesOrder(t *testing.T) {
	d := 32
	rnd := rand.New(rand.NewSource(6))
	vc := NewVocab(d)
	for _, nm := range []string{"X", "Y"} {
		vc.AddRandom(nm, rnd)
	}
	cl := NewCleanup(vc)
	sims := cl.Similarities(vc.Get("Y"))
	if len(sims) != 2 {
		t.Fatalf("sims len: %d", len(sims))
	}
	if sims[1] < 0.999 {
		t.Errorf("Y self-similarity: %v", sims[1])
	}
	if sims[0] > 0.9 {
		t.Errorf("X vs Y similarity suspiciously high: %v", sims[0])
	}
}
