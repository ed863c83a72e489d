// Copyright (c) 2026, The NEFSims Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ablate

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/emer/etensor/tensor"
)

// testStore is a minimal stand-in for a built simulation context, holding
// one population's resolved arrays directly.
type testStore struct {
	name     string
	units    int
	dims     int
	enc      *tensor.Float32
	bias     *tensor.Float32
	built    bool
	snapshot bool // simulates a read-only snapshot: write grants fail
	grants   int
	releases int
}

var (
	errNotBuilt       = errors.New("testStore: not built")
	errWriteProtected = errors.New("testStore: write protected")
)

func newTestStore(name string, units, dims int) *testStore {
	st := &testStore{name: name, units: units, dims: dims, built: true}
	st.enc = &tensor.Float32{}
	st.enc.SetShape([]int{units, dims}, "Units", "Dim")
	st.bias = &tensor.Float32{}
	st.bias.SetShape([]int{units}, "Units")
	for i := range st.enc.Values {
		st.enc.Values[i] = float32(i + 1)
	}
	for i := range st.bias.Values {
		st.bias.Values[i] = float32(i + 1)
	}
	return st
}

func (st *testStore) NumUnits(pop string) (int, error) {
	if !st.built {
		return 0, errNotBuilt
	}
	return st.units, nil
}

func (st *testStore) WritableArrays(pop string) (*tensor.Float32, *tensor.Float32, func(), error) {
	if !st.built {
		return nil, nil, nil, errNotBuilt
	}
	if st.snapshot {
		return nil, nil, nil, errWriteProtected
	}
	st.grants++
	return st.enc, st.bias, func() { st.releases++ }, nil
}

// zeroRows returns the set of unit indices whose encoder row is all zero.
func (st *testStore) zeroRows() map[int]bool {
	zr := map[int]bool{}
	for i := 0; i < st.units; i++ {
		allz := true
		for j := 0; j < st.dims; j++ {
			if st.enc.Values[i*st.dims+j] != 0 {
				allz = false
				break
			}
		}
		if allz {
			zr[i] = true
		}
	}
	return zr
}

func TestSelectCount(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	cases := []struct {
		n    int
		p    float64
		want int
	}{
		{100, 0.5, 50},
		{100, 0, 0},
		{100, 1, 100},
		{225, 0.01, 2},
		{10, 0.99, 9},
		{3, 0.34, 1},
		{1, 0.5, 0},
	}
	for _, cs := range cases {
		idxs := Select(cs.n, cs.p, rnd)
		if len(idxs) != cs.want {
			t.Errorf("Select(%d, %v): got %d indices, want %d", cs.n, cs.p, len(idxs), cs.want)
		}
		seen := map[int]bool{}
		for _, i := range idxs {
			if i < 0 || i >= cs.n {
				t.Errorf("Select(%d, %v): index %d out of range", cs.n, cs.p, i)
			}
			if seen[i] {
				t.Errorf("Select(%d, %v): duplicate index %d", cs.n, cs.p, i)
			}
			seen[i] = true
		}
	}
}

func TestSelectReproducible(t *testing.T) {
	a := Select(100, 0.2, rand.New(rand.NewSource(7)))
	b := Select(100, 0.2, rand.New(rand.NewSource(7)))
	if len(a) != len(b) {
		t.Fatalf("lens differ: %d != %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("index %d: %d != %d under same seed", i, a[i], b[i])
		}
	}
	c := Select(100, 0.2, rand.New(rand.NewSource(8)))
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical selection (possible but wildly unlikely)")
	}
}

func TestAblateEncodersOnly(t *testing.T) {
	st := newTestStore("A", 40, 3)
	origBias := append([]float32{}, st.bias.Values...)
	rnd := rand.New(rand.NewSource(1))
	if err := Ablate(st, "A", 0.25, false, rnd); err != nil {
		t.Fatal(err)
	}
	zr := st.zeroRows()
	if len(zr) != 10 {
		t.Errorf("zeroed rows: %d, want 10", len(zr))
	}
	// non-selected encoders unchanged
	for i := 0; i < st.units; i++ {
		if zr[i] {
			continue
		}
		for j := 0; j < st.dims; j++ {
			want := float32(i*st.dims + j + 1)
			if st.enc.Values[i*st.dims+j] != want {
				t.Errorf("encoder [%d,%d] changed: %v != %v", i, j, st.enc.Values[i*st.dims+j], want)
			}
		}
	}
	// no bias touched
	for i, v := range st.bias.Values {
		if v != origBias[i] {
			t.Errorf("bias %d changed without suppressBias: %v != %v", i, v, origBias[i])
		}
	}
	if st.grants != 1 || st.releases != 1 {
		t.Errorf("write grant/release: %d/%d, want 1/1", st.grants, st.releases)
	}
}

func TestAblateBiasSuppression(t *testing.T) {
	st := newTestStore("A", 40, 2)
	rnd := rand.New(rand.NewSource(2))
	if err := Ablate(st, "A", 0.5, true, rnd); err != nil {
		t.Fatal(err)
	}
	zr := st.zeroRows()
	if len(zr) != 20 {
		t.Errorf("zeroed rows: %d, want 20", len(zr))
	}
	for i := 0; i < st.units; i++ {
		if zr[i] {
			if st.bias.Values[i] != BiasSuppression {
				t.Errorf("bias %d: %v, want %v", i, st.bias.Values[i], BiasSuppression)
			}
		} else {
			if st.bias.Values[i] != float32(i+1) {
				t.Errorf("unselected bias %d changed: %v", i, st.bias.Values[i])
			}
		}
	}
}

func TestAblateProportionZero(t *testing.T) {
	st := newTestStore("A", 30, 2)
	origEnc := append([]float32{}, st.enc.Values...)
	if err := Ablate(st, "A", 0, true, rand.New(rand.NewSource(3))); err != nil {
		t.Fatal(err)
	}
	for i, v := range st.enc.Values {
		if v != origEnc[i] {
			t.Errorf("encoder %d changed at proportion 0", i)
		}
	}
	if st.grants != 0 {
		t.Errorf("proportion 0 should not acquire write access, grants = %d", st.grants)
	}
}

func TestAblateProportionOne(t *testing.T) {
	st := newTestStore("A", 30, 2)
	if err := Ablate(st, "A", 1, false, rand.New(rand.NewSource(4))); err != nil {
		t.Fatal(err)
	}
	if len(st.zeroRows()) != 30 {
		t.Errorf("zeroed rows: %d, want all 30", len(st.zeroRows()))
	}
}

func TestAblateInvalidProportion(t *testing.T) {
	st := newTestStore("A", 30, 2)
	for _, p := range []float64{-0.1, 1.1, 2} {
		err := Ablate(st, "A", p, false, nil)
		if !errors.Is(err, ErrInvalidProportion) {
			t.Errorf("proportion %v: got %v, want ErrInvalidProportion", p, err)
		}
	}
	empty := newTestStore("E", 0, 2)
	if err := Ablate(empty, "E", 0.5, false, nil); !errors.Is(err, ErrInvalidProportion) {
		t.Errorf("empty population: got %v, want ErrInvalidProportion", err)
	}
}

func TestAblateNotBuilt(t *testing.T) {
	st := newTestStore("A", 30, 2)
	st.built = false
	origEnc := append([]float32{}, st.enc.Values...)
	err := Ablate(st, "A", 0.5, true, nil)
	if !errors.Is(err, errNotBuilt) {
		t.Errorf("got %v, want not-built error", err)
	}
	for i, v := range st.enc.Values {
		if v != origEnc[i] {
			t.Fatalf("encoder %d mutated despite not-built failure", i)
		}
	}
}

func TestAblateWriteProtected(t *testing.T) {
	st := newTestStore("A", 30, 2)
	st.snapshot = true
	origEnc := append([]float32{}, st.enc.Values...)
	err := Ablate(st, "A", 0.5, true, nil)
	if !errors.Is(err, errWriteProtected) {
		t.Errorf("got %v, want write-protected error", err)
	}
	for i, v := range st.enc.Values {
		if v != origEnc[i] {
			t.Fatalf("encoder %d mutated despite write protection", i)
		}
	}
}

func TestAblateResamples(t *testing.T) {
	// two calls with independent draws generally hit different subsets;
	// verify via Select directly to avoid cumulative mutation.
	rnd := rand.New(rand.NewSource(9))
	a := Select(1000, 0.01, rnd)
	b := Select(1000, 0.01, rnd)
	same := len(a) == len(b)
	if same {
		for i := range a {
			if a[i] != b[i] {
				same = false
				break
			}
		}
	}
	if same {
		t.Error("successive selections from one source were identical")
	}
}
