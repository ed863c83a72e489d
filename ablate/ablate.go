// Copyright (c) 2026, The NEFSims Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ablate silences a random subset of units in a built population:
// the selected units' encoder vectors are zeroed, removing their
// sensitivity to input, and optionally their bias is driven strongly
// negative so residual recurrent drive cannot make them fire.
package ablate

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/emer/etensor/tensor"
)

// BiasSuppression is the bias value assigned to ablated units when bias
// suppression is requested: large enough in magnitude to overpower any
// recurrent or lateral drive.
const BiasSuppression = float32(-1000)

// ErrInvalidProportion is returned for a proportion outside [0, 1] or an
// empty population. The selection count would be undefined; nothing is
// clamped or silently skipped.
var ErrInvalidProportion = errors.New("ablate: invalid proportion")

// PopulationStore is the narrow contract ablation needs from a built
// simulation context. A store must fail with its not-built condition when
// resolved arrays do not exist yet, and with its write-protection
// condition when scoped write access cannot be granted.
// [github.com/nefsims/sims/nef.Sim] implements it.
type PopulationStore interface {

	// NumUnits returns the number of units in the named population.
	NumUnits(pop string) (int, error)

	// WritableArrays grants scoped write access to the population's
	// resolved encoder [units, dims] and bias [units] arrays. release
	// restores write protection and must run on every exit path.
	WritableArrays(pop string) (enc, bias *tensor.Float32, release func(), err error)
}

// Select draws min(floor(n*proportion), n) distinct unit indices uniformly
// at random without replacement from [0, n). It is a pure function of its
// arguments: a fixed rnd yields a reproducible selection. nil rnd uses the
// shared global source. proportion is assumed to be in [0, 1]; callers
// validate (see Ablate).
func Select(n int, proportion float64, rnd *rand.Rand) []int {
	k := int(math.Floor(float64(n) * proportion))
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}
	var perm []int
	if rnd != nil {
		perm = rnd.Perm(n)
	} else {
		perm = rand.Perm(n)
	}
	return perm[:k]
}

// Ablate silences proportion of the units in the named population within
// the given store. Every component of each selected unit's encoder vector
// is set to zero; if suppressBias is also set, the unit's bias is set to
// BiasSuppression so it cannot fire at all. The selection is re-sampled on
// every call; pass a fixed rnd for reproducibility.
//
// All validation happens before any mutation: on error the population is
// unmodified. Errors: ErrInvalidProportion for proportion outside [0, 1]
// or an empty population; the store's not-built or write-protection
// errors are returned as-is.
func Ablate(st PopulationStore, pop string, proportion float64, suppressBias bool, rnd *rand.Rand) error {
	if proportion < 0 || proportion > 1 {
		return fmt.Errorf("%w: %v not in [0, 1]", ErrInvalidProportion, proportion)
	}
	n, err := st.NumUnits(pop)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: population %q has no units", ErrInvalidProportion, pop)
	}
	idxs := Select(n, proportion, rnd)
	if len(idxs) == 0 {
		return nil
	}
	enc, bias, release, err := st.WritableArrays(pop)
	if err != nil {
		return err
	}
	defer release()
	d := len(enc.Values) / n
	for _, i := range idxs {
		row := enc.Values[i*d : (i+1)*d]
		for j := range row {
			row[j] = 0
		}
		if suppressBias {
			bias.Values[i] = BiasSuppression
		}
	}
	return nil
}
