// Copyright (c) 2026, The NEFSims Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package nef

import (
	"math/rand"

	"cogentcore.org/core/math32"
	"cogentcore.org/core/math32/minmax"
	"github.com/emer/etensor/tensor"
)

// Population declares a named group of rate-coded units that collectively
// represent a vector of Dims dimensions. Membership and unit ordering are
// fixed once declared; the concrete per-unit arrays only exist after the
// containing Model is built into a Sim.
type Population struct {

	// Name identifies the population within its model.
	Name string

	// Units is the number of units (N).
	Units int

	// Dims is the dimensionality of the represented vector.
	Dims int

	// Radius is the magnitude of represented vectors the population is
	// tuned for. Default 1.
	Radius float32 `default:"1"`

	// MaxRate is the range of per-unit maximum firing rates, drawn
	// uniformly at build time.
	MaxRate minmax.F32

	// Intercept is the range of per-unit tuning intercepts: the projection
	// of the input onto the unit's encoder below which the unit is silent.
	Intercept minmax.F32

	// Tau is the membrane time constant for the unit drive filter, in
	// seconds. Default 0.01.
	Tau float32 `default:"0.01"`
}

func (pp *Population) Defaults() {
	if pp.Radius == 0 {
		pp.Radius = 1
	}
	if pp.MaxRate.Max == 0 {
		pp.MaxRate.Set(50, 100)
	}
	if pp.Intercept.Min == 0 && pp.Intercept.Max == 0 {
		pp.Intercept.Set(-0.9, 0.9)
	}
	if pp.Tau == 0 {
		pp.Tau = 0.01
	}
}

// PopState is the resolved, live state of a population within a built Sim:
// the per-unit encoder, gain and bias arrays, plus current activity.
// The resolved arrays are write-protected between steps; mutation requires
// the scoped access granted by [Sim.WritableArrays].
type PopState struct {

	// Pop is the declaration this state was resolved from.
	Pop *Population

	// Encoders holds the per-unit encoder vectors, shaped [Units, Dims].
	Encoders *tensor.Float32

	// Gain holds the per-unit drive gain, shaped [Units].
	Gain *tensor.Float32

	// Bias holds the per-unit constant drive offset, shaped [Units].
	Bias *tensor.Float32

	// Rates is the current per-unit firing rate, shaped [Units].
	Rates *tensor.Float32

	// Drive is the filtered per-unit input drive.
	Drive []float32 `display:"-"`

	// In is the current represented-space input to the population.
	In []float32 `display:"-"`

	// Out is the current decoded output of the population.
	Out []float32 `display:"-"`

	// DecScale is the scalar readout calibration fitted at build time.
	DecScale float32

	// writable is true only within a scoped write-access grant.
	writable bool
}

// resolve fills in the concrete arrays for this population, drawing
// encoders as uniform random unit vectors and deriving gain and bias from
// the max-rate and intercept distributions.
func (ps *PopState) resolve(rnd *rand.Rand) {
	pp := ps.Pop
	n := pp.Units
	d := pp.Dims
	ps.Encoders = &tensor.Float32{}
	ps.Encoders.SetShape([]int{n, d}, "Units", "Dim")
	ps.Gain = &tensor.Float32{}
	ps.Gain.SetShape([]int{n}, "Units")
	ps.Bias = &tensor.Float32{}
	ps.Bias.SetShape([]int{n}, "Units")
	ps.Rates = &tensor.Float32{}
	ps.Rates.SetShape([]int{n}, "Units")
	ps.Drive = make([]float32, n)
	ps.In = make([]float32, d)
	ps.Out = make([]float32, d)

	for i := 0; i < n; i++ {
		enc := ps.Encoders.Values[i*d : (i+1)*d]
		ss := float32(0)
		for j := range enc {
			enc[j] = float32(rnd.NormFloat64())
			ss += enc[j] * enc[j]
		}
		nrm := math32.Sqrt(ss)
		if nrm == 0 {
			enc[0] = 1 // degenerate draw
			nrm = 1
		}
		for j := range enc {
			enc[j] /= nrm
		}
		mr := pp.MaxRate.Min + float32(rnd.Float64())*pp.MaxRate.Range()
		ic := pp.Intercept.Min + float32(rnd.Float64())*pp.Intercept.Range()
		g := mr / (1 - ic)
		ps.Gain.Values[i] = g
		ps.Bias.Values[i] = -ic * g
	}
}

// updateRates computes per-unit rates from the current filtered drive,
// using a rectified-linear response.
func (ps *PopState) updateRates() {
	for i, dr := range ps.Drive {
		if dr > 0 {
			ps.Rates.Values[i] = dr
		} else {
			ps.Rates.Values[i] = 0
		}
	}
}

// drive computes the raw drive for unit i given represented input x:
// gain * <encoder, x> / radius + bias.
func (ps *PopState) drive(i int, x []float32) float32 {
	d := ps.Pop.Dims
	enc := ps.Encoders.Values[i*d : (i+1)*d]
	dot := float32(0)
	for j, e := range enc {
		dot += e * x[j]
	}
	return ps.Gain.Values[i]*dot/ps.Pop.Radius + ps.Bias.Values[i]
}

// decode computes the decoded output from current rates into Out, using
// the gain-weighted encoder transpose scaled by DecScale. A unit with a
// zero encoder contributes nothing.
func (ps *PopState) decode() {
	d := ps.Pop.Dims
	for j := range ps.Out {
		ps.Out[j] = 0
	}
	for i := 0; i < ps.Pop.Units; i++ {
		r := ps.Rates.Values[i]
		if r == 0 {
			continue
		}
		enc := ps.Encoders.Values[i*d : (i+1)*d]
		for j, e := range enc {
			ps.Out[j] += r * e
		}
	}
	for j := range ps.Out {
		ps.Out[j] *= ps.DecScale
	}
}

// rawDecode computes the uncalibrated readout for input x directly from
// unit tuning, used for fitting DecScale at build time.
func (ps *PopState) rawDecode(x, out []float32) {
	d := ps.Pop.Dims
	for j := range out {
		out[j] = 0
	}
	for i := 0; i < ps.Pop.Units; i++ {
		r := ps.drive(i, x)
		if r <= 0 {
			continue
		}
		enc := ps.Encoders.Values[i*d : (i+1)*d]
		for j, e := range enc {
			out[j] += r * e
		}
	}
}

// calibrate fits the scalar DecScale from sampled points so that the
// encoder-transpose readout approximates the identity over the represented
// ball. This deliberately stops short of solving per-unit decoders.
func (ps *PopState) calibrate(rnd *rand.Rand) {
	d := ps.Pop.Dims
	x := make([]float32, d)
	raw := make([]float32, d)
	nsamp := 20
	num := float32(0)
	den := float32(0)
	for s := 0; s < nsamp; s++ {
		ss := float32(0)
		for j := range x {
			x[j] = float32(rnd.NormFloat64())
			ss += x[j] * x[j]
		}
		nrm := math32.Sqrt(ss)
		scl := ps.Pop.Radius * float32(rnd.Float64())
		for j := range x {
			x[j] = x[j] / nrm * scl
		}
		ps.rawDecode(x, raw)
		for j := range x {
			num += raw[j] * x[j]
			den += raw[j] * raw[j]
		}
	}
	if den > 0 {
		ps.DecScale = num / den
	} else {
		ps.DecScale = 1
	}
}
