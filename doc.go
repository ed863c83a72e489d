// Copyright (c) 2026, The NEFSims Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/* Package sims contains small neural-simulation demo models built on a
vector-representation population substrate: a controlled integrator with
neuron ablation, a semantic-pointer sequencing model with a cleanup
memory, and a circular-convolution binding network trained by gradient
descent.

Each model lives in its own directory with a headless RunSim entry point
and a cmd/main.go command. Shared packages: nef (population substrate),
ablate (neuron ablation), vsa (semantic pointer algebra), ckptdb
(trained-parameter checkpoints).
*/
package sims
