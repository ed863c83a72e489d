// Copyright (c) 2026, The NEFSims Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ckptdb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := NewStore(filepath.Join(t.TempDir(), "ckpt.db"))
	if err := st.Init(ctx); err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	if err := st.Save(ctx, "conv", 0.42, []byte(`{"w":[1,2]}`)); err != nil {
		t.Fatal(err)
	}
	payload, loss, err := st.Load(ctx, "conv")
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != `{"w":[1,2]}` {
		t.Errorf("payload: %s", payload)
	}
	if loss != 0.42 {
		t.Errorf("loss: %v != 0.42", loss)
	}

	// upsert replaces
	if err := st.Save(ctx, "conv", 0.1, []byte(`{"w":[3]}`)); err != nil {
		t.Fatal(err)
	}
	payload, loss, err = st.Load(ctx, "conv")
	if err != nil {
		t.Fatal(err)
	}
	if string(payload) != `{"w":[3]}` || loss != 0.1 {
		t.Errorf("after upsert: %s, %v", payload, loss)
	}
}

func TestStoreNotFound(t *testing.T) {
	ctx := context.Background()
	st := NewStore(filepath.Join(t.TempDir(), "ckpt.db"))
	if err := st.Init(ctx); err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if _, _, err := st.Load(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestStoreUninitialized(t *testing.T) {
	st := NewStore("x.db")
	if err := st.Save(context.Background(), "a", 0, nil); err == nil {
		t.Error("save on uninitialized store must fail")
	}
}

func TestStoreInitRequiresPath(t *testing.T) {
	st := NewStore("")
	if err := st.Init(context.Background()); err == nil {
		t.Error("empty path must fail")
	}
}
