// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"slices"
	"testing"
)

func imageFactory(opts Options) (Context, error) {
	return NewImageContext(opts)
}

func defaultOptions() Options {
	return Options{Format: DefaultFormat()}
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	r.Register("test", 50, imageFactory, nil)

	entry, ok := r.Get("test")
	if !ok {
		t.Fatal("registered backend not found")
	}
	if entry.Name != "test" {
		t.Errorf("Name = %s, want test", entry.Name)
	}
	if entry.Priority != 50 {
		t.Errorf("Priority = %d, want 50", entry.Priority)
	}
	if !entry.Available() {
		t.Error("backend should be available (nil Available func)")
	}
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register("temp", 10, imageFactory, nil)

	if _, ok := r.Get("temp"); !ok {
		t.Fatal("backend should exist before unregister")
	}
	r.Unregister("temp")
	if _, ok := r.Get("temp"); ok {
		t.Error("backend should not exist after unregister")
	}
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	r.Register("low", 10, imageFactory, nil)
	r.Register("high", 100, imageFactory, nil)
	r.Register("mid", 50, imageFactory, nil)
	r.Register("also-mid", 50, imageFactory, nil)

	got := r.List()
	want := []string{"high", "also-mid", "mid", "low"}
	if !slices.Equal(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestRegistryAvailable(t *testing.T) {
	r := NewRegistry()
	r.Register("available", 100, imageFactory, func() bool { return true })
	r.Register("unavailable", 200, imageFactory, func() bool { return false })

	available := r.Available()
	if len(available) != 1 || available[0] != "available" {
		t.Errorf("Available() = %v, want [available]", available)
	}
}

func TestRegistryOpenByName(t *testing.T) {
	r := NewRegistry()
	r.Register("specific", 50, imageFactory, nil)

	c, err := r.Open("specific", defaultOptions())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer c.Close()

	if c.Backend() != "image" {
		t.Errorf("Backend() = %s, want image", c.Backend())
	}
}

func TestRegistryOpenErrors(t *testing.T) {
	r := NewRegistry()
	r.Register("unavailable", 50, imageFactory, func() bool { return false })

	_, err := r.Open("nonexistent", defaultOptions())
	var notFound *BackendNotFoundError
	if !errors.As(err, &notFound) || notFound.Name != "nonexistent" {
		t.Errorf("Open(nonexistent) = %v, want BackendNotFoundError", err)
	}

	_, err = r.Open("unavailable", defaultOptions())
	var unavailable *BackendUnavailableError
	if !errors.As(err, &unavailable) {
		t.Errorf("Open(unavailable) = %v, want BackendUnavailableError", err)
	}
}

func TestRegistryNoBackend(t *testing.T) {
	r := NewRegistry()

	_, err := r.Open(Auto, defaultOptions())
	if !errors.Is(err, ErrNoBackendAvailable) {
		t.Errorf("expected ErrNoBackendAvailable, got %v", err)
	}
}

func TestRegistryRejectsInvalidFormat(t *testing.T) {
	r := NewRegistry()
	called := false
	r.Register("test", 50, func(opts Options) (Context, error) {
		called = true
		return NewImageContext(opts)
	}, nil)

	opts := defaultOptions()
	opts.Format.SampleCount = 3
	if _, err := r.Open("test", opts); !errors.Is(err, ErrIncompatibleFormat) {
		t.Errorf("Open with 3 samples = %v, want ErrIncompatibleFormat", err)
	}
	if called {
		t.Error("factory called with an invalid format")
	}
}

func TestRegistryAutoFallsBack(t *testing.T) {
	r := NewRegistry()

	boom := errors.New("no driver")
	var tried []string
	r.Register("gpu", 100, func(opts Options) (Context, error) {
		tried = append(tried, "gpu")
		return nil, boom
	}, nil)
	r.Register("cpu", 10, func(opts Options) (Context, error) {
		tried = append(tried, "cpu")
		return NewImageContext(opts)
	}, nil)

	c, err := r.Open(Auto, defaultOptions())
	if err != nil {
		t.Fatalf("Open(auto) failed: %v", err)
	}
	defer c.Close()

	if !slices.Equal(tried, []string{"gpu", "cpu"}) {
		t.Errorf("tried = %v, want [gpu cpu]", tried)
	}
}

func TestRegistryAutoAllFail(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("no driver")
	r.Register("gpu", 100, func(opts Options) (Context, error) { return nil, boom }, nil)

	_, err := r.Open("", defaultOptions())
	if !errors.Is(err, ErrNoBackendAvailable) {
		t.Errorf("err = %v, want ErrNoBackendAvailable", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped factory error", err)
	}
}

func TestRegistryOverwrite(t *testing.T) {
	r := NewRegistry()
	r.Register("test", 10, imageFactory, nil)
	r.Register("test", 50, imageFactory, nil)

	entry, _ := r.Get("test")
	if entry.Priority != 50 {
		t.Errorf("Priority = %d, want 50 (should be overwritten)", entry.Priority)
	}
}

func TestGlobalRegistry(t *testing.T) {
	if !slices.Contains(Available(), "image") {
		t.Error("'image' backend should be in global registry")
	}

	c, err := Open("image", defaultOptions())
	if err != nil {
		t.Fatalf("global Open failed: %v", err)
	}
	defer c.Close()

	if c.Limits().MaxTextureSize != DefaultSoftwareMaxTextureSize {
		t.Errorf("MaxTextureSize = %d, want %d", c.Limits().MaxTextureSize, DefaultSoftwareMaxTextureSize)
	}
}

func TestBackendErrorMessages(t *testing.T) {
	if msg := (&BackendNotFoundError{Name: "vulkan"}).Error(); msg != "surface: backend not found: vulkan" {
		t.Errorf("BackendNotFoundError = %q", msg)
	}
	if msg := (&BackendUnavailableError{Name: "metal"}).Error(); msg != "surface: backend unavailable: metal" {
		t.Errorf("BackendUnavailableError = %q", msg)
	}
}
