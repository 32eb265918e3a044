package common

import (
	"errors"
	"testing"
)

type pauseMap map[string]bool

func (p pauseMap) IsPaused(module string) bool { return p[module] }

func TestGuard(t *testing.T) {
	if err := Guard(nil, "paynova"); err != nil {
		t.Fatalf("nil view: %v", err)
	}
	if err := Guard(pauseMap{}, ""); err != nil {
		t.Fatalf("empty module: %v", err)
	}
	if err := Guard(pauseMap{"paynova": false}, "paynova"); err != nil {
		t.Fatalf("active module: %v", err)
	}
	if err := Guard(pauseMap{"paynova": true}, "paynova"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("paused module: got %v, want ErrModulePaused", err)
	}
}
