package main

import (
	"testing"

	"go.uber.org/fx"
)

func TestDependencyGraph(t *testing.T) {
	if err := fx.ValidateApp(options()...); err != nil {
		t.Fatalf("invalid fx graph: %v", err)
	}
}
