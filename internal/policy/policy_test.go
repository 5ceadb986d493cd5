package policy

import (
	"context"
	"testing"

	"github.com/cartridge/sc2agent/internal/intent"
	"github.com/cartridge/sc2agent/internal/obs"
	"github.com/cartridge/sc2agent/internal/sc2"
)

func TestNoOp(t *testing.T) {
	o := obs.Observation{
		Minerals: 1000,
		Friendly: []obs.Unit{{Tag: 7, UnitType: sc2.UnitTypeBarracks, Player: sc2.AllianceSelf}},
	}
	got, err := NoOp{}.SelectAction(context.Background(), o)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got.Kind != intent.KindNoOp {
		t.Errorf("Expected no_op, got %s", got)
	}
}

func TestNew(t *testing.T) {
	p, err := New("heuristic")
	if err != nil {
		t.Fatalf("Failed to create policy: %v", err)
	}
	if _, ok := p.(*Heuristic); !ok {
		t.Errorf("Expected *Heuristic, got %T", p)
	}

	// Each call yields an independent instance.
	q, _ := New("heuristic")
	if p == q {
		t.Error("Expected distinct policy instances")
	}

	if _, err := New("ostrich"); err != nil {
		t.Errorf("Expected ostrich alias to resolve: %v", err)
	}
}

func TestNew_Unknown(t *testing.T) {
	if _, err := New("alphastar"); err == nil {
		t.Error("Expected error for unknown policy")
	}
}
