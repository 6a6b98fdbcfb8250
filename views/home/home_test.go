package home

import (
	"strings"
	"testing"

	"invoice-market-tui/session"
)

func TestRender(t *testing.T) {
	tests := []struct {
		state session.State
		want  string
	}{
		{session.Disconnected, "wallet not connected"},
		{session.Connecting, "connecting"},
		{session.ConnectedWrongNetwork, "wrong network"},
		{session.ConnectedReady, "1.5 MNT"},
	}
	for _, tt := range tests {
		snap := session.Snapshot{State: tt.state, HasAccount: tt.state != session.Disconnected, TargetName: "Mantle Sepolia"}
		out := Render(CreateForm(snap), snap, "1.5 MNT")
		if !strings.Contains(out, tt.want) {
			t.Errorf("Render(%s) missing %q", tt.state, tt.want)
		}
	}
}

func TestRenderMissingBindings(t *testing.T) {
	snap := session.Snapshot{State: session.ConnectedReady, HasAccount: true, MissingBindings: []string{"SETTLE_ACTION_ADDRESS"}}
	out := Render(nil, snap, "")
	if !strings.Contains(out, "SETTLE_ACTION_ADDRESS") {
		t.Error("missing bindings should be listed")
	}
	if !strings.Contains(out, "Loading menu") {
		t.Error("nil form renders a placeholder")
	}
}
