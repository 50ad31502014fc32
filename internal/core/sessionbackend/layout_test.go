package sessionbackend

import "testing"

func TestCompileSinglePaneEmitsNoSplit(t *testing.T) {
	actions := Compile("sess", Pane("a1"))
	if len(actions) != 0 {
		t.Fatalf("expected no actions for a single pane, got %v", actions)
	}
}

func TestCompileFlatRowSplitsSequentially(t *testing.T) {
	tree := Row(
		Entry{Node: Pane("a1"), Percent: 33},
		Entry{Node: Pane("a2"), Percent: 50},
		Entry{Node: Pane("a3"), Percent: 50},
	)
	actions := Compile("sess", tree)
	if len(actions) != 2 {
		t.Fatalf("expected 2 splits for 3 panes, got %d: %v", len(actions), actions)
	}
	if actions[0].Target != "sess" || actions[0].Direction != Horizontal || actions[0].Percent != 50 {
		t.Fatalf("unexpected first split: %+v", actions[0])
	}
	if actions[1].Target != "sess.1" || actions[1].Direction != Horizontal || actions[1].Percent != 50 {
		t.Fatalf("unexpected second split: %+v", actions[1])
	}
}

func TestCompileNestedColInsideRowUsesParentDirection(t *testing.T) {
	// Row[ Pane(a1), Col[ Pane(a2), Pane(a3) ] ]
	tree := Row(
		Entry{Node: Pane("a1"), Percent: 50},
		Entry{Node: Col(
			Entry{Node: Pane("a2"), Percent: 50},
			Entry{Node: Pane("a3"), Percent: 40},
		), Percent: 50},
	)
	actions := Compile("sess", tree)
	if len(actions) != 2 {
		t.Fatalf("expected 2 splits, got %d: %v", len(actions), actions)
	}
	// a1 reuses the default pane; a2 splits the default pane horizontally (Row).
	if actions[0].Target != "sess" || actions[0].Direction != Horizontal || actions[0].Percent != 50 {
		t.Fatalf("unexpected split for Col subtree's first leaf: %+v", actions[0])
	}
	// a3 splits the pane just created for a2, vertically (its Col parent).
	if actions[1].Target != "sess.1" || actions[1].Direction != Vertical || actions[1].Percent != 40 {
		t.Fatalf("unexpected split for a3: %+v", actions[1])
	}
}
