package manager

import (
	"reflect"
	"testing"
)

func sampleTree() []*Node {
	roots := []*Node{
		{Name: "db", Host: "10.0.0.1"},
		{Name: "grp", Children: []*Node{
			{Name: "a", Host: "10.0.0.2"},
			{Name: "b", Host: "10.0.0.3"},
			{Name: "inner", Children: []*Node{
				{Name: "x", Host: "10.0.1.1"},
			}},
		}},
		{Name: "web", Host: "10.0.0.9"},
	}
	Resolve(roots)
	return roots
}

func TestSelector_SelectGroupThenLeaf(t *testing.T) {
	roots := sampleTree()
	s := NewSelector(roots)

	s.MoveDown()
	s.Select() // enter grp
	if s.Depth() != 2 {
		t.Fatalf("expected depth 2 after entering group, got %d", s.Depth())
	}
	rows := s.Rows()
	if rows[0].Kind != RowBack || !rows[0].Active {
		t.Fatalf("expected active back entry first, got %#v", rows[0])
	}

	s.MoveDown()
	s.Select() // a
	if s.State() != StateSelected {
		t.Fatalf("expected StateSelected, got %v", s.State())
	}
	got := s.Selected()
	if got == nil || got.Host != "10.0.0.2" || got.Port != 22 || got.User != currentUsername() {
		t.Fatalf("expected resolved leaf a, got %#v", got)
	}
}

func TestSelector_WrapAround(t *testing.T) {
	s := NewSelector(sampleTree())

	s.MoveUp()
	if idx := s.Top().Index; idx != 2 {
		t.Fatalf("expected moveUp at 0 to wrap to 2, got %d", idx)
	}
	s.MoveDown()
	if idx := s.Top().Index; idx != 0 {
		t.Fatalf("expected moveDown at last to wrap to 0, got %d", idx)
	}
}

func TestSelector_BackRestoresFrameExactly(t *testing.T) {
	roots := sampleTree()
	orig := append([]*Node(nil), roots...)
	origChildren := append([]*Node(nil), roots[1].Children...)
	s := NewSelector(roots)

	s.MoveDown()
	before := s.Top()
	s.Select() // grp
	s.MoveDown()
	s.MoveDown()
	s.MoveDown()
	s.Select() // inner
	if s.Depth() != 3 {
		t.Fatalf("expected depth 3, got %d", s.Depth())
	}
	if got := s.Breadcrumb(); !reflect.DeepEqual(got, []string{"grp", "inner"}) {
		t.Fatalf("unexpected breadcrumb %v", got)
	}

	s.Select() // back entry is active at index 0
	if s.Depth() != 2 {
		t.Fatalf("expected depth 2 after back, got %d", s.Depth())
	}
	if idx := s.Top().Index; idx != 3 {
		t.Fatalf("expected index 3 restored in grp, got %d", idx)
	}

	s.SelectBack()
	after := s.Top()
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("restored frame differs:\nbefore=%#v\nafter=%#v", before, after)
	}
	if !reflect.DeepEqual(orig, roots) || !reflect.DeepEqual(origChildren, roots[1].Children) {
		t.Fatalf("navigation must not mutate node lists")
	}
}

func TestSelector_BackAtRootIsNoop(t *testing.T) {
	s := NewSelector(sampleTree())
	s.MoveDown()
	s.SelectBack()
	if s.Depth() != 1 || s.Top().Index != 1 || s.Done() {
		t.Fatalf("expected back at root to be a no-op")
	}
}

func TestSelector_Cancel(t *testing.T) {
	s := NewSelector(sampleTree())
	s.Cancel()
	if s.State() != StateCancelled || s.Selected() != nil {
		t.Fatalf("expected cancelled with no selection")
	}
	s.MoveDown()
	s.Select()
	if s.State() != StateCancelled {
		t.Fatalf("terminal state must not change after cancel")
	}
}

func TestSelector_EmptyFrame(t *testing.T) {
	s := NewSelector(nil)
	s.MoveUp()
	s.MoveDown()
	s.Select()
	if s.Done() || len(s.Rows()) != 0 {
		t.Fatalf("expected empty selector to stay browsing with no rows")
	}
}

func TestSelector_Rows(t *testing.T) {
	s := NewSelector(sampleTree())
	rows := s.Rows()
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].Kind != RowLeaf || rows[0].Address != currentUsername()+"@10.0.0.1" || !rows[0].Active {
		t.Fatalf("unexpected leaf row %#v", rows[0])
	}
	if rows[1].Kind != RowGroup || rows[1].ChildCount != 3 || rows[1].Active {
		t.Fatalf("unexpected group row %#v", rows[1])
	}
}
