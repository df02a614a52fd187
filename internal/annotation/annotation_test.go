package annotation

import (
	"image"
	"testing"
)

func TestNormalize(t *testing.T) {
	got := Normalize(50, 50, 10, 20)
	want := Rect{X: 10, Y: 20, Width: 40, Height: 30}
	if got != want {
		t.Fatalf("Normalize = %+v, want %+v", got, want)
	}
	if Normalize(10, 20, 50, 50) != want {
		t.Fatal("corner order should not matter")
	}
}

func TestCommittable(t *testing.T) {
	tests := []struct {
		r    Rect
		want bool
	}{
		{Rect{Width: 4, Height: 4}, false},
		{Rect{Width: 5, Height: 6}, false},
		{Rect{Width: 6, Height: 5}, false},
		{Rect{Width: 6, Height: 6}, true},
	}
	for _, tt := range tests {
		if got := tt.r.Committable(); got != tt.want {
			t.Errorf("%+v.Committable() = %v, want %v", tt.r, got, tt.want)
		}
	}
}

func TestBox(t *testing.T) {
	r := Rect{X: 10.7, Y: 3.2, Width: 20.9, Height: 5.5}
	if got, want := r.Box(), image.Rect(10, 3, 30, 8); got != want {
		t.Fatalf("Box = %v, want %v", got, want)
	}
}

func TestStoreUndoClear(t *testing.T) {
	var s Store
	if s.RemoveLast() {
		t.Fatal("RemoveLast on empty store reported true")
	}
	a := Rect{X: 1, Y: 1, Width: 10, Height: 10}
	b := Rect{X: 2, Y: 2, Width: 20, Height: 20}
	s.Append(a)
	s.Append(b)
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}

	all := s.All()
	all[0] = Rect{}
	if s.All()[0] != a {
		t.Fatal("All must return a copy")
	}

	if !s.RemoveLast() {
		t.Fatal("RemoveLast reported false")
	}
	if got := s.All(); len(got) != 1 || got[0] != a {
		t.Fatalf("after undo got %+v", got)
	}

	s.Append(b)
	s.Clear()
	if s.Len() != 0 || len(s.All()) != 0 {
		t.Fatal("Clear left rectangles behind")
	}
}
