package types

import "testing"

func TestImageHashDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b ImageHash
		want int
	}{
		{"identical", 0xdeadbeef, 0xdeadbeef, 0},
		{"one bit", 0b0000, 0b0001, 1},
		{"four bits", 0b0000, 0b1111, 4},
		{"all bits", 0, ^ImageHash(0), 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Distance(tt.b); got != tt.want {
				t.Fatalf("Distance(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
			if got := tt.b.Distance(tt.a); got != tt.want {
				t.Fatalf("Distance is not symmetric: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestImageHashStringParse(t *testing.T) {
	h := ImageHash(0x00ff00ff12345678)
	s := h.String()
	if s != "00ff00ff12345678" {
		t.Fatalf("String() = %q", s)
	}
	got, err := ParseImageHash(s)
	if err != nil {
		t.Fatalf("ParseImageHash returned error: %v", err)
	}
	if got != h {
		t.Fatalf("ParseImageHash(%q) = %s, want %s", s, got, h)
	}

	for _, bad := range []string{"", "abc", "zzzzzzzzzzzzzzzz", "00ff00ff123456789"} {
		if _, err := ParseImageHash(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestSameSignature(t *testing.T) {
	a := FileIdentity{Path: "a.jpg", Size: 10, ModTime: 100}
	if !a.SameSignature(FileIdentity{Path: "other.jpg", Size: 10, ModTime: 100}) {
		t.Fatal("expected equal signatures")
	}
	if a.SameSignature(FileIdentity{Path: "a.jpg", Size: 11, ModTime: 100}) {
		t.Fatal("size change must alter the signature")
	}
	if a.SameSignature(FileIdentity{Path: "a.jpg", Size: 10, ModTime: 101}) {
		t.Fatal("mtime change must alter the signature")
	}
}
