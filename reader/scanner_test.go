package reader

import "testing"

func feed(s *Scanner, keys string) (tags []string) {
	for _, c := range keys {
		if c == '\n' {
			if tag, ok := s.Terminate(); ok {
				tags = append(tags, tag)
			}
			continue
		}
		s.Digit(c)
	}
	return tags
}

func TestScannerEmitsTenDigitTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single", "0006765820\n", []string{"0006765820"}},
		{"two scans", "1111111111\n2222222222\n", []string{"1111111111", "2222222222"}},
		{"too short", "12345\n", nil},
		{"empty enter", "\n\n", nil},
		{"keeps last ten", "991234567890\n", []string{"1234567890"}},
		{"ignores letters", "12a34b56c78d90\n", []string{"1234567890"}},
		{"partial then full", "123\n0987654321\n", []string{"0987654321"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := feed(NewScanner(10), tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("tag %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestScannerStates(t *testing.T) {
	s := NewScanner(4)
	if s.State() != Idle {
		t.Fatalf("initial state = %v", s.State())
	}
	s.Digit('x')
	if s.State() != Idle {
		t.Fatalf("non-digit moved state to %v", s.State())
	}
	s.Digit('1')
	if s.State() != Accumulating || s.Len() != 1 {
		t.Fatalf("state = %v len = %d", s.State(), s.Len())
	}
	for _, c := range "23456789" {
		s.Digit(c)
	}
	if s.Len() != 4 {
		t.Fatalf("len = %d, want bounded at 4", s.Len())
	}
	if s.String() != "6789" {
		t.Fatalf("buffer = %q", s.String())
	}
	tag, ok := s.Terminate()
	if !ok || tag != "6789" {
		t.Fatalf("terminate = %q %v", tag, ok)
	}
	if s.State() != Idle || s.Len() != 0 {
		t.Fatalf("after terminate state = %v len = %d", s.State(), s.Len())
	}
}

func TestScannerDefaultLength(t *testing.T) {
	s := NewScanner(0)
	if got := feed(s, "0123456789\n"); len(got) != 1 {
		t.Fatalf("got %v", got)
	}
}
