package reader

// DefaultTagDigits is the length of a badge number.
const DefaultTagDigits = 10

// State is the position of a Scanner in a scan.
type State int

const (
	Idle State = iota
	Accumulating
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Accumulating:
		return "accumulating"
	default:
		return "unknown"
	}
}

// Scanner turns keystrokes from a keyboard-emulating reader into tags.
// Digits go into a ring buffer that keeps only the last N of them; a
// terminator emits the buffer if it holds exactly N digits and always returns
// the scanner to Idle. Other keys are ignored.
type Scanner struct {
	state State
	ring  []byte
	head  int
	count int
}

// NewScanner creates a scanner for tags of n digits.
func NewScanner(n int) *Scanner {
	if n <= 0 {
		n = DefaultTagDigits
	}
	return &Scanner{ring: make([]byte, n)}
}

// State returns the current scanner state.
func (s *Scanner) State() State {
	return s.state
}

// Len returns the number of buffered digits.
func (s *Scanner) Len() int {
	return s.count
}

// Digit feeds a key character. Non-digits are ignored.
func (s *Scanner) Digit(c rune) {
	if c < '0' || c > '9' {
		return
	}
	s.ring[s.head] = byte(c)
	s.head = (s.head + 1) % len(s.ring)
	if s.count < len(s.ring) {
		s.count++
	}
	s.state = Accumulating
}

// Terminate ends the current scan. ok is false when the buffer does not hold
// a full tag.
func (s *Scanner) Terminate() (tag string, ok bool) {
	if s.count == len(s.ring) {
		tag = s.String()
		ok = true
	}
	s.Reset()
	return tag, ok
}

// Reset drops any buffered digits.
func (s *Scanner) Reset() {
	s.head = 0
	s.count = 0
	s.state = Idle
}

// String returns the buffered digits, oldest first.
func (s *Scanner) String() string {
	out := make([]byte, 0, s.count)
	start := (s.head - s.count + len(s.ring)) % len(s.ring)
	for i := 0; i < s.count; i++ {
		out = append(out, s.ring[(start+i)%len(s.ring)])
	}
	return string(out)
}
