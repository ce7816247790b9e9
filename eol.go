package streamcsv

// lineMatcher follows one candidate line ending through the input byte by byte.
// The failure table lets a mismatch fall back to the longest prefix that is still
// a suffix of the bytes seen, so endings such as "\r\r\n" are tracked exactly.
type lineMatcher struct {
	eol  string
	fail []int
	pos  int
}

func newLineMatcher(eol string) lineMatcher {
	fail := make([]int, len(eol))
	k := 0
	for i := 1; i < len(eol); i++ {
		for k > 0 && eol[i] != eol[k] {
			k = fail[k-1]
		}
		if eol[i] == eol[k] {
			k++
		}
		fail[i] = k
	}
	return lineMatcher{eol: eol, fail: fail}
}

// feed advances the matcher by c and reports whether the whole ending has just matched.
func (m *lineMatcher) feed(c byte) bool {
	if m.pos == len(m.eol) {
		m.pos = m.fail[m.pos-1]
	}
	for m.pos > 0 && m.eol[m.pos] != c {
		m.pos = m.fail[m.pos-1]
	}
	if m.eol[m.pos] == c {
		m.pos++
	}
	return m.pos == len(m.eol)
}

// progress is the number of bytes of the ending matched so far.
func (m *lineMatcher) progress() int { return m.pos }

func (m *lineMatcher) partial() bool { return m.pos > 0 && m.pos < len(m.eol) }

func (m *lineMatcher) reset() { m.pos = 0 }

func (m *lineMatcher) len() int { return len(m.eol) }
