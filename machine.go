package streamcsv

// parseState is the position of the row state machine within the current field.
type parseState uint8

const (
	stateStartField parseState = iota
	stateUnquoted
	stateQuoted
	stateQuotedFirstQuote
	stateEndOfRow
)

func (s parseState) String() string {
	switch s {
	case stateStartField:
		return "StartField"
	case stateUnquoted:
		return "UnquotedField"
	case stateQuoted:
		return "QuotedField"
	case stateQuotedFirstQuote:
		return "QuotedFirstQuote"
	case stateEndOfRow:
		return "EndOfRow"
	default:
		return "unknown"
	}
}

// step reports what a single call to rowMachine.feed produced.
type step uint8

const (
	stepContinue step = iota // byte absorbed
	stepField                // a field was completed
	stepRow                  // the row ended, its last field included
	stepDefer                // a line ending matched but a longer one may still match
)

// rowMachine decodes one row at a time from single bytes. Field contents accumulate
// in data; bounds holds start/end offsets of every completed field.
type rowMachine struct {
	comma      byte
	quote      byte
	keepQuotes bool

	state      parseState
	data       []byte
	bounds     []int
	fieldStart int
	consumed   int
	matchers   []lineMatcher

	// pendingLen is the length of the longest line ending matched so far, and
	// pendingEnd the size of data right after it. Zero pendingLen means none.
	pendingLen int
	pendingEnd int
	// pushback holds the bytes consumed past a committed line ending.
	pushback []byte
}

func newRowMachine(d Dialect) rowMachine {
	m := rowMachine{
		data:   make([]byte, 0, 512),
		bounds: make([]int, 0, 32),
	}
	m.configure(d)
	return m
}

// configure installs a validated dialect.
func (m *rowMachine) configure(d Dialect) {
	m.comma = d.Comma
	m.quote = d.Quote
	m.keepQuotes = d.KeepQuotes
	cands := d.candidates()
	m.matchers = m.matchers[:0]
	for _, eol := range cands {
		m.matchers = append(m.matchers, newLineMatcher(eol))
	}
	m.resetRow()
}

func (m *rowMachine) resetRow() {
	m.state = stateStartField
	m.data = m.data[:0]
	m.bounds = m.bounds[:0]
	m.fieldStart = 0
	m.consumed = 0
	m.pendingLen = 0
	m.pendingEnd = 0
	m.pushback = m.pushback[:0]
	m.resetMatchers()
}

func (m *rowMachine) resetMatchers() {
	for i := range m.matchers {
		m.matchers[i].reset()
	}
}

// feed consumes exactly one byte. A byte that moves the machine into a state that
// must interpret it again is re-evaluated by the loop, never dropped.
func (m *rowMachine) feed(c byte) (step, error) {
	if m.state == stateEndOfRow {
		return stepContinue, ErrAfterEndOfRow
	}
	m.consumed++
	for {
		switch m.state {
		case stateStartField:
			switch c {
			case m.comma:
				m.endField()
				return stepField, nil
			case m.quote:
				if m.keepQuotes {
					m.data = append(m.data, c)
				}
				m.state = stateQuoted
				return stepContinue, nil
			}
			m.state = stateUnquoted
		case stateUnquoted:
			if c == m.comma && m.pendingLen == 0 {
				m.endField()
				m.state = stateStartField
				return stepField, nil
			}
			m.data = append(m.data, c)
			return m.matchEnding(c), nil
		case stateQuoted:
			if c == m.quote {
				m.state = stateQuotedFirstQuote
				return stepContinue, nil
			}
			m.data = append(m.data, c)
			return stepContinue, nil
		case stateQuotedFirstQuote:
			if c == m.quote {
				// "" inside quotes is one literal quote.
				m.data = append(m.data, c)
				m.state = stateQuoted
				return stepContinue, nil
			}
			if m.keepQuotes {
				m.data = append(m.data, m.quote)
			}
			m.state = stateUnquoted
		default:
			return stepContinue, ErrAfterEndOfRow
		}
	}
}

// matchEnding feeds c, already appended to data, to every candidate line ending.
func (m *rowMachine) matchEnding(c byte) step {
	best := 0
	for i := range m.matchers {
		if m.matchers[i].feed(c) && m.matchers[i].len() > best {
			best = m.matchers[i].len()
		}
	}
	// A later match only replaces the pending one when it spans it entirely.
	if best > 0 && (m.pendingLen == 0 || len(m.data)-best <= m.pendingEnd-m.pendingLen) {
		m.pendingLen = best
		m.pendingEnd = len(m.data)
	}
	if m.pendingLen == 0 {
		return stepContinue
	}
	if m.extendable() {
		return stepDefer
	}
	m.commitRow()
	return stepRow
}

// extendable reports whether some candidate is partway through a match that covers
// the whole pending line ending, so it could still turn out to be the longer match.
func (m *rowMachine) extendable() bool {
	pendingStart := m.pendingEnd - m.pendingLen
	for i := range m.matchers {
		mt := &m.matchers[i]
		if mt.partial() && len(m.data)-mt.progress() <= pendingStart {
			return true
		}
	}
	return false
}

// commitRow ends the row at the pending line ending. Bytes consumed after it are
// kept in pushback for the reader to replay.
func (m *rowMachine) commitRow() {
	m.pushback = append(m.pushback[:0], m.data[m.pendingEnd:]...)
	m.data = m.data[:m.pendingEnd-m.pendingLen]
	m.pendingLen = 0
	m.pendingEnd = 0
	m.endField()
	m.state = stateEndOfRow
}

func (m *rowMachine) endField() {
	m.bounds = append(m.bounds, m.fieldStart, len(m.data))
	m.fieldStart = len(m.data)
	m.resetMatchers()
}

// pastPending is the number of bytes consumed since the pending line ending matched.
func (m *rowMachine) pastPending() int {
	if m.pendingLen == 0 {
		return 0
	}
	return len(m.data) - m.pendingEnd
}

// eof finishes the row at end of input. It reports whether a row is available.
func (m *rowMachine) eof(strict bool) (bool, error) {
	switch {
	case m.state == stateEndOfRow:
		return true, nil
	case m.state == stateQuoted:
		return false, ErrUnterminatedQuote
	case m.pendingLen > 0:
		m.commitRow()
		return true, nil
	case m.consumed == 0:
		return false, nil
	case strict:
		return false, ErrMissingEndOfRow
	}
	if m.state == stateQuotedFirstQuote && m.keepQuotes {
		m.data = append(m.data, m.quote)
	}
	m.endField()
	m.state = stateEndOfRow
	return true, nil
}

func (m *rowMachine) fieldCount() int { return len(m.bounds) / 2 }
