package streamcsv

import (
	"errors"
	"testing"
)

func TestRowMachineTransitions(t *testing.T) {
	t.Parallel()

	m := newRowMachine(DefaultDialect())
	input := "\"a\"\"b\"c,"
	states := []parseState{
		stateQuoted,           // "
		stateQuoted,           // a
		stateQuotedFirstQuote, // "
		stateQuoted,           // "
		stateQuoted,           // b
		stateQuotedFirstQuote, // "
		stateUnquoted,         // c
		stateStartField,       // ,
	}
	for i := 0; i < len(input); i++ {
		st, err := m.feed(input[i])
		if err != nil {
			t.Fatalf("feed(%q) error = %v", input[i], err)
		}
		if m.state != states[i] {
			t.Fatalf("after byte %d (%q) state = %v, want %v", i, input[i], m.state, states[i])
		}
		want := stepContinue
		if i == len(input)-1 {
			want = stepField
		}
		if st != want {
			t.Fatalf("after byte %d (%q) step = %d, want %d", i, input[i], st, want)
		}
	}
	if got := string(m.data); got != "a\"bc" {
		t.Fatalf("field data = %q, want %q", got, "a\"bc")
	}
	if m.fieldCount() != 1 {
		t.Fatalf("fieldCount() = %d, want 1", m.fieldCount())
	}
}

func TestRowMachineFeedAfterEndOfRow(t *testing.T) {
	t.Parallel()

	m := newRowMachine(DefaultDialect())
	for _, c := range []byte("a\r") {
		if st, err := m.feed(c); err != nil || st != stepContinue {
			t.Fatalf("feed(%q) = %d, %v", c, st, err)
		}
	}
	st, err := m.feed('\n')
	if err != nil || st != stepRow {
		t.Fatalf("feed('\\n') = %d, %v, want stepRow", st, err)
	}
	if m.state != stateEndOfRow {
		t.Fatalf("state = %v, want %v", m.state, stateEndOfRow)
	}
	if _, err := m.feed('b'); !errors.Is(err, ErrAfterEndOfRow) {
		t.Fatalf("feed after end of row error = %v, want ErrAfterEndOfRow", err)
	}

	m.resetRow()
	if m.state != stateStartField || len(m.data) != 0 || m.fieldCount() != 0 {
		t.Fatalf("resetRow() left state=%v data=%q fields=%d", m.state, m.data, m.fieldCount())
	}
}

func TestRowMachineDeferredEnding(t *testing.T) {
	t.Parallel()

	d := DefaultDialect()
	d.LineEndings = []string{"\n", "\n\n"}
	d.StrictLineEnding = true
	m := newRowMachine(d)

	for _, c := range []byte("ab") {
		if _, err := m.feed(c); err != nil {
			t.Fatal(err)
		}
	}
	st, _ := m.feed('\n')
	if st != stepDefer {
		t.Fatalf("feed('\\n') step = %d, want stepDefer", st)
	}
	// A comma while an ending is pending is not a separator yet.
	st, _ = m.feed(',')
	if st != stepRow {
		t.Fatalf("feed(',') step = %d, want stepRow", st)
	}
	if got := string(m.pushback); got != "," {
		t.Fatalf("pushback = %q, want %q", got, ",")
	}
	if got := string(m.data); got != "ab" || m.fieldCount() != 1 {
		t.Fatalf("row data = %q fields=%d, want \"ab\" and 1", got, m.fieldCount())
	}
}

func TestRowMachineEOF(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		dialect func(*Dialect)
		strict  bool
		ok      bool
		err     error
		data    string
	}{
		{name: "empty", input: "", ok: false},
		{name: "unquoted", input: "abc", ok: true, data: "abc"},
		{name: "quoted", input: "\"abc\"", ok: true, data: "abc"},
		{name: "quotedKept", input: "\"abc\"", dialect: func(d *Dialect) { d.KeepQuotes = true }, ok: true, data: "\"abc\""},
		{name: "unterminated", input: "\"abc", err: ErrUnterminatedQuote},
		{name: "strictMissingEnding", input: "abc", strict: true, err: ErrMissingEndOfRow},
		{name: "strictEmpty", input: "", strict: true, ok: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			d := DefaultDialect()
			if tc.dialect != nil {
				tc.dialect(&d)
			}
			m := newRowMachine(d)
			for i := 0; i < len(tc.input); i++ {
				if _, err := m.feed(tc.input[i]); err != nil {
					t.Fatal(err)
				}
			}
			ok, err := m.eof(tc.strict)
			if !errors.Is(err, tc.err) {
				t.Fatalf("eof() error = %v, want %v", err, tc.err)
			}
			if ok != tc.ok {
				t.Fatalf("eof() = %v, want %v", ok, tc.ok)
			}
			if ok && string(m.data) != tc.data {
				t.Fatalf("row data = %q, want %q", m.data, tc.data)
			}
		})
	}
}

func TestParseStateString(t *testing.T) {
	t.Parallel()

	if got := stateQuotedFirstQuote.String(); got != "QuotedFirstQuote" {
		t.Fatalf("String() = %q", got)
	}
	if got := parseState(99).String(); got != "unknown" {
		t.Fatalf("String() = %q, want unknown", got)
	}
}
