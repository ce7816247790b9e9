package config

import (
	"os"

	"github.com/oleg578/streamcsv"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Profile describes the input and output dialects of a recoding run.
//
//	input:
//	  separator: ","
//	  line_endings: ["\r\n"]
//	  strict: true
//	output:
//	  separator: ";"
//	  line_ending: "\n"
//	  quote_columns: [0]
type Profile struct {
	Input  InputDialect  `yaml:"input"`
	Output OutputDialect `yaml:"output"`
}

// InputDialect is the YAML form of a reader dialect.
type InputDialect struct {
	Separator   string   `yaml:"separator"`
	Quote       string   `yaml:"quote"`
	LineEndings []string `yaml:"line_endings"`
	Strict      bool     `yaml:"strict"`
	Trim        bool     `yaml:"trim"`
	KeepQuotes  bool     `yaml:"keep_quotes"`
}

// OutputDialect is the YAML form of the writer settings.
type OutputDialect struct {
	Separator    string `yaml:"separator"`
	Quote        string `yaml:"quote"`
	LineEnding   string `yaml:"line_ending"`
	QuoteColumns []int  `yaml:"quote_columns"`
	QuotePattern string `yaml:"quote_pattern"`
	AlwaysQuote  bool   `yaml:"always_quote"`
}

// LoadProfile reads a YAML profile. An empty path yields the default profile.
func LoadProfile(path string) (*Profile, error) {
	p := &Profile{}
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read profile %s", path)
	}
	if err := yaml.UnmarshalStrict(data, p); err != nil {
		return nil, errors.Wrapf(err, "unable to parse profile %s", path)
	}
	return p, nil
}

// Dialect converts the input section into a validated reader dialect.
func (d InputDialect) Dialect() (streamcsv.Dialect, error) {
	out := streamcsv.DefaultDialect()
	var err error
	if out.Comma, err = single("separator", d.Separator, out.Comma); err != nil {
		return out, err
	}
	if out.Quote, err = single("quote", d.Quote, out.Quote); err != nil {
		return out, err
	}
	if len(d.LineEndings) > 0 {
		out.LineEndings = append([]string(nil), d.LineEndings...)
	}
	out.StrictLineEnding = d.Strict
	out.TrimSpace = d.Trim
	out.KeepQuotes = d.KeepQuotes
	return out, out.Validate()
}

// Apply configures w from the output section.
func (d OutputDialect) Apply(w *streamcsv.Writer) error {
	comma, err := single("separator", d.Separator, ',')
	if err != nil {
		return err
	}
	quote, err := single("quote", d.Quote, '"')
	if err != nil {
		return err
	}
	eol := d.LineEnding
	if eol == "" {
		eol = "\n"
	}
	dialect := streamcsv.Dialect{Comma: comma, Quote: quote, LineEndings: []string{eol}}
	if err := w.SetDialect(dialect); err != nil {
		return err
	}
	if err := w.SetQuotePattern(d.QuotePattern); err != nil {
		return err
	}
	w.QuoteColumns(d.QuoteColumns...)
	w.AlwaysQuote = d.AlwaysQuote
	return nil
}

func single(name, s string, def byte) (byte, error) {
	switch len(s) {
	case 0:
		return def, nil
	case 1:
		return s[0], nil
	}
	return 0, errors.Errorf("%s %q must be a single byte", name, s)
}
