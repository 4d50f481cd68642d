package tabular

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"
)

// CSVParser reads a delimited text table
type CSVParser struct {
	delimiter  rune
	lazyQuotes bool
}

// CSVOption is a functional option for CSVParser configuration
type CSVOption func(*CSVParser)

// WithDelimiter sets the field delimiter. When unset the parser picks ';' if the
// header line contains more semicolons than commas, as spreadsheet programs in
// ru-RU locales emit.
func WithDelimiter(d rune) CSVOption {
	return func(p *CSVParser) {
		p.delimiter = d
	}
}

// WithLazyQuotes enables lazy quote handling
func WithLazyQuotes(lazy bool) CSVOption {
	return func(p *CSVParser) {
		p.lazyQuotes = lazy
	}
}

// NewCSVParser creates a CSV parser
func NewCSVParser(opts ...CSVOption) *CSVParser {
	p := &CSVParser{lazyQuotes: true}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse reads the whole table; the first line is the header
func (p *CSVParser) Parse(r io.Reader) (*Sheet, error) {
	br := bufio.NewReader(r)

	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		_, _ = br.Discard(3)
	}

	data, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}
	if !utf8.Valid(data) {
		return nil, ErrInvalidEncoding
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = p.delimiter
	if reader.Comma == 0 {
		reader.Comma = sniffDelimiter(data)
	}
	reader.LazyQuotes = p.lazyQuotes
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrMissingHeader
	}

	headers, err := normalizeHeaders(records[0])
	if err != nil {
		return nil, err
	}
	return &Sheet{
		Headers: headers,
		Rows:    buildRows(headers, records[1:], 2),
	}, nil
}

func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}
