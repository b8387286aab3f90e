package vm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// A deliberately small reader for Rill source: scalars, words and their
// set/get forms, quote and quasi decoration, strings, binaries, blocks,
// groups, commas, blanks, and line comments. Enough to feed scripts and
// tests to the evaluator; it is not the full dialect grammar.

var ErrScan = errors.New("vm: scan error")

type scanner struct {
	rt  *Runtime
	src string
	pos int
}

// Scan reads source text into an unbound block cell.
func (rt *Runtime) Scan(source string) (Cell, error) {
	s := &scanner{rt: rt, src: source}
	cells, err := s.scanCells("")
	if err != nil {
		return Cell{}, err
	}
	return rt.NewBlock(cells...)
}

func (s *scanner) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d", ErrScan,
		fmt.Sprintf(format, args...), s.pos)
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == ';' {
			for s.pos < len(s.src) && s.src[s.pos] != '\n' {
				s.pos++
			}
			continue
		}
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			s.pos++
			continue
		}
		break
	}
}

// scanCells reads cells until the closing delimiter (or end of input when
// closer is empty).
func (s *scanner) scanCells(closer string) ([]Cell, error) {
	var cells []Cell
	for {
		s.skipSpace()
		if s.pos >= len(s.src) {
			if closer != "" {
				return nil, s.errorf("missing %q", closer)
			}
			return cells, nil
		}
		if closer != "" && strings.HasPrefix(s.src[s.pos:], closer) {
			s.pos += len(closer)
			return cells, nil
		}
		c, err := s.scanCell()
		if err != nil {
			return nil, err
		}
		cells = append(cells, c)
	}
}

func (s *scanner) scanCell() (Cell, error) {
	// Quote decoration stacks.
	quotes := 0
	for s.pos < len(s.src) && s.src[s.pos] == '\'' {
		quotes++
		s.pos++
	}

	c, err := s.scanBare()
	if err != nil {
		return Cell{}, err
	}
	if quotes > 0 {
		if err := c.Quotify(quotes); err != nil {
			return Cell{}, err
		}
	}
	return c, nil
}

func (s *scanner) scanBare() (Cell, error) {
	switch ch := s.src[s.pos]; {
	case ch == '[':
		s.pos++
		cells, err := s.scanCells("]")
		if err != nil {
			return Cell{}, err
		}
		return s.rt.NewBlock(cells...)

	case ch == '(':
		s.pos++
		cells, err := s.scanCells(")")
		if err != nil {
			return Cell{}, err
		}
		block, err := s.rt.NewBlock(cells...)
		if err != nil {
			return Cell{}, err
		}
		block.heart = HeartGroup
		return block, nil

	case ch == '"':
		return s.scanString()

	case ch == '#' && strings.HasPrefix(s.src[s.pos:], "#{"):
		return s.scanBinary()

	case ch == ',':
		s.pos++
		return CommaCell(), nil

	case ch == '~':
		return s.scanQuasi()

	case ch == ':':
		s.pos++
		word, err := s.scanWordSpelling()
		if err != nil {
			return Cell{}, err
		}
		return GetWordCell(s.rt.Intern(word)), nil

	case ch == '-' || (ch >= '0' && ch <= '9'):
		return s.scanNumber()

	default:
		word, err := s.scanWordSpelling()
		if err != nil {
			return Cell{}, err
		}
		if word == "_" {
			return BlankCell(), nil
		}
		if s.pos < len(s.src) && s.src[s.pos] == ':' {
			s.pos++
			return SetWordCell(s.rt.Intern(word)), nil
		}
		return WordCell(s.rt.Intern(word)), nil
	}
}

func isWordRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	return strings.ContainsRune("-+*!?.=<>&|", r)
}

func (s *scanner) scanWordSpelling() (string, error) {
	start := s.pos
	for s.pos < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		if !isWordRune(r) {
			break
		}
		s.pos += size
	}
	if s.pos == start {
		return "", s.errorf("unexpected %q", s.src[s.pos])
	}
	return s.src[start:s.pos], nil
}

func (s *scanner) scanNumber() (Cell, error) {
	start := s.pos
	if s.src[s.pos] == '-' {
		s.pos++
		if s.pos >= len(s.src) || s.src[s.pos] < '0' || s.src[s.pos] > '9' {
			// Lone minus (or -- etc) is a word.
			s.pos = start
			word, err := s.scanWordSpelling()
			if err != nil {
				return Cell{}, err
			}
			return WordCell(s.rt.Intern(word)), nil
		}
	}
	digits := func() {
		for s.pos < len(s.src) && s.src[s.pos] >= '0' && s.src[s.pos] <= '9' {
			s.pos++
		}
	}
	digits()

	// Pair: INTxINT
	if s.pos < len(s.src) && s.src[s.pos] == 'x' {
		xEnd := s.pos
		s.pos++
		yStart := s.pos
		if s.pos < len(s.src) && s.src[s.pos] == '-' {
			s.pos++
		}
		digits()
		if s.pos > yStart {
			x, err := strconv.ParseInt(s.src[start:xEnd], 10, 64)
			if err != nil {
				return Cell{}, s.errorf("bad pair: %v", err)
			}
			y, err := strconv.ParseInt(s.src[yStart:s.pos], 10, 64)
			if err != nil {
				return Cell{}, s.errorf("bad pair: %v", err)
			}
			return PairCell(x, y), nil
		}
		s.pos = xEnd
	}

	// Decimal: INT.frac
	if s.pos+1 < len(s.src) && s.src[s.pos] == '.' &&
		s.src[s.pos+1] >= '0' && s.src[s.pos+1] <= '9' {
		s.pos++
		digits()
		f, err := strconv.ParseFloat(s.src[start:s.pos], 64)
		if err != nil {
			return Cell{}, s.errorf("bad decimal: %v", err)
		}
		return DecimalCell(f), nil
	}

	n, err := strconv.ParseInt(s.src[start:s.pos], 10, 64)
	if err != nil {
		return Cell{}, s.errorf("bad integer: %v", err)
	}
	return IntegerCell(n), nil
}

func (s *scanner) scanString() (Cell, error) {
	s.pos++ // opening quote
	var b strings.Builder
	for {
		if s.pos >= len(s.src) {
			return Cell{}, s.errorf("unterminated string")
		}
		c := s.src[s.pos]
		if c == '"' {
			s.pos++
			return s.rt.NewText(b.String()), nil
		}
		if c == '^' && s.pos+1 < len(s.src) {
			s.pos++
			switch s.src[s.pos] {
			case '"':
				b.WriteByte('"')
			case '^':
				b.WriteByte('^')
			case '/':
				b.WriteByte('\n')
			default:
				return Cell{}, s.errorf("bad escape ^%c", s.src[s.pos])
			}
			s.pos++
			continue
		}
		b.WriteByte(c)
		s.pos++
	}
}

func (s *scanner) scanBinary() (Cell, error) {
	s.pos += 2 // #{
	start := s.pos
	end := strings.IndexByte(s.src[start:], '}')
	if end < 0 {
		return Cell{}, s.errorf("unterminated binary")
	}
	hex := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, s.src[start:start+end])
	s.pos = start + end + 1
	if len(hex)%2 != 0 {
		return Cell{}, s.errorf("odd-length binary")
	}
	buf := make([]byte, len(hex)/2)
	for i := 0; i < len(buf); i++ {
		v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return Cell{}, s.errorf("bad binary: %v", err)
		}
		buf[i] = byte(v)
	}
	return s.rt.NewBinary(buf), nil
}

// scanQuasi reads ~word~, the quasiform whose evaluation is the antiform.
func (s *scanner) scanQuasi() (Cell, error) {
	s.pos++ // ~
	word, err := s.scanWordSpelling()
	if err != nil {
		return Cell{}, err
	}
	if s.pos >= len(s.src) || s.src[s.pos] != '~' {
		return Cell{}, s.errorf("missing closing ~")
	}
	s.pos++
	c := WordCell(s.rt.Intern(word))
	c.lift = LiftQuasi
	return c, nil
}
