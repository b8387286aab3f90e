package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// Mold renders a cell back to source-ish text, decoration included. The
// evaluator never parses this output; it exists for error messages, logs,
// and the CLI.
func (rt *Runtime) Mold(c Cell) string {
	var b strings.Builder
	rt.moldInto(&b, c, 0)
	return b.String()
}

const moldMaxDepth = 32

func (rt *Runtime) moldInto(b *strings.Builder, c Cell, depth int) {
	if depth > moldMaxDepth {
		b.WriteString("...")
		return
	}

	b.WriteString(strings.Repeat("'", c.QuoteLevel()))
	if c.Lift() != LiftPlain {
		b.WriteByte('~')
		defer b.WriteByte('~')
	}

	switch c.Heart() {
	case HeartNone:
		b.WriteString("#[unset]")
	case HeartBlank:
		b.WriteByte('_')
	case HeartComma:
		b.WriteByte(',')
	case HeartInteger:
		b.WriteString(strconv.FormatInt(c.Int64(), 10))
	case HeartDecimal:
		b.WriteString(strconv.FormatFloat(c.Float64(), 'g', -1, 64))
	case HeartPair:
		x, y := c.Pair()
		fmt.Fprintf(b, "%dx%d", x, y)
	case HeartRune:
		fmt.Fprintf(b, "#%q", string(c.Rune()))
	case HeartWord:
		b.WriteString(c.Word().Spelling())
	case HeartSetWord:
		b.WriteString(c.Word().Spelling())
		b.WriteByte(':')
	case HeartGetWord:
		b.WriteByte(':')
		b.WriteString(c.Word().Spelling())
	case HeartText:
		rt.moldText(b, c)
	case HeartBinary:
		rt.moldBinary(b, c)
	case HeartBlock:
		b.WriteByte('[')
		rt.moldArray(b, c, depth)
		b.WriteByte(']')
	case HeartGroup:
		b.WriteByte('(')
		rt.moldArray(b, c, depth)
		b.WriteByte(')')
	case HeartObject:
		b.WriteString("#[object]")
	case HeartAction:
		fmt.Fprintf(b, "#[action %s]", rt.nativeAt(c.NativeIndex()).Name().Spelling())
	case HeartError:
		fmt.Fprintf(b, "#[error %s]", rt.ErrorID(c))
	case HeartPort:
		b.WriteString("#[port]")
	default:
		b.WriteString("#[?]")
	}
}

func (rt *Runtime) moldArray(b *strings.Builder, c Cell, depth int) {
	s, err := rt.StubAccess(c.Node())
	if err != nil {
		b.WriteString("...freed...")
		return
	}
	for i := c.Index(); i < len(s.cells); i++ {
		if i > c.Index() {
			b.WriteByte(' ')
		}
		item := s.cells[i]
		rt.moldInto(b, item, depth+1)
		s = rt.stub(c.Node()) // re-fetch, slot may have moved
	}
}

func (rt *Runtime) moldText(b *strings.Builder, c Cell) {
	bytes, err := rt.BytesAccess(c)
	if err != nil {
		b.WriteString(`"...freed..."`)
		return
	}
	b.WriteByte('"')
	for _, ch := range string(bytes) {
		switch ch {
		case '"':
			b.WriteString(`^"`)
		case '^':
			b.WriteString("^^")
		case '\n':
			b.WriteString("^/")
		default:
			b.WriteRune(ch)
		}
	}
	b.WriteByte('"')
}

func (rt *Runtime) moldBinary(b *strings.Builder, c Cell) {
	bytes, err := rt.BytesAccess(c)
	if err != nil {
		b.WriteString("#{...freed...}")
		return
	}
	b.WriteString("#{")
	for _, v := range bytes {
		fmt.Fprintf(b, "%02X", v)
	}
	b.WriteByte('}')
}
