package vm

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Wire codec for stable values: canonical CBOR so equal values encode to
// equal bytes, which the module store relies on. Antiforms never go on the
// wire; callers MetaQuotify first. Runtime-entangled hearts (actions,
// objects, errors, ports) are not encodable either, since a handle into
// one arena means nothing in another.

var (
	ErrWireUnstable = errors.New("vm: antiform is not wire-encodable")
	ErrWireHeart    = errors.New("vm: heart is not wire-encodable")
)

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: cbor enc mode: %v", err))
	}
}

type wireCell struct {
	Heart uint8      `cbor:"h"`
	Quote uint8      `cbor:"q,omitempty"`
	Quasi bool       `cbor:"z,omitempty"`
	Int   int64      `cbor:"i,omitempty"`
	Y     int64      `cbor:"y,omitempty"`
	Dec   float64    `cbor:"d,omitempty"`
	Str   string     `cbor:"s,omitempty"`
	Bytes []byte     `cbor:"b,omitempty"`
	Items []wireCell `cbor:"a,omitempty"`
}

// MarshalCell encodes a stable cell to canonical CBOR.
func (rt *Runtime) MarshalCell(c Cell) ([]byte, error) {
	w, err := rt.toWire(c)
	if err != nil {
		return nil, err
	}
	data, err := encMode.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("marshaling cell: %w", err)
	}
	return data, nil
}

// UnmarshalCell decodes a cell previously encoded with MarshalCell. Words
// are re-interned; arrays get fresh managed stubs.
func (rt *Runtime) UnmarshalCell(data []byte) (Cell, error) {
	var w wireCell
	if err := cbor.Unmarshal(data, &w); err != nil {
		return Cell{}, fmt.Errorf("unmarshaling cell: %w", err)
	}
	return rt.fromWire(&w)
}

func (rt *Runtime) toWire(c Cell) (wireCell, error) {
	if c.IsAntiform() {
		return wireCell{}, ErrWireUnstable
	}
	w := wireCell{
		Heart: uint8(c.Heart()),
		Quote: uint8(c.QuoteLevel()),
		Quasi: c.Lift() == LiftQuasi,
	}
	switch c.Heart() {
	case HeartBlank, HeartComma:
	case HeartInteger:
		w.Int = c.Int64()
	case HeartDecimal:
		w.Dec = c.Float64()
	case HeartPair:
		w.Int, w.Y = c.Pair()
	case HeartRune:
		w.Int = int64(c.Rune())
	case HeartWord, HeartSetWord, HeartGetWord:
		w.Str = c.Word().Spelling()
	case HeartText, HeartBinary:
		bytes, err := rt.BytesAccess(c)
		if err != nil {
			return wireCell{}, err
		}
		w.Bytes = append([]byte(nil), bytes...)
	case HeartBlock, HeartGroup:
		s, err := rt.StubAccess(c.Node())
		if err != nil {
			return wireCell{}, err
		}
		items := append([]Cell(nil), s.cells[min(c.Index(), len(s.cells)):]...)
		w.Items = make([]wireCell, 0, len(items))
		for _, item := range items {
			iw, err := rt.toWire(item)
			if err != nil {
				return wireCell{}, err
			}
			w.Items = append(w.Items, iw)
		}
	default:
		return wireCell{}, fmt.Errorf("%w: %s", ErrWireHeart, c.Heart())
	}
	return w, nil
}

func (rt *Runtime) fromWire(w *wireCell) (Cell, error) {
	var c Cell
	switch Heart(w.Heart) {
	case HeartBlank:
		c = BlankCell()
	case HeartComma:
		c = CommaCell()
	case HeartInteger:
		c = IntegerCell(w.Int)
	case HeartDecimal:
		c = DecimalCell(w.Dec)
	case HeartPair:
		c = PairCell(w.Int, w.Y)
	case HeartRune:
		c = RuneCell(rune(w.Int))
	case HeartWord:
		c = WordCell(rt.Intern(w.Str))
	case HeartSetWord:
		c = SetWordCell(rt.Intern(w.Str))
	case HeartGetWord:
		c = GetWordCell(rt.Intern(w.Str))
	case HeartText:
		c = rt.NewText(string(w.Bytes))
	case HeartBinary:
		c = rt.NewBinary(w.Bytes)
	case HeartBlock, HeartGroup:
		cells := make([]Cell, 0, len(w.Items))
		for i := range w.Items {
			item, err := rt.fromWire(&w.Items[i])
			if err != nil {
				return Cell{}, err
			}
			cells = append(cells, item)
		}
		block, err := rt.NewBlock(cells...)
		if err != nil {
			return Cell{}, err
		}
		if Heart(w.Heart) == HeartGroup {
			block.heart = HeartGroup
		}
		c = block
	default:
		return Cell{}, fmt.Errorf("%w: tag %d", ErrWireHeart, w.Heart)
	}

	if w.Quote > 0 {
		if err := c.Quotify(int(w.Quote)); err != nil {
			return Cell{}, err
		}
	}
	if w.Quasi {
		c.lift = LiftQuasi
	}
	return c, nil
}
