package vm

import (
	"math"
)

// Cell is the universal Rill value: a fixed-size tagged unit holding either
// an inline scalar payload or a handle to a heap Stub. A cell is never
// heap-allocated on its own; it lives in a Go local, a Level slot, or the
// cell array of its owning Stub, and copying one is a plain struct copy.
//
// Decoration is split from the datatype: Heart is the base type, quote is
// the number of quote levels applied on top of it, and lift records whether
// the cell is plain, a quasiform, or an antiform. Antiforms are unstable:
// they may exist as evaluation products and variable contents but never
// inside the cell array of a Stub (see Stub.SetCell).
type Cell struct {
	heart Heart
	lift  Lift
	quote uint8

	sym   *Symbol // word hearts: interned spelling
	bits  uint64  // integer bits, decimal bits, rune, pair X, native index
	bits2 uint64  // pair Y
	node  StubID  // series/context/error payload
	index int     // series position for block/group/text/binary

	bind Binding
}

// Heart is the base datatype tag of a cell, independent of quoting and
// antiform decoration.
type Heart uint8

const (
	HeartNone Heart = iota // zero value; not a valid datatype

	HeartBlank
	HeartComma
	HeartInteger
	HeartDecimal
	HeartPair
	HeartRune
	HeartText
	HeartBinary
	HeartWord
	HeartSetWord
	HeartGetWord
	HeartBlock
	HeartGroup
	HeartObject
	HeartAction
	HeartError
	HeartPort

	NumHearts
)

var heartNames = [NumHearts]string{
	HeartNone:    "none",
	HeartBlank:   "blank",
	HeartComma:   "comma",
	HeartInteger: "integer",
	HeartDecimal: "decimal",
	HeartPair:    "pair",
	HeartRune:    "rune",
	HeartText:    "text",
	HeartBinary:  "binary",
	HeartWord:    "word",
	HeartSetWord: "set-word",
	HeartGetWord: "get-word",
	HeartBlock:   "block",
	HeartGroup:   "group",
	HeartObject:  "object",
	HeartAction:  "action",
	HeartError:   "error",
	HeartPort:    "port",
}

// String returns the datatype name, e.g. "integer".
func (h Heart) String() string {
	if h >= NumHearts {
		return "?"
	}
	return heartNames[h]
}

// Lift is the quasiform/antiform status of a cell.
type Lift uint8

const (
	LiftPlain Lift = iota
	LiftQuasi
	LiftAnti
)

// MaxQuoteDepth is the highest representable quote level.
const MaxQuoteDepth = 126

// ---------------------------------------------------------------------------
// Heart predicates
// ---------------------------------------------------------------------------

// IsWordLike returns true for word, set-word, and get-word hearts.
func (h Heart) IsWordLike() bool {
	return h == HeartWord || h == HeartSetWord || h == HeartGetWord
}

// IsArrayLike returns true for hearts backed by a cell-array stub.
func (h Heart) IsArrayLike() bool {
	return h == HeartBlock || h == HeartGroup
}

// IsSeriesLike returns true for hearts with a position into stub data.
func (h Heart) IsSeriesLike() bool {
	return h.IsArrayLike() || h == HeartText || h == HeartBinary
}

// IsBindable returns true if cells of this heart may carry a binding.
// Non-bindable cells must hold the zero Binding (checked by bind helpers).
func (h Heart) IsBindable() bool {
	return h.IsWordLike() || h.IsArrayLike()
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// BlankCell returns the _ placeholder value.
func BlankCell() Cell {
	return Cell{heart: HeartBlank}
}

// CommaCell returns the expression-barrier value.
func CommaCell() Cell {
	return Cell{heart: HeartComma}
}

// IntegerCell returns a plain integer cell.
func IntegerCell(n int64) Cell {
	return Cell{heart: HeartInteger, bits: uint64(n)}
}

// DecimalCell returns a plain decimal cell.
func DecimalCell(f float64) Cell {
	return Cell{heart: HeartDecimal, bits: math.Float64bits(f)}
}

// PairCell returns an XxY pair cell.
func PairCell(x, y int64) Cell {
	return Cell{heart: HeartPair, bits: uint64(x), bits2: uint64(y)}
}

// RuneCell returns a character cell.
func RuneCell(r rune) Cell {
	return Cell{heart: HeartRune, bits: uint64(uint32(r))}
}

// WordCell returns an unbound word cell for the given symbol.
func WordCell(sym *Symbol) Cell {
	if sym == nil {
		panic("vm: WordCell with nil symbol")
	}
	return Cell{heart: HeartWord, sym: sym}
}

// SetWordCell returns an unbound set-word cell (word:).
func SetWordCell(sym *Symbol) Cell {
	if sym == nil {
		panic("vm: SetWordCell with nil symbol")
	}
	return Cell{heart: HeartSetWord, sym: sym}
}

// GetWordCell returns an unbound get-word cell (:word).
func GetWordCell(sym *Symbol) Cell {
	if sym == nil {
		panic("vm: GetWordCell with nil symbol")
	}
	return Cell{heart: HeartGetWord, sym: sym}
}

// BlockCell returns a block cell positioned at the head of the given stub.
func BlockCell(id StubID) Cell {
	return Cell{heart: HeartBlock, node: id}
}

// GroupCell returns a group cell positioned at the head of the given stub.
func GroupCell(id StubID) Cell {
	return Cell{heart: HeartGroup, node: id}
}

// TextCell returns a text cell over the given byte stub.
func TextCell(id StubID) Cell {
	return Cell{heart: HeartText, node: id}
}

// BinaryCell returns a binary cell over the given byte stub.
func BinaryCell(id StubID) Cell {
	return Cell{heart: HeartBinary, node: id}
}

// ObjectCell returns an object cell over the given varlist stub.
func ObjectCell(id StubID) Cell {
	return Cell{heart: HeartObject, node: id}
}

// ActionCell returns an action cell referencing a native by registry index.
func ActionCell(nativeIndex int) Cell {
	return Cell{heart: HeartAction, bits: uint64(nativeIndex)}
}

// ErrorCell returns a plain (not raised) error cell over an error varlist.
func ErrorCell(id StubID) Cell {
	return Cell{heart: HeartError, node: id}
}

// ---------------------------------------------------------------------------
// Accessors (panic on heart mismatch, like all payload extractors)
// ---------------------------------------------------------------------------

// Heart returns the base datatype tag.
func (c *Cell) Heart() Heart { return c.heart }

// QuoteLevel returns the number of quote levels on the cell.
func (c *Cell) QuoteLevel() int { return int(c.quote) }

// Lift returns the quasiform/antiform status.
func (c *Cell) Lift() Lift { return c.lift }

// IsAntiform returns true if the cell is in the unstable antiform state.
func (c *Cell) IsAntiform() bool { return c.lift == LiftAnti }

// IsQuasiform returns true if the cell is a quasiform (~value~).
func (c *Cell) IsQuasiform() bool { return c.lift == LiftQuasi }

// Int64 returns the integer payload. Panics if the heart is not integer.
func (c *Cell) Int64() int64 {
	if c.heart != HeartInteger {
		panic("vm: Cell.Int64 on " + c.heart.String())
	}
	return int64(c.bits)
}

// Float64 returns the decimal payload. Panics if the heart is not decimal.
func (c *Cell) Float64() float64 {
	if c.heart != HeartDecimal {
		panic("vm: Cell.Float64 on " + c.heart.String())
	}
	return math.Float64frombits(c.bits)
}

// Pair returns the X and Y of a pair cell.
func (c *Cell) Pair() (x, y int64) {
	if c.heart != HeartPair {
		panic("vm: Cell.Pair on " + c.heart.String())
	}
	return int64(c.bits), int64(c.bits2)
}

// Rune returns the character payload.
func (c *Cell) Rune() rune {
	if c.heart != HeartRune {
		panic("vm: Cell.Rune on " + c.heart.String())
	}
	return rune(uint32(c.bits))
}

// Word returns the interned symbol of a word-like cell.
func (c *Cell) Word() *Symbol {
	if !c.heart.IsWordLike() {
		panic("vm: Cell.Word on " + c.heart.String())
	}
	return c.sym
}

// Node returns the stub handle of a series/object/error cell.
func (c *Cell) Node() StubID {
	switch c.heart {
	case HeartText, HeartBinary, HeartBlock, HeartGroup, HeartObject,
		HeartError, HeartPort:
		return c.node
	}
	panic("vm: Cell.Node on " + c.heart.String())
}

// Index returns the series position of the cell.
func (c *Cell) Index() int {
	if !c.heart.IsSeriesLike() {
		panic("vm: Cell.Index on " + c.heart.String())
	}
	return c.index
}

// AtIndex returns a copy of the cell repositioned to the given index.
func (c *Cell) AtIndex(index int) Cell {
	if !c.heart.IsSeriesLike() {
		panic("vm: Cell.AtIndex on " + c.heart.String())
	}
	out := *c
	out.index = index
	return out
}

// NativeIndex returns the native registry index of an action cell.
func (c *Cell) NativeIndex() int {
	if c.heart != HeartAction {
		panic("vm: Cell.NativeIndex on " + c.heart.String())
	}
	return int(c.bits)
}

// Binding returns the cell's binding. Zero for unbound or non-bindable cells.
func (c *Cell) Binding() Binding { return c.bind }

// SetBinding attaches a binding. Panics if the heart is not bindable: a
// non-bindable cell must carry the null binding for its whole lifetime.
func (c *Cell) SetBinding(b Binding) {
	if !c.heart.IsBindable() && b != (Binding{}) {
		panic("vm: binding a non-bindable " + c.heart.String())
	}
	c.bind = b
}

// ---------------------------------------------------------------------------
// Quote state machine
// ---------------------------------------------------------------------------

// Quotify raises the quote level by depth. Pure state transition: the
// payload and binding are untouched.
func (c *Cell) Quotify(depth int) error {
	if depth < 0 {
		panic("vm: Quotify with negative depth")
	}
	if int(c.quote)+depth > MaxQuoteDepth {
		return ErrQuoteOverflow
	}
	c.quote += uint8(depth)
	return nil
}

// Unquotify lowers the quote level by depth. Fails if depth exceeds the
// current quote level.
func (c *Cell) Unquotify(depth int) error {
	if depth < 0 {
		panic("vm: Unquotify with negative depth")
	}
	if depth > int(c.quote) {
		return ErrQuoteUnderflow
	}
	c.quote -= uint8(depth)
	return nil
}

// MetaQuotify wraps the cell one meta level up, making any unstable state
// representable as an ordinary storable value:
//
//   - an antiform becomes its quasiform
//   - a null becomes the blank placeholder
//   - anything else gains one quote level
//
// This is the universal escape hatch for carrying evaluation products
// through pipelines that only accept stable values.
func (c *Cell) MetaQuotify() error {
	if c.IsNull() {
		*c = BlankCell()
		return nil
	}
	if c.lift == LiftAnti {
		c.lift = LiftQuasi
		return nil
	}
	return c.Quotify(1)
}

// MetaUnquotify is the exact inverse of MetaQuotify. Reversing the meta
// state of a raised error is refused; a caller that really means to revive
// a propagating error must go through MetaUnquotifyRaised.
func (c *Cell) MetaUnquotify() error {
	if c.heart == HeartBlank && c.lift == LiftPlain && c.quote == 0 {
		*c = nullCell()
		return nil
	}
	if c.lift == LiftQuasi {
		if c.heart == HeartError {
			return ErrUnacknowledgedRaise
		}
		c.lift = LiftAnti
		return nil
	}
	return c.Unquotify(1)
}

// MetaUnquotifyRaised reverses the meta state of a quasiform error back to
// its raised (antiform) form. This is the explicit acknowledgment path that
// MetaUnquotify refuses to take implicitly.
func (c *Cell) MetaUnquotifyRaised() error {
	if c.heart != HeartError || c.lift != LiftQuasi {
		return ErrNotMetaError
	}
	c.lift = LiftAnti
	return nil
}

// ---------------------------------------------------------------------------
// Antiform identities
// ---------------------------------------------------------------------------

// nullCell builds the null antiform. Null is the antiform of the word
// "null"; the canon symbol is shared process-wide so no runtime is needed.
func nullCell() Cell {
	return Cell{heart: HeartWord, lift: LiftAnti, sym: canonNull}
}

// voidCell builds the void antiform (antiform of the word "void").
func voidCell() Cell {
	return Cell{heart: HeartWord, lift: LiftAnti, sym: canonVoid}
}

// logicCell builds the true or false antiform.
func logicCell(b bool) Cell {
	if b {
		return Cell{heart: HeartWord, lift: LiftAnti, sym: canonTrue}
	}
	return Cell{heart: HeartWord, lift: LiftAnti, sym: canonFalse}
}

// NullCell returns the null antiform value.
func NullCell() Cell { return nullCell() }

// VoidCell returns the void antiform value.
func VoidCell() Cell { return voidCell() }

// LogicCell returns the true or false antiform value.
func LogicCell(b bool) Cell { return logicCell(b) }

// isAntiWord reports whether the cell is the antiform of a given canon word.
func (c *Cell) isAntiWord(canon *Symbol) bool {
	return c.heart == HeartWord && c.lift == LiftAnti && c.quote == 0 &&
		c.sym == canon
}

// IsNull returns true for the null antiform (the soft-failure signal).
func (c *Cell) IsNull() bool { return c.isAntiWord(canonNull) }

// IsVoid returns true for the void antiform ("nothing produced").
func (c *Cell) IsVoid() bool { return c.isAntiWord(canonVoid) }

// IsLogic returns the boolean payload if the cell is the true or false
// antiform.
func (c *Cell) IsLogic() (value bool, ok bool) {
	if c.isAntiWord(canonTrue) {
		return true, true
	}
	if c.isAntiWord(canonFalse) {
		return false, true
	}
	return false, false
}

// IsRaised returns true for an error in the actively-propagating antiform
// state. Reading a raised error "normally" is itself an error; it must be
// meta-wrapped first.
func (c *Cell) IsRaised() bool {
	return c.heart == HeartError && c.lift == LiftAnti
}

// Raisify puts an error cell into the raised (antiform) state.
func (c *Cell) Raisify() {
	if c.heart != HeartError {
		panic("vm: Raisify on " + c.heart.String())
	}
	c.lift = LiftAnti
}

// ---------------------------------------------------------------------------
// Truthiness and decay
// ---------------------------------------------------------------------------

// IsTruthy evaluates conditional truth. Every value is truthy except the
// false antiform and the null antiform. Asking about a void is a hard
// error: "nothing was produced" is not the same as "a falsey value was
// produced", and conflating them hides bugs. A raised error refuses the
// question too, propagating instead.
func (c *Cell) IsTruthy() (bool, error) {
	if c.IsVoid() {
		return false, ErrVoidConditional
	}
	if c.IsRaised() {
		return false, ErrRaisedConditional
	}
	if c.IsNull() {
		return false, nil
	}
	if v, ok := c.IsLogic(); ok {
		return v, nil
	}
	return true, nil
}

// Decay normalizes an unstable evaluation product into a storable variable
// content. Logic, null, and void antiforms pass through unchanged (they are
// legal variable contents); a raised error refuses to decay, and any other
// antiform requires an explicit MetaQuotify decision first.
func (c *Cell) Decay() error {
	if c.lift != LiftAnti {
		return nil
	}
	if c.IsNull() || c.IsVoid() {
		return nil
	}
	if _, ok := c.IsLogic(); ok {
		return nil
	}
	if c.IsRaised() {
		return ErrRaisedDecay
	}
	return ErrAntiformDecay
}
