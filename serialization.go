package tripwire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SERIALIZATION: Saving and Loading a Lexicon
// ═══════════════════════════════════════════════════════════════════════════════
// Large lexicons load faster from a compact binary file than from YAML, and
// the binary form keeps weights exact (no decimal round trip).
//
// BINARY FORMAT:
// --------------
// All integers are little-endian.
//
//	[magic: "TWLX"][version: uint16][count: uint32]
//	For each entry, in lexicon order:
//	  [term_length: uint32][term: bytes][weight: float64 bits, uint64]
//
// EXAMPLE:
// --------
// Lexicon [{kill 10}]:
//
//	['T','W','L','X'] [1,0] [1,0,0,0]
//	[4,0,0,0] ['k','i','l','l'] [0,0,0,0,0,0,36,64]
//	                            ^^^^^^^^^^^^^^^^^^^ 10.0
// ═══════════════════════════════════════════════════════════════════════════════

const (
	lexiconMagic   = "TWLX"
	lexiconVersion = uint16(1)
)

// Encode serializes the lexicon to the binary format.
func (l *Lexicon) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := newLexiconEncoder(buf)

	if err := enc.encodeHeader(len(l.Entries)); err != nil {
		return nil, err
	}
	for _, e := range l.Entries {
		if err := enc.encodeEntry(e); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// DecodeLexicon parses data produced by Encode. It does not validate the
// entries; LoadLexicon does. Truncated or corrupt data returns an error
// wrapping ErrInvalidLexiconData.
func DecodeLexicon(data []byte) (*Lexicon, error) {
	dec := newLexiconDecoder(data)

	count, err := dec.decodeHeader()
	if err != nil {
		return nil, err
	}

	// Each entry takes at least 12 bytes; reject counts the payload cannot hold
	// before allocating for them.
	if count < 0 || count > dec.remaining()/12 {
		return nil, fmt.Errorf("%w: %d entries declared, payload too short", ErrInvalidLexiconData, count)
	}

	lex := &Lexicon{Entries: make([]Entry, 0, count)}
	for i := 0; i < count; i++ {
		e, err := dec.decodeEntry()
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		lex.Entries = append(lex.Entries, e)
	}

	if !dec.isComplete() {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidLexiconData, dec.remaining())
	}
	return lex, nil
}

// lexiconEncoder accumulates the serialized lexicon.
type lexiconEncoder struct {
	buffer *bytes.Buffer
}

func newLexiconEncoder(buffer *bytes.Buffer) *lexiconEncoder {
	return &lexiconEncoder{buffer: buffer}
}

func (e *lexiconEncoder) encodeHeader(count int) error {
	if _, err := e.buffer.WriteString(lexiconMagic); err != nil {
		return err
	}
	if err := binary.Write(e.buffer, binary.LittleEndian, lexiconVersion); err != nil {
		return err
	}
	return binary.Write(e.buffer, binary.LittleEndian, uint32(count))
}

func (e *lexiconEncoder) encodeEntry(entry Entry) error {
	if err := e.writeString(entry.Term); err != nil {
		return err
	}
	return binary.Write(e.buffer, binary.LittleEndian, math.Float64bits(entry.Weight))
}

// writeString writes a length-prefixed string.
//
// Format: [length: 4 bytes][string: length bytes]
func (e *lexiconEncoder) writeString(s string) error {
	if err := binary.Write(e.buffer, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := e.buffer.WriteString(s)
	return err
}

// lexiconDecoder tracks the read position within data.
type lexiconDecoder struct {
	data   []byte
	offset int
}

func newLexiconDecoder(data []byte) *lexiconDecoder {
	return &lexiconDecoder{data: data}
}

func (d *lexiconDecoder) isComplete() bool {
	return d.offset >= len(d.data)
}

func (d *lexiconDecoder) remaining() int {
	return len(d.data) - d.offset
}

// next returns the next n bytes and advances past them.
func (d *lexiconDecoder) next(n int) ([]byte, error) {
	if n < 0 || d.remaining() < n {
		return nil, fmt.Errorf("%w: unexpected end of data at offset %d", ErrInvalidLexiconData, d.offset)
	}
	b := d.data[d.offset : d.offset+n]
	d.offset += n
	return b, nil
}

func (d *lexiconDecoder) decodeHeader() (int, error) {
	magic, err := d.next(len(lexiconMagic))
	if err != nil {
		return 0, err
	}
	if string(magic) != lexiconMagic {
		return 0, fmt.Errorf("%w: bad magic %q", ErrInvalidLexiconData, magic)
	}

	v, err := d.next(2)
	if err != nil {
		return 0, err
	}
	if version := binary.LittleEndian.Uint16(v); version != lexiconVersion {
		return 0, fmt.Errorf("%w: unsupported version %d", ErrInvalidLexiconData, version)
	}

	c, err := d.next(4)
	if err != nil {
		return 0, err
	}
	return int(binary.LittleEndian.Uint32(c)), nil
}

func (d *lexiconDecoder) decodeEntry() (Entry, error) {
	term, err := d.readString()
	if err != nil {
		return Entry{}, err
	}

	w, err := d.next(8)
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		Term:   term,
		Weight: math.Float64frombits(binary.LittleEndian.Uint64(w)),
	}, nil
}

// readString reads a length-prefixed string.
func (d *lexiconDecoder) readString() (string, error) {
	l, err := d.next(4)
	if err != nil {
		return "", err
	}
	b, err := d.next(int(binary.LittleEndian.Uint32(l)))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
