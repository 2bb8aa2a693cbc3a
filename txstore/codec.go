package txstore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// Layout of a record in data file. All integers are big-endian.
//
//	deleted         1 byte (0 or 1)
//	kind            string
//	category        string
//	scale           int32
//	unscaled length int32
//	unscaled        <unscaled length> bytes, two's-complement
//	description     string
//	occurred at     int64, unix milliseconds
//
// string is uint16 length followed by utf-8 bytes.
//
// deleted is always the first byte so that it can be flipped in place.
// Nothing else can be changed in place because size of the record depends
// on the description.

const (
	maxStringLen = math.MaxUint16
	// sanity limit when decoding, amounts are nowhere near that
	maxUnscaledLen = 1024
)

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > maxStringLen {
		return fmt.Errorf("string too long (%d bytes), max is %d", len(s), maxStringLen)
	}
	var hdr [2]byte
	binary.BigEndian.PutUint16(hdr[:], uint16(len(s)))
	buf.Write(hdr[:])
	buf.WriteString(s)
	return nil
}

func writeInt32(buf *bytes.Buffer, v int32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	buf.Write(b[:])
}

func writeInt64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

// twosComplementBytes returns the minimal big-endian two's-complement
// representation of n. 0 is encoded as a single zero byte.
func twosComplementBytes(n *big.Int) []byte {
	if n.Sign() == 0 {
		return []byte{0}
	}
	// number of bytes needed for magnitude plus a sign bit
	var nBytes int
	if n.Sign() > 0 {
		nBytes = (n.BitLen() + 8) / 8
	} else {
		m := new(big.Int).Neg(n)
		m.Sub(m, big.NewInt(1))
		nBytes = (m.BitLen() + 8) / 8
	}
	v := new(big.Int).Set(n)
	if n.Sign() < 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(nBytes*8))
		v.Add(v, mod)
	}
	res := make([]byte, nBytes)
	v.FillBytes(res)
	return res
}

func bigIntFromTwosComplement(b []byte) *big.Int {
	v := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8))
		v.Sub(v, mod)
	}
	return v
}

// encodeTransaction serializes tx. ID is not part of the record, it lives
// in the index.
func encodeTransaction(tx *Transaction) ([]byte, error) {
	if !tx.Kind.Valid() {
		return nil, fmt.Errorf("invalid kind %s", tx.Kind)
	}
	if !tx.Category.Valid() {
		return nil, fmt.Errorf("invalid category %s", tx.Category)
	}
	var buf bytes.Buffer
	buf.Grow(64 + len(tx.Description))

	if tx.Deleted {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	if err := writeString(&buf, tx.Kind.String()); err != nil {
		return nil, err
	}
	if err := writeString(&buf, tx.Category.String()); err != nil {
		return nil, err
	}

	// decimal stores value * 10^exp so scale is -exp
	writeInt32(&buf, -tx.Amount.Exponent())
	unscaled := twosComplementBytes(tx.Amount.Coefficient())
	writeInt32(&buf, int32(len(unscaled)))
	buf.Write(unscaled)

	if err := writeString(&buf, tx.Description); err != nil {
		return nil, fmt.Errorf("description: %w", err)
	}
	writeInt64(&buf, tx.OccurredAt.UnixMilli())
	return buf.Bytes(), nil
}

type recordReader struct {
	r   io.Reader
	err error
	buf [8]byte
}

func (rr *recordReader) read(n int) []byte {
	if rr.err != nil {
		return nil
	}
	d := rr.buf[:n]
	_, rr.err = io.ReadFull(rr.r, d)
	return d
}

func (rr *recordReader) readByte() byte {
	d := rr.read(1)
	if rr.err != nil {
		return 0
	}
	return d[0]
}

func (rr *recordReader) readInt32() int32 {
	d := rr.read(4)
	if rr.err != nil {
		return 0
	}
	return int32(binary.BigEndian.Uint32(d))
}

func (rr *recordReader) readInt64() int64 {
	d := rr.read(8)
	if rr.err != nil {
		return 0
	}
	return int64(binary.BigEndian.Uint64(d))
}

func (rr *recordReader) readBytes(n int) []byte {
	if rr.err != nil {
		return nil
	}
	d := make([]byte, n)
	_, rr.err = io.ReadFull(rr.r, d)
	return d
}

func (rr *recordReader) readString() string {
	d := rr.read(2)
	if rr.err != nil {
		return ""
	}
	n := int(binary.BigEndian.Uint16(d))
	return string(rr.readBytes(n))
}

// decodeTransaction reads one record from r. Returned transaction has no ID.
func decodeTransaction(r io.Reader) (*Transaction, error) {
	rr := &recordReader{r: r}
	tx := &Transaction{}

	deleted := rr.readByte()
	kindName := rr.readString()
	categoryName := rr.readString()
	scale := rr.readInt32()
	unscaledLen := rr.readInt32()
	if rr.err == nil && (unscaledLen <= 0 || unscaledLen > maxUnscaledLen) {
		return nil, fmt.Errorf("%w: invalid amount length %d", ErrCorruptRecord, unscaledLen)
	}
	unscaled := rr.readBytes(int(unscaledLen))
	tx.Description = rr.readString()
	ms := rr.readInt64()
	if rr.err != nil {
		if errors.Is(rr.err, io.EOF) || errors.Is(rr.err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated record", ErrCorruptRecord)
		}
		return nil, rr.err
	}

	switch deleted {
	case 0:
		tx.Deleted = false
	case 1:
		tx.Deleted = true
	default:
		return nil, fmt.Errorf("%w: invalid deleted flag %d", ErrCorruptRecord, deleted)
	}
	var ok bool
	if tx.Kind, ok = kindFromName(kindName); !ok {
		return nil, fmt.Errorf("%w: unknown kind '%s'", ErrCorruptRecord, kindName)
	}
	if tx.Category, ok = categoryFromName(categoryName); !ok {
		return nil, fmt.Errorf("%w: unknown category '%s'", ErrCorruptRecord, categoryName)
	}
	tx.Amount = decimal.NewFromBigInt(bigIntFromTwosComplement(unscaled), -scale)
	tx.OccurredAt = time.UnixMilli(ms).UTC()
	return tx, nil
}
