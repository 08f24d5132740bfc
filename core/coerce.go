package core

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kndndrj/dbeelink/core/host"
)

type coercionKey struct {
	remote SQLType
	host   host.Type
}

// coerceFunc produces the host value of one column of the current row.
type coerceFunc func(c *Coercer, src valueSource, attr host.Attribute) (any, bool, error)

// coercionRules is the (remote tag, host type) policy. Schema compatibility
// is derived from the same table.
var coercionRules = []struct {
	remote []SQLType
	host   []host.Type
	fn     coerceFunc
}{
	{[]SQLType{SQLSmallint}, []host.Type{host.Int2, host.Int4, host.Int8}, fromShort},
	{[]SQLType{SQLInteger}, []host.Type{host.Int4, host.Int8}, fromLong},
	{[]SQLType{SQLBit}, []host.Type{host.Bool}, fromLong},
	{[]SQLType{SQLBigint}, []host.Type{host.Int8}, fromBigint},
	{[]SQLType{SQLFloat, SQLReal}, []host.Type{host.Float4}, fromFloat},
	{[]SQLType{SQLDouble}, []host.Type{host.Float8}, fromDouble},
	{[]SQLType{SQLNumeric, SQLDecimal}, []host.Type{host.Int2, host.Int4, host.Int8}, fromNumericTruncated},
	{[]SQLType{SQLNumeric, SQLDecimal}, []host.Type{host.Numeric}, fromText},
	{[]SQLType{SQLChar, SQLVarchar}, []host.Type{host.Char, host.BPChar, host.Varchar, host.Text}, fromText},
	{[]SQLType{SQLLongVarchar}, []host.Type{host.Text}, fromText},
	{[]SQLType{SQLDate}, []host.Type{host.Date}, fromText},
	{[]SQLType{SQLTime}, []host.Type{host.Time, host.TimeTZ}, fromText},
	{[]SQLType{SQLTimestamp}, []host.Type{host.Timestamp, host.TimestampTZ}, fromText},
	{[]SQLType{SQLBinary, SQLVarbinary, SQLLongVarbinary}, []host.Type{host.Bytea}, fromBinary},
}

var coercions = make(map[coercionKey]coerceFunc)

func init() {
	for _, rule := range coercionRules {
		for _, r := range rule.remote {
			for _, h := range rule.host {
				coercions[coercionKey{remote: r, host: h}] = rule.fn
			}
		}
	}
}

// AcceptedRemoteTypes returns the remote tags that can be coerced into typ.
func AcceptedRemoteTypes(typ host.Type) []SQLType {
	var out []SQLType
	for _, rule := range coercionRules {
		for _, h := range rule.host {
			if h == typ {
				out = append(out, rule.remote...)
				break
			}
		}
	}
	return out
}

type valueSource struct {
	stmt    StmtHandle
	ordinal int
}

// Coercer converts remote values into host values.
type Coercer struct {
	parser    *host.Parser
	chunkSize int
}

func NewCoercer(parser *host.Parser, chunkSize int) *Coercer {
	if parser == nil {
		parser = host.NewParser()
	}
	if chunkSize < 1 {
		chunkSize = DefaultValueChunk
	}
	return &Coercer{
		parser:    parser,
		chunkSize: chunkSize,
	}
}

// Coerce reads column (1-based) of the statement's current row, reported by
// the remote side as remote, and converts it to the host type of attr.
func (c *Coercer) Coerce(stmt StmtHandle, column int, remote SQLType, attr host.Attribute) (value any, isNull bool, err error) {
	fn, ok := coercions[coercionKey{remote: remote, host: attr.Type}]
	if !ok {
		return nil, false, &CoercionError{
			Ordinal: column - 1,
			Remote:  remote,
			Host:    attr.Type,
			Err:     errors.New("no conversion path"),
		}
	}

	value, isNull, err = fn(c, valueSource{stmt: stmt, ordinal: column}, attr)
	if err != nil {
		return nil, false, &CoercionError{
			Ordinal: column - 1,
			Remote:  remote,
			Host:    attr.Type,
			Err:     err,
		}
	}
	if isNull {
		return nil, true, nil
	}
	return value, false, nil
}

func getFixed(src valueSource, target CType, dst any) (isNull bool, err error) {
	ind, err := src.stmt.GetData(src.ordinal, target, dst)
	if err != nil {
		return false, fmt.Errorf("unsuccessful get data call: %w", diagnose(err))
	}
	return ind == NullData, nil
}

func fromShort(_ *Coercer, src valueSource, attr host.Attribute) (any, bool, error) {
	var v int16
	isNull, err := getFixed(src, CShort, &v)
	if err != nil || isNull {
		return nil, isNull, err
	}

	switch attr.Type {
	case host.Int2:
		return v, false, nil
	case host.Int4:
		return int32(v), false, nil
	default:
		return int64(v), false, nil
	}
}

func fromLong(_ *Coercer, src valueSource, attr host.Attribute) (any, bool, error) {
	var v int32
	isNull, err := getFixed(src, CLong, &v)
	if err != nil || isNull {
		return nil, isNull, err
	}

	switch attr.Type {
	case host.Bool:
		return v != 0, false, nil
	case host.Int4:
		return v, false, nil
	default:
		return int64(v), false, nil
	}
}

func fromBigint(_ *Coercer, src valueSource, _ host.Attribute) (any, bool, error) {
	var v int64
	isNull, err := getFixed(src, CBigint, &v)
	if err != nil || isNull {
		return nil, isNull, err
	}
	return v, false, nil
}

func fromFloat(_ *Coercer, src valueSource, _ host.Attribute) (any, bool, error) {
	var v float32
	isNull, err := getFixed(src, CFloat, &v)
	if err != nil || isNull {
		return nil, isNull, err
	}
	return v, false, nil
}

func fromDouble(_ *Coercer, src valueSource, _ host.Attribute) (any, bool, error) {
	var v float64
	isNull, err := getFixed(src, CDouble, &v)
	if err != nil || isNull {
		return nil, isNull, err
	}
	return v, false, nil
}

func fromText(c *Coercer, src valueSource, attr host.Attribute) (any, bool, error) {
	text, isNull, err := FetchAll(src.stmt, src.ordinal, c.chunkSize)
	if err != nil || isNull {
		return nil, isNull, err
	}

	v, err := c.parser.Parse(attr, text)
	if err != nil {
		return nil, false, err
	}
	return v, false, nil
}

func fromBinary(c *Coercer, src valueSource, attr host.Attribute) (any, bool, error) {
	raw, isNull, err := FetchAll(src.stmt, src.ordinal, c.chunkSize)
	if err != nil || isNull {
		return nil, isNull, err
	}

	encoded := make([]byte, 2+hex.EncodedLen(len(raw)))
	encoded[0], encoded[1] = '\\', 'x'
	hex.Encode(encoded[2:], raw)

	v, err := c.parser.Parse(attr, encoded)
	if err != nil {
		return nil, false, err
	}
	return v, false, nil
}

// fromNumericTruncated gives the integer part of a NUMERIC/DECIMAL value.
// Some sources report plain integer columns as DECIMAL.
func fromNumericTruncated(c *Coercer, src valueSource, attr host.Attribute) (any, bool, error) {
	text, isNull, err := FetchAll(src.stmt, src.ordinal, c.chunkSize)
	if err != nil || isNull {
		return nil, isNull, err
	}

	switch attr.Type {
	case host.Int2:
		v, err := TruncateNumeric(string(text), 16)
		return int16(v), false, err
	case host.Int4:
		v, err := TruncateNumeric(string(text), 32)
		return int32(v), false, err
	default:
		v, err := TruncateNumeric(string(text), 64)
		return v, false, err
	}
}

// TruncateNumeric parses the integer part of a decimal string, ignoring
// anything after the decimal point, and checks that it fits in a signed
// integer of the given width.
func TruncateNumeric(text string, bits int) (int64, error) {
	s := strings.TrimSpace(text)
	whole, fraction, _ := strings.Cut(s, ".")

	sign := ""
	if strings.HasPrefix(whole, "-") || strings.HasPrefix(whole, "+") {
		sign, whole = whole[:1], whole[1:]
	}
	if (whole == "" && fraction == "") || !isDigits(whole) || !isDigits(fraction) {
		return 0, fmt.Errorf("invalid input syntax for integer: %q", text)
	}
	if whole == "" {
		return 0, nil
	}

	v, err := strconv.ParseInt(sign+whole, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, &NumericOverflowError{Bits: 64, Text: text}
		}
		return 0, fmt.Errorf("invalid input syntax for integer: %q", text)
	}

	var lo, hi int64
	switch bits {
	case 16:
		lo, hi = math.MinInt16, math.MaxInt16
	case 32:
		lo, hi = math.MinInt32, math.MaxInt32
	default:
		return v, nil
	}
	if v < lo || v > hi {
		return 0, &NumericOverflowError{Bits: bits, Text: text}
	}

	return v, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
