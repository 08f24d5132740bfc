package host

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgtype"
)

// TimeTZValue is a time of day with a UTC offset.
type TimeTZValue struct {
	// Microseconds since midnight in local time.
	Microseconds int64
	// Offset in seconds east of UTC.
	Offset int32
	Valid  bool
}

// Parser holds the host's text input and output routines.
type Parser struct {
	m        *pgtype.Map
	location *time.Location
}

type ParserOption func(*Parser)

// WithLocation sets the session time zone used for timestamptz and timetz
// input without an explicit zone.
func WithLocation(loc *time.Location) ParserOption {
	return func(p *Parser) {
		if loc != nil {
			p.location = loc
		}
	}
}

func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		m:        pgtype.NewMap(),
		location: time.UTC,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse converts the text form of a value into the host value for attr.
func (p *Parser) Parse(attr Attribute, text []byte) (any, error) {
	switch attr.Type {
	case Char:
		if len(text) < 1 {
			return "", nil
		}
		return string(text[:1]), nil
	case BPChar:
		s, err := fitLength(attr, string(text))
		if err != nil {
			return nil, err
		}
		if attr.MaxLength > 0 {
			if n := utf8.RuneCountInString(s); n < attr.MaxLength {
				s += strings.Repeat(" ", attr.MaxLength-n)
			}
		}
		return s, nil
	case Varchar:
		return fitLength(attr, string(text))
	case Text:
		return string(text), nil
	case Int2:
		return scanAs[int16](p, attr, text)
	case Int4:
		return scanAs[int32](p, attr, text)
	case Int8:
		return scanAs[int64](p, attr, text)
	case Float4:
		return scanAs[float32](p, attr, text)
	case Float8:
		return scanAs[float64](p, attr, text)
	case Bool:
		return scanAs[bool](p, attr, text)
	case Numeric:
		return scanAs[pgtype.Numeric](p, attr, text)
	case Date:
		return scanAs[pgtype.Date](p, attr, text)
	case Time:
		// a zone in the input is ignored
		clock, _ := splitZone(strings.TrimSpace(string(text)), 0)
		return scanAs[pgtype.Time](p, attr, []byte(clock))
	case Timestamp:
		s := strings.TrimSpace(string(text))
		clock, _ := splitZone(s, strings.IndexAny(s, " T")+1)
		return scanAs[pgtype.Timestamp](p, attr, []byte(clock))
	case TimestampTZ:
		return p.parseTimestamptz(text)
	case TimeTZ:
		return p.parseTimeTZ(text)
	case Bytea:
		return scanAs[[]byte](p, attr, text)
	default:
		return nil, fmt.Errorf("no input function for type %s", attr.Type)
	}
}

func scanAs[T any](p *Parser, attr Attribute, text []byte) (any, error) {
	var v T
	if err := p.scan(attr, text, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (p *Parser) scan(attr Attribute, text []byte, dst any) error {
	err := p.m.Scan(uint32(attr.Type), pgtype.TextFormatCode, text, dst)
	if err != nil {
		return fmt.Errorf("invalid input syntax for type %s: %q: %w", attr.Type, text, err)
	}
	return nil
}

// fitLength applies the character length rules of bpchar and varchar input:
// excess characters are dropped only when they are all blanks.
func fitLength(attr Attribute, s string) (string, error) {
	if attr.MaxLength < 1 || utf8.RuneCountInString(s) <= attr.MaxLength {
		return s, nil
	}

	runes := []rune(s)
	if strings.TrimRight(string(runes[attr.MaxLength:]), " ") != "" {
		return "", fmt.Errorf("value too long for type %s", attr.TypeString())
	}
	return string(runes[:attr.MaxLength]), nil
}

func (p *Parser) parseTimestamptz(text []byte) (any, error) {
	var v pgtype.Timestamptz
	err := p.m.Scan(uint32(TimestampTZ), pgtype.TextFormatCode, text, &v)
	if err == nil {
		return v, nil
	}

	// no zone in the input, read it in the session zone
	var local pgtype.Timestamp
	if lerr := p.m.Scan(uint32(Timestamp), pgtype.TextFormatCode, text, &local); lerr != nil {
		return nil, fmt.Errorf("invalid input syntax for type %s: %q: %w", TimestampTZ, text, err)
	}

	t := local.Time
	return pgtype.Timestamptz{
		Time:             time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), p.location),
		InfinityModifier: local.InfinityModifier,
		Valid:            local.Valid,
	}, nil
}

func (p *Parser) parseTimeTZ(text []byte) (any, error) {
	clock, zone := splitZone(strings.TrimSpace(string(text)), 0)

	var t pgtype.Time
	if err := p.m.Scan(uint32(Time), pgtype.TextFormatCode, []byte(clock), &t); err != nil {
		return nil, fmt.Errorf("invalid input syntax for type %s: %q: %w", TimeTZ, text, err)
	}

	var offset int32
	if zone == "" {
		_, off := time.Now().In(p.location).Zone()
		offset = int32(off)
	} else {
		off, err := parseOffset(zone)
		if err != nil {
			return nil, fmt.Errorf("invalid input syntax for type %s: %q: %w", TimeTZ, text, err)
		}
		offset = off
	}

	return TimeTZValue{
		Microseconds: t.Microseconds,
		Offset:       offset,
		Valid:        true,
	}, nil
}

// splitZone cuts a trailing UTC offset off time text. The "HH:MM:SS" part
// starts at clockAt.
func splitZone(s string, clockAt int) (clock, zone string) {
	from := min(len(s), clockAt+8)
	if idx := strings.IndexAny(s[from:], "+-Z"); idx >= 0 {
		return s[:from+idx], s[from+idx:]
	}
	return s, ""
}

// parseOffset parses "Z", "+HH", "+HHMM", "+HH:MM" and "+HH:MM:SS".
func parseOffset(zone string) (int32, error) {
	if zone == "Z" {
		return 0, nil
	}
	if len(zone) < 3 {
		return 0, fmt.Errorf("invalid time zone %q", zone)
	}

	sign := int32(1)
	switch zone[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return 0, fmt.Errorf("invalid time zone %q", zone)
	}

	digits := strings.ReplaceAll(zone[1:], ":", "")
	if len(digits)%2 != 0 || len(digits) > 6 {
		return 0, fmt.Errorf("invalid time zone %q", zone)
	}

	var seconds int32
	multipliers := []int32{3600, 60, 1}
	for i := 0; i < len(digits); i += 2 {
		n, err := strconv.Atoi(digits[i : i+2])
		if err != nil {
			return 0, fmt.Errorf("invalid time zone %q", zone)
		}
		seconds += int32(n) * multipliers[i/2]
	}

	return sign * seconds, nil
}

// Format renders a host value in the host's canonical text form.
// The second return value is false for NULL.
func (p *Parser) Format(attr Attribute, value any) (string, bool, error) {
	if value == nil {
		return "", false, nil
	}

	switch v := value.(type) {
	case string:
		return v, true, nil
	case pgtype.Numeric:
		if !v.Valid {
			return "", false, nil
		}
		return formatNumeric(v), true, nil
	case TimeTZValue:
		if !v.Valid {
			return "", false, nil
		}
		clock, err := p.m.Encode(uint32(Time), pgtype.TextFormatCode, pgtype.Time{Microseconds: v.Microseconds, Valid: true}, nil)
		if err != nil {
			return "", false, fmt.Errorf("m.Encode: %w", err)
		}
		return string(clock) + formatOffset(v.Offset), true, nil
	}

	buf, err := p.m.Encode(uint32(attr.Type), pgtype.TextFormatCode, value, nil)
	if err != nil {
		return "", false, fmt.Errorf("m.Encode: %w", err)
	}
	if buf == nil {
		return "", false, nil
	}
	return string(buf), true, nil
}

// formatNumeric renders a numeric in plain decimal notation.
func formatNumeric(n pgtype.Numeric) string {
	switch {
	case n.NaN:
		return "NaN"
	case n.InfinityModifier == pgtype.Infinity:
		return "Infinity"
	case n.InfinityModifier == pgtype.NegativeInfinity:
		return "-Infinity"
	}

	digits := "0"
	if n.Int != nil {
		digits = n.Int.String()
	}
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}

	exp := int(n.Exp)
	switch {
	case exp > 0:
		return sign + digits + strings.Repeat("0", exp)
	case exp < 0:
		scale := -exp
		if len(digits) <= scale {
			digits = strings.Repeat("0", scale-len(digits)+1) + digits
		}
		return sign + digits[:len(digits)-scale] + "." + digits[len(digits)-scale:]
	default:
		return sign + digits
	}
}

func formatOffset(offset int32) string {
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}

	out := fmt.Sprintf("%c%02d", sign, offset/3600)
	if rest := offset % 3600; rest != 0 {
		out += fmt.Sprintf(":%02d", rest/60)
		if sec := rest % 60; sec != 0 {
			out += fmt.Sprintf(":%02d", sec)
		}
	}
	return out
}
