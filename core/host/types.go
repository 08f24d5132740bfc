// Package host describes the host engine's side of the bridge: its column
// types, the declared row shape of a query and the engine's own text input
// and output routines.
package host

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// Type is a host type OID.
type Type uint32

const (
	Bool        = Type(pgtype.BoolOID)
	Bytea       = Type(pgtype.ByteaOID)
	Char        = Type(pgtype.QCharOID)
	Int8        = Type(pgtype.Int8OID)
	Int2        = Type(pgtype.Int2OID)
	Int4        = Type(pgtype.Int4OID)
	Text        = Type(pgtype.TextOID)
	Float4      = Type(pgtype.Float4OID)
	Float8      = Type(pgtype.Float8OID)
	BPChar      = Type(pgtype.BPCharOID)
	Varchar     = Type(pgtype.VarcharOID)
	Date        = Type(pgtype.DateOID)
	Time        = Type(pgtype.TimeOID)
	Timestamp   = Type(pgtype.TimestampOID)
	TimestampTZ = Type(pgtype.TimestamptzOID)
	Numeric     = Type(pgtype.NumericOID)
	// pgtype has no codec for time with time zone.
	TimeTZ Type = 1266
)

var typeNames = map[Type]string{
	Bool:        "boolean",
	Bytea:       "bytea",
	Char:        `"char"`,
	Int8:        "bigint",
	Int2:        "smallint",
	Int4:        "integer",
	Text:        "text",
	Float4:      "real",
	Float8:      "double precision",
	BPChar:      "character",
	Varchar:     "character varying",
	Date:        "date",
	Time:        "time without time zone",
	Timestamp:   "timestamp without time zone",
	TimestampTZ: "timestamp with time zone",
	Numeric:     "numeric",
	TimeTZ:      "time with time zone",
}

// Types returns every supported host type.
func Types() []Type {
	return []Type{Char, BPChar, Varchar, Text, Int2, Int4, Int8, Numeric, Float4, Float8, Date, Time, TimeTZ, Timestamp, TimestampTZ, Bool, Bytea}
}

func (t Type) String() string {
	name, ok := typeNames[t]
	if !ok {
		return fmt.Sprintf("oid %d", uint32(t))
	}
	return name
}

// IsText reports whether t is one of the character types.
func (t Type) IsText() bool {
	switch t {
	case Char, BPChar, Varchar, Text:
		return true
	default:
		return false
	}
}

// Attribute is one column of a declared row shape.
type Attribute struct {
	Name string
	Type Type
	// MaxLength is the declared length of bpchar and varchar columns, 0 if unconstrained.
	MaxLength int
}

func (a Attribute) TypeString() string {
	if a.MaxLength > 0 {
		return fmt.Sprintf("%s(%d)", a.Type, a.MaxLength)
	}
	return a.Type.String()
}

// TupleDesc is the row shape a caller expects from a query.
type TupleDesc []Attribute

// Names returns the column names in order.
func (d TupleDesc) Names() []string {
	names := make([]string, len(d))
	for i, a := range d {
		names[i] = a.Name
	}
	return names
}

var typeAliases = map[string]Type{
	"bool":                        Bool,
	"boolean":                     Bool,
	"bytea":                       Bytea,
	`"char"`:                      Char,
	"char":                        BPChar,
	"character":                   BPChar,
	"bpchar":                      BPChar,
	"varchar":                     Varchar,
	"character varying":           Varchar,
	"text":                        Text,
	"int2":                        Int2,
	"smallint":                    Int2,
	"int":                         Int4,
	"int4":                        Int4,
	"integer":                     Int4,
	"int8":                        Int8,
	"bigint":                      Int8,
	"numeric":                     Numeric,
	"decimal":                     Numeric,
	"float4":                      Float4,
	"real":                        Float4,
	"float8":                      Float8,
	"double precision":            Float8,
	"date":                        Date,
	"time":                        Time,
	"time without time zone":      Time,
	"timetz":                      TimeTZ,
	"time with time zone":         TimeTZ,
	"timestamp":                   Timestamp,
	"timestamp without time zone": Timestamp,
	"timestamptz":                 TimestampTZ,
	"timestamp with time zone":    TimestampTZ,
}

// ParseType parses a SQL type name such as "varchar(10)" or "double precision".
// A length modifier is kept only for bpchar and varchar; numeric precision is accepted and ignored.
func ParseType(s string) (Attribute, error) {
	name := strings.ToLower(strings.Join(strings.Fields(s), " "))

	var modifier string
	if open := strings.IndexByte(name, '('); open >= 0 {
		closing := strings.LastIndexByte(name, ')')
		if closing < open {
			return Attribute{}, fmt.Errorf("invalid type modifier in %q", s)
		}
		modifier = strings.TrimSpace(name[open+1 : closing])
		// "timestamp(3) with time zone" keeps the suffix
		name = strings.TrimSpace(name[:open] + name[closing+1:])
		name = strings.Join(strings.Fields(name), " ")
	}

	typ, ok := typeAliases[name]
	if !ok {
		return Attribute{}, fmt.Errorf("unsupported type %q", s)
	}
	attr := Attribute{Type: typ}

	if modifier != "" && (typ == BPChar || typ == Varchar) {
		n, err := strconv.Atoi(modifier)
		if err != nil || n < 1 {
			return Attribute{}, fmt.Errorf("invalid length for type %s: %q", typ, modifier)
		}
		attr.MaxLength = n
	}
	// a bare "char" is char(1)
	if typ == BPChar && modifier == "" && name != "bpchar" {
		attr.MaxLength = 1
	}

	return attr, nil
}

// ParseTupleDesc parses a comma separated column list: "id int4, name varchar(10)".
func ParseTupleDesc(s string) (TupleDesc, error) {
	var desc TupleDesc

	for i, col := range splitColumns(s) {
		col = strings.TrimSpace(col)
		if col == "" {
			return nil, fmt.Errorf("empty column definition at position %d", i+1)
		}
		name, typ, ok := strings.Cut(col, " ")
		if !ok {
			return nil, fmt.Errorf("column %q has no type", col)
		}
		attr, err := ParseType(typ)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		attr.Name = strings.Trim(name, `"`)
		desc = append(desc, attr)
	}

	if len(desc) < 1 {
		return nil, fmt.Errorf("no columns in %q", s)
	}

	return desc, nil
}

// splitColumns splits on commas outside of parentheses, so numeric(10,2) stays intact.
func splitColumns(s string) []string {
	var (
		out   []string
		depth int
		start int
	)
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}
