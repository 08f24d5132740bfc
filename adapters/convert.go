package adapters

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/kndndrj/dbeelink/core"
)

var (
	diagConversion = &core.Diagnostic{State: "07006", Message: "restricted data type attribute violation"}
	diagOutOfRange = &core.Diagnostic{State: "22003", Message: "numeric value out of range"}
	diagInvalidNum = &core.Diagnostic{State: "22018", Message: "invalid character value for cast specification"}
)

// Time values carry their UTC offset so a host reading them as zoned input
// keeps the instant, and zone-less host types drop it the way the host does.
const (
	dateLayout      = "2006-01-02"
	timeLayout      = "15:04:05.999999-07:00:00"
	timestampLayout = "2006-01-02 15:04:05.999999-07:00:00"
)

// indirect dereferences values drivers hand out as pointers. A nil pointer
// is a NULL. Pointers whose String method needs the pointer receiver are kept.
func indirect(value any) any {
	for value != nil {
		v := reflect.ValueOf(value)
		if v.Kind() != reflect.Pointer {
			return value
		}
		if v.IsNil() {
			return nil
		}
		elem := v.Elem().Interface()
		_, ptrStringer := value.(fmt.Stringer)
		_, elemStringer := elem.(fmt.Stringer)
		if ptrStringer && !elemStringer {
			return value
		}
		value = elem
	}
	return nil
}

// toText renders a scanned value the way a character buffer receives it.
func toText(value any, tag core.SQLType) []byte {
	switch v := value.(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	case bool:
		if v {
			return []byte("1")
		}
		return []byte("0")
	case int64:
		return strconv.AppendInt(nil, v, 10)
	case float32:
		return strconv.AppendFloat(nil, float64(v), 'g', -1, 32)
	case float64:
		return strconv.AppendFloat(nil, v, 'g', -1, 64)
	case time.Time:
		return []byte(formatTime(v, tag))
	case fmt.Stringer:
		return []byte(v.String())
	default:
		return []byte(fmt.Sprint(v))
	}
}

func formatTime(t time.Time, tag core.SQLType) string {
	switch tag {
	case core.SQLDate:
		return t.Format(dateLayout)
	case core.SQLTime:
		return t.Format(timeLayout)
	default:
		return t.Format(timestampLayout)
	}
}

// convertFixed performs the numeric conversions of GetData. Narrowing is range
// checked, fractions are truncated toward zero.
func convertFixed(value any, target core.CType, dst any) (core.Indicator, error) {
	switch target {
	case core.CShort:
		p, ok := dst.(*int16)
		if !ok {
			return 0, diagConversion
		}
		n, err := toInteger(value, math.MinInt16, math.MaxInt16)
		if err != nil {
			return 0, err
		}
		*p = int16(n)
		return 2, nil
	case core.CLong:
		p, ok := dst.(*int32)
		if !ok {
			return 0, diagConversion
		}
		n, err := toInteger(value, math.MinInt32, math.MaxInt32)
		if err != nil {
			return 0, err
		}
		*p = int32(n)
		return 4, nil
	case core.CBigint:
		p, ok := dst.(*int64)
		if !ok {
			return 0, diagConversion
		}
		n, err := toInteger(value, math.MinInt64, math.MaxInt64)
		if err != nil {
			return 0, err
		}
		*p = n
		return 8, nil
	case core.CFloat:
		p, ok := dst.(*float32)
		if !ok {
			return 0, diagConversion
		}
		f, err := toFloat(value)
		if err != nil {
			return 0, err
		}
		if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
			return 0, diagOutOfRange
		}
		*p = float32(f)
		return 4, nil
	case core.CDouble:
		p, ok := dst.(*float64)
		if !ok {
			return 0, diagConversion
		}
		f, err := toFloat(value)
		if err != nil {
			return 0, err
		}
		*p = f
		return 8, nil
	default:
		return 0, diagConversion
	}
}

func toInteger(value any, lo, hi int64) (int64, error) {
	var n int64

	switch v := value.(type) {
	case int:
		n = int64(v)
	case int8:
		n = int64(v)
	case int16:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case uint:
		return unsignedInRange(uint64(v), hi)
	case uint8:
		n = int64(v)
	case uint16:
		n = int64(v)
	case uint32:
		n = int64(v)
	case uint64:
		return unsignedInRange(v, hi)
	case bool:
		if v {
			n = 1
		}
	case float32:
		return truncateFloat(float64(v), lo, hi)
	case float64:
		return truncateFloat(v, lo, hi)
	case string:
		return parseInteger(v, lo, hi)
	case []byte:
		return parseInteger(string(v), lo, hi)
	default:
		return 0, diagConversion
	}

	if n < lo || n > hi {
		return 0, diagOutOfRange
	}
	return n, nil
}

func unsignedInRange(v uint64, hi int64) (int64, error) {
	if v > uint64(hi) {
		return 0, diagOutOfRange
	}
	return int64(v), nil
}

func truncateFloat(f float64, lo, hi int64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, diagOutOfRange
	}
	f = math.Trunc(f)
	// float64(hi) rounds up for 64-bit bounds, so the upper check is exclusive
	if f < float64(lo) || f >= float64(hi)+1 {
		return 0, diagOutOfRange
	}
	return int64(f), nil
}

func parseInteger(s string, lo, hi int64) (int64, error) {
	s = strings.TrimSpace(s)

	n, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		if n < lo || n > hi {
			return 0, diagOutOfRange
		}
		return n, nil
	}
	if errors.Is(err, strconv.ErrRange) {
		return 0, diagOutOfRange
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, diagInvalidNum
	}
	return truncateFloat(f, lo, hi)
}

func toFloat(value any) (float64, error) {
	switch v := value.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		return parseFloat(v)
	case []byte:
		return parseFloat(string(v))
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}

	n, err := toInteger(value, math.MinInt64, math.MaxInt64)
	if err != nil {
		return 0, err
	}
	return float64(n), nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if errors.Is(err, strconv.ErrRange) {
		return 0, diagOutOfRange
	}
	if err != nil {
		return 0, diagInvalidNum
	}
	return f, nil
}
