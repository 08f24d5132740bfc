package mock

import (
	"fmt"
	"strconv"

	"github.com/kndndrj/dbeelink/core"
)

func toBytes(value any) []byte {
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
	case float32:
		return []byte(strconv.FormatFloat(float64(v), 'g', -1, 32))
	case float64:
		return []byte(strconv.FormatFloat(v, 'g', -1, 64))
	default:
		return []byte(fmt.Sprint(v))
	}
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		n, ok := toInt64(value)
		return float64(n), ok
	}
}

var diagConversion = &core.Diagnostic{State: "07006", Message: "restricted data type attribute violation"}

// convertFixed performs the fixed-width conversions of GetData.
func convertFixed(value any, target core.CType, dst any) (core.Indicator, error) {
	switch target {
	case core.CShort:
		p, ok := dst.(*int16)
		n, nok := toInt64(value)
		if !ok || !nok {
			return 0, diagConversion
		}
		*p = int16(n)
		return 2, nil
	case core.CLong:
		p, ok := dst.(*int32)
		n, nok := toInt64(value)
		if !ok || !nok {
			return 0, diagConversion
		}
		*p = int32(n)
		return 4, nil
	case core.CBigint:
		p, ok := dst.(*int64)
		n, nok := toInt64(value)
		if !ok || !nok {
			return 0, diagConversion
		}
		*p = n
		return 8, nil
	case core.CFloat:
		p, ok := dst.(*float32)
		f, fok := toFloat64(value)
		if !ok || !fok {
			return 0, diagConversion
		}
		*p = float32(f)
		return 4, nil
	case core.CDouble:
		p, ok := dst.(*float64)
		f, fok := toFloat64(value)
		if !ok || !fok {
			return 0, diagConversion
		}
		*p = f
		return 8, nil
	default:
		return 0, diagConversion
	}
}
