package seed

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"gorm.io/datatypes"

	"prompterly/pkg/schema"
)

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05", "2006-01-02"}

// convert coerces a decoded value to what the store expects for c. Values
// come from YAML datasets or from snapshot JSON lines.
func convert(t *schema.Table, c *schema.Column, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch c.Type {
	case schema.TypeInt:
		return toInt64(v)
	case schema.TypeFloat:
		return toFloat64(v)
	case schema.TypeBool:
		return toBool(v)
	case schema.TypeTime:
		return toTime(v)
	case schema.TypeJSON:
		return toJSON(v)
	case schema.TypeBytes:
		switch x := v.(type) {
		case []byte:
			return x, nil
		case string:
			return []byte(x), nil
		}
	case schema.TypeString, schema.TypeText:
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		if c.Enum != nil && !contains(c.Enum, s) {
			return nil, &schema.ConstraintViolation{Kind: schema.KindEnum, Table: t.Name, Column: c.Name, Value: s, Allowed: c.Enum}
		}
		return s, nil
	}
	return nil, fmt.Errorf("cannot convert %T to %s", v, c.Type)
}

func contains(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", x)
		}
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("%v is not an integer", x)
		}
		return int64(x), nil
	case json.Number:
		return x.Int64()
	case string:
		return strconv.ParseInt(x, 10, 64)
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	}
	return 0, fmt.Errorf("cannot convert %T to int", v)
}

func toFloat64(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case string:
		return strconv.ParseFloat(x, 64)
	}
	n, err := toInt64(v)
	return float64(n), err
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		return strconv.ParseBool(x)
	}
	n, err := toInt64(v)
	if err != nil {
		return false, fmt.Errorf("cannot convert %T to bool", v)
	}
	return n != 0, nil
}

func toTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), nil
	case []byte:
		return toTime(string(x))
	case string:
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, x); err == nil {
				return ts.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized time %q", x)
	}
	return time.Time{}, fmt.Errorf("cannot convert %T to time", v)
}

// toJSON keeps already encoded documents as they are and encodes anything else.
func toJSON(v any) (datatypes.JSON, error) {
	switch x := v.(type) {
	case []byte:
		return datatypes.JSON(x), nil
	case string:
		if json.Valid([]byte(x)) {
			return datatypes.JSON(x), nil
		}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
