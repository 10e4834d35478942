package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// typeRank orders values of different types the way Firestore does.
type typeRank int

const (
	rankNull typeRank = iota
	rankBool
	rankNumber
	rankTimestamp
	rankString
	rankBytes
	rankArray
	rankMap
	rankOther
)

func rankOf(v interface{}) typeRank {
	switch v.(type) {
	case nil:
		return rankNull
	case bool:
		return rankBool
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return rankNumber
	case time.Time:
		return rankTimestamp
	case string:
		return rankString
	case []byte:
		return rankBytes
	case []interface{}:
		return rankArray
	case map[string]interface{}:
		return rankMap
	default:
		return rankOther
	}
}

// SameType reports whether a and b fall in the same ordering class.
func SameType(a, b interface{}) bool {
	return rankOf(a) == rankOf(b)
}

// CompareValues returns -1, 0 or 1. Values of different types order by type
// class (null < bool < number < timestamp < string < bytes < array < map).
func CompareValues(a, b interface{}) int {
	ra, rb := rankOf(a), rankOf(b)
	if ra != rb {
		return cmpInt(int(ra), int(rb))
	}

	switch ra {
	case rankNull:
		return 0
	case rankBool:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case rankNumber:
		return compareNumbers(a, b)
	case rankTimestamp:
		return a.(time.Time).Compare(b.(time.Time))
	case rankString:
		return strings.Compare(a.(string), b.(string))
	case rankBytes:
		return bytes.Compare(a.([]byte), b.([]byte))
	case rankArray:
		return compareArrays(a.([]interface{}), b.([]interface{}))
	case rankMap:
		return compareMaps(a.(map[string]interface{}), b.(map[string]interface{}))
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

// ValuesEqual reports Firestore equality: 1 and 1.0 are equal, NaN equals NaN.
func ValuesEqual(a, b interface{}) bool {
	if rankOf(a) == rankNumber && rankOf(b) == rankNumber {
		fa, _ := toFloat64(a)
		fb, _ := toFloat64(b)
		if math.IsNaN(fa) && math.IsNaN(fb) {
			return true
		}
	}
	return CompareValues(a, b) == 0
}

func compareNumbers(a, b interface{}) int {
	ia, aInt := toInt64(a)
	ib, bInt := toInt64(b)
	if aInt && bInt {
		return cmpInt64(ia, ib)
	}

	fa, _ := toFloat64(a)
	fb, _ := toFloat64(b)
	// NaN sorts before every other number.
	switch {
	case math.IsNaN(fa) && math.IsNaN(fb):
		return 0
	case math.IsNaN(fa):
		return -1
	case math.IsNaN(fb):
		return 1
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	default:
		return 0
	}
}

func compareArrays(a, b []interface{}) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := CompareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmpInt(len(a), len(b))
}

func compareMaps(a, b map[string]interface{}) int {
	ak, bk := sortedKeys(a), sortedKeys(b)
	for i := 0; i < len(ak) && i < len(bk); i++ {
		if c := strings.Compare(ak[i], bk[i]); c != 0 {
			return c
		}
		if c := CompareValues(a[ak[i]], b[bk[i]]); c != 0 {
			return c
		}
	}
	return cmpInt(len(ak), len(bk))
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	if i, ok := toInt64(v); ok {
		return float64(i), true
	}
	if u, ok := v.(uint64); ok {
		return float64(u), true
	}
	return 0, false
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
