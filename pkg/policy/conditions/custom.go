package conditions

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"argus-hq/argus/pkg/policy/schema"
)

// evalCustom evaluates the generic attribute comparator. Any failure to
// coerce values (wrong type, bad regex) makes the condition evaluate to
// false; the evaluation path never raises.
func evalCustom(cond *schema.PolicyCondition, req *schema.EvaluationRequest) bool {
	actual, present := lookupAttribute(req, cond.Field)

	if cond.CustomOperator == schema.CustomExists {
		return present
	}
	if !present {
		return false
	}

	switch cond.CustomOperator {
	case schema.CustomEqual:
		return valuesEqual(actual, cond.Value)
	case schema.CustomNotEqual:
		return !valuesEqual(actual, cond.Value)
	case schema.CustomGreaterThan, schema.CustomGreaterEqual,
		schema.CustomLessThan, schema.CustomLessEqual:
		return numericCompare(cond.CustomOperator, actual, cond.Value)
	case schema.CustomIn:
		return valueIn(actual, cond.Value)
	case schema.CustomNotIn:
		return !valueIn(actual, cond.Value)
	case schema.CustomContains:
		return valueContains(actual, cond.Value)
	case schema.CustomMatches:
		return valueMatches(actual, cond.Value)
	default:
		return false
	}
}

// lookupAttribute fetches a named attribute from the request's free-form map.
func lookupAttribute(req *schema.EvaluationRequest, field string) (interface{}, bool) {
	if req.Attributes == nil {
		return nil, false
	}
	v, ok := req.Attributes[field]
	return v, ok
}

// valuesEqual compares two values, trying numeric comparison first so that
// int and float64 representations of the same number are equal (YAML and
// JSON decoding disagree about number types).
func valuesEqual(actual, expected interface{}) bool {
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}

	an, aok := toFloat64(actual)
	en, eok := toFloat64(expected)
	if aok && eok {
		return an == en
	}

	return reflect.DeepEqual(actual, expected)
}

// numericCompare applies an ordering operator after coercing both sides to
// float64. Non-numeric values never match.
func numericCompare(op schema.CustomOp, actual, expected interface{}) bool {
	an, aok := toFloat64(actual)
	en, eok := toFloat64(expected)
	if !aok || !eok {
		return false
	}

	switch op {
	case schema.CustomGreaterThan:
		return an > en
	case schema.CustomGreaterEqual:
		return an >= en
	case schema.CustomLessThan:
		return an < en
	case schema.CustomLessEqual:
		return an <= en
	default:
		return false
	}
}

// valueIn reports whether actual is an element of the expected slice.
func valueIn(actual, expected interface{}) bool {
	list := reflect.ValueOf(expected)
	if list.Kind() != reflect.Slice && list.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < list.Len(); i++ {
		if valuesEqual(actual, list.Index(i).Interface()) {
			return true
		}
	}
	return false
}

// valueContains checks substring containment for strings and element
// containment for slices.
func valueContains(actual, expected interface{}) bool {
	if s, ok := actual.(string); ok {
		sub, ok := toStringValue(expected)
		if !ok {
			return false
		}
		return strings.Contains(s, sub)
	}

	list := reflect.ValueOf(actual)
	if list.Kind() != reflect.Slice && list.Kind() != reflect.Array {
		return false
	}
	for i := 0; i < list.Len(); i++ {
		if valuesEqual(list.Index(i).Interface(), expected) {
			return true
		}
	}
	return false
}

// valueMatches applies the expected regular expression to the actual value.
func valueMatches(actual, expected interface{}) bool {
	s, ok := toStringValue(actual)
	if !ok {
		return false
	}
	pattern, ok := expected.(string)
	if !ok {
		return false
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

// toFloat64 coerces any numeric Go value to float64.
func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

// toStringValue coerces a value to string for substring and regex matching.
func toStringValue(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case fmt.Stringer:
		return val.String(), true
	default:
		return "", false
	}
}
