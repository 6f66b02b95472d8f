package discoveryrt

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ExpandPath substitutes args for each placeholder in format in order. A
// "{}" placeholder is path-escaped as one segment; a "{+}" placeholder keeps
// "/" and escapes each segment between them. Missing args leave the
// remaining placeholders in place.
func ExpandPath(format string, args ...any) string {
	var b strings.Builder
	b.Grow(len(format))
	for _, arg := range args {
		i, n := nextPlaceholder(format)
		if i < 0 {
			break
		}
		b.WriteString(format[:i])
		v := encodeValue(arg)
		if n == len("{+}") {
			segs := strings.Split(v, "/")
			for j, seg := range segs {
				segs[j] = url.PathEscape(seg)
			}
			b.WriteString(strings.Join(segs, "/"))
		} else {
			b.WriteString(url.PathEscape(v))
		}
		format = format[i+n:]
	}
	b.WriteString(format)
	return b.String()
}

func nextPlaceholder(format string) (int, int) {
	i := strings.Index(format, "{}")
	j := strings.Index(format, "{+}")
	switch {
	case j >= 0 && (i < 0 || j < i):
		return j, len("{+}")
	case i >= 0:
		return i, len("{}")
	}
	return -1, 0
}

// Query accumulates query parameters. Encode sorts by key, and values keep
// the order in which they were added.
type Query struct {
	values url.Values
}

// Add sets key to v. Strings are sent verbatim, numbers and booleans in their
// Go formatting, and anything else as JSON.
func (q *Query) Add(key string, v any) {
	if q.values == nil {
		q.values = url.Values{}
	}
	q.values.Add(key, encodeValue(v))
}

// AddRepeated adds one key=value pair per element.
func AddRepeated[T any](q *Query, key string, vs []T) {
	for _, v := range vs {
		q.Add(key, v)
	}
}

// Len returns the number of keys.
func (q *Query) Len() int { return len(q.values) }

// Encode returns the query string without a leading "?".
func (q *Query) Encode() string { return q.values.Encode() }

// AppendTo appends the encoded query to target, separated by "?" (or "&" when
// target already carries a query). An empty query leaves target unchanged.
func (q *Query) AppendTo(target string) string {
	if q.Len() == 0 {
		return target
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + q.Encode()
}

func encodeValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
