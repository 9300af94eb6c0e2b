// Package binding 负责把模板数据绑定到场景文本中的 ${path} 占位符。
package binding

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Scope 是分层的变量作用域：内层变量遮蔽外层同名变量。
type Scope struct {
	parent *Scope
	vars   map[string]any
}

// NewScope 以 root 的顶层字段作为变量创建作用域。
// root 可以是 map 或任意可 JSON 序列化的结构体。
func NewScope(root any) (*Scope, error) {
	normalized, err := Normalize(root)
	if err != nil {
		return nil, err
	}
	vars := map[string]any{}
	switch v := normalized.(type) {
	case map[string]any:
		for k, val := range v {
			vars[k] = val
		}
	case nil:
	default:
		return nil, fmt.Errorf("绑定数据的根必须是对象，实际为 %T", normalized)
	}
	return &Scope{vars: vars}, nil
}

// With 返回一个新的子作用域，其中 name 绑定到 value。
func (s *Scope) With(name string, value any) *Scope {
	normalized, err := Normalize(value)
	if err != nil {
		normalized = value
	}
	return &Scope{parent: s, vars: map[string]any{name: normalized}}
}

// Lookup 解析形如 highlights[0].text 的路径。
func (s *Scope) Lookup(path string) (any, bool) {
	path = strings.TrimSpace(path)
	if s == nil || path == "" {
		return nil, false
	}
	segments := strings.Split(path, ".")
	name, indexes := parseSegment(segments[0])
	current, ok := s.variable(name)
	if !ok {
		return nil, false
	}
	if current, ok = descendIndexes(current, indexes); !ok {
		return nil, false
	}
	for _, segment := range segments[1:] {
		name, indexes := parseSegment(segment)
		if name != "" {
			if current, ok = descendMap(current, name); !ok {
				return nil, false
			}
		}
		if current, ok = descendIndexes(current, indexes); !ok {
			return nil, false
		}
	}
	return current, true
}

func (s *Scope) variable(name string) (any, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Interpolate 将文本中的 ${path} 替换为作用域中的值。
// 无法解析的占位符保持原样，并在 missing 中按出现顺序返回其路径。
func (s *Scope) Interpolate(text string) (out string, missing []string) {
	out = exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		path := strings.TrimSpace(match[2 : len(match)-1])
		val, ok := s.Lookup(path)
		if !ok || val == nil {
			missing = append(missing, path)
			return match
		}
		return format(val)
	})
	return out, missing
}

// HasPlaceholder 报告文本中是否包含 ${...} 占位符。
func HasPlaceholder(text string) bool { return exprPattern.MatchString(text) }

// Normalize 把结构体等值转换为由 map[string]any / []any / 基本类型组成的树，
// 字段名遵循其 json 标签。
func Normalize(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, float64, map[string]any, []any:
		return v, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("序列化绑定数据失败: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("解析绑定数据失败: %w", err)
	}
	return out, nil
}

func format(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

func parseSegment(segment string) (string, []string) {
	name := segment
	var indexes []string
	if i := strings.Index(segment, "["); i != -1 {
		name = segment[:i]
		rest := segment[i:]
		for len(rest) > 0 && rest[0] == '[' {
			end := strings.IndexByte(rest, ']')
			if end == -1 {
				break
			}
			indexes = append(indexes, strings.TrimSpace(rest[1:end]))
			rest = rest[end+1:]
		}
	}
	return name, indexes
}

func descendIndexes(current any, indexes []string) (any, bool) {
	for _, idxStr := range indexes {
		idx, err := strconv.Atoi(idxStr)
		if err != nil {
			return nil, false
		}
		var ok bool
		if current, ok = descendArray(current, idx); !ok {
			return nil, false
		}
	}
	return current, true
}

func descendMap(current any, key string) (any, bool) {
	c, ok := current.(map[string]any)
	if !ok {
		return nil, false
	}
	val, ok := c[key]
	return val, ok
}

func descendArray(current any, idx int) (any, bool) {
	c, ok := current.([]any)
	if !ok || idx < 0 || idx >= len(c) {
		return nil, false
	}
	return c[idx], true
}
