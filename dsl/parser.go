package dsl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	sceneLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "Color", Pattern: `#(?:[0-9A-Fa-f]{8}|[0-9A-Fa-f]{6}|[0-9A-Fa-f]{3})\b`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `-?(?:\d+\.\d+|\.\d+|\d+)(?:em|px|pt|mm|%)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[:;,]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	sceneParser = participle.MustBuild[Document](
		participle.Lexer(sceneLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
		participle.UseLookahead(2),
	)
)

// Document 是场景文件的根节点：scene <Name> [version] { ... }。
type Document struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Name    string         `parser:"Newline* 'scene' @Ident"`
	Version string         `parser:"@Ident?"`
	Body    []*Statement   `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}' Newline*"`
}

// Statement 是块内的一条语句：属性或子节点。
type Statement struct {
	Property *Property `parser:"  @@"`
	Node     *Node     `parser:"| @@"`
}

// Property 使用冒号语法（key: value...），值可以有多个，例如 padding: 0.33em 0.66em。
type Property struct {
	Pos    lexer.Position `parser:"" json:"-"`
	Key    string         `parser:"@Ident ':'"`
	Values []*Value       `parser:"@@+"`
}

// Node 描述 text/highlight/font 等带名称的节点。
type Node struct {
	Pos  lexer.Position `parser:"" json:"-"`
	Kind string         `parser:"@Ident"`
	Name string         `parser:"@Ident?"`
	Body []*Statement   `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Value 是单个属性值。
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *string        `parser:"| @Number"`
	Color  *string        `parser:"| @Color"`
	Ident  *string        `parser:"| @Ident"`
}

// Raw 返回值的文本形式（字符串已去掉引号）。
func (v *Value) Raw() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Color != nil:
		return *v.Color
	case v.Ident != nil:
		return *v.Ident
	default:
		return ""
	}
}

// Text 返回用空格连接的所有值。
func (p *Property) Text() string {
	if p == nil {
		return ""
	}
	parts := make([]string, 0, len(p.Values))
	for _, v := range p.Values {
		parts = append(parts, v.Raw())
	}
	return strings.Join(parts, " ")
}

// Properties 返回 Document 顶层的属性。
func (d *Document) Properties() []*Property { return properties(d.Body) }

// Nodes 返回 Document 顶层中指定类型的节点，kind 为空时返回全部。
func (d *Document) Nodes(kind string) []*Node { return nodes(d.Body, kind) }

// Property 查找 Document 顶层属性，后出现的覆盖先出现的。
func (d *Document) Property(key string) *Property { return lookup(d.Body, key) }

// Properties 返回节点内的属性。
func (n *Node) Properties() []*Property { return properties(n.Body) }

// Nodes 返回节点内指定类型的子节点。
func (n *Node) Nodes(kind string) []*Node { return nodes(n.Body, kind) }

// Property 查找节点属性。
func (n *Node) Property(key string) *Property { return lookup(n.Body, key) }

func properties(body []*Statement) []*Property {
	var out []*Property
	for _, st := range body {
		if st.Property != nil {
			out = append(out, st.Property)
		}
	}
	return out
}

func nodes(body []*Statement, kind string) []*Node {
	var out []*Node
	for _, st := range body {
		if st.Node != nil && (kind == "" || st.Node.Kind == kind) {
			out = append(out, st.Node)
		}
	}
	return out
}

func lookup(body []*Statement, key string) *Property {
	var found *Property
	for _, st := range body {
		if st.Property != nil && st.Property.Key == key {
			found = st.Property
		}
	}
	return found
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse parses a scene file from an io.Reader.
func Parse(r io.Reader) (*Document, error) {
	return sceneParser.Parse("", r)
}

// ParseString parses a scene file from a string.
func ParseString(input string) (*Document, error) {
	return sceneParser.ParseString("", input)
}
