// Package scene 把场景文件与模板数据组合成可测量的文本元素，驱动自适应排版收敛，
// 并输出可交给渲染器的静态帧。
package scene

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ByLCY/reelfit/dsl"
	"github.com/ByLCY/reelfit/fit"
	"github.com/ByLCY/reelfit/layout"
	"github.com/ByLCY/reelfit/template"
)

//go:embed default.scene
var defaultScene string

// 节点类型。
const (
	KindText      = "text"
	KindHighlight = "highlight"
)

// ContrastKeyword 作为 color 取值时，文字颜色取背景色的对比色。
const ContrastKeyword = "contrast"

// Spec 是编译后的场景描述。
type Spec struct {
	Name       string
	Background layout.Color
	Fonts      map[string]layout.FontResource
	Nodes      []Node
}

// Node 是一个需要自适应排版的文本节点。Content/Color/Fill 可以包含 ${path} 占位符。
type Node struct {
	Kind       string
	Name       string
	Content    string
	Font       string
	Size       layout.Length
	LineHeight float64
	Color      string
	Fill       string
	// Padding 依次为上下、左右内边距。
	Padding [2]layout.Length
	Radius  layout.Length
	Wrap    string
	Align   string
	// Fit 为空时使用 Stage 的默认策略。
	Fit string
	// Box 依次为 x、y、宽、高，百分比相对整帧。
	Box [4]layout.Length
}

// Default 返回内置的默认场景。
func Default() *Spec {
	spec, err := Parse(defaultScene)
	if err != nil {
		panic(fmt.Sprintf("内置场景无效: %v", err))
	}
	return spec
}

// Load 读取并编译场景文件。
func Load(path string) (*Spec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取场景文件失败: %w", err)
	}
	spec, err := Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// Parse 解析并编译场景源码。
func Parse(src string) (*Spec, error) {
	doc, err := dsl.ParseString(src)
	if err != nil {
		return nil, fmt.Errorf("解析场景失败: %w", err)
	}
	return Compile(doc)
}

// Compile 把 AST 编译为 Spec。
func Compile(doc *dsl.Document) (*Spec, error) {
	if doc == nil {
		return nil, fmt.Errorf("场景为空")
	}
	spec := &Spec{
		Name:  doc.Name,
		Fonts: map[string]layout.FontResource{},
	}
	for _, p := range doc.Properties() {
		switch p.Key {
		case "background":
			c, err := template.ParseColor(p.Text())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", p.Pos, err)
			}
			spec.Background = c
		default:
			return nil, fmt.Errorf("%s: 未知的场景属性 %q", p.Pos, p.Key)
		}
	}

	for i, n := range doc.Nodes("") {
		switch n.Kind {
		case "font":
			font, err := compileFont(n)
			if err != nil {
				return nil, err
			}
			spec.Fonts[font.Name] = font
		case KindText, KindHighlight:
			node, err := compileNode(n, i)
			if err != nil {
				return nil, err
			}
			spec.Nodes = append(spec.Nodes, node)
		default:
			return nil, fmt.Errorf("%s: 未知的节点类型 %q", n.Pos, n.Kind)
		}
	}

	for _, node := range spec.Nodes {
		if node.Font == "" {
			continue
		}
		if _, ok := spec.Fonts[node.Font]; !ok {
			return nil, fmt.Errorf("节点 %s 引用了未声明的字体 %s", node.Name, node.Font)
		}
	}
	return spec, nil
}

func compileFont(n *dsl.Node) (layout.FontResource, error) {
	if n.Name == "" {
		return layout.FontResource{}, fmt.Errorf("%s: font 节点缺少名称", n.Pos)
	}
	font := layout.FontResource{Name: n.Name, Family: n.Name}
	for _, p := range n.Properties() {
		switch p.Key {
		case "src":
			font.Src = p.Text()
		case "style", "weight":
			font.Style = p.Text()
		case "family":
			font.Family = p.Text()
		default:
			return font, fmt.Errorf("%s: font 不支持属性 %q", p.Pos, p.Key)
		}
	}
	return font, nil
}

func compileNode(n *dsl.Node, index int) (Node, error) {
	node := Node{
		Kind:       n.Kind,
		Name:       n.Name,
		Size:       layout.Length{Value: 1, Unit: layout.UnitEM},
		LineHeight: 1.2,
		Color:      "#fff",
		Wrap:       layout.WrapAnywhere,
		Box: [4]layout.Length{
			{Value: 0, Unit: layout.UnitPercent},
			{Value: 0, Unit: layout.UnitPercent},
			{Value: 100, Unit: layout.UnitPercent},
			{Value: 100, Unit: layout.UnitPercent},
		},
	}
	if node.Name == "" {
		node.Name = fmt.Sprintf("%s-%d", n.Kind, index)
	}

	for _, p := range n.Properties() {
		var err error
		switch p.Key {
		case "content":
			node.Content = p.Text()
		case "font":
			node.Font = p.Text()
		case "size":
			node.Size, err = parseLength(p.Values[0])
		case "line-height":
			node.LineHeight, err = strconv.ParseFloat(p.Text(), 64)
			if err == nil && node.LineHeight <= 0 {
				err = fmt.Errorf("行高必须为正数")
			}
		case "color":
			node.Color = p.Text()
		case "background":
			node.Fill = p.Text()
		case "padding":
			node.Padding, err = parsePadding(p.Values)
		case "radius":
			node.Radius, err = parseLength(p.Values[0])
		case "wrap":
			node.Wrap = layout.NormalizeWrap(p.Text())
		case "align":
			node.Align = strings.ToLower(p.Text())
		case "fit":
			if _, ok := fit.ParseVariant(p.Text()); !ok {
				err = fmt.Errorf("未知的适配策略 %q", p.Text())
			}
			node.Fit = p.Text()
		case "box":
			node.Box, err = parseBox(p.Values)
		default:
			err = fmt.Errorf("不支持的属性 %q", p.Key)
		}
		if err != nil {
			return node, fmt.Errorf("%s: %s %s: %w", p.Pos, n.Kind, node.Name, err)
		}
	}
	if node.Kind == KindText && node.Fill != "" {
		return node, fmt.Errorf("%s: text %s 不支持 background，请使用 highlight", n.Pos, node.Name)
	}
	return node, nil
}

func parseLength(v *dsl.Value) (layout.Length, error) {
	l, ok := layout.ParseLength(v.Raw())
	if !ok {
		return l, fmt.Errorf("无法解析长度 %q", v.Raw())
	}
	return l, nil
}

// parsePadding 接受一个或两个值，语义与 CSS 相同。
func parsePadding(values []*dsl.Value) ([2]layout.Length, error) {
	var out [2]layout.Length
	if len(values) > 2 {
		return out, fmt.Errorf("padding 最多两个值")
	}
	for i, v := range values {
		l, err := parseLength(v)
		if err != nil {
			return out, err
		}
		out[i] = l
	}
	if len(values) == 1 {
		out[1] = out[0]
	}
	return out, nil
}

func parseBox(values []*dsl.Value) ([4]layout.Length, error) {
	var out [4]layout.Length
	if len(values) != 4 {
		return out, fmt.Errorf("box 需要 x y 宽 高 四个值，实际 %d 个", len(values))
	}
	for i, v := range values {
		l, err := parseLength(v)
		if err != nil {
			return out, err
		}
		if l.Unit == layout.UnitEM {
			return out, fmt.Errorf("box 不支持 em 单位")
		}
		out[i] = l
	}
	return out, nil
}
