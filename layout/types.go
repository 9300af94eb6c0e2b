package layout

// 该文件定义帧布局结果，供场景合成、渲染与调试 JSON 共用。所有坐标单位均为 px。

// Frame 是一帧静态画面的布局结果。
type Frame struct {
	Name       string                  `json:"name"`
	Width      float64                 `json:"width"`
	Height     float64                 `json:"height"`
	Background Color                   `json:"background"`
	Rects      []Rect                  `json:"rects,omitempty"`
	Texts      []TextBox               `json:"texts"`
	Fonts      map[string]FontResource `json:"fonts"`
}

// FontResource 描述字体资源，src 可以是文件路径、embed:* 内置字体或 built-in:* 注入字体。
type FontResource struct {
	Name   string `json:"name"`
	Src    string `json:"src"`
	Style  string `json:"style"`
	Family string `json:"family"`
}

// Color 采用 0-255 的 RGBA 数值；A 为 0 时按不透明处理，见 Alpha。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
	A int `json:"a,omitempty"`
}

// Alpha 返回 0-1 的不透明度。
func (c Color) Alpha() float64 {
	if c.A <= 0 {
		return 1
	}
	return float64(c.A) / 255.0
}

// TextBox 是一个已经排好坐标并完成字号适配的文本块。
type TextBox struct {
	Name       string     `json:"name"`
	Content    string     `json:"content"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	Font       string     `json:"font"`
	FontSize   float64    `json:"fontSize"`
	LineHeight float64    `json:"lineHeight"`
	Color      Color      `json:"color"`
	Align      string     `json:"align,omitempty"` // left/center/right，默认 center
	Lines      []TextLine `json:"lines"`
	Scale      float64    `json:"scale"`
}

// TextLine 表示排版后的一行文本内容及其宽高。
type TextLine struct {
	Content string  `json:"content"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// Rect 是可带圆角的填充矩形，用于高亮背景。
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Radius float64 `json:"radius,omitempty"`
	Fill   Color   `json:"fill"`
}
