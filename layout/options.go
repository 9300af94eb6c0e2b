package layout

// Wrap 策略名称。
const (
	WrapAnywhere  = "anywhere"
	WrapBreakWord = "break-word"
	WrapNone      = "nowrap"
)

// Typesetter 负责根据字体与宽度约束将文本拆成可绘制的行。
// fontSize 与 lineHeight 均为 px；width <= 0 表示不限制宽度。
type Typesetter interface {
	LayoutLines(content string, width float64, font FontResource, fontSize float64, lineHeight float64, wrap string) ([]TextLine, error)
}

// NormalizeWrap 把各种写法归一为 anywhere/break-word/nowrap。
func NormalizeWrap(v string) string {
	switch v {
	case "break-word", "word-break:break-word":
		return WrapBreakWord
	case "nowrap", "no-wrap", "none":
		return WrapNone
	default:
		return WrapAnywhere
	}
}
