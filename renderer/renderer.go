package renderer

import (
	"fmt"
	"strings"

	"github.com/ByLCY/reelfit/layout"
)

// Format 是帧输出格式。
type Format string

const (
	PNG Format = "png"
	PDF Format = "pdf"
	SVG Format = "svg"
)

// ParseFormat 解析输出格式名称（不区分大小写）。
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case PNG, PDF, SVG:
		return f, nil
	case "":
		return PNG, nil
	default:
		return "", fmt.Errorf("不支持的输出格式 %q（可选 png/pdf/svg）", s)
	}
}

// Renderer 将帧布局输出为最终文件。
// Render 返回生成的二进制数据以及可能的错误。
type Renderer interface {
	Render(frame *layout.Frame, format Format) ([]byte, error)
}
