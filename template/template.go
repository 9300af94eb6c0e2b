// Package template 定义短视频模板的数据格式：读取 JSON、校验字段，
// 并提供画幅尺寸与对比色等辅助计算。
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ByLCY/reelfit/layout"
)

// ErrInvalid 表示模板数据未通过校验。
var ErrInvalid = errors.New("模板数据无效")

// 支持的画幅比例。
const (
	RatioPortrait  = "9:16"
	RatioSquare    = "1:1"
	RatioLandscape = "16:9"

	baseSize = 1080
)

// Highlight 是一条高亮卖点。Text 可以为空，空文本的节点不参与测量。
type Highlight struct {
	Text    string `json:"text"`
	BgColor string `json:"bgColor" validate:"required,hexcolor"`
}

// VideoData 是一条视频的全部输入数据。
type VideoData struct {
	Title      string      `json:"title"`
	SubTitle   string      `json:"subTitle"`
	Highlights []Highlight `json:"highlights" validate:"dive"`
	Ratio      string      `json:"ratio" validate:"required,oneof=9:16 1:1 16:9"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验字段，失败时返回包装了 ErrInvalid 的错误。
func (d VideoData) Validate() error {
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Decode 从 JSON 解析并校验模板数据。
func Decode(raw []byte) (VideoData, error) {
	var d VideoData
	if err := json.Unmarshal(raw, &d); err != nil {
		return VideoData{}, fmt.Errorf("%w: 解析 JSON 失败: %v", ErrInvalid, err)
	}
	if err := d.Validate(); err != nil {
		return VideoData{}, err
	}
	return d, nil
}

// Load 读取 path 指向的 JSON 文件。
func Load(path string) (VideoData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return VideoData{}, fmt.Errorf("读取模板数据 %s 失败: %w", path, err)
	}
	d, err := Decode(raw)
	if err != nil {
		return VideoData{}, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Dimensions 返回画幅对应的像素尺寸，短边固定为 1080；未知比例按 16:9 处理。
func Dimensions(ratio string) (width, height float64) {
	long := math.Round(baseSize * 16.0 / 9.0)
	switch ratio {
	case RatioPortrait:
		return baseSize, long
	case RatioSquare:
		return baseSize, baseSize
	default:
		return long, baseSize
	}
}

// ParseColor 解析 #rgb、#rrggbb 或带透明度的 #rrggbbaa。
func ParseColor(s string) (layout.Color, error) {
	s = strings.TrimSpace(s)
	alpha := 0
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return layout.Color{}, fmt.Errorf("颜色 %q 的透明度无效: %w", s, err)
		}
		// layout.Color 中 A=0 表示不透明，完全透明用最小的非零值近似。
		alpha = max(int(a), 1)
		if a == 255 {
			alpha = 0
		}
		s = s[:7]
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return layout.Color{}, fmt.Errorf("无法解析颜色 %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return layout.Color{R: int(r), G: int(g), B: int(b), A: alpha}, nil
}

// Luminance 按 0.299R + 0.587G + 0.114B 计算亮度（0-1）。
func Luminance(hex string) (float64, error) {
	c, err := ParseColor(hex)
	if err != nil {
		return 0, err
	}
	return (0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)) / 255, nil
}

// ContrastColor 返回在 bg 上可读的文字颜色：亮背景用黑色，暗背景用白色。
// 无法解析的颜色按暗背景处理。
func ContrastColor(bg string) string {
	l, err := Luminance(bg)
	if err == nil && l > 0.5 {
		return "#000000"
	}
	return "#ffffff"
}
