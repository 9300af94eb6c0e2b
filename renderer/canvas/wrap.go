package canvasrenderer

import (
	"math"
	"strings"
	"unicode"

	"github.com/ByLCY/reelfit/layout"
)

// textWidther 是换行所需的最小测量能力，*canvas.FontFace 满足该接口。
type textWidther interface {
	TextWidth(s string) float64
}

// wrapLines 按 wrap 策略把 content 拆成行。所有行内容按顺序拼接后等于去掉 \r、\n 的 content；
// 行宽不计入行尾悬挂的空白。
func wrapLines(content string, width float64, face textWidther, wrap string) []layout.TextLine {
	limit := width
	if limit <= 0 {
		limit = math.MaxFloat64
	}
	content = strings.ReplaceAll(content, "\r", "")

	switch wrap {
	case layout.WrapNone:
		// 仅按显式换行划分，不基于宽度折行
		parts := strings.Split(content, "\n")
		lines := make([]layout.TextLine, 0, len(parts))
		for _, p := range parts {
			lines = append(lines, layout.TextLine{Content: p, Width: face.TextWidth(strings.TrimRight(p, " \t"))})
		}
		return lines
	case layout.WrapBreakWord:
		return wrapRunes(content, limit, face)
	default:
		return wrapTokens(content, limit, face)
	}
}

// wrapRunes 忽略空白机会，纯按宽度切分（但仍然尊重显式换行）。
func wrapRunes(content string, limit float64, face textWidther) []layout.TextLine {
	var lines []layout.TextLine
	var builder strings.Builder
	current := 0.0
	emit := func() {
		lines = append(lines, layout.TextLine{Content: builder.String(), Width: current})
		builder.Reset()
		current = 0
	}
	for _, r := range content {
		if r == '\n' {
			emit()
			continue
		}
		s := string(r)
		cw := face.TextWidth(s)
		if builder.Len() > 0 && current+cw > limit && !unicode.IsSpace(r) {
			emit()
		}
		builder.WriteString(s)
		if !unicode.IsSpace(r) {
			current += cw
		}
	}
	emit()
	return lines
}

// wrapTokens 优先在空白处分割，单词超过限制时在词内拆分；行尾空白悬挂在当前行。
func wrapTokens(content string, limit float64, face textWidther) []layout.TextLine {
	var (
		lines      []layout.TextLine
		builder    strings.Builder
		lineWidth  float64 // 不含悬挂空白
		spaceWidth float64 // 尚未确认的空白宽度
		hasWord    bool
	)
	emit := func() {
		lines = append(lines, layout.TextLine{Content: builder.String(), Width: lineWidth})
		builder.Reset()
		lineWidth, spaceWidth, hasWord = 0, 0, false
	}
	place := func(word string, w float64) {
		if hasWord && lineWidth+spaceWidth+w > limit {
			emit()
		}
		builder.WriteString(word)
		lineWidth += spaceWidth + w
		spaceWidth = 0
		hasWord = true
	}

	for _, token := range tokenizeContent(content) {
		if token == "\n" {
			emit()
			continue
		}
		if isSpaceToken(token) {
			builder.WriteString(token)
			spaceWidth += face.TextWidth(token)
			continue
		}
		tw := face.TextWidth(token)
		if tw <= limit {
			place(token, tw)
			continue
		}
		for _, chunk := range splitTokenByWidth(token, limit, face) {
			place(chunk, face.TextWidth(chunk))
		}
	}
	emit()
	return lines
}

func isSpaceToken(token string) bool {
	for _, r := range token {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return token != ""
}

func tokenizeContent(s string) []string {
	var tokens []string
	var builder strings.Builder
	lastWasSpace := false
	flush := func() {
		if builder.Len() == 0 {
			return
		}
		tokens = append(tokens, builder.String())
		builder.Reset()
	}

	for _, r := range s {
		if r == '\n' {
			flush()
			tokens = append(tokens, "\n")
			lastWasSpace = false
			continue
		}
		isSpace := unicode.IsSpace(r)
		if builder.Len() == 0 {
			lastWasSpace = isSpace
		} else if lastWasSpace != isSpace {
			flush()
			lastWasSpace = isSpace
		}
		builder.WriteRune(r)
	}
	flush()
	return tokens
}

func splitTokenByWidth(token string, limit float64, face textWidther) []string {
	if limit <= 0 || limit == math.MaxFloat64 {
		return []string{token}
	}
	var parts []string
	var current []rune
	for _, r := range token {
		current = append(current, r)
		if len(current) > 1 && face.TextWidth(string(current)) > limit {
			parts = append(parts, string(current[:len(current)-1]))
			current = current[len(current)-1:]
		}
	}
	if len(current) > 0 {
		parts = append(parts, string(current))
	}
	return parts
}
