package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"github.com/tdewolff/canvas/renderers/svg"

	"github.com/ByLCY/reelfit/fonts"
	"github.com/ByLCY/reelfit/layout"
	"github.com/ByLCY/reelfit/renderer"
)

// Renderer 基于 github.com/tdewolff/canvas 测量文本并绘制帧。
// 画布坐标单位按 px 解释：字号 px 会换算为 canvas 所需的 pt。
type Renderer struct {
	baseDir string

	fontBlobs map[string][]byte // by unique name

	fontMu         sync.Mutex
	fontFamilies   map[string]*fontFamilyEntry
	fallbackFamily *canvas.FontFamily
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	Fonts   map[string]Resource // fonts accessible via built-in:<name>
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a canvas-based renderer rooted at baseDir for resolving font paths.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected fonts and optional baseDir.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:      opts.BaseDir,
		fontBlobs:    map[string][]byte{},
		fontFamilies: map[string]*fontFamilyEntry{},
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, _ := os.ReadFile(res.Path) // 读取失败时在真正使用该字体时报错
			if len(data) > 0 {
				r.fontBlobs[name] = data
			}
		}
	}
	return r
}

// Render 将帧绘制为指定格式的字节数据。
func (r *Renderer) Render(frame *layout.Frame, format renderer.Format) ([]byte, error) {
	if frame == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, fmt.Errorf("帧尺寸无效: %gx%g", frame.Width, frame.Height)
	}

	c := canvas.New(frame.Width, frame.Height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点
	if err := r.drawFrame(ctx, frame); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch format {
	case renderer.PDF:
		writer := pdf.New(&buf, frame.Width, frame.Height, nil)
		writer.SetInfo(frame.Name, "", "", "", "reelfit")
		c.RenderTo(writer)
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("写入 PDF 失败: %w", err)
		}
	case renderer.SVG:
		writer := svg.New(&buf, frame.Width, frame.Height, nil)
		c.RenderTo(writer)
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("写入 SVG 失败: %w", err)
		}
	case renderer.PNG, "":
		img := rasterizer.Draw(c, canvas.DPMM(1.0), canvas.DefaultColorSpace)
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("编码 PNG 失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("不支持的输出格式 %q", format)
	}
	return buf.Bytes(), nil
}

// LayoutLines 实现 layout.Typesetter 接口，使用贪心换行算法。
// 约定：width/fontSize/lineHeight 均为 px；lineHeight <= 0 时使用字体自身的行高。
func (r *Renderer) LayoutLines(content string, width float64, font layout.FontResource, fontSize, lineHeight float64, wrap string) ([]layout.TextLine, error) {
	face, err := r.fontFace(font, fontSize, layout.Color{R: 30, G: 30, B: 30})
	if err != nil {
		return nil, err
	}
	lines := wrapLines(content, width, face, layout.NormalizeWrap(wrap))
	height := lineHeight
	if height <= 0 {
		height = face.Metrics().LineHeight
	}
	for i := range lines {
		lines[i].Height = height
	}
	return lines, nil
}

func (r *Renderer) drawFrame(ctx *canvas.Context, frame *layout.Frame) error {
	ctx.SetFillColor(colorFromLayout(frame.Background))
	ctx.SetStrokeColor(color.RGBA{})
	ctx.DrawPath(0, 0, canvas.Rectangle(frame.Width, frame.Height))

	// 背景形状在文本之前绘制
	for _, rc := range frame.Rects {
		ctx.SetFillColor(colorFromLayout(rc.Fill))
		ctx.SetStrokeColor(color.RGBA{})
		if rc.Radius > 0 {
			ctx.DrawPath(rc.X, rc.Y, canvas.RoundedRectangle(rc.Width, rc.Height, rc.Radius))
		} else {
			ctx.DrawPath(rc.X, rc.Y, canvas.Rectangle(rc.Width, rc.Height))
		}
	}

	for _, tb := range frame.Texts {
		fontRes := resolveFontResource(tb.Font, frame.Fonts)
		if err := r.drawTextBox(ctx, tb, fontRes); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox, fontRes layout.FontResource) error {
	if tb.FontSize <= 0 {
		return nil
	}
	face, err := r.fontFace(fontRes, tb.FontSize, tb.Color)
	if err != nil {
		return err
	}

	lines := tb.Lines
	if len(lines) == 0 {
		lines = []layout.TextLine{{Content: tb.Content, Width: face.TextWidth(tb.Content), Height: tb.LineHeight}}
	}

	var textAlign canvas.TextAlign
	var anchorX float64
	switch strings.ToLower(tb.Align) {
	case "left", "start":
		textAlign = canvas.Left
		anchorX = tb.X
	case "right", "end":
		textAlign = canvas.Right
		anchorX = tb.X + tb.Width
	default:
		textAlign = canvas.Center
		anchorX = tb.X + tb.Width/2
	}

	metrics := face.Metrics()
	total := 0.0
	for _, line := range lines {
		total += lineBoxHeight(line, tb, metrics)
	}
	// 文本块在盒子内垂直居中
	cursorY := tb.Y + (tb.Height-total)/2
	for _, line := range lines {
		lh := lineBoxHeight(line, tb, metrics)
		// 行盒内部按 CSS 的半行距分配：基线 = 行顶 + 半行距 + 上升部
		halfLeading := (lh - (metrics.Ascent + metrics.Descent)) / 2
		baseline := cursorY + halfLeading + metrics.Ascent
		content := strings.TrimRight(line.Content, " \t")
		ctx.DrawText(anchorX, baseline, canvas.NewTextLine(face, content, textAlign))
		cursorY += lh
	}
	return nil
}

func lineBoxHeight(line layout.TextLine, tb layout.TextBox, metrics canvas.FontMetrics) float64 {
	switch {
	case line.Height > 0:
		return line.Height
	case tb.LineHeight > 0:
		return tb.LineHeight
	default:
		return metrics.LineHeight
	}
}

// fontFace 以 px 字号创建字体面。
func (r *Renderer) fontFace(font layout.FontResource, sizePx float64, col layout.Color) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(toPt(sizePx), colorFromLayout(col), style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Style)
	familyName := font.Family
	if familyName == "" {
		familyName = font.Name
	}
	if familyName == "" {
		familyName = "Body"
	}
	family := canvas.NewFontFamily(familyName)

	if err := r.loadFontIntoFamily(family, font, style); err != nil {
		fallback, fbStyle, fbErr := r.fallback()
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		r.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: fbStyle}
		return fallback, fbStyle, nil
	}

	entry := &fontFamilyEntry{family: family, style: style}
	r.fontFamilies[key] = entry
	return family, style, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontResource, style canvas.FontStyle) error {
	data, err := r.loadFontBytes(font)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

func (r *Renderer) loadFontBytes(font layout.FontResource) ([]byte, error) {
	src := font.Src
	if src == "" {
		src = "embed:" + fonts.Default
	}
	if strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:") {
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		if blob, ok := r.fontBlobs[name]; ok {
			return blob, nil
		}
		return nil, fmt.Errorf("找不到注入字体资源 built-in:%s", name)
	}
	if strings.HasPrefix(src, "embed:") {
		return fonts.Load(src)
	}
	path := src
	if r.baseDir == "" && !filepath.IsAbs(path) {
		return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 built-in: 或 embed:）", src)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	return os.ReadFile(path)
}

func (r *Renderer) fallback() (*canvas.FontFamily, canvas.FontStyle, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, canvas.FontRegular, nil
	}
	data, err := fonts.Load(fonts.Default)
	if err != nil {
		return nil, canvas.FontRegular, err
	}
	family := canvas.NewFontFamily("reelfit-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, canvas.FontRegular, err
	}
	r.fallbackFamily = family
	return family, canvas.FontRegular, nil
}

func resolveFontResource(name string, fonts map[string]layout.FontResource) layout.FontResource {
	if font, ok := fonts[name]; ok {
		return font
	}
	if font, ok := fonts["Body"]; ok {
		return font
	}
	return layout.FontResource{Name: name}
}

// parseFontStyle 接受 CSS 风格的字重（400/500/600）或名称（bold/medium）。
func parseFontStyle(style string) canvas.FontStyle {
	s := strings.ToLower(strings.TrimSpace(style))
	result := canvas.FontRegular
	switch {
	case s == "":
	case strings.Contains(s, "black"), s == "900":
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"), s == "800":
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"), s == "600":
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"), s == "700":
		result = canvas.FontBold
	case strings.Contains(s, "medium"), s == "500":
		result = canvas.FontMedium
	case strings.Contains(s, "light"), s == "300":
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(font layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s", font.Name, font.Src, font.Style)
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, c.Alpha())
}

// toPt 把画布单位下的 px 字号换算为 canvas 字体面需要的 pt。
func toPt(px float64) float64 { return px * layout.MmToPt }
