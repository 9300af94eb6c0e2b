package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ByLCY/reelfit/config"
	"github.com/ByLCY/reelfit/layout"
	"github.com/ByLCY/reelfit/renderer"
	canvasrenderer "github.com/ByLCY/reelfit/renderer/canvas"
	"github.com/ByLCY/reelfit/scene"
	"github.com/ByLCY/reelfit/template"
)

type renderOpts struct {
	data   string
	out    string
	format string
	scene  string
	fonts  string
	zoom   float64
	debug  bool
}

func newRenderCmd() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render",
		Short: "渲染匹配 --data 的每个 JSON 文件，每条高亮输出一帧",
		Long: `render 读取模板数据（title/subTitle/highlights/ratio），按场景文件布局文本，
等待所有字号适配与行切分完成后输出 <数据文件名>-<高亮下标>.<格式>。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromContext(cmd.Context())
			opts.applyConfig(cmd, cfg)
			return runRender(cmd.Context(), opts, cfg)
		},
	}

	cmd.Flags().StringVar(&opts.data, "data", "", "模板数据文件或 glob，支持 **，例如 data/**/*.json")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "输出目录")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "输出格式: png, pdf, svg")
	cmd.Flags().StringVar(&opts.scene, "scene", "", "场景文件，留空使用内置场景")
	cmd.Flags().StringVar(&opts.fonts, "fonts", "", "字体文件的根目录")
	cmd.Flags().Float64Var(&opts.zoom, "zoom", 0, "显示缩放，测量在缩放后的像素下进行")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "同时输出每帧的布局 JSON")
	_ = cmd.MarkFlagRequired("data")

	return cmd
}

// applyConfig 用配置补齐没有在命令行显式给出的参数。
func (o *renderOpts) applyConfig(cmd *cobra.Command, cfg config.Config) {
	flags := cmd.Flags()
	if !flags.Changed("out") {
		o.out = cfg.Out
	}
	if !flags.Changed("format") {
		o.format = cfg.Format
	}
	if !flags.Changed("scene") {
		o.scene = cfg.Scene
	}
	if !flags.Changed("fonts") {
		o.fonts = cfg.Fonts
	}
	if !flags.Changed("zoom") {
		o.zoom = cfg.Zoom
	}
}

func runRender(ctx context.Context, opts renderOpts, cfg config.Config) error {
	logger := loggerFromContext(ctx)

	files, err := doublestar.FilepathGlob(opts.data, doublestar.WithFilesOnly())
	if err != nil {
		return fmt.Errorf("无效的数据路径 %q: %w", opts.data, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("没有与 %s 匹配的数据文件", opts.data)
	}
	sort.Strings(files)

	format, err := renderer.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if opts.zoom <= 0 {
		return fmt.Errorf("zoom 必须为正数，实际 %g", opts.zoom)
	}
	spec, err := loadScene(opts.scene)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	r := canvasrenderer.NewRenderer(opts.fonts)
	failed := 0
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		prog := newProgress(logger)
		n, err := renderFile(ctx, logger, file, spec, r, format, opts, cfg)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("渲染失败", "data", file, "err", err)
			failed++
			continue
		}
		prog.done(fmt.Sprintf("%s: 输出 %d 帧", filepath.Base(file), n))
	}
	if failed == len(files) {
		return fmt.Errorf("全部 %d 个数据文件渲染失败", failed)
	}
	if failed > 0 {
		logger.Warn("部分数据文件渲染失败", "failed", failed, "total", len(files))
	}
	return nil
}

func loadScene(path string) (*scene.Spec, error) {
	if path == "" {
		return scene.Default(), nil
	}
	return scene.Load(path)
}

// renderFile 为一个数据文件输出全部帧，返回帧数。没有高亮时输出一帧。
func renderFile(ctx context.Context, logger *log.Logger, path string, spec *scene.Spec, r *canvasrenderer.Renderer, format renderer.Format, opts renderOpts, cfg config.Config) (int, error) {
	data, err := template.Load(path)
	if err != nil {
		return 0, err
	}
	stage, err := scene.Build(spec, data, scene.Options{
		Renderer: r,
		Variant:  cfg.Variant(),
		Debounce: cfg.Debounce(),
		Retries:  cfg.Retries(),
		Zoom:     opts.zoom,
		Budget:   cfg.Budget(),
		Logger:   logger.With("data", filepath.Base(path)),
	})
	if err != nil {
		return 0, err
	}
	defer stage.Close()

	count := max(1, len(data.Highlights))
	for i := range count {
		if err := stage.Select(i); err != nil {
			return i, err
		}
		if err := stage.Settle(ctx); err != nil {
			return i, err
		}
		name := frameName(path, i)
		frame, err := stage.Frame(name)
		if err != nil {
			return i, err
		}
		out, err := r.Render(frame, format)
		if err != nil {
			return i, fmt.Errorf("渲染帧 %s 失败: %w", name, err)
		}
		target := filepath.Join(opts.out, name+"."+string(format))
		if err := os.WriteFile(target, out, 0o644); err != nil {
			return i, fmt.Errorf("写入 %s 失败: %w", target, err)
		}
		if opts.debug {
			if err := layout.WriteDebugJSON(frame, filepath.Join(opts.out, name+".json")); err != nil {
				return i, fmt.Errorf("写入调试 JSON 失败: %w", err)
			}
		}
		logger.Debug("已输出帧", "file", target, "title", stage.Scale("title"))
	}
	return count, nil
}

// frameName 返回数据文件第 i 帧的文件名（不含扩展名）。
func frameName(dataPath string, i int) string {
	base := filepath.Base(dataPath)
	return fmt.Sprintf("%s-%d", strings.TrimSuffix(base, filepath.Ext(base)), i)
}
