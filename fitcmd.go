package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ByLCY/reelfit/config"
	"github.com/ByLCY/reelfit/fit"
	"github.com/ByLCY/reelfit/host"
	"github.com/ByLCY/reelfit/layout"
	canvasrenderer "github.com/ByLCY/reelfit/renderer/canvas"
)

type fitOpts struct {
	width      float64
	height     float64
	font       string
	em         float64
	lineHeight float64
	wrap       string
	variant    string
	zoom       float64
	json       bool
}

// fitReport 是 fit 命令的输出。
type fitReport struct {
	Scale    float64  `json:"scale"`
	FontPx   float64  `json:"fontPx"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Passes   int      `json:"passes"`
	Segments []string `json:"segments"`
}

func newFitCmd() *cobra.Command {
	var opts fitOpts

	cmd := &cobra.Command{
		Use:   "fit <text>",
		Short: "把一段文本适配进给定区域，输出倍率与视觉行切分",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromContext(cmd.Context())
			if !cmd.Flags().Changed("variant") {
				opts.variant = cfg.Fit.Variant
			}
			if !cmd.Flags().Changed("zoom") {
				opts.zoom = cfg.Zoom
			}
			return runFit(cmd.Context(), cmd.OutOrStdout(), args[0], opts, cfg)
		},
	}

	cmd.Flags().Float64Var(&opts.width, "width", 320, "区域宽度（px）")
	cmd.Flags().Float64Var(&opts.height, "height", 60, "区域高度（px）")
	cmd.Flags().StringVar(&opts.font, "font", "embed:go/regular", "字体来源：文件路径或 embed:*")
	cmd.Flags().Float64Var(&opts.em, "em", 1, "文字相对元素字号的倍数")
	cmd.Flags().Float64Var(&opts.lineHeight, "line-height", 1.2, "行高倍数")
	cmd.Flags().StringVar(&opts.wrap, "wrap", layout.WrapBreakWord, "换行策略: break-word, anywhere, nowrap")
	cmd.Flags().StringVar(&opts.variant, "variant", "", "适配策略: block, adaptive")
	cmd.Flags().Float64Var(&opts.zoom, "zoom", 1, "显示缩放")
	cmd.Flags().BoolVar(&opts.json, "json", false, "以 JSON 输出")

	return cmd
}

func runFit(ctx context.Context, w io.Writer, text string, opts fitOpts, cfg config.Config) error {
	logger := loggerFromContext(ctx)

	variant, ok := fit.ParseVariant(opts.variant)
	if !ok {
		return fmt.Errorf("未知的适配策略 %q", opts.variant)
	}
	if opts.width <= 0 || opts.height <= 0 {
		return fmt.Errorf("区域尺寸必须为正数: %gx%g", opts.width, opts.height)
	}
	if opts.zoom <= 0 {
		return fmt.Errorf("zoom 必须为正数，实际 %g", opts.zoom)
	}

	loop := host.NewLoop()
	pipe := host.NewPipeline(logger)
	r := canvasrenderer.NewRenderer(cfg.Fonts)

	wrapWidth := opts.width
	if layout.NormalizeWrap(opts.wrap) == layout.WrapNone {
		wrapWidth = 0
	}
	el := r.NewElement(canvasrenderer.ElementConfig{
		Text:       text,
		Font:       layout.FontResource{Name: "Body", Src: opts.font},
		Em:         opts.em,
		LineHeight: opts.lineHeight,
		WrapWidth:  wrapWidth,
		Wrap:       opts.wrap,
		Zoom:       opts.zoom,
		Logger:     logger,
	}, loop)

	fitter := fit.NewFitter(el, loop, pipe, fit.Options{
		Variant:      variant,
		Debounce:     cfg.Debounce(),
		Retries:      cfg.Retries(),
		DisplayScale: el.Zoom,
		OnScale:      func(scale float64) { el.SetInheritedFontSize(scale * fit.BaseFontSize) },
		Logger:       logger,
	})
	fitter.SetBounds(opts.width*opts.zoom, opts.height*opts.zoom)
	lines := fit.NewLineTracker(el, loop, pipe, fit.LineOptions{
		Debounce: cfg.Debounce(),
		Logger:   logger,
	})
	fitter.Mount()
	lines.Mount()
	defer fitter.Dispose()
	defer lines.Dispose()

	if err := pipe.Settle(ctx, loop, cfg.Budget()); err != nil {
		return err
	}
	if err := el.Err(); err != nil {
		return err
	}

	sw, sh := el.ScrollSize()
	report := fitReport{
		Scale:    fitter.Scale(),
		FontPx:   el.EffectiveFontSize(),
		Width:    sw / opts.zoom,
		Height:   sh / opts.zoom,
		Passes:   fitter.Passes(),
		Segments: lines.Segments(),
	}
	logger.Debug("适配完成", "frames", loop.Frames(), "elapsed", loop.Now())

	if opts.json {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	fmt.Fprintf(w, "scale\t%.3f\n", report.Scale)
	fmt.Fprintf(w, "font\t%.2fpx\n", report.FontPx)
	fmt.Fprintf(w, "size\t%.1fx%.1f\n", report.Width, report.Height)
	for i, seg := range report.Segments {
		fmt.Fprintf(w, "line %d\t%q\n", i+1, seg)
	}
	return nil
}
