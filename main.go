// reelfit 把模板数据渲染为短视频静态帧：文本按区域自动适配字号，
// 所有测量收敛、帧门控释放之后才截取画面。
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ByLCY/reelfit/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd 组装命令树；--verbose 与 --config 对所有子命令生效。
func newRootCmd() *cobra.Command {
	var (
		verbose    bool
		configPath string
	)

	root := &cobra.Command{
		Use:           "reelfit",
		Short:         "按模板数据渲染自动适配字号的短视频帧",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			logger := newLogger(cmd.ErrOrStderr(), level)
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Debug("配置已加载", "variant", cfg.Fit.Variant, "debounce", cfg.Debounce(), "zoom", cfg.Zoom)
			ctx := withLogger(cmd.Context(), logger)
			cmd.SetContext(withConfig(ctx, cfg))
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")
	root.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径（默认尝试 "+config.DefaultPath+"）")

	root.AddCommand(newRenderCmd())
	root.AddCommand(newFitCmd())
	return root
}
