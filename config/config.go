// Package config 读取命令行工具的 TOML 配置（默认 reelfit.toml）。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ByLCY/reelfit/fit"
	"github.com/ByLCY/reelfit/renderer"
)

// DefaultPath 是未指定 --config 时尝试读取的文件。
const DefaultPath = "reelfit.toml"

// Config 是 CLI 的全部可配置项，命令行参数优先于配置文件。
type Config struct {
	Out    string  `toml:"out"`
	Format string  `toml:"format"`
	Scene  string  `toml:"scene"`
	Zoom   float64 `toml:"zoom"`
	Fonts  string  `toml:"fonts"`
	Fit    Fit     `toml:"fit"`
}

// Fit 对应 [fit] 表。
type Fit struct {
	Variant    string `toml:"variant"`
	DebounceMS int    `toml:"debounce_ms"`
	Retries    int    `toml:"retries"`
	BudgetMS   int    `toml:"budget_ms"`
}

// Default 返回内置默认值。
func Default() Config {
	return Config{
		Out:    "out",
		Format: string(renderer.PNG),
		Zoom:   1,
		Fonts:  ".",
		Fit: Fit{
			Variant:    fit.Adaptive.String(),
			DebounceMS: int(fit.DebounceDelay / time.Millisecond),
			Retries:    fit.RetryCount,
		},
	}
}

// Load 在默认值之上叠加 path 中的配置。path 为空时尝试 DefaultPath，文件不存在不算错误。
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("读取配置 %s 失败: %w", path, err)
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, fmt.Errorf("解析配置 %s 失败: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("配置 %s 含有未知字段: %v", path, undecoded)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate 检查取值范围。
func (c Config) Validate() error {
	if _, err := renderer.ParseFormat(c.Format); err != nil {
		return err
	}
	if _, ok := fit.ParseVariant(c.Fit.Variant); !ok {
		return fmt.Errorf("未知的适配策略 %q", c.Fit.Variant)
	}
	if c.Zoom <= 0 {
		return fmt.Errorf("zoom 必须为正数，实际 %g", c.Zoom)
	}
	if c.Fit.DebounceMS < 0 || c.Fit.BudgetMS < 0 || c.Fit.Retries < 0 {
		return fmt.Errorf("debounce_ms、budget_ms 与 retries 不能为负数")
	}
	return nil
}

// Variant 返回解析后的适配策略。
func (c Config) Variant() fit.Variant {
	v, _ := fit.ParseVariant(c.Fit.Variant)
	return v
}

// Debounce 返回防抖窗口。
func (c Config) Debounce() time.Duration { return time.Duration(c.Fit.DebounceMS) * time.Millisecond }

// Retries 返回传给 fit.Options 的重试次数：配置中的 0 表示关闭重试。
func (c Config) Retries() int {
	if c.Fit.Retries == 0 {
		return -1
	}
	return c.Fit.Retries
}

// Budget 返回等待收敛的虚拟时间上限，0 表示使用默认值。
func (c Config) Budget() time.Duration { return time.Duration(c.Fit.BudgetMS) * time.Millisecond }
