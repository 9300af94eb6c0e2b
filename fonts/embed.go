// Package fonts 提供随二进制分发的内置字体，名称形如 "embed:go/regular"。
package fonts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
)

// Default 是场景未声明字体时使用的内置字体。
const Default = "go/regular"

var builtin = map[string][]byte{
	"go/regular":           goregular.TTF,
	"go/medium":            gomedium.TTF,
	"go/bold":              gobold.TTF,
	"latin-modern/regular": lmroman10regular.TTF,
	"latin-modern/bold":    lmroman10bold.TTF,
}

// Load 返回内置字体的字节数据，path 可写为 "embed:go/bold" 或直接 "go/bold"。
func Load(path string) ([]byte, error) {
	name := strings.ToLower(strings.TrimPrefix(path, "embed:"))
	data, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("找不到内置字体 %s（可用：%s）", name, strings.Join(Names(), ", "))
	}
	return data, nil
}

// Names 返回所有内置字体名称。
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
