package fonts

import "testing"

func TestLoadKnownFonts(t *testing.T) {
	for _, name := range Names() {
		data, err := Load("embed:" + name)
		if err != nil {
			t.Fatalf("加载 %s 失败: %v", name, err)
		}
		if len(data) == 0 {
			t.Fatalf("%s 字体数据为空", name)
		}
	}
}

func TestLoadUnknownFont(t *testing.T) {
	if _, err := Load("embed:Inter/static/Inter-Regular.ttf"); err == nil {
		t.Fatalf("未知字体应返回错误")
	}
}
