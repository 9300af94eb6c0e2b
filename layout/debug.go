package layout

import (
	"encoding/json"
	"os"
)

// WriteDebugJSON 将帧布局输出为 JSON，便于调试或可视化。
func WriteDebugJSON(frame *Frame, path string) error {
	if frame == nil {
		return nil
	}
	data, err := json.MarshalIndent(frame, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
