package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jigar48949/Files-and-folder-directory/internal/infra/fsx"
)

const (
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// DefaultMode 是整理方式的最终默认值（当 CLI 与配置文件都未指定时）。
	DefaultMode = "copy"

	fileName = "config.json"
)

// CLIArgs 只包含 CLI 暴露的配置项，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --mode copy 必须能覆盖 config.default_mode=move。
type CLIArgs struct {
	DataDir string

	Mode    string
	ModeSet bool

	ExcludeDirs    []string
	ExcludeDirsSet bool
}

// FileConfig 对应 config.json 的解析结构。
// 写回（SaveLastDirectory）复用同一结构，零值字段不落盘。
type FileConfig struct {
	DataDir       string   `json:"data_dir,omitempty"`
	LastDirectory string   `json:"last_directory,omitempty"`
	DefaultMode   string   `json:"default_mode,omitempty"`
	ExcludeDirs   []string `json:"exclude_dirs,omitempty"`
	HistoryLimit  int      `json:"history_limit,omitempty"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置
// （实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// DataDir 是状态文件（session/history/templates/锁）的所在目录。
	DataDir string

	// LastDirectory 是上一次整理/铺设用过的基础目录（可能已不存在，使用前要查验）。
	LastDirectory string

	DefaultMode  string
	ExcludeDirs  []string
	HistoryLimit int
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
	}
	return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 读取 <configDir>/config.json 并与 CLI 参数合并为最终配置。
// 配置文件不存在不是错误，全部字段走默认值。
//
// 覆盖优先级（固定）：
// - data_dir：CLI --data-dir > config.data_dir > configDir 本身
// - default_mode：CLI --mode > config > 默认 copy
// - exclude_dirs：CLI --exclude > config > 空
// - last_directory / history_limit：仅由 config 控制（CLI 不暴露）
func LoadEffective(configDir string, cli CLIArgs) (EffectiveConfig, error) {
	configDir = filepath.Clean(strings.TrimSpace(configDir))
	if strings.TrimSpace(cli.DataDir) != "" {
		// 用户显式给了 --data-dir：配置文件也从那里找。
		abs, err := filepath.Abs(strings.TrimSpace(cli.DataDir))
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cli.DataDir, Err: err}
		}
		configDir = abs
	}

	cfgPath := filepath.Join(configDir, fileName)
	fc, _, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	return merge(configDir, cli, fc, cfgPath)
}

func merge(configDir string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	// data_dir：CLI 已在上层生效（configDir 即它）；这里只看 config 的转指。
	dataDir := configDir
	if strings.TrimSpace(cli.DataDir) == "" && strings.TrimSpace(fc.DataDir) != "" {
		dataDir = absCleanFrom(configDir, fc.DataDir)
	}

	// default_mode：CLI > config > 默认
	mode := DefaultMode
	if cli.ModeSet {
		mode = cli.Mode
	} else if strings.TrimSpace(fc.DefaultMode) != "" {
		mode = fc.DefaultMode
	}
	if err := validateMode(mode); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	// exclude_dirs：CLI > config > 空
	excludes := fc.ExcludeDirs
	if cli.ExcludeDirsSet {
		excludes = cli.ExcludeDirs
	}

	// history_limit：范围约定 [0, 10000]；0 表示用内置默认，超出截断。
	limit := fc.HistoryLimit
	if limit < 0 {
		limit = 0
	}
	if limit > 10000 {
		limit = 10000
	}

	last := strings.TrimSpace(fc.LastDirectory)
	if last != "" {
		last = absCleanFrom(configDir, last)
	}

	return EffectiveConfig{
		DataDir:       dataDir,
		LastDirectory: last,
		DefaultMode:   mode,
		ExcludeDirs:   append([]string(nil), excludes...),
		HistoryLimit:  limit,
	}, nil
}

// SaveLastDirectory 把 last_directory 写回 config.json，其余字段原样保留。
// 文件不存在时新建。
func SaveLastDirectory(configDir, dir string) error {
	cfgPath := filepath.Join(configDir, fileName)
	fc, _, err := readFileConfig(cfgPath)
	if err != nil {
		return &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	fc.LastDirectory = dir
	b, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomicReplace(configDir, fileName, b)
}

func validateMode(m string) error {
	switch m {
	case "copy", "move":
		return nil
	case "":
		return fmt.Errorf("default_mode 不能为空")
	default:
		return fmt.Errorf("default_mode 只能是 copy 或 move，实际是 %q", m)
	}
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
// - p 若已是绝对路径：直接 Clean
// - p 若是相对路径：Join(base, p) 后 Clean
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
