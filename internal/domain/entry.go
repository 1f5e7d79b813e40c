package domain

// EntryKind 标记一条结构条目是文件还是目录。
// 值是稳定字符串（会写入 session/history JSON），不要改动。
const (
	KindFile      = "file"
	KindDirectory = "directory"
)

// StructureEntry 是结构文本解析出的一条目标条目。
//
// 不变量（实现必须遵守）：
// - RelPath 用 '/' 连接（与平台无关；落盘时再转平台分隔符）
// - RelPath 在一次解析结果内唯一
// - Depth 从 0 开始，等于 RelPath 的父层级数
type StructureEntry struct {
	RelPath string `json:"rel_path"`
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Depth   int    `json:"depth"`
}
