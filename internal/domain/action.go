package domain

import "time"

// ActionKind 是单个落盘动作的类型（稳定字符串，写入 history JSON）。
const (
	ActionCreateDir  = "create_dir"
	ActionCreateFile = "create_file"
	ActionCopy       = "copy"
	ActionMove       = "move"
)

// OpKind 是操作类型的封闭枚举：每种类型对应一个确定的撤销策略。
// 新增类型时必须同步扩展 history 包的撤销分发，否则撤销会拒绝执行。
type OpKind string

const (
	OpCreateStructure OpKind = "create_structure"
	OpOrganizeCopy    OpKind = "organize_copy"
	OpOrganizeMove    OpKind = "organize_move"
	OpMoveFiles       OpKind = "move_files"
	OpPackageZip      OpKind = "package_zip"
)

// ValidOpKind 判断 k 是否属于封闭枚举（读取外部 history 文件时用）。
func ValidOpKind(k OpKind) bool {
	switch k {
	case OpCreateStructure, OpOrganizeCopy, OpOrganizeMove, OpMoveFiles, OpPackageZip:
		return true
	default:
		return false
	}
}

// ActionRecord 记录一次已生效的落盘动作。
// Source 仅 copy/move 有值；create_* 只有 Target。
type ActionRecord struct {
	Kind   string    `json:"kind"`
	Source string    `json:"source,omitempty"`
	Target string    `json:"target"`
	Time   time.Time `json:"time"`
}

// OperationRecord 是写入操作历史的一条记录（撤销的输入）。
//
// 约束：
// - Actions 按生效顺序排列；撤销必须倒序遍历
// - Time 必须是 UTC
type OperationRecord struct {
	ID      string         `json:"id"`
	Kind    OpKind         `json:"kind"`
	Time    time.Time      `json:"time"`
	BaseDir string         `json:"base_dir"`
	Actions []ActionRecord `json:"actions"`
}
