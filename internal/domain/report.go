package domain

import (
	"encoding/json"
	"time"
)

// 条目级结果状态（对外稳定输出）。
const (
	ItemProcessed  = "processed"
	ItemSkipped    = "skipped"
	ItemFailed     = "failed"
	ItemRolledBack = "rolled_back"
)

// 条目级 error_code（写入 Report.Items[].ErrorCode）。
const (
	ErrCodeSourceMissing  = "source_missing"
	ErrCodeTargetConflict = "target_conflict"
	ErrCodeIOFailed       = "io_failed"
)

// Report 是所有落盘操作（organize/create/move/package）的对外稳定输出结构。
// stdout JSON 与 CLI 摘要都由它渲染。
type Report struct {
	Op      OpKind `json:"op"`
	BaseDir string `json:"base_dir"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Cancelled 表示操作被用户取消：已生效的条目保留，剩余条目未处理。
	// 取消不是错误，调用方据此区分退出码。
	Cancelled bool `json:"cancelled"`

	Summary ReportSummary `json:"summary"`
	Items   []ItemResult  `json:"items"`

	// Warnings 是条目之外的提示（例如空目录清单、回滚说明）。
	Warnings []string `json:"warnings"`
}

type ReportSummary struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

// ItemResult 是单个条目的处理结果。
// Src 仅 copy/move 类条目有值；create 类条目只有 Dst。
type ItemResult struct {
	Src    string `json:"src,omitempty"`
	Dst    string `json:"dst"`
	Status string `json:"status"`

	ErrorCode string `json:"error_code,omitempty"`
	Note      string `json:"note,omitempty"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) summary 由 items 计算得出（Total = len(items)）
// 3) Items/Warnings 为 nil 时归一化为空切片（JSON 输出 [] 而非 null）
func (r *Report) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	if r.Items == nil {
		r.Items = []ItemResult{}
	}
	if r.Warnings == nil {
		r.Warnings = []string{}
	}

	var s ReportSummary
	s.Total = len(r.Items)
	for _, it := range r.Items {
		switch it.Status {
		case ItemProcessed:
			s.Processed++
		case ItemSkipped:
			s.Skipped++
		case ItemFailed, ItemRolledBack:
			// 回滚本质上是一次失败的条目，汇总口径并入 failed。
			s.Failed++
		}
	}
	r.Summary = s
}

// MarshalJSON 仅用于集中约束输出的稳定性（避免未来不小心引入非确定字段）。
// 当前只是透传 encoding/json 的默认行为。
func (r Report) MarshalJSON() ([]byte, error) {
	type Alias Report
	return json.Marshal(Alias(r))
}

// DirStats 是目录体检结果（stats 命令）。
type DirStats struct {
	Dir        string `json:"dir"`
	Files      int    `json:"files"`
	Dirs       int    `json:"dirs"`
	TotalBytes int64  `json:"total_bytes"`
}

// MatchPair 记录一次自动匹配命中（CLI 按行展示）。
type MatchPair struct {
	RelPath string `json:"rel_path"`
	Source  string `json:"source"`
	Score   int    `json:"score"`
}

// MatchOutcome 是一轮自动匹配的汇总。
type MatchOutcome struct {
	Matched   int         `json:"matched"`
	Cancelled bool        `json:"cancelled"`
	Pairs     []MatchPair `json:"pairs"`
}
