package domain

import (
	"encoding/json"
	"fmt"
)

// 槽位状态（稳定字符串，写入 session JSON）。
// organized 是终态：move 完成后源文件已不在原处，重复执行不得再搬一次。
const (
	SlotMissing     = "missing"
	SlotAutoMatched = "auto_matched"
	SlotAssigned    = "assigned"
	SlotOrganized   = "organized"
)

// Slot 是骨架中的一个目标槽位。
//
// 约束：
// - 只有 KindFile 的槽位允许绑定 Source；目录槽位三个绑定字段恒为零值
// - Confidence 语义：手动指派恒为 100；自动匹配为原始分对 100 取模
type Slot struct {
	RelPath    string `json:"rel_path"`
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	Source     string `json:"source,omitempty"`
	Status     string `json:"status"`
	Confidence int    `json:"confidence"`
}

// Bound 表示槽位当前是否绑定了源文件。
func (s *Slot) Bound() bool { return s.Source != "" }

// Skeleton 是有序的槽位集合：迭代顺序 = 结构文本的行顺序。
// 按 RelPath 唯一索引；重建（重新解析后 Build）是破坏性的，旧绑定全部丢弃。
type Skeleton struct {
	slots []*Slot
	index map[string]int
}

func NewSkeleton() *Skeleton {
	return &Skeleton{
		slots: make([]*Slot, 0, 32),
		index: make(map[string]int, 32),
	}
}

// Add 追加一个槽位；RelPath 重复时报错（解析层已保证唯一，这里是最后防线）。
func (k *Skeleton) Add(s *Slot) error {
	if s == nil || s.RelPath == "" {
		return fmt.Errorf("槽位缺少 rel_path")
	}
	if _, ok := k.index[s.RelPath]; ok {
		return fmt.Errorf("重复的 rel_path：%q", s.RelPath)
	}
	k.index[s.RelPath] = len(k.slots)
	k.slots = append(k.slots, s)
	return nil
}

// Get 按 RelPath 取槽位；返回的指针直接指向内部存储（调用方修改即生效）。
func (k *Skeleton) Get(relPath string) (*Slot, bool) {
	i, ok := k.index[relPath]
	if !ok {
		return nil, false
	}
	return k.slots[i], true
}

// Slots 返回内部槽位切片（按插入顺序）。调用方不得增删元素。
func (k *Skeleton) Slots() []*Slot { return k.slots }

func (k *Skeleton) Len() int { return len(k.slots) }

// MarshalJSON 把骨架序列化为槽位数组（保持顺序；index 是派生数据不落盘）。
func (k *Skeleton) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.slots)
}

func (k *Skeleton) UnmarshalJSON(b []byte) error {
	var slots []*Slot
	if err := json.Unmarshal(b, &slots); err != nil {
		return err
	}
	nk := NewSkeleton()
	for _, s := range slots {
		if err := nk.Add(s); err != nil {
			return err
		}
	}
	*k = *nk
	return nil
}

// Completion 是完成度汇总：只统计文件槽位，目录不参与。
type Completion struct {
	TotalFiles   int     `json:"total_files"`
	MatchedFiles int     `json:"matched_files"`
	Percent      float64 `json:"percent"`
}
