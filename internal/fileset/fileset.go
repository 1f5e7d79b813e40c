package fileset

import (
	"encoding/json"
	"path/filepath"
	"strings"
)

// List 是有序去重的文件路径集合（暂存区与文件池共用）。
//
// 不变量：
// - 保持插入顺序：自动匹配按这个顺序遍历候选，平分取先来者
// - 去重以 Clean 后的路径为准
type List struct {
	paths []string
	seen  map[string]struct{}
}

func NewList() *List {
	return &List{
		paths: make([]string, 0, 16),
		seen:  make(map[string]struct{}, 16),
	}
}

// Add 追加一个路径；已存在时返回 false。
func (l *List) Add(path string) bool {
	p := filepath.Clean(strings.TrimSpace(path))
	if p == "" || p == "." {
		return false
	}
	if _, ok := l.seen[p]; ok {
		return false
	}
	l.seen[p] = struct{}{}
	l.paths = append(l.paths, p)
	return true
}

// AddAll 批量追加，返回实际新增数。
func (l *List) AddAll(paths []string) int {
	n := 0
	for _, p := range paths {
		if l.Add(p) {
			n++
		}
	}
	return n
}

// Remove 删除一个路径；不存在时返回 false。
func (l *List) Remove(path string) bool {
	p := filepath.Clean(strings.TrimSpace(path))
	if _, ok := l.seen[p]; !ok {
		return false
	}
	delete(l.seen, p)
	for i, q := range l.paths {
		if q == p {
			l.paths = append(l.paths[:i], l.paths[i+1:]...)
			break
		}
	}
	return true
}

// RemoveAll 按集合语义批量删除（重复给同一路径只删一次），返回实际删除数。
func (l *List) RemoveAll(paths []string) int {
	n := 0
	for _, p := range paths {
		if l.Remove(p) {
			n++
		}
	}
	return n
}

func (l *List) Contains(path string) bool {
	_, ok := l.seen[filepath.Clean(strings.TrimSpace(path))]
	return ok
}

// Paths 返回内部切片（按插入顺序）。调用方不得增删元素。
func (l *List) Paths() []string { return l.paths }

func (l *List) Len() int { return len(l.paths) }

func (l *List) Clear() {
	l.paths = l.paths[:0]
	l.seen = make(map[string]struct{}, 16)
}

// Clone 返回独立副本：自动匹配用副本做"消耗"，结束后再决定是否提交。
func (l *List) Clone() *List {
	nl := NewList()
	for _, p := range l.paths {
		nl.Add(p)
	}
	return nl
}

// MarshalJSON 序列化为路径数组（写入 session JSON）。
func (l *List) MarshalJSON() ([]byte, error) {
	if l.paths == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.paths)
}

func (l *List) UnmarshalJSON(b []byte) error {
	var paths []string
	if err := json.Unmarshal(b, &paths); err != nil {
		return err
	}
	nl := NewList()
	nl.AddAll(paths)
	*l = *nl
	return nil
}
