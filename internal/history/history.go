package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jigar48949/Files-and-folder-directory/internal/domain"
	"github.com/jigar48949/Files-and-folder-directory/internal/infra/fsx"
)

// DefaultLimit 是历史记录条数上限的默认值。
const DefaultLimit = 100

const fileName = "history.json"

// Store 管理数据目录下的 history.json：追加写、上限裁剪、原子落盘。
// 记录按时间顺序排列，最新的在最后。
type Store struct {
	dir   string
	limit int
}

// NewStore 创建历史仓库。limit < 1 时取 DefaultLimit。
func NewStore(dir string, limit int) *Store {
	if limit < 1 {
		limit = DefaultLimit
	}
	return &Store{dir: dir, limit: limit}
}

// Load 读出全部历史记录。文件不存在视为空历史，不算错误。
func (s *Store) Load() ([]domain.OperationRecord, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, fileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.OperationRecord{}, nil
		}
		return nil, fmt.Errorf("读取历史失败：%w", err)
	}
	var recs []domain.OperationRecord
	if err := json.Unmarshal(b, &recs); err != nil {
		return nil, fmt.Errorf("解析历史文件失败（%s）：%w", filepath.Join(s.dir, fileName), err)
	}
	if recs == nil {
		recs = []domain.OperationRecord{}
	}
	return recs, nil
}

// Append 追加一条记录并落盘；超过上限时丢掉最旧的。
func (s *Store) Append(rec domain.OperationRecord) error {
	recs, err := s.Load()
	if err != nil {
		return err
	}
	recs = append(recs, rec)
	if len(recs) > s.limit {
		recs = recs[len(recs)-s.limit:]
	}
	return s.save(recs)
}

// Clear 清空历史。
func (s *Store) Clear() error {
	return s.save([]domain.OperationRecord{})
}

func (s *Store) save(recs []domain.OperationRecord) error {
	b, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化历史失败：%w", err)
	}
	if err := fsx.WriteFileAtomicReplace(s.dir, fileName, b); err != nil {
		return fmt.Errorf("写入历史失败：%w", err)
	}
	return nil
}

// UndoResult 汇总一次撤销尝试。
// Reversed 是真正撤销掉的动作数；不可逆的条目以警告形式列出。
type UndoResult struct {
	ID       string        `json:"id"`
	Op       domain.OpKind `json:"op"`
	Reversed int           `json:"reversed"`
	Total    int           `json:"total"`
	Warnings []string      `json:"warnings"`
}

// UndoLast 撤销最近一次操作并把它从历史里弹出。
//
// 约束：
// - 不可撤销的操作种类（如 package_zip）返回 NotUndoableError，记录保留
// - 单个动作撤销失败只记警告，尝试完成后记录照样弹出
// - 弹出与落盘失败时，磁盘上的副作用已发生，错误向上抛由调用方提示
func (s *Store) UndoLast() (UndoResult, error) {
	recs, err := s.Load()
	if err != nil {
		return UndoResult{}, err
	}
	if len(recs) == 0 {
		return UndoResult{}, errors.New("历史为空，没有可撤销的操作")
	}

	last := recs[len(recs)-1]
	res, err := Undo(last)
	if err != nil {
		return res, err
	}

	if err := s.save(recs[:len(recs)-1]); err != nil {
		return res, err
	}
	return res, nil
}

// undoStrategy 撤销一种操作的全部动作（倒序），把结果累加进 res。
type undoStrategy func(rec domain.OperationRecord, res *UndoResult)

// 闭合的操作种类 → 撤销策略映射。不在表里的种类一律不可撤销，
// 这里没有任何按字符串前缀分支的余地。
var undoStrategies = map[domain.OpKind]undoStrategy{
	domain.OpCreateStructure: undoCreated,
	domain.OpOrganizeCopy:    undoCopied,
	domain.OpOrganizeMove:    undoMoved,
	domain.OpMoveFiles:       undoMoved,
}

// Undo 按操作种类分发撤销策略。记录本身不动，弹出是 Store 的事。
func Undo(rec domain.OperationRecord) (UndoResult, error) {
	res := UndoResult{ID: rec.ID, Op: rec.Kind, Total: len(rec.Actions), Warnings: []string{}}
	strategy, ok := undoStrategies[rec.Kind]
	if !ok {
		return res, &domain.NotUndoableError{Kind: rec.Kind}
	}
	strategy(rec, &res)
	return res, nil
}

// undoCreated 按创建的倒序拆除：文件直接删，目录只删空的。
func undoCreated(rec domain.OperationRecord, res *UndoResult) {
	for i := len(rec.Actions) - 1; i >= 0; i-- {
		a := rec.Actions[i]
		switch a.Kind {
		case domain.ActionCreateFile:
			removeCreatedFile(a.Target, res)
		case domain.ActionCreateDir:
			removeCreatedDir(a.Target, res)
		default:
			res.Warnings = append(res.Warnings, fmt.Sprintf("未撤销 %s：create_structure 不该有 %q 动作", a.Target, a.Kind))
		}
	}
}

// undoCopied 删除拷贝产物；organize 顺带建出的目录也拆掉（仅空目录）。
func undoCopied(rec domain.OperationRecord, res *UndoResult) {
	for i := len(rec.Actions) - 1; i >= 0; i-- {
		a := rec.Actions[i]
		switch a.Kind {
		case domain.ActionCopy:
			removeCreatedFile(a.Target, res)
		case domain.ActionCreateDir:
			removeCreatedDir(a.Target, res)
		default:
			res.Warnings = append(res.Warnings, fmt.Sprintf("未撤销 %s：copy 类操作不该有 %q 动作", a.Target, a.Kind))
		}
	}
}

// undoMoved 把移动产物移回原处，必要时重建原目录。
func undoMoved(rec domain.OperationRecord, res *UndoResult) {
	for i := len(rec.Actions) - 1; i >= 0; i-- {
		a := rec.Actions[i]
		switch a.Kind {
		case domain.ActionMove:
			fi, err := os.Stat(a.Target)
			if err != nil || !fi.Mode().IsRegular() {
				res.Warnings = append(res.Warnings, fmt.Sprintf("未撤销 %s：目标不存在或不是普通文件", a.Target))
				continue
			}
			if err := os.MkdirAll(filepath.Dir(a.Source), 0o755); err != nil {
				res.Warnings = append(res.Warnings, fmt.Sprintf("重建 %s 的父目录失败：%v", a.Source, err))
				continue
			}
			if err := fsx.MoveFile(a.Target, a.Source); err != nil {
				res.Warnings = append(res.Warnings, fmt.Sprintf("移回 %s 失败：%v", a.Target, err))
				continue
			}
			res.Reversed++
		case domain.ActionCreateDir:
			removeCreatedDir(a.Target, res)
		default:
			res.Warnings = append(res.Warnings, fmt.Sprintf("未撤销 %s：move 类操作不该有 %q 动作", a.Target, a.Kind))
		}
	}
}

func removeCreatedFile(target string, res *UndoResult) {
	fi, err := os.Lstat(target)
	if err != nil || !fi.Mode().IsRegular() {
		res.Warnings = append(res.Warnings, fmt.Sprintf("未撤销 %s：文件不存在或已被替换", target))
		return
	}
	if err := os.Remove(target); err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("删除 %s 失败：%v", target, err))
		return
	}
	res.Reversed++
}

func removeCreatedDir(target string, res *UndoResult) {
	removed, err := fsx.RemoveDirIfEmpty(target)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("删除目录 %s 失败：%v", target, err))
		return
	}
	if !removed {
		res.Warnings = append(res.Warnings, fmt.Sprintf("未撤销 %s：目录非空或不存在", target))
		return
	}
	res.Reversed++
}
