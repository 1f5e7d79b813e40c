package organize

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jigar48949/Files-and-folder-directory/internal/domain"
	"github.com/jigar48949/Files-and-folder-directory/internal/infra/fsx"
)

// Mode 是整理落盘方式。
type Mode string

const (
	ModeCopy Mode = "copy"
	ModeMove Mode = "move"
)

// ConflictPolicy 决定目标已存在时是否覆盖。
// 默认策略是 SkipExisting：跳过并记一条警告，绝不无声覆盖。
type ConflictPolicy interface {
	Overwrite(target string) bool
}

type SkipExisting struct{}

func (SkipExisting) Overwrite(string) bool { return false }

type OverwriteExisting struct{}

func (OverwriteExisting) Overwrite(string) bool { return true }

// appliedEntry 记录一条已生效的动作，供本次调用内的回滚使用。
// slot 仅 move 需要：回滚成功后恢复槽位状态。
type appliedEntry struct {
	action  domain.ActionRecord
	itemIdx int
	slot    *domain.Slot
	prev    string
	undone  bool
}

// Run 把骨架物化到 baseDir：按骨架顺序处理已绑定且尚未落盘的文件槽位，
// 之后统一创建目录槽位（显式空目录也要落盘）。
//
// 约束：
// - 单条失败/跳过不中断批次，逐条写入 Report.Items
// - move 成功后槽位翻到 organized，重跑不会再动它；copy 不改状态
// - 目标已存在走 ConflictPolicy，默认跳过并警告
// - baseDir 中途消失视为致命：对已生效动作做倒序尽力回滚，batch 终止
// - 返回的 ActionRecord 只含仍然生效的动作（回滚成功的不在内）
func Run(ctx context.Context, sk *domain.Skeleton, baseDir string, mode Mode, policy ConflictPolicy, progress func(done, total int)) (domain.Report, []domain.ActionRecord, error) {
	op := domain.OpOrganizeCopy
	if mode == ModeMove {
		op = domain.OpOrganizeMove
	}
	rep := domain.Report{
		Op:        op,
		BaseDir:   baseDir,
		StartedAt: time.Now().UTC(),
		Items:     make([]domain.ItemResult, 0, 16),
	}

	if mode != ModeCopy && mode != ModeMove {
		return rep, nil, fmt.Errorf("未知整理模式 %q（只支持 copy/move）", mode)
	}
	if policy == nil {
		policy = SkipExisting{}
	}
	if err := checkBaseDir(baseDir); err != nil {
		return rep, nil, err
	}
	if sk == nil || sk.Len() == 0 {
		return rep, nil, errors.New("骨架为空，先用 skeleton build 构建")
	}

	// 待处理清单：已绑定且尚未落盘的文件槽位。
	pending := make([]*domain.Slot, 0, sk.Len())
	for _, s := range sk.Slots() {
		if s.Kind == domain.KindFile && s.Bound() && s.Status != domain.SlotOrganized {
			pending = append(pending, s)
		}
	}
	if len(pending) == 0 {
		return rep, nil, errors.New("没有已指派的文件可整理")
	}

	applied := make([]appliedEntry, 0, len(pending))
	total := len(pending)
	fatal := false

	for i, slot := range pending {
		if ctx.Err() != nil {
			rep.Cancelled = true
			break
		}
		if progress != nil {
			progress(i+1, total)
		}

		dst := filepath.Join(baseDir, filepath.FromSlash(slot.RelPath))
		item := domain.ItemResult{Src: slot.Source, Dst: dst, Status: domain.ItemProcessed} // 失败时覆盖

		fi, err := os.Stat(slot.Source)
		if err != nil || !fi.Mode().IsRegular() {
			item.Status = domain.ItemSkipped
			item.ErrorCode = domain.ErrCodeSourceMissing
			item.Note = "源文件不存在或不是普通文件"
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("跳过 %s：源文件不存在或不是普通文件", slot.Source))
			rep.Items = append(rep.Items, item)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			item.Status = domain.ItemFailed
			item.ErrorCode = errCodeFor(err)
			item.Note = err.Error()
			rep.Items = append(rep.Items, item)
			if baseGone(baseDir) {
				fatal = true
				break
			}
			continue
		}

		if pathExists(dst) && !policy.Overwrite(dst) {
			item.Status = domain.ItemSkipped
			item.ErrorCode = domain.ErrCodeTargetConflict
			item.Note = "目标已存在，按策略跳过"
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("目标已存在，跳过：%s", dst))
			rep.Items = append(rep.Items, item)
			continue
		}

		var opErr error
		if mode == ModeCopy {
			opErr = fsx.CopyFile(slot.Source, dst)
		} else {
			opErr = fsx.MoveFile(slot.Source, dst)
		}
		if opErr != nil {
			item.Status = domain.ItemFailed
			item.ErrorCode = errCodeFor(opErr)
			item.Note = opErr.Error()
			rep.Items = append(rep.Items, item)
			if baseGone(baseDir) {
				fatal = true
				break
			}
			continue
		}

		kind := domain.ActionCopy
		prev := slot.Status
		if mode == ModeMove {
			kind = domain.ActionMove
			slot.Status = domain.SlotOrganized
		}
		rep.Items = append(rep.Items, item)
		applied = append(applied, appliedEntry{
			action: domain.ActionRecord{
				Kind:   kind,
				Source: slot.Source,
				Target: dst,
				Time:   time.Now().UTC(),
			},
			itemIdx: len(rep.Items) - 1,
			slot:    slot,
			prev:    prev,
		})
	}

	// 目录槽位在文件之后统一创建；取消或致命时不再做。
	if !rep.Cancelled && !fatal {
		for _, slot := range sk.Slots() {
			if slot.Kind != domain.KindDirectory {
				continue
			}
			if ctx.Err() != nil {
				rep.Cancelled = true
				break
			}
			dst := filepath.Join(baseDir, filepath.FromSlash(slot.RelPath))
			existed := pathExists(dst)
			if err := fsx.EnsureDir(dst); err != nil {
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("创建目录失败 %s：%v", dst, err))
				continue
			}
			if !existed {
				applied = append(applied, appliedEntry{
					action: domain.ActionRecord{
						Kind:   domain.ActionCreateDir,
						Target: dst,
						Time:   time.Now().UTC(),
					},
					itemIdx: -1,
				})
			}
		}
	}

	if fatal {
		n := rollbackApplied(&rep, applied)
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("基础目录 %s 中途消失，已倒序回滚 %d 个已生效条目，批次终止", baseDir, n))
	}

	rep.FinishedAt = time.Now().UTC()
	rep.Finalize()
	return rep, surviving(applied), nil
}

// rollbackApplied 倒序撤销已生效动作（栈语义），返回回滚成功的条数。
// 回滚成功的条目翻到 rolled_back；失败的翻到 failed（副作用去向不明）。
func rollbackApplied(rep *domain.Report, applied []appliedEntry) int {
	ok := 0
	for j := len(applied) - 1; j >= 0; j-- {
		e := &applied[j]
		if err := undoAction(e.action); err != nil {
			if e.itemIdx >= 0 {
				rep.Items[e.itemIdx].Status = domain.ItemFailed
				rep.Items[e.itemIdx].Note = fmt.Sprintf("回滚失败：%v", err)
			}
			continue
		}
		ok++
		e.undone = true
		if e.slot != nil {
			e.slot.Status = e.prev
		}
		if e.itemIdx >= 0 {
			rep.Items[e.itemIdx].Status = domain.ItemRolledBack
		}
	}
	return ok
}

// undoAction 撤销单条动作。copy 撤销 = 删副本；move 撤销 = 移回原处；
// 目录撤销只删空目录，绝不递归删除。
func undoAction(a domain.ActionRecord) error {
	switch a.Kind {
	case domain.ActionCopy, domain.ActionCreateFile:
		return os.Remove(a.Target)
	case domain.ActionMove:
		return fsx.MoveFile(a.Target, a.Source)
	case domain.ActionCreateDir:
		_, err := fsx.RemoveDirIfEmpty(a.Target)
		return err
	default:
		return fmt.Errorf("未知动作类型 %q", a.Kind)
	}
}

// surviving 收集仍然生效的动作：正常结束时是全部，致命回滚后只剩撤销失败的。
func surviving(applied []appliedEntry) []domain.ActionRecord {
	out := make([]domain.ActionRecord, 0, len(applied))
	for _, e := range applied {
		if e.undone {
			continue
		}
		out = append(out, e.action)
	}
	return out
}

func errCodeFor(err error) string {
	if fsx.IsPathTypeConflict(err) {
		return domain.ErrCodeTargetConflict
	}
	return domain.ErrCodeIOFailed
}

func checkBaseDir(dir string) error {
	fi, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("基础目录不可用：%w", err)
	}
	if !fi.IsDir() {
		return &fsx.PathTypeConflictError{Path: dir, Want: "dir", Got: "file"}
	}
	return nil
}

func pathExists(p string) bool {
	_, err := os.Lstat(p)
	return err == nil
}

func baseGone(dir string) bool {
	_, err := os.Stat(dir)
	return errors.Is(err, fs.ErrNotExist)
}
