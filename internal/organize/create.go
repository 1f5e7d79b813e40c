package organize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jigar48949/Files-and-folder-directory/internal/domain"
	"github.com/jigar48949/Files-and-folder-directory/internal/infra/fsx"
)

// CreateStructure 把解析好的结构条目落盘到 baseDir：目录 MkdirAll，文件 touch。
//
// 约束：
// - 已存在的目录算处理成功（幂等）；已存在的文件跳过且绝不截断
// - 动作只记真正新建的东西：撤销时不能删用户原有的文件或目录
// - baseDir 中途消失视为致命：倒序尽力回滚后终止
func CreateStructure(ctx context.Context, entries []domain.StructureEntry, baseDir string, progress func(done, total int)) (domain.Report, []domain.ActionRecord, error) {
	rep := domain.Report{
		Op:        domain.OpCreateStructure,
		BaseDir:   baseDir,
		StartedAt: time.Now().UTC(),
		Items:     make([]domain.ItemResult, 0, len(entries)),
	}

	if err := checkBaseDir(baseDir); err != nil {
		return rep, nil, err
	}
	if len(entries) == 0 {
		return rep, nil, errors.New("结构定义为空，没有可创建的条目")
	}

	applied := make([]appliedEntry, 0, len(entries))
	total := len(entries)
	fatal := false

	for i, e := range entries {
		if ctx.Err() != nil {
			rep.Cancelled = true
			break
		}
		if progress != nil {
			progress(i+1, total)
		}

		dst := filepath.Join(baseDir, filepath.FromSlash(e.RelPath))
		item := domain.ItemResult{Dst: dst, Status: domain.ItemProcessed} // 失败时覆盖

		if e.Kind == domain.KindDirectory {
			existed := pathExists(dst)
			if err := fsx.EnsureDir(dst); err != nil {
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
			if existed {
				item.Note = "目录已存在"
			}
			rep.Items = append(rep.Items, item)
			if !existed {
				applied = append(applied, appliedEntry{
					action: domain.ActionRecord{
						Kind:   domain.ActionCreateDir,
						Target: dst,
						Time:   time.Now().UTC(),
					},
					itemIdx: len(rep.Items) - 1,
				})
			}
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
		if err := fsx.Touch(dst); err != nil {
			if errors.Is(err, os.ErrExist) {
				item.Status = domain.ItemSkipped
				item.ErrorCode = domain.ErrCodeTargetConflict
				item.Note = "文件已存在，保留原内容"
				rep.Items = append(rep.Items, item)
				continue
			}
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
		rep.Items = append(rep.Items, item)
		applied = append(applied, appliedEntry{
			action: domain.ActionRecord{
				Kind:   domain.ActionCreateFile,
				Target: dst,
				Time:   time.Now().UTC(),
			},
			itemIdx: len(rep.Items) - 1,
		})
	}

	if fatal {
		n := rollbackApplied(&rep, applied)
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("基础目录 %s 中途消失，已倒序回滚 %d 个已生效条目，批次终止", baseDir, n))
	}

	rep.FinishedAt = time.Now().UTC()
	rep.Finalize()
	return rep, surviving(applied), nil
}
