package organize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jigar48949/Files-and-folder-directory/internal/domain"
	"github.com/jigar48949/Files-and-folder-directory/internal/infra/fsx"
)

// MoveInto 把一批源文件平移到 destDir（不看骨架，纯搬运）。
// 目标重名时自动追加 stem_1、stem_2 这样的序号，绝不覆盖。
//
// 约束：
// - 源不存在或不是普通文件：警告跳过，不中断批次
// - destDir 中途消失视为致命：倒序尽力回滚后终止
func MoveInto(ctx context.Context, destDir string, sources []string, progress func(done, total int)) (domain.Report, []domain.ActionRecord, error) {
	rep := domain.Report{
		Op:        domain.OpMoveFiles,
		BaseDir:   destDir,
		StartedAt: time.Now().UTC(),
		Items:     make([]domain.ItemResult, 0, len(sources)),
	}

	if err := checkBaseDir(destDir); err != nil {
		return rep, nil, err
	}
	if len(sources) == 0 {
		return rep, nil, errors.New("没有待移动的文件")
	}

	applied := make([]appliedEntry, 0, len(sources))
	total := len(sources)
	fatal := false

	for i, src := range sources {
		if ctx.Err() != nil {
			rep.Cancelled = true
			break
		}
		if progress != nil {
			progress(i+1, total)
		}

		item := domain.ItemResult{Src: src, Status: domain.ItemProcessed} // 失败时覆盖

		fi, err := os.Stat(src)
		if err != nil || !fi.Mode().IsRegular() {
			item.Status = domain.ItemSkipped
			item.ErrorCode = domain.ErrCodeSourceMissing
			item.Note = "源文件不存在或不是普通文件"
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("跳过 %s：源文件不存在或不是普通文件", src))
			rep.Items = append(rep.Items, item)
			continue
		}

		dst := conflictFreeName(destDir, filepath.Base(src))
		item.Dst = dst
		if dst != filepath.Join(destDir, filepath.Base(src)) {
			item.Note = "目标重名，已追加序号"
		}

		if err := fsx.MoveFile(src, dst); err != nil {
			item.Status = domain.ItemFailed
			item.ErrorCode = errCodeFor(err)
			item.Note = err.Error()
			rep.Items = append(rep.Items, item)
			if baseGone(destDir) {
				fatal = true
				break
			}
			continue
		}
		rep.Items = append(rep.Items, item)
		applied = append(applied, appliedEntry{
			action: domain.ActionRecord{
				Kind:   domain.ActionMove,
				Source: src,
				Target: dst,
				Time:   time.Now().UTC(),
			},
			itemIdx: len(rep.Items) - 1,
		})
	}

	if fatal {
		n := rollbackApplied(&rep, applied)
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("目标目录 %s 中途消失，已倒序回滚 %d 个已生效条目，批次终止", destDir, n))
	}

	rep.FinishedAt = time.Now().UTC()
	rep.Finalize()
	return rep, surviving(applied), nil
}

// conflictFreeName 在 destDir 里为 base 找一个不存在的名字。
// 第一个候选是原名，之后依次尝试 stem_1.ext、stem_2.ext。
func conflictFreeName(destDir, base string) string {
	dst := filepath.Join(destDir, base)
	if !pathExists(dst) {
		return dst
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for n := 1; ; n++ {
		cand := filepath.Join(destDir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		if !pathExists(cand) {
			return cand
		}
	}
}
