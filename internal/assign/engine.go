package assign

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jigar48949/Files-and-folder-directory/internal/domain"
	"github.com/jigar48949/Files-and-folder-directory/internal/fileset"
	"github.com/jigar48949/Files-and-folder-directory/internal/match"
)

// Engine 负责骨架槽位与真实文件之间的绑定状态迁移。
//
// 约束：
// - 只改内存状态，不碰磁盘；落盘是 organize/archive 的事
// - 暂存区语义是"消耗"：自动指派命中后从暂存区移除
// - 文件池语义是"保留"：自动匹配只在工作副本里消耗，池本身不变
type Engine struct {
	sk     *domain.Skeleton
	staged *fileset.List
	pool   *fileset.List
	scorer *match.Scorer
}

func NewEngine(sk *domain.Skeleton, staged, pool *fileset.List, scorer *match.Scorer) *Engine {
	return &Engine{sk: sk, staged: staged, pool: pool, scorer: scorer}
}

// Assign 手动指派：把 source 绑定到 relPath 槽位。
// 已有绑定直接覆盖（要不要向用户确认是调用方的事）。
func (e *Engine) Assign(relPath, source string) error {
	if strings.TrimSpace(source) == "" {
		return fmt.Errorf("源路径不能为空")
	}
	slot, ok := e.sk.Get(relPath)
	if !ok {
		return &domain.TargetNotFoundError{RelPath: relPath}
	}
	if slot.Kind == domain.KindDirectory {
		return &domain.TargetIsDirectoryError{RelPath: relPath}
	}

	slot.Source = filepath.Clean(source)
	slot.Status = domain.SlotAssigned
	slot.Confidence = 100
	return nil
}

// BatchAssign 批量指派。
//
// 数量关系只支持两种：
// - len(sources) == len(relPaths)：一一对应
// - len(sources) == 1：单源扇出到每个目标
// 其他组合返回 ArityError，不做任何指派。
//
// 单对失败只记录不中断；批次结束后把成功消耗的源从暂存区移除
// （集合语义：扇出的单源只移除一次；不在暂存区的源是 no-op）。
func (e *Engine) BatchAssign(sources, relPaths []string) (int, []string, error) {
	ns, nt := len(sources), len(relPaths)
	if ns == 0 || nt == 0 || (ns != nt && ns != 1) {
		return 0, nil, &domain.ArityError{Sources: ns, Targets: nt}
	}

	assigned := 0
	failures := make([]string, 0)
	consumed := make([]string, 0, nt)

	for i, rel := range relPaths {
		src := sources[0]
		if ns == nt {
			src = sources[i]
		}
		if err := e.Assign(rel, src); err != nil {
			failures = append(failures, err.Error())
			continue
		}
		assigned++
		consumed = append(consumed, src)
	}

	e.staged.RemoveAll(consumed)
	return assigned, failures, nil
}

// AutoAssignFromStage 按骨架顺序为 missing 文件槽位在暂存区里找最佳候选。
//
// - 命中线 match.StageThreshold（含）；比较用原始分，入库置信度取模 100
// - 平分取暂存区当前顺序里的先来者（严格大于才替换）
// - 候选在一轮内是消耗品：命中即从工作副本移除，轮结束后提交回真实暂存区
// - 取消按槽位粒度检查；取消前已做的绑定保留，消耗照常提交
func (e *Engine) AutoAssignFromStage(ctx context.Context, progress func(done, total int)) (domain.MatchOutcome, error) {
	if err := e.requireSkeleton(); err != nil {
		return domain.MatchOutcome{Pairs: []domain.MatchPair{}}, err
	}
	if e.staged.Len() == 0 {
		return domain.MatchOutcome{Pairs: []domain.MatchPair{}}, fmt.Errorf("暂存区为空，没有可指派的文件")
	}

	out, consumed := e.autoMatch(ctx, progress, e.staged, match.StageThreshold, domain.SlotAssigned)
	e.staged.RemoveAll(consumed)
	return out, nil
}

// AutoMatchFromPool 与 AutoAssignFromStage 同构，差异在于：
// 命中线是 match.PoolThreshold，状态标记 auto_matched，且文件池不被消耗。
func (e *Engine) AutoMatchFromPool(ctx context.Context, progress func(done, total int)) (domain.MatchOutcome, error) {
	if err := e.requireSkeleton(); err != nil {
		return domain.MatchOutcome{Pairs: []domain.MatchPair{}}, err
	}
	if e.pool.Len() == 0 {
		return domain.MatchOutcome{Pairs: []domain.MatchPair{}}, fmt.Errorf("文件池为空，先加载一个文件夹")
	}

	out, _ := e.autoMatch(ctx, progress, e.pool, match.PoolThreshold, domain.SlotAutoMatched)
	return out, nil
}

func (e *Engine) autoMatch(ctx context.Context, progress func(done, total int), candidates *fileset.List, threshold int, hitStatus string) (domain.MatchOutcome, []string) {
	out := domain.MatchOutcome{Pairs: []domain.MatchPair{}}

	working := candidates.Clone()
	slots := e.sk.Slots()
	total := len(slots)
	consumed := make([]string, 0, working.Len())

	for i, slot := range slots {
		if ctx.Err() != nil {
			out.Cancelled = true
			break
		}
		if progress != nil {
			progress(i+1, total)
		}
		if slot.Kind != domain.KindFile || slot.Status != domain.SlotMissing {
			continue
		}

		best := 0
		bestPath := ""
		for _, cand := range working.Paths() {
			sc := e.scorer.Score(slot.Name, filepath.Base(cand))
			if sc > best {
				best = sc
				bestPath = cand
			}
		}
		if bestPath == "" || best < threshold {
			continue
		}

		slot.Source = bestPath
		slot.Status = hitStatus
		slot.Confidence = best % 100
		working.Remove(bestPath)
		consumed = append(consumed, bestPath)

		out.Matched++
		out.Pairs = append(out.Pairs, domain.MatchPair{
			RelPath: slot.RelPath,
			Source:  bestPath,
			Score:   best,
		})
	}

	return out, consumed
}

// Clear 清除单个文件槽位的绑定；目录槽位本来就没有绑定，按 no-op 处理。
func (e *Engine) Clear(relPath string) error {
	slot, ok := e.sk.Get(relPath)
	if !ok {
		return &domain.TargetNotFoundError{RelPath: relPath}
	}
	if slot.Kind != domain.KindFile {
		return nil
	}
	slot.Source = ""
	slot.Status = domain.SlotMissing
	slot.Confidence = 0
	return nil
}

// ClearAll 清除所有文件槽位的绑定（幂等）。
func (e *Engine) ClearAll() {
	for _, s := range e.sk.Slots() {
		if s.Kind != domain.KindFile {
			continue
		}
		s.Source = ""
		s.Status = domain.SlotMissing
		s.Confidence = 0
	}
}

func (e *Engine) requireSkeleton() error {
	if e.sk == nil || e.sk.Len() == 0 {
		return fmt.Errorf("骨架为空，先用 skeleton build 构建")
	}
	return nil
}
