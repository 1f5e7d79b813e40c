package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jigar48949/Files-and-folder-directory/internal/archive"
	"github.com/jigar48949/Files-and-folder-directory/internal/assign"
	"github.com/jigar48949/Files-and-folder-directory/internal/domain"
	"github.com/jigar48949/Files-and-folder-directory/internal/fileset"
	"github.com/jigar48949/Files-and-folder-directory/internal/history"
	"github.com/jigar48949/Files-and-folder-directory/internal/match"
	"github.com/jigar48949/Files-and-folder-directory/internal/organize"
	"github.com/jigar48949/Files-and-folder-directory/internal/skeleton"
	"github.com/jigar48949/Files-and-folder-directory/internal/store"
	"github.com/jigar48949/Files-and-folder-directory/internal/structure"
)

// Session 持有 CLI 的全部可变状态：结构文本、骨架、暂存区、候选池、基础目录。
// 状态不放全局变量，生命周期由调用方管理。
//
// 约束：
// - 同一时刻只允许一个长操作进入（begin 门），并发进入得到 OpInProgressError；
//   跨进程互斥由 store 的文件锁负责，这里只管进程内
// - 落盘操作的已生效动作必须写入历史（被取消的批次也一样），否则撤销链会断
// - 修改状态的方法负责调用 Save；内存状态和 session.json 不允许长期分叉
type Session struct {
	mu      sync.Mutex
	current string

	st   *store.Store
	hist *history.Store
	obs  Observer

	StructureText string
	Skeleton      *domain.Skeleton
	Staged        *fileset.List
	Pool          *fileset.List
	BaseDir       string

	scorer *match.Scorer
}

func New(st *store.Store, hist *history.Store, obs Observer) *Session {
	return &Session{
		st:       st,
		hist:     hist,
		obs:      obs,
		Skeleton: domain.NewSkeleton(),
		Staged:   fileset.NewList(),
		Pool:     fileset.NewList(),
	}
}

// Load 从 session.json 恢复状态。文件不存在不是错误，保持空白状态。
func (s *Session) Load() error {
	st, ok, err := s.st.LoadSession()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	s.StructureText = st.StructureText
	s.BaseDir = st.BaseDir
	// 旧文件可能缺字段，nil 一律归一化为空容器。
	if st.Skeleton != nil {
		s.Skeleton = st.Skeleton
	}
	if st.Staged != nil {
		s.Staged = st.Staged
	}
	if st.Pool != nil {
		s.Pool = st.Pool
	}
	return nil
}

func (s *Session) Save() error {
	return s.st.SaveSession(store.SessionState{
		StructureText: s.StructureText,
		Skeleton:      s.Skeleton,
		Staged:        s.Staged,
		Pool:          s.Pool,
		BaseDir:       s.BaseDir,
	})
}

// Completion 返回当前骨架的完成度（只统计文件槽位）。
func (s *Session) Completion() domain.Completion {
	return skeleton.Completion(s.Skeleton)
}

// begin 是进程内的长操作门：已有操作在跑时拒绝进入。
func (s *Session) begin(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != "" {
		return &domain.OpInProgressError{Name: s.current}
	}
	s.current = name
	return nil
}

func (s *Session) finish() {
	s.mu.Lock()
	s.current = ""
	s.mu.Unlock()
}

func (s *Session) observe(op string) func() {
	if s.obs == nil {
		return func() {}
	}
	start := time.Now()
	s.obs.OnStart(op)
	return func() { s.obs.OnFinish(op, time.Since(start)) }
}

func (s *Session) progress() func(done, total int) {
	if s.obs == nil {
		return nil
	}
	return s.obs.OnProgress
}

func (s *Session) engine() *assign.Engine {
	if s.scorer == nil {
		s.scorer = match.NewScorer(0)
	}
	return assign.NewEngine(s.Skeleton, s.Staged, s.Pool, s.scorer)
}

// recordHistory 把一批已生效动作铸成历史记录。动作为空时不写。
// 写历史失败不让操作失败（文件已经动了），降级为报告级警告。
func (s *Session) recordHistory(rep *domain.Report, actions []domain.ActionRecord) {
	if len(actions) == 0 {
		return
	}
	rec := domain.OperationRecord{
		ID:      uuid.NewString(),
		Kind:    rep.Op,
		Time:    rep.StartedAt,
		BaseDir: rep.BaseDir,
		Actions: actions,
	}
	if err := s.hist.Append(rec); err != nil {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("写入操作历史失败：%v", err))
	}
}

// BuildSkeleton 解析结构文本并重建骨架。
// 重建是破坏性的：旧骨架的绑定全部丢弃。解析有错时什么都不改。
func (s *Session) BuildSkeleton(text string) (int, []string, error) {
	entries, errs := structure.Parse(text)
	if len(errs) > 0 {
		return 0, errs, nil
	}
	sk, err := skeleton.Build(entries)
	if err != nil {
		return 0, nil, err
	}
	s.StructureText = text
	s.Skeleton = sk
	return sk.Len(), nil, s.Save()
}

// ClearAssignments 清除指派。all 为真时清全部，否则按 relPaths 逐个清。
// 返回实际清除的绑定数。
func (s *Session) ClearAssignments(relPaths []string, all bool) (int, error) {
	eng := s.engine()
	if all {
		n := 0
		for _, sl := range s.Skeleton.Slots() {
			if sl.Kind == domain.KindFile && sl.Bound() {
				n++
			}
		}
		eng.ClearAll()
		return n, s.Save()
	}
	n := 0
	for _, rp := range relPaths {
		if err := eng.Clear(rp); err != nil {
			return n, err
		}
		n++
	}
	return n, s.Save()
}

// StageAdd 把显式给出的路径加入暂存区。
// 不存在或不是普通文件的路径跳过并返回原因，不让整批失败。
func (s *Session) StageAdd(paths []string) (int, []string, error) {
	added := 0
	var skipped []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("%s：%v", p, err))
			continue
		}
		fi, err := os.Stat(abs)
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("%s：文件不存在", p))
			continue
		}
		if !fi.Mode().IsRegular() {
			skipped = append(skipped, fmt.Sprintf("%s：不是普通文件", p))
			continue
		}
		if s.Staged.Add(abs) {
			added++
		}
	}
	return added, skipped, s.Save()
}

// StageAddDir 扫描目录并把结果追加进暂存区（保序、去重）。
func (s *Session) StageAddDir(ctx context.Context, dir string, recursive bool, excludeDirs []string) (int, error) {
	paths, err := fileset.Scan(ctx, dir, recursive, excludeDirs)
	if err != nil {
		return 0, err
	}
	n := s.Staged.AddAll(paths)
	return n, s.Save()
}

// StageClear 清空暂存区，返回清掉的条数。
func (s *Session) StageClear() (int, error) {
	n := s.Staged.Len()
	s.Staged.Clear()
	return n, s.Save()
}

// PoolLoad 用目录扫描结果整体替换候选池（load 语义是替换，不是追加）。
func (s *Session) PoolLoad(ctx context.Context, dir string, recursive bool, excludeDirs []string) (int, error) {
	paths, err := fileset.Scan(ctx, dir, recursive, excludeDirs)
	if err != nil {
		return 0, err
	}
	s.Pool.Clear()
	n := s.Pool.AddAll(paths)
	return n, s.Save()
}

// PoolClear 清空候选池，返回清掉的条数。
func (s *Session) PoolClear() (int, error) {
	n := s.Pool.Len()
	s.Pool.Clear()
	return n, s.Save()
}

// Assign 手动把 source 绑定到 relPath 槽位（置信度 100，允许覆盖旧绑定）。
func (s *Session) Assign(relPath, source string) error {
	if err := s.engine().Assign(relPath, source); err != nil {
		return err
	}
	return s.Save()
}

// BatchAssign 批量指派（一一对应或单源扇出），成功的源从暂存区移除。
func (s *Session) BatchAssign(sources, relPaths []string) (int, []string, error) {
	n, failures, err := s.engine().BatchAssign(sources, relPaths)
	if err != nil {
		return n, failures, err
	}
	return n, failures, s.Save()
}

// AutoAssign 对暂存区跑一轮自动指派（命中的候选被消耗）。
func (s *Session) AutoAssign(ctx context.Context) (domain.MatchOutcome, error) {
	if err := s.begin(opAutoAssign); err != nil {
		return domain.MatchOutcome{}, err
	}
	defer s.finish()
	done := s.observe(opAutoAssign)
	defer done()

	out, err := s.engine().AutoAssignFromStage(ctx, s.progress())
	if err != nil {
		return out, err
	}
	return out, s.Save()
}

// AutoMatch 对候选池跑一轮自动匹配（池保持不变，可反复重跑）。
func (s *Session) AutoMatch(ctx context.Context) (domain.MatchOutcome, error) {
	if err := s.begin(opAutoMatch); err != nil {
		return domain.MatchOutcome{}, err
	}
	defer s.finish()
	done := s.observe(opAutoMatch)
	defer done()

	out, err := s.engine().AutoMatchFromPool(ctx, s.progress())
	if err != nil {
		return out, err
	}
	return out, s.Save()
}

// Organize 按骨架落盘整理（copy 或 move）。
// 已生效动作写入历史；move 会改写槽位状态，随后保存会话。
func (s *Session) Organize(ctx context.Context, baseDir string, mode organize.Mode, policy organize.ConflictPolicy) (domain.Report, error) {
	op := domain.OpOrganizeCopy
	if mode == organize.ModeMove {
		op = domain.OpOrganizeMove
	}
	if err := s.begin(string(op)); err != nil {
		return domain.Report{}, err
	}
	defer s.finish()
	done := s.observe(string(op))
	defer done()

	rep, actions, err := organize.Run(ctx, s.Skeleton, baseDir, mode, policy, s.progress())
	if err != nil {
		return rep, err
	}
	s.BaseDir = baseDir
	s.recordHistory(&rep, actions)
	if err := s.Save(); err != nil {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("保存会话失败：%v", err))
	}
	return rep, nil
}

// CreateStructure 在 baseDir 下铺设目录骨架（幂等，已存在的不动）。
func (s *Session) CreateStructure(ctx context.Context, entries []domain.StructureEntry, baseDir string) (domain.Report, error) {
	if err := s.begin(string(domain.OpCreateStructure)); err != nil {
		return domain.Report{}, err
	}
	defer s.finish()
	done := s.observe(string(domain.OpCreateStructure))
	defer done()

	rep, actions, err := organize.CreateStructure(ctx, entries, baseDir, s.progress())
	if err != nil {
		return rep, err
	}
	s.BaseDir = baseDir
	s.recordHistory(&rep, actions)
	if err := s.Save(); err != nil {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("保存会话失败：%v", err))
	}
	return rep, nil
}

// MoveFiles 把一组文件搬进目标目录（重名自动追加序号）。
func (s *Session) MoveFiles(ctx context.Context, destDir string, sources []string) (domain.Report, error) {
	if err := s.begin(string(domain.OpMoveFiles)); err != nil {
		return domain.Report{}, err
	}
	defer s.finish()
	done := s.observe(string(domain.OpMoveFiles))
	defer done()

	rep, actions, err := organize.MoveInto(ctx, destDir, sources, s.progress())
	if err != nil {
		return rep, err
	}
	s.recordHistory(&rep, actions)
	return rep, nil
}

// Package 把骨架（空目录骨架 + 已绑定文件）打成一个 zip。
// 打包本身不可撤销，但记录进历史以便追查。
func (s *Session) Package(ctx context.Context, outPath string) (domain.Report, error) {
	if err := s.begin(string(domain.OpPackageZip)); err != nil {
		return domain.Report{}, err
	}
	defer s.finish()
	done := s.observe(string(domain.OpPackageZip))
	defer done()

	rep, actions, err := archive.BuildPackage(ctx, s.Skeleton, outPath, filepath.Dir(outPath), s.progress())
	if err != nil {
		return rep, err
	}
	s.recordHistory(&rep, actions)
	return rep, nil
}

// Undo 撤销最近一次可撤销操作。
// 只动文件系统，不回写槽位状态（骨架绑定保持原样，与历史互不纠缠）。
func (s *Session) Undo() (history.UndoResult, error) {
	if err := s.begin(opUndo); err != nil {
		return history.UndoResult{}, err
	}
	defer s.finish()
	return s.hist.UndoLast()
}
