package assign

import (
	"context"
	"strings"
	"testing"

	"github.com/jigar48949/Files-and-folder-directory/internal/domain"
	"github.com/jigar48949/Files-and-folder-directory/internal/fileset"
	"github.com/jigar48949/Files-and-folder-directory/internal/match"
	"github.com/jigar48949/Files-and-folder-directory/internal/skeleton"
	"github.com/jigar48949/Files-and-folder-directory/internal/structure"
)

func newEngine(t *testing.T, text string, staged, pool []string) (*Engine, *domain.Skeleton, *fileset.List, *fileset.List) {
	t.Helper()
	entries, errs := structure.Parse(text)
	if len(errs) != 0 {
		t.Fatalf("解析失败：%v", errs)
	}
	sk, err := skeleton.Build(entries)
	if err != nil {
		t.Fatalf("建骨架失败：%v", err)
	}
	st := fileset.NewList()
	st.AddAll(staged)
	pl := fileset.NewList()
	pl.AddAll(pool)
	return NewEngine(sk, st, pl, match.NewScorer(0)), sk, st, pl
}

func TestAssign_ManualBasics(t *testing.T) {
	e, sk, _, _ := newEngine(t, "docs/\n    intro.md", nil, nil)

	if err := e.Assign("docs/intro.md", "/src/old_intro.md"); err != nil {
		t.Fatalf("手动指派失败：%v", err)
	}
	s, _ := sk.Get("docs/intro.md")
	if s.Source != "/src/old_intro.md" || s.Status != domain.SlotAssigned || s.Confidence != 100 {
		t.Fatalf("手动指派结果不对：%+v", s)
	}

	// 覆盖允许：同一槽位再次指派直接替换。
	if err := e.Assign("docs/intro.md", "/src/new_intro.md"); err != nil {
		t.Fatalf("覆盖指派失败：%v", err)
	}
	if s.Source != "/src/new_intro.md" {
		t.Fatalf("覆盖未生效：%+v", s)
	}
}

func TestAssign_DirectoryTargetRejected(t *testing.T) {
	e, _, _, _ := newEngine(t, "docs/\n    intro.md", nil, nil)

	err := e.Assign("docs", "/src/x")
	if !domain.IsTargetIsDirectory(err) {
		t.Fatalf("期望 TargetIsDirectoryError，实际：%v", err)
	}
}

func TestAssign_UnknownTarget(t *testing.T) {
	e, _, _, _ := newEngine(t, "docs/\n    intro.md", nil, nil)

	err := e.Assign("docs/absent.md", "/src/x")
	if !domain.IsTargetNotFound(err) {
		t.Fatalf("期望 TargetNotFoundError，实际：%v", err)
	}
}

func TestBatchAssign_ArityMismatchAssignsNothing(t *testing.T) {
	e, sk, st, _ := newEngine(t, "a.txt\nb.txt", []string{"/s/f1", "/s/f2"}, nil)

	_, _, err := e.BatchAssign([]string{"/s/f1", "/s/f2"}, []string{"a.txt"})
	if !domain.IsArity(err) {
		t.Fatalf("期望 ArityError，实际：%v", err)
	}
	for _, s := range sk.Slots() {
		if s.Bound() {
			t.Fatalf("数量不符时不得有任何指派：%+v", s)
		}
	}
	if st.Len() != 2 {
		t.Fatalf("暂存区不应被动：%v", st.Paths())
	}
}

func TestBatchAssign_PairwiseAndConsume(t *testing.T) {
	e, sk, st, _ := newEngine(t, "a.txt\nb.txt", []string{"/s/f1", "/s/f2"}, nil)

	n, failures, err := e.BatchAssign([]string{"/s/f1", "/s/f2"}, []string{"a.txt", "b.txt"})
	if err != nil {
		t.Fatalf("批量指派失败：%v", err)
	}
	if n != 2 || len(failures) != 0 {
		t.Fatalf("结果不对：n=%d failures=%v", n, failures)
	}
	sa, _ := sk.Get("a.txt")
	sb, _ := sk.Get("b.txt")
	if sa.Source != "/s/f1" || sb.Source != "/s/f2" {
		t.Fatalf("一一对应不成立：%q %q", sa.Source, sb.Source)
	}
	if st.Len() != 0 {
		t.Fatalf("消耗的源应从暂存区移除：%v", st.Paths())
	}
}

func TestBatchAssign_FanOutRemovesSourceOnce(t *testing.T) {
	e, sk, st, _ := newEngine(t, "a.txt\nb.txt\nc.txt", []string{"/s/tpl.txt", "/s/other"}, nil)

	n, failures, err := e.BatchAssign([]string{"/s/tpl.txt"}, []string{"a.txt", "b.txt", "c.txt"})
	if err != nil {
		t.Fatalf("扇出失败：%v", err)
	}
	if n != 3 || len(failures) != 0 {
		t.Fatalf("结果不对：n=%d failures=%v", n, failures)
	}
	for _, rel := range []string{"a.txt", "b.txt", "c.txt"} {
		s, _ := sk.Get(rel)
		if s.Source != "/s/tpl.txt" {
			t.Fatalf("扇出目标 %s 未绑定：%+v", rel, s)
		}
	}
	if st.Len() != 1 || st.Contains("/s/tpl.txt") {
		t.Fatalf("单源应只移除一次：%v", st.Paths())
	}
}

func TestBatchAssign_PerPairFailuresCollected(t *testing.T) {
	e, _, st, _ := newEngine(t, "docs/\n    a.txt", []string{"/s/f1", "/s/f2"}, nil)

	// docs 是目录槽位：该对失败但不影响另一对。
	n, failures, err := e.BatchAssign([]string{"/s/f1", "/s/f2"}, []string{"docs", "docs/a.txt"})
	if err != nil {
		t.Fatalf("不应整体失败：%v", err)
	}
	if n != 1 || len(failures) != 1 {
		t.Fatalf("应一对成功一对失败：n=%d failures=%v", n, failures)
	}
	if st.Len() != 1 || !st.Contains("/s/f1") {
		t.Fatalf("失败对的源不应被消耗：%v", st.Paths())
	}
}

func TestAutoAssign_ThresholdBoundary(t *testing.T) {
	// 编辑距离构造精确分数：maxlen 100，距离 26 → 74 分；距离 25 → 75 分。
	cand := "/s/" + strings.Repeat("a", 100)
	t74 := strings.Repeat("a", 74) + strings.Repeat("b", 26)
	t75 := strings.Repeat("a", 75) + strings.Repeat("b", 25)

	e, sk, st, _ := newEngine(t, t74, []string{cand}, nil)
	out, err := e.AutoAssignFromStage(context.Background(), nil)
	if err != nil {
		t.Fatalf("自动指派失败：%v", err)
	}
	if out.Matched != 0 {
		t.Fatalf("74 分不应命中：%+v", out)
	}
	s, _ := sk.Get(t74)
	if s.Bound() || st.Len() != 1 {
		t.Fatalf("74 分不应绑定或消耗：%+v，stage=%v", s, st.Paths())
	}

	e2, sk2, st2, _ := newEngine(t, t75, []string{cand}, nil)
	out2, err := e2.AutoAssignFromStage(context.Background(), nil)
	if err != nil {
		t.Fatalf("自动指派失败：%v", err)
	}
	if out2.Matched != 1 {
		t.Fatalf("75 分必须命中：%+v", out2)
	}
	s2, _ := sk2.Get(t75)
	if s2.Source != cand || s2.Status != domain.SlotAssigned {
		t.Fatalf("绑定结果不对：%+v", s2)
	}
	if s2.Confidence != 75 {
		t.Fatalf("置信度应为 75：%d", s2.Confidence)
	}
	if st2.Len() != 0 {
		t.Fatalf("命中的源必须从暂存区消耗：%v", st2.Paths())
	}
}

func TestAutoAssign_ConfidenceModulo(t *testing.T) {
	// 同名带扩展名：100 + 15 = 115 原始分 → 置信度 115 % 100 = 15。
	e, sk, _, _ := newEngine(t, "report.txt", []string{"/s/report.txt"}, nil)

	out, err := e.AutoAssignFromStage(context.Background(), nil)
	if err != nil {
		t.Fatalf("自动指派失败：%v", err)
	}
	if out.Matched != 1 || out.Pairs[0].Score != 115 {
		t.Fatalf("原始分应为 115：%+v", out)
	}
	s, _ := sk.Get("report.txt")
	if s.Confidence != 15 {
		t.Fatalf("置信度应取模存储（115 -> 15）：%d", s.Confidence)
	}
}

func TestAutoAssign_TieTakesFirstInStageOrder(t *testing.T) {
	e, sk, _, _ := newEngine(t, "notes.txt",
		[]string{"/b/notes.txt", "/a/notes.txt"}, nil)

	out, err := e.AutoAssignFromStage(context.Background(), nil)
	if err != nil {
		t.Fatalf("自动指派失败：%v", err)
	}
	if out.Matched != 1 {
		t.Fatalf("应命中一条：%+v", out)
	}
	s, _ := sk.Get("notes.txt")
	if s.Source != "/b/notes.txt" {
		t.Fatalf("平分应取暂存区顺序里的先来者：%q", s.Source)
	}
}

func TestAutoAssign_CandidateConsumedWithinPass(t *testing.T) {
	// 两个同名槽位争同一个源：先来的槽位拿走，后面的落空。
	e, sk, st, _ := newEngine(t, "x/\n    data.csv\ny/\n    data.csv",
		[]string{"/s/data.csv"}, nil)

	out, err := e.AutoAssignFromStage(context.Background(), nil)
	if err != nil {
		t.Fatalf("自动指派失败：%v", err)
	}
	if out.Matched != 1 {
		t.Fatalf("只应命中一条：%+v", out)
	}
	first, _ := sk.Get("x/data.csv")
	second, _ := sk.Get("y/data.csv")
	if !first.Bound() || second.Bound() {
		t.Fatalf("消耗语义不对：first=%+v second=%+v", first, second)
	}
	if st.Len() != 0 {
		t.Fatalf("命中源应已消耗：%v", st.Paths())
	}
}

func TestAutoAssign_SkipsBoundSlots(t *testing.T) {
	e, sk, st, _ := newEngine(t, "report.txt", []string{"/s/report.txt"}, nil)

	if err := e.Assign("report.txt", "/manual/pick.txt"); err != nil {
		t.Fatalf("手动指派失败：%v", err)
	}
	out, err := e.AutoAssignFromStage(context.Background(), nil)
	if err != nil {
		t.Fatalf("自动指派失败：%v", err)
	}
	if out.Matched != 0 {
		t.Fatalf("非 missing 槽位不应参与：%+v", out)
	}
	s, _ := sk.Get("report.txt")
	if s.Source != "/manual/pick.txt" {
		t.Fatalf("已有绑定不应被自动指派覆盖：%+v", s)
	}
	if st.Len() != 1 {
		t.Fatalf("暂存区不应被消耗：%v", st.Paths())
	}
}

func TestAutoMatchFromPool_RetainsPool(t *testing.T) {
	e, sk, _, pl := newEngine(t, "report.txt", nil, []string{"/pool/report.txt"})

	out, err := e.AutoMatchFromPool(context.Background(), nil)
	if err != nil {
		t.Fatalf("自动匹配失败：%v", err)
	}
	if out.Matched != 1 {
		t.Fatalf("应命中一条：%+v", out)
	}
	s, _ := sk.Get("report.txt")
	if s.Status != domain.SlotAutoMatched {
		t.Fatalf("状态应为 auto_matched：%+v", s)
	}
	if pl.Len() != 1 {
		t.Fatalf("文件池必须保留：%v", pl.Paths())
	}
}

func TestAutoMatchFromPool_ThresholdLowerThanStage(t *testing.T) {
	// 构造 70 分：maxlen 100，编辑距离 30。
	cand := "/pool/" + strings.Repeat("a", 100)
	t70 := strings.Repeat("a", 70) + strings.Repeat("b", 30)

	e, sk, _, _ := newEngine(t, t70, nil, []string{cand})
	out, err := e.AutoMatchFromPool(context.Background(), nil)
	if err != nil {
		t.Fatalf("自动匹配失败：%v", err)
	}
	if out.Matched != 1 {
		t.Fatalf("70 分应命中池匹配：%+v", out)
	}
	s, _ := sk.Get(t70)
	if s.Confidence != 70 {
		t.Fatalf("置信度应为 70：%d", s.Confidence)
	}
}

func TestAutoAssign_CancelledKeepsPartialWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e, sk, st, _ := newEngine(t, "report.txt", []string{"/s/report.txt"}, nil)
	out, err := e.AutoAssignFromStage(ctx, nil)
	if err != nil {
		t.Fatalf("取消不是错误：%v", err)
	}
	if !out.Cancelled {
		t.Fatalf("应标记为取消：%+v", out)
	}
	if out.Matched != 0 {
		t.Fatalf("取消在首个槽位前，不应有命中：%+v", out)
	}
	s, _ := sk.Get("report.txt")
	if s.Bound() || st.Len() != 1 {
		t.Fatalf("取消前无绑定：%+v，stage=%v", s, st.Paths())
	}
}

func TestClear_FileAndDirectory(t *testing.T) {
	e, sk, _, _ := newEngine(t, "docs/\n    intro.md", nil, nil)

	if err := e.Assign("docs/intro.md", "/s/x"); err != nil {
		t.Fatalf("指派失败：%v", err)
	}
	if err := e.Clear("docs/intro.md"); err != nil {
		t.Fatalf("清除失败：%v", err)
	}
	s, _ := sk.Get("docs/intro.md")
	if s.Bound() || s.Status != domain.SlotMissing || s.Confidence != 0 {
		t.Fatalf("清除结果不对：%+v", s)
	}

	// 目录槽位：no-op，不报错。
	if err := e.Clear("docs"); err != nil {
		t.Fatalf("目录槽位清除应为 no-op：%v", err)
	}
	if err := e.Clear("absent"); !domain.IsTargetNotFound(err) {
		t.Fatalf("未知路径应报 TargetNotFoundError：%v", err)
	}
}

func TestClearAll_Idempotent(t *testing.T) {
	e, sk, _, _ := newEngine(t, "a.txt\nb.txt\ndocs/", nil, nil)

	if err := e.Assign("a.txt", "/s/1"); err != nil {
		t.Fatalf("指派失败：%v", err)
	}
	e.ClearAll()
	e.ClearAll()

	for _, s := range sk.Slots() {
		if s.Bound() || s.Confidence != 0 {
			t.Fatalf("清除后不应有绑定：%+v", s)
		}
		if s.Kind == domain.KindFile && s.Status != domain.SlotMissing {
			t.Fatalf("文件槽位应回到 missing：%+v", s)
		}
	}
}

func TestAutoAssign_EmptyPreconditions(t *testing.T) {
	e, _, _, _ := newEngine(t, "a.txt", nil, nil)
	if _, err := e.AutoAssignFromStage(context.Background(), nil); err == nil {
		t.Fatalf("暂存区为空应报前置条件错误")
	}

	empty, err := skeleton.Build(nil)
	if err != nil {
		t.Fatalf("建空骨架失败：%v", err)
	}
	st := fileset.NewList()
	st.Add("/s/x")
	e2 := NewEngine(empty, st, fileset.NewList(), match.NewScorer(0))
	if _, err := e2.AutoAssignFromStage(context.Background(), nil); err == nil {
		t.Fatalf("空骨架应报前置条件错误")
	}
}
