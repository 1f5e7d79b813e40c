package history

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jigar48949/Files-and-folder-directory/internal/domain"
)

func touch(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写文件失败：%v", err)
	}
}

func rec(kind domain.OpKind, actions ...domain.ActionRecord) domain.OperationRecord {
	return domain.OperationRecord{
		ID:      "op-test",
		Kind:    kind,
		Time:    time.Now().UTC(),
		BaseDir: "/base",
		Actions: actions,
	}
}

func TestStore_LoadMissingIsEmpty(t *testing.T) {
	s := NewStore(t.TempDir(), 0)
	recs, err := s.Load()
	if err != nil {
		t.Fatalf("不存在的历史文件不算错误：%v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("应为空历史：%v", recs)
	}
}

func TestStore_AppendCapsAtLimit(t *testing.T) {
	s := NewStore(t.TempDir(), 3)
	for i := 0; i < 5; i++ {
		r := rec(domain.OpMoveFiles)
		r.ID = fmt.Sprintf("op-%d", i)
		if err := s.Append(r); err != nil {
			t.Fatalf("追加失败：%v", err)
		}
	}
	recs, err := s.Load()
	if err != nil {
		t.Fatalf("读取失败：%v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("应裁到上限 3：%d", len(recs))
	}
	if recs[0].ID != "op-2" || recs[2].ID != "op-4" {
		t.Fatalf("应丢最旧保最新：%s..%s", recs[0].ID, recs[2].ID)
	}
}

func TestStore_Clear(t *testing.T) {
	s := NewStore(t.TempDir(), 0)
	if err := s.Append(rec(domain.OpMoveFiles)); err != nil {
		t.Fatalf("追加失败：%v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("清空失败：%v", err)
	}
	recs, _ := s.Load()
	if len(recs) != 0 {
		t.Fatalf("清空后应无记录：%v", recs)
	}
}

func TestUndoLast_CreateStructure(t *testing.T) {
	dataDir := t.TempDir()
	base := t.TempDir()
	s := NewStore(dataDir, 0)

	dir := filepath.Join(base, "src")
	file := filepath.Join(base, "src", "main.go")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("建目录失败：%v", err)
	}
	touch(t, file, "")

	if err := s.Append(rec(domain.OpCreateStructure,
		domain.ActionRecord{Kind: domain.ActionCreateDir, Target: dir, Time: time.Now().UTC()},
		domain.ActionRecord{Kind: domain.ActionCreateFile, Target: file, Time: time.Now().UTC()},
	)); err != nil {
		t.Fatalf("追加失败：%v", err)
	}

	res, err := s.UndoLast()
	if err != nil {
		t.Fatalf("撤销失败：%v", err)
	}
	// 倒序：先删文件，目录随之变空，也能删掉。
	if res.Reversed != 2 {
		t.Fatalf("应撤销 2 个动作：%+v", res)
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Fatalf("文件应被删除：%v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("空目录应被删除：%v", err)
	}
	recs, _ := s.Load()
	if len(recs) != 0 {
		t.Fatalf("撤销后记录应弹出：%v", recs)
	}
}

func TestUndoLast_CreateKeepsNonEmptyDir(t *testing.T) {
	dataDir := t.TempDir()
	base := t.TempDir()
	s := NewStore(dataDir, 0)

	dir := filepath.Join(base, "src")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("建目录失败：%v", err)
	}
	// 用户后来放进去的文件，撤销绝不能删。
	touch(t, filepath.Join(dir, "user.txt"), "keep me")

	if err := s.Append(rec(domain.OpCreateStructure,
		domain.ActionRecord{Kind: domain.ActionCreateDir, Target: dir, Time: time.Now().UTC()},
	)); err != nil {
		t.Fatalf("追加失败：%v", err)
	}

	res, err := s.UndoLast()
	if err != nil {
		t.Fatalf("撤销失败：%v", err)
	}
	if res.Reversed != 0 || len(res.Warnings) != 1 {
		t.Fatalf("非空目录应跳过并警告：%+v", res)
	}
	if _, err := os.Stat(filepath.Join(dir, "user.txt")); err != nil {
		t.Fatalf("用户文件必须保留：%v", err)
	}
}

func TestUndoLast_MoveBackRecreatesParent(t *testing.T) {
	dataDir := t.TempDir()
	srcDir := t.TempDir()
	destDir := t.TempDir()
	s := NewStore(dataDir, 0)

	src := filepath.Join(srcDir, "deep", "a.txt")
	dst := filepath.Join(destDir, "a.txt")
	touch(t, dst, "payload")
	// 原父目录已不在：撤销要重建它。
	if err := os.RemoveAll(filepath.Join(srcDir, "deep")); err != nil {
		t.Fatalf("删目录失败：%v", err)
	}

	if err := s.Append(rec(domain.OpOrganizeMove,
		domain.ActionRecord{Kind: domain.ActionMove, Source: src, Target: dst, Time: time.Now().UTC()},
	)); err != nil {
		t.Fatalf("追加失败：%v", err)
	}

	res, err := s.UndoLast()
	if err != nil {
		t.Fatalf("撤销失败：%v", err)
	}
	if res.Reversed != 1 {
		t.Fatalf("应撤销 1 个动作：%+v", res)
	}
	b, err := os.ReadFile(src)
	if err != nil || string(b) != "payload" {
		t.Fatalf("文件应移回原处：%v %q", err, b)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("目标处不应残留：%v", err)
	}
}

func TestUndoLast_CopyDeletesTargetsOnly(t *testing.T) {
	dataDir := t.TempDir()
	srcDir := t.TempDir()
	base := t.TempDir()
	s := NewStore(dataDir, 0)

	src := filepath.Join(srcDir, "a.txt")
	dst := filepath.Join(base, "a.txt")
	touch(t, src, "x")
	touch(t, dst, "x")

	if err := s.Append(rec(domain.OpOrganizeCopy,
		domain.ActionRecord{Kind: domain.ActionCopy, Source: src, Target: dst, Time: time.Now().UTC()},
	)); err != nil {
		t.Fatalf("追加失败：%v", err)
	}

	res, err := s.UndoLast()
	if err != nil {
		t.Fatalf("撤销失败：%v", err)
	}
	if res.Reversed != 1 {
		t.Fatalf("应撤销 1 个动作：%+v", res)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("拷贝产物应被删除：%v", err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("源文件绝不能动：%v", err)
	}
}

func TestUndoLast_PackageNotUndoable(t *testing.T) {
	dataDir := t.TempDir()
	s := NewStore(dataDir, 0)

	if err := s.Append(rec(domain.OpPackageZip,
		domain.ActionRecord{Kind: domain.ActionCreateFile, Target: "/out/p.zip", Time: time.Now().UTC()},
	)); err != nil {
		t.Fatalf("追加失败：%v", err)
	}

	_, err := s.UndoLast()
	if !domain.IsNotUndoable(err) {
		t.Fatalf("期望 NotUndoableError，实际：%v", err)
	}
	// 不可撤销时记录保留。
	recs, _ := s.Load()
	if len(recs) != 1 {
		t.Fatalf("记录不应被弹出：%v", recs)
	}
}

func TestUndoLast_EmptyHistory(t *testing.T) {
	s := NewStore(t.TempDir(), 0)
	if _, err := s.UndoLast(); err == nil {
		t.Fatalf("空历史应报错")
	}
}

func TestUndoLast_MissingMoveTargetWarns(t *testing.T) {
	dataDir := t.TempDir()
	s := NewStore(dataDir, 0)

	if err := s.Append(rec(domain.OpMoveFiles,
		domain.ActionRecord{Kind: domain.ActionMove, Source: "/nowhere/src.txt", Target: "/nowhere/dst.txt", Time: time.Now().UTC()},
	)); err != nil {
		t.Fatalf("追加失败：%v", err)
	}

	res, err := s.UndoLast()
	if err != nil {
		t.Fatalf("单条不可逆只记警告：%v", err)
	}
	if res.Reversed != 0 || len(res.Warnings) != 1 {
		t.Fatalf("应零撤销一警告：%+v", res)
	}
	// 尝试完成后记录照样弹出。
	recs, _ := s.Load()
	if len(recs) != 0 {
		t.Fatalf("记录应弹出：%v", recs)
	}
}
