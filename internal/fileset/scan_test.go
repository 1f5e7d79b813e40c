package fileset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}

func TestScan_NonRecursiveTopLevelOnly(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "b.txt"))
	touch(t, filepath.Join(root, "a.txt"))
	touch(t, filepath.Join(root, "sub", "deep.txt"))

	got, err := Scan(context.Background(), root, false, nil)
	if err != nil {
		t.Fatalf("扫描失败：%v", err)
	}
	if len(got) != 2 {
		t.Fatalf("只应扫到第一层文件：%v", got)
	}
	if got[0] != filepath.Join(root, "a.txt") || got[1] != filepath.Join(root, "b.txt") {
		t.Fatalf("应稳定排序：%v", got)
	}
}

func TestScan_RecursiveWithExcludes(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "keep.txt"))
	touch(t, filepath.Join(root, "sub", "deep.txt"))
	touch(t, filepath.Join(root, "skipme", "lost.txt"))

	got, err := Scan(context.Background(), root, true, []string{"skipme"})
	if err != nil {
		t.Fatalf("扫描失败：%v", err)
	}
	if len(got) != 2 {
		t.Fatalf("排除目录应整体跳过：%v", got)
	}
	for _, p := range got {
		if filepath.Base(p) == "lost.txt" {
			t.Fatalf("不应扫到被排除的文件：%v", got)
		}
	}
}

func TestScan_CancelledContext(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.txt"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Scan(ctx, root, true, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("期望 context.Canceled，实际：%v", err)
	}
}

func TestStats_Counts(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.txt"))
	touch(t, filepath.Join(root, "sub", "b.txt"))
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	st, err := Stats(context.Background(), root)
	if err != nil {
		t.Fatalf("统计失败：%v", err)
	}
	if st.Files != 2 || st.Dirs != 2 {
		t.Fatalf("计数不对：%+v", st)
	}
	if st.TotalBytes != 2 {
		t.Fatalf("字节数不对：%+v", st)
	}
}

func TestCleanupEmptyDirs_BottomUp(t *testing.T) {
	root := t.TempDir()
	// a/b/c 全空：三层都应被删。d 非空：保留。
	if err := os.MkdirAll(filepath.Join(root, "a", "b", "c"), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	touch(t, filepath.Join(root, "d", "keep.txt"))

	removed, warnings, err := CleanupEmptyDirs(context.Background(), root)
	if err != nil {
		t.Fatalf("清理失败：%v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("不期望警告：%v", warnings)
	}
	if removed != 3 {
		t.Fatalf("应删除 3 个空目录，实际 %d", removed)
	}
	if _, err := os.Stat(filepath.Join(root, "a")); !os.IsNotExist(err) {
		t.Fatalf("a 整链应已删除")
	}
	if _, err := os.Stat(filepath.Join(root, "d", "keep.txt")); err != nil {
		t.Fatalf("非空目录不应被动：%v", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Fatalf("根目录自身不应被删：%v", err)
	}
}
