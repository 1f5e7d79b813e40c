package archive

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/jigar48949/Files-and-folder-directory/internal/domain"
)

func skel(t *testing.T, slots ...*domain.Slot) *domain.Skeleton {
	t.Helper()
	sk := domain.NewSkeleton()
	for _, s := range slots {
		if err := sk.Add(s); err != nil {
			t.Fatalf("加槽位失败：%v", err)
		}
	}
	return sk
}

func touch(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("建目录失败：%v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写文件失败：%v", err)
	}
}

func zipNames(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("打开 zip 失败：%v", err)
	}
	defer zr.Close()

	out := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			out[f.Name] = ""
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("打开条目 %s 失败：%v", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("读条目 %s 失败：%v", f.Name, err)
		}
		out[f.Name] = string(b)
	}
	return out
}

func TestBuildPackage_FilesAndEmptyDirs(t *testing.T) {
	srcDir := t.TempDir()
	tmpParent := t.TempDir()
	outDir := t.TempDir()
	src := filepath.Join(srcDir, "intro.md")
	touch(t, src, "hello")

	sk := skel(t,
		&domain.Slot{RelPath: "docs", Kind: domain.KindDirectory, Name: "docs", Status: domain.SlotMissing},
		&domain.Slot{RelPath: "docs/intro.md", Kind: domain.KindFile, Name: "intro.md", Source: src, Status: domain.SlotAssigned, Confidence: 100},
		&domain.Slot{RelPath: "assets", Kind: domain.KindDirectory, Name: "assets", Status: domain.SlotMissing},
	)

	out := filepath.Join(outDir, "pkg.zip")
	rep, actions, err := BuildPackage(context.Background(), sk, out, tmpParent, nil)
	if err != nil {
		t.Fatalf("打包失败：%v", err)
	}
	if rep.Summary.Processed != 1 || rep.Summary.Failed != 0 {
		t.Fatalf("汇总不对：%+v", rep.Summary)
	}
	if len(actions) != 1 || actions[0].Kind != domain.ActionCreateFile || actions[0].Target != out {
		t.Fatalf("动作记录不对：%+v", actions)
	}

	names := zipNames(t, out)
	if names["docs/intro.md"] != "hello" {
		t.Fatalf("文件条目不对：%v", names)
	}
	if _, ok := names["assets/"]; !ok {
		t.Fatalf("显式空目录必须有自己的条目：%v", names)
	}
	// docs 非空，不应有显式目录条目。
	if _, ok := names["docs/"]; ok {
		t.Fatalf("非空目录不应有显式条目：%v", names)
	}
}

func TestBuildPackage_StagingAlwaysCleaned(t *testing.T) {
	srcDir := t.TempDir()
	tmpParent := t.TempDir()
	outDir := t.TempDir()
	src := filepath.Join(srcDir, "a.txt")
	touch(t, src, "x")

	sk := skel(t, &domain.Slot{RelPath: "a.txt", Kind: domain.KindFile, Name: "a.txt", Source: src, Status: domain.SlotAssigned, Confidence: 100})

	if _, _, err := BuildPackage(context.Background(), sk, filepath.Join(outDir, "p.zip"), tmpParent, nil); err != nil {
		t.Fatalf("打包失败：%v", err)
	}
	entries, err := os.ReadDir(tmpParent)
	if err != nil {
		t.Fatalf("读临时父目录失败：%v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("临时打包目录必须清理干净：%v", entries)
	}
}

func TestBuildPackage_MissingSourceSkipped(t *testing.T) {
	srcDir := t.TempDir()
	tmpParent := t.TempDir()
	outDir := t.TempDir()
	ok := filepath.Join(srcDir, "ok.txt")
	touch(t, ok, "ok")

	sk := skel(t,
		&domain.Slot{RelPath: "gone.txt", Kind: domain.KindFile, Name: "gone.txt", Source: filepath.Join(srcDir, "gone.txt"), Status: domain.SlotAssigned, Confidence: 100},
		&domain.Slot{RelPath: "ok.txt", Kind: domain.KindFile, Name: "ok.txt", Source: ok, Status: domain.SlotAssigned, Confidence: 100},
	)

	out := filepath.Join(outDir, "p.zip")
	rep, _, err := BuildPackage(context.Background(), sk, out, tmpParent, nil)
	if err != nil {
		t.Fatalf("单条缺源不该整体失败：%v", err)
	}
	if rep.Summary.Skipped != 1 || rep.Summary.Processed != 1 {
		t.Fatalf("汇总不对：%+v", rep.Summary)
	}
	names := zipNames(t, out)
	if names["ok.txt"] != "ok" {
		t.Fatalf("其余文件应照常入包：%v", names)
	}
	if _, ok := names["gone.txt"]; ok {
		t.Fatalf("缺源文件不应出现在包里：%v", names)
	}
}

func TestBuildPackage_NothingBound(t *testing.T) {
	sk := skel(t, &domain.Slot{RelPath: "a.txt", Kind: domain.KindFile, Name: "a.txt", Status: domain.SlotMissing})
	if _, _, err := BuildPackage(context.Background(), sk, "/tmp/x.zip", t.TempDir(), nil); err == nil {
		t.Fatalf("没有已指派文件应报前置条件错误")
	}
}

func TestBuildPackage_CancelledLeavesNoZip(t *testing.T) {
	srcDir := t.TempDir()
	tmpParent := t.TempDir()
	outDir := t.TempDir()
	src := filepath.Join(srcDir, "a.txt")
	touch(t, src, "x")

	sk := skel(t, &domain.Slot{RelPath: "a.txt", Kind: domain.KindFile, Name: "a.txt", Source: src, Status: domain.SlotAssigned, Confidence: 100})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := filepath.Join(outDir, "p.zip")
	rep, actions, err := BuildPackage(ctx, sk, out, tmpParent, nil)
	if err != nil {
		t.Fatalf("取消不是错误：%v", err)
	}
	if !rep.Cancelled {
		t.Fatalf("应标记为取消：%+v", rep)
	}
	if len(actions) != 0 {
		t.Fatalf("取消不应产出动作：%+v", actions)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("取消后不应留下 zip：%v", err)
	}
	if entries, _ := os.ReadDir(tmpParent); len(entries) != 0 {
		t.Fatalf("临时打包目录必须清理干净：%v", entries)
	}
}
