package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/jigar48949/Files-and-folder-directory/internal/domain"
	"github.com/jigar48949/Files-and-folder-directory/internal/infra/fsx"
)

// 与原始工具一致的 DEFLATE 压缩级别。
const deflateLevel = 6

// BuildPackage 把骨架打成 zip：先在 tmpParent 下搭临时目录（目录槽位全建，
// 已绑定的文件槽位逐个拷入），再整体压缩到 outPath。
//
// 约束：
// - 临时目录无论成败都会清理
// - 显式空目录在 zip 里有自己的结尾带 / 的条目，解包后空目录不丢
// - 单个源文件缺失/拷贝失败只记警告，不中断打包
// - 取消发生在压缩阶段时，半成品 zip 会被删掉，不留损坏文件
func BuildPackage(ctx context.Context, sk *domain.Skeleton, outPath, tmpParent string, progress func(done, total int)) (domain.Report, []domain.ActionRecord, error) {
	rep := domain.Report{
		Op:        domain.OpPackageZip,
		BaseDir:   filepath.Dir(outPath),
		StartedAt: time.Now().UTC(),
		Items:     make([]domain.ItemResult, 0, 16),
	}

	if sk == nil || sk.Len() == 0 {
		return rep, nil, errors.New("骨架为空，先用 skeleton build 构建")
	}
	bound := make([]*domain.Slot, 0, sk.Len())
	for _, s := range sk.Slots() {
		if s.Kind == domain.KindFile && s.Bound() {
			bound = append(bound, s)
		}
	}
	if len(bound) == 0 {
		return rep, nil, errors.New("没有已指派的文件可打包")
	}

	staging := filepath.Join(tmpParent, fmt.Sprintf("temp_pkg_%d", time.Now().Unix()))
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return rep, nil, fmt.Errorf("创建临时打包目录失败：%w", err)
	}
	defer os.RemoveAll(staging)

	// 先把目录骨架搭出来：显式空目录也要出现在包里。
	for _, s := range sk.Slots() {
		dst := filepath.Join(staging, filepath.FromSlash(s.RelPath))
		if s.Kind == domain.KindDirectory {
			if err := os.MkdirAll(dst, 0o755); err != nil {
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("临时目录 %s 创建失败：%v", dst, err))
			}
			continue
		}
		if s.Bound() {
			if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("临时目录 %s 创建失败：%v", filepath.Dir(dst), err))
			}
		}
	}

	total := len(bound)
	for i, s := range bound {
		if ctx.Err() != nil {
			rep.Cancelled = true
			rep.FinishedAt = time.Now().UTC()
			rep.Finalize()
			return rep, nil, nil
		}
		if progress != nil {
			progress(i+1, total)
		}

		dst := filepath.Join(staging, filepath.FromSlash(s.RelPath))
		item := domain.ItemResult{Src: s.Source, Dst: filepath.FromSlash(s.RelPath), Status: domain.ItemProcessed} // 失败时覆盖

		fi, err := os.Stat(s.Source)
		if err != nil || !fi.Mode().IsRegular() {
			item.Status = domain.ItemSkipped
			item.ErrorCode = domain.ErrCodeSourceMissing
			item.Note = "源文件不存在或不是普通文件"
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("跳过 %s：源文件不存在或不是普通文件", s.Source))
			rep.Items = append(rep.Items, item)
			continue
		}
		if err := fsx.CopyFile(s.Source, dst); err != nil {
			item.Status = domain.ItemFailed
			item.ErrorCode = domain.ErrCodeIOFailed
			item.Note = err.Error()
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("拷贝 %s 失败：%v", s.Source, err))
			rep.Items = append(rep.Items, item)
			continue
		}
		rep.Items = append(rep.Items, item)
	}

	if ctx.Err() != nil {
		rep.Cancelled = true
		rep.FinishedAt = time.Now().UTC()
		rep.Finalize()
		return rep, nil, nil
	}

	if err := writeZip(ctx, staging, outPath); err != nil {
		rep.FinishedAt = time.Now().UTC()
		rep.Finalize()
		if errors.Is(err, context.Canceled) {
			rep.Cancelled = true
			return rep, nil, nil
		}
		return rep, nil, fmt.Errorf("写入 zip 失败：%w", err)
	}

	actions := []domain.ActionRecord{{
		Kind:   domain.ActionCreateFile,
		Target: outPath,
		Time:   time.Now().UTC(),
	}}
	rep.FinishedAt = time.Now().UTC()
	rep.Finalize()
	return rep, actions, nil
}

// writeZip 把 root 下的内容整体压缩到 outPath。
// 条目名用相对 root 的斜杠路径；只有空目录会得到显式条目。
// 取消或出错时删掉半成品文件。
func writeZip(ctx context.Context, root, outPath string) (err error) {
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(f)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, deflateLevel)
	})

	defer func() {
		cerr := zw.Close()
		if err == nil {
			err = cerr
		}
		if cerr2 := f.Close(); err == nil {
			err = cerr2
		}
		if err != nil {
			os.Remove(outPath)
		}
	}()

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, werr error) error {
		if werr != nil {
			return werr
		}
		if path == root {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			return rerr
		}
		name := filepath.ToSlash(rel)

		fi, ierr := d.Info()
		if ierr != nil {
			return ierr
		}

		if d.IsDir() {
			entries, derr := os.ReadDir(path)
			if derr != nil {
				return derr
			}
			if len(entries) > 0 {
				return nil
			}
			hdr := &zip.FileHeader{Name: name + "/", Modified: fi.ModTime()}
			hdr.SetMode(fi.Mode())
			_, herr := zw.CreateHeader(hdr)
			return herr
		}

		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: fi.ModTime()}
		hdr.SetMode(fi.Mode())
		w, herr := zw.CreateHeader(hdr)
		if herr != nil {
			return herr
		}
		src, oerr := os.Open(path)
		if oerr != nil {
			return oerr
		}
		if _, cerr := io.Copy(w, src); cerr != nil {
			src.Close()
			return cerr
		}
		return src.Close()
	})
}
