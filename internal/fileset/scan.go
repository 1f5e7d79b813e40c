package fileset

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jigar48949/Files-and-folder-directory/internal/domain"
	"github.com/jigar48949/Files-and-folder-directory/internal/infra/fsx"
)

// Scan 扫描 dir 下的普通文件并返回绝对路径（稳定排序）。
//
// 规则：
// - recursive=false 只看第一层；true 时深度遍历
// - excludeDirs 视为相对 dir 的路径（绝对路径按绝对处理），命中的子树整体跳过
// - 只做 stat 级别的访问，不读文件内容
// - 取消检查按条目粒度：每访问一个条目检查一次 ctx
func Scan(ctx context.Context, dir string, recursive bool, excludeDirs []string) ([]string, error) {
	root, err := filepath.Abs(filepath.Clean(strings.TrimSpace(dir)))
	if err != nil {
		return nil, err
	}

	if !recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, err
		}
		files := make([]string, 0, len(entries))
		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if e.IsDir() || !e.Type().IsRegular() {
				continue
			}
			files = append(files, filepath.Join(root, e.Name()))
		}
		sort.Strings(files)
		return files, nil
	}

	excluded := buildExcluded(root, excludeDirs)

	files := make([]string, 0, 128)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		// 统一的排除判断：目录用 SkipDir，文件则直接跳过。
		if isExcluded(path, excluded) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 强制稳定输出，避免不同平台/文件系统行为差异带来的不确定性。
	sort.Strings(files)
	return files, nil
}

// Stats 统计 dir 下的文件数、目录数与总字节数（根目录自身不计入目录数）。
func Stats(ctx context.Context, dir string) (domain.DirStats, error) {
	root, err := filepath.Abs(filepath.Clean(strings.TrimSpace(dir)))
	if err != nil {
		return domain.DirStats{}, err
	}

	st := domain.DirStats{Dir: root}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if d.IsDir() {
			st.Dirs++
			return nil
		}
		st.Files++
		if info, err := d.Info(); err == nil {
			st.TotalBytes += info.Size()
		}
		return nil
	})
	if err != nil {
		return domain.DirStats{}, err
	}
	return st, nil
}

// CleanupEmptyDirs 自底向上删除 dir 下的空目录（dir 自身不删）。
// 删除前重新确认目录仍为空；单个失败记入 warnings 不中断。
func CleanupEmptyDirs(ctx context.Context, dir string) (int, []string, error) {
	root, err := filepath.Abs(filepath.Clean(strings.TrimSpace(dir)))
	if err != nil {
		return 0, nil, err
	}

	dirs := make([]string, 0, 32)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}

	// 深的先删：按路径深度降序（同深度按字典序，保证确定性）。
	sort.Slice(dirs, func(i, j int) bool {
		di := strings.Count(dirs[i], string(filepath.Separator))
		dj := strings.Count(dirs[j], string(filepath.Separator))
		if di != dj {
			return di > dj
		}
		return dirs[i] < dirs[j]
	})

	removed := 0
	warnings := make([]string, 0)
	for _, d := range dirs {
		if err := ctx.Err(); err != nil {
			return removed, warnings, err
		}
		ok, err := fsx.RemoveDirIfEmpty(d)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		if ok {
			removed++
		}
	}
	return removed, warnings, nil
}

func buildExcluded(root string, excludeDirs []string) []string {
	excluded := make([]string, 0, len(excludeDirs))
	for _, x := range excludeDirs {
		x = strings.TrimSpace(x)
		if x == "" {
			continue
		}
		if filepath.IsAbs(x) {
			excluded = append(excluded, filepath.Clean(x))
			continue
		}
		// x 是相对路径：相对 root。
		excluded = append(excluded, filepath.Clean(filepath.Join(root, x)))
	}

	// 排除列表排序后，isExcluded 的行为更可预测（且便于测试）。
	sort.Strings(excluded)
	return excluded
}

func isExcluded(path string, excluded []string) bool {
	path = filepath.Clean(path)
	for _, base := range excluded {
		if isUnder(path, base) {
			return true
		}
	}
	return false
}

func isUnder(path, base string) bool {
	if path == base {
		return true
	}
	sep := string(filepath.Separator)
	return strings.HasPrefix(path, base+sep)
}
