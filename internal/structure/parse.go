package structure

import (
	"fmt"
	"strings"

	"github.com/jigar48949/Files-and-folder-directory/internal/domain"
)

// 名字中的保留字符。'/' 不在其中：它只允许作为行尾的目录标记，
// 去掉标记后名字里再出现 '/' 同样按非法字符报错。
const reservedChars = `<>:"|?*\`

// 树形连接符（tree(1) 风格）。
const connector = "──"

type rawLine struct {
	num  int    // 1-based 行号
	text string // 去注释、去尾部空白后的内容（保留前导空白）
}

// Parse 把结构文本解析为目标条目序列。
//
// 约束：
// - 纯函数：不做任何 I/O，同一输入必得同一输出
// - 错误按行收集（格式 L<n>: <reason>: '<line>'），单行失败不中断解析
// - 调用方在 errors 非空时不得用 entries 建骨架
func Parse(text string) ([]domain.StructureEntry, []string) {
	lines := splitLines(text)
	tabMode, unit := detectIndent(lines)

	entries := make([]domain.StructureEntry, 0, len(lines))
	errs := make([]string, 0)
	seen := make(map[string]struct{}, len(lines))
	stack := make([]string, 0, 8)

	for _, ln := range lines {
		content := strings.TrimLeft(ln.text, " \t")
		ws := ln.text[:len(ln.text)-len(content)]

		// 基础深度：tab 模式直接数前导空白字符，空格模式按单位整除。
		depth := 0
		if tabMode {
			depth = len(ws)
		} else if unit > 0 {
			depth = len(ws) / unit
		}

		name := strings.TrimSpace(content)
		original := strings.TrimSpace(ln.text)

		// 树形符号行：深度 = 基础深度 + 竖线数 + 连接符本身的一层。
		// 名字取最后一个连接符之后的部分。
		if strings.Contains(name, "├"+connector) || strings.Contains(name, "└"+connector) {
			prefix, _, _ := strings.Cut(name, connector)
			depth += strings.Count(prefix, "│") + 1
			if k := strings.LastIndex(name, connector); k >= 0 {
				name = strings.TrimSpace(name[k+len(connector):])
			}
		}

		if name == "" {
			errs = append(errs, fmt.Sprintf("L%d: empty name: '%s'", ln.num, original))
			continue
		}

		// 目录标记：行尾 '/'。先摘掉标记再做名字校验。
		kind := domain.KindFile
		clean := name
		if strings.HasSuffix(name, "/") {
			kind = domain.KindDirectory
			clean = strings.TrimRight(name, "/")
			if clean == "" {
				errs = append(errs, fmt.Sprintf("L%d: name empty after removing '/': '%s'", ln.num, original))
				continue
			}
		}

		if clean == "." || clean == ".." {
			errs = append(errs, fmt.Sprintf("L%d: name '.' or '..' not allowed: '%s'", ln.num, original))
			continue
		}
		if strings.ContainsAny(clean, reservedChars) || strings.Contains(clean, "/") {
			errs = append(errs, fmt.Sprintf("L%d: invalid characters in name %q: '%s'", ln.num, clean, original))
			continue
		}

		// 路径栈：截断到当前深度再入栈。深度大于栈长时不截断
		// （超深跳变不视为错误，直接挂在当前栈上）。
		if depth < len(stack) {
			stack = stack[:depth]
		}
		stack = append(stack, clean)
		relPath := strings.Join(stack, "/")

		if _, dup := seen[relPath]; dup {
			errs = append(errs, fmt.Sprintf("L%d: duplicate path %q: '%s'", ln.num, relPath, original))
			stack = stack[:len(stack)-1]
			continue
		}
		seen[relPath] = struct{}{}

		entries = append(entries, domain.StructureEntry{
			RelPath: relPath,
			Kind:    kind,
			Name:    clean,
			Depth:   len(stack) - 1,
		})
	}

	return entries, errs
}

// splitLines 预处理：按行切分，去掉 '#' 注释与尾部空白，丢弃空行。
func splitLines(text string) []rawLine {
	raw := strings.Split(text, "\n")
	out := make([]rawLine, 0, len(raw))
	for i, s := range raw {
		if j := strings.IndexByte(s, '#'); j >= 0 {
			s = s[:j]
		}
		s = strings.TrimRight(s, " \t\r")
		if strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, rawLine{num: i + 1, text: s})
	}
	return out
}

// detectIndent 做一次全局探测：第一条带前导空白的行决定缩进单位。
// 首个空白字符是 tab 则进入 tab 模式（单位 = 1 字符）；
// 否则单位 = 该行前导空白长度（防御性兜底 4）。
func detectIndent(lines []rawLine) (tabMode bool, unit int) {
	for _, ln := range lines {
		content := strings.TrimLeft(ln.text, " \t")
		ws := ln.text[:len(ln.text)-len(content)]
		if ws == "" {
			continue
		}
		if ws[0] == '\t' {
			return true, 1
		}
		return false, len(ws)
	}
	return false, 4
}
