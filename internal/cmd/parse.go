package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/jigar48949/Files-and-folder-directory/internal/domain"
	"github.com/jigar48949/Files-and-folder-directory/internal/structure"
)

func newParseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [-f FILE]",
		Short: "解析结构定义并预览（不改任何状态）",
		Long: `解析结构定义文本，输出解析出的条目清单与全部错误。

结构文本支持两种写法（可混用）：
  纯缩进（每层一个缩进单位，首个缩进行决定单位），或
  树状符号行（├── 与 └──，深度由前缀中 │ 的个数决定）。
以 '/' 结尾的名字是目录；含扩展名点号的名字是文件。`,
		Args: noArgs,
		RunE: runParse,
	}
	cmd.Flags().StringP("file", "f", "", "结构定义文件（缺省读 stdin）")
	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	jsonOut, _ := cmd.Flags().GetBool("json")
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		color.NoColor = true
	}
	file, _ := cmd.Flags().GetString("file")

	text, err := readTextArg(cmd, file)
	if err != nil {
		return err
	}

	entries, errs := structure.Parse(text)

	if jsonOut {
		res := struct {
			Entries []domain.StructureEntry `json:"entries"`
			Errors  []string                `json:"errors"`
		}{Entries: entries, Errors: errs}
		if res.Entries == nil {
			res.Entries = []domain.StructureEntry{}
		}
		if res.Errors == nil {
			res.Errors = []string{}
		}
		if err := emitJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	} else {
		out := cmd.OutOrStdout()
		for _, e := range entries {
			indent := strings.Repeat("  ", e.Depth)
			if e.Kind == domain.KindDirectory {
				fmt.Fprintf(out, "%s%s/\n", indent, e.Name)
			} else {
				fmt.Fprintf(out, "%s%s\n", indent, e.Name)
			}
		}
		fmt.Fprintf(out, "共 %d 个条目（文件 %d，目录 %d）\n",
			len(entries), countKind(entries, domain.KindFile), countKind(entries, domain.KindDirectory))
		for _, msg := range errs {
			colFail.Fprintf(cmd.ErrOrStderr(), "%s\n", msg)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%d 个解析错误", len(errs))
	}
	return nil
}

func countKind(entries []domain.StructureEntry, kind string) int {
	n := 0
	for _, e := range entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// readTextArg 读取结构文本：-f FILE 优先，否则读 stdin（拒绝交互终端下的裸等待）。
func readTextArg(cmd *cobra.Command, file string) (string, error) {
	if strings.TrimSpace(file) != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("读取结构文件失败：%w", err)
		}
		return string(b), nil
	}
	if f, ok := cmd.InOrStdin().(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return "", usagef("缺少输入：用 -f FILE 指定结构文件，或通过管道输入")
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("读取 stdin 失败：%w", err)
	}
	return string(b), nil
}
