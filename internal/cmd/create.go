package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jigar48949/Files-and-folder-directory/internal/config"
	"github.com/jigar48949/Files-and-folder-directory/internal/structure"
)

func newCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create --base DIR [-f FILE]",
		Short: "在基础目录下铺设结构骨架（目录与空文件）",
		Long: `按结构定义创建目录与空文件。幂等：已存在的目录原样保留，
已存在的文件跳过且绝不清空内容。解析有错时不产生任何副作用。

结构定义来自 -f FILE；缺省用会话里已建骨架的那份结构文本。`,
		Args: noArgs,
		RunE: runCreate,
	}
	cmd.Flags().String("base", "", "基础目录（缺省用上次用过的目录）")
	cmd.Flags().StringP("file", "f", "", "结构定义文件（缺省用会话里的结构文本）")
	return cmd
}

func runCreate(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}

	var text string
	if strings.TrimSpace(file) != "" {
		text, err = readTextArg(cmd, file)
		if err != nil {
			return err
		}
	} else {
		text = e.sess.StructureText
		if strings.TrimSpace(text) == "" {
			return usagef("会话里没有结构文本：用 -f FILE 指定，或先 dirtool skeleton build")
		}
	}

	entries, errs := structure.Parse(text)
	if len(errs) > 0 {
		for _, msg := range errs {
			colFail.Fprintf(cmd.ErrOrStderr(), "%s\n", msg)
		}
		return fmt.Errorf("%d 个解析错误，未产生任何副作用", len(errs))
	}

	base, err := resolveBaseDir(cmd, e)
	if err != nil {
		return err
	}

	unlock, err := e.lock()
	if err != nil {
		return err
	}
	defer unlock()

	rep, err := e.sess.CreateStructure(cmd.Context(), entries, base)
	if err != nil {
		return err
	}
	if err := config.SaveLastDirectory(e.cfgDir, base); err != nil {
		colWarn.Fprintf(cmd.ErrOrStderr(), "警告：记录 last_directory 失败：%v\n", err)
	}
	return emitReport(cmd, e.json, rep)
}
