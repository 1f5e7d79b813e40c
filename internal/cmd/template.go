package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jigar48949/Files-and-folder-directory/internal/store"
	"github.com/jigar48949/Files-and-folder-directory/internal/structure"
)

func newTemplateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "管理可复用的结构模板",
		Long: `模板是一份命名的结构定义，存在数据目录的 templates.yaml 里。
skeleton build --template NAME 可以直接从模板建骨架。`,
	}
	cmd.AddCommand(newTemplateSaveCommand())
	cmd.AddCommand(newTemplateListCommand())
	cmd.AddCommand(newTemplateShowCommand())
	cmd.AddCommand(newTemplateDeleteCommand())
	cmd.AddCommand(newTemplateExportCommand())
	cmd.AddCommand(newTemplateImportCommand())
	return cmd
}

func newTemplateSaveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save NAME [-f FILE]",
		Short: "保存结构定义为模板（同名覆盖）",
		Args:  exactArgs(1),
		RunE:  runTemplateSave,
	}
	cmd.Flags().StringP("file", "f", "", "结构定义文件（缺省用会话里的结构文本）")
	cmd.Flags().String("desc", "", "模板说明")
	return cmd
}

func runTemplateSave(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	desc, _ := cmd.Flags().GetString("desc")

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

	// 存进去的模板必须能解析，不然 build --template 时才爆就太晚了。
	if _, errs := structure.Parse(text); len(errs) > 0 {
		for _, msg := range errs {
			colFail.Fprintf(cmd.ErrOrStderr(), "%s\n", msg)
		}
		return fmt.Errorf("结构定义有 %d 个解析错误，模板未保存", len(errs))
	}

	unlock, err := e.lock()
	if err != nil {
		return err
	}
	defer unlock()

	if err := e.st.SaveTemplate(store.Template{
		Name:        args[0],
		Description: desc,
		Structure:   text,
	}); err != nil {
		return err
	}
	if e.json {
		return emitJSON(cmd.OutOrStdout(), map[string]string{"saved": args[0]})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "模板 %q 已保存\n", args[0])
	return nil
}

func newTemplateListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "列出全部模板",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			ts, err := e.st.ListTemplates()
			if err != nil {
				return err
			}
			if e.json {
				if ts == nil {
					ts = []store.Template{}
				}
				return emitJSON(cmd.OutOrStdout(), ts)
			}
			if len(ts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "还没有模板。用 dirtool template save NAME 保存一个。")
				return nil
			}
			out := cmd.OutOrStdout()
			for _, t := range ts {
				colHead.Fprintf(out, "%-20s", t.Name)
				fmt.Fprintf(out, "  %s", humanize.Time(t.Created))
				if t.Description != "" {
					colDim.Fprintf(out, "  %s", t.Description)
				}
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "共 %d 个模板\n", len(ts))
			return nil
		},
	}
}

func newTemplateShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "查看模板的结构定义",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			t, ok, err := e.st.GetTemplate(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("模板 %q 不存在", args[0])
			}
			if e.json {
				return emitJSON(cmd.OutOrStdout(), t)
			}
			out := cmd.OutOrStdout()
			colHead.Fprintf(out, "%s", t.Name)
			colDim.Fprintf(out, "  创建于 %s", humanize.Time(t.Created))
			fmt.Fprintln(out)
			if t.Description != "" {
				fmt.Fprintln(out, t.Description)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, strings.TrimRight(t.Structure, "\n"))
			return nil
		},
	}
}

func newTemplateDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "删除模板",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			unlock, err := e.lock()
			if err != nil {
				return err
			}
			defer unlock()
			if err := e.st.DeleteTemplate(args[0]); err != nil {
				return err
			}
			if e.json {
				return emitJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "模板 %q 已删除\n", args[0])
			return nil
		},
	}
}

func newTemplateExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export NAME FILE",
		Short: "把模板导出为独立 YAML 文件",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			out, err := filepath.Abs(args[1])
			if err != nil {
				return err
			}
			if err := e.st.ExportTemplate(args[0], out); err != nil {
				return err
			}
			if e.json {
				return emitJSON(cmd.OutOrStdout(), map[string]string{"exported": args[0], "path": out})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "模板 %q 已导出到 %s\n", args[0], out)
			return nil
		},
	}
}

func newTemplateImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "从 YAML 文件导入模板（同名覆盖）",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			unlock, err := e.lock()
			if err != nil {
				return err
			}
			defer unlock()
			t, err := e.st.ImportTemplate(args[0])
			if err != nil {
				return err
			}
			if e.json {
				return emitJSON(cmd.OutOrStdout(), map[string]string{"imported": t.Name})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "模板 %q 已导入\n", t.Name)
			return nil
		},
	}
}
