package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jigar48949/Files-and-folder-directory/internal/domain"
)

func newSkeletonCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skeleton",
		Short: "骨架：由结构定义生成的目标槽位集合",
	}
	cmd.AddCommand(newSkeletonBuildCommand())
	cmd.AddCommand(newSkeletonShowCommand())
	cmd.AddCommand(newSkeletonClearCommand())
	return cmd
}

func newSkeletonBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [-f FILE | --template NAME]",
		Short: "解析结构定义并重建骨架（旧绑定全部丢弃）",
		Args:  noArgs,
		RunE:  runSkeletonBuild,
	}
	cmd.Flags().StringP("file", "f", "", "结构定义文件（缺省读 stdin）")
	cmd.Flags().String("template", "", "用已保存的模板作为结构定义")
	return cmd
}

func runSkeletonBuild(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	tplName, _ := cmd.Flags().GetString("template")
	if file != "" && tplName != "" {
		return usagef("-f 与 --template 只能二选一")
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	unlock, err := e.lock()
	if err != nil {
		return err
	}
	defer unlock()

	var text string
	if tplName != "" {
		tpl, ok, err := e.st.GetTemplate(tplName)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("模板 %q 不存在", tplName)
		}
		text = tpl.Structure
	} else {
		text, err = readTextArg(cmd, file)
		if err != nil {
			return err
		}
	}

	n, errs, err := e.sess.BuildSkeleton(text)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		for _, msg := range errs {
			colFail.Fprintf(cmd.ErrOrStderr(), "%s\n", msg)
		}
		return fmt.Errorf("%d 个解析错误，骨架未改动", len(errs))
	}

	files, dirs := 0, 0
	for _, sl := range e.sess.Skeleton.Slots() {
		if sl.Kind == domain.KindFile {
			files++
		} else {
			dirs++
		}
	}
	if e.json {
		return emitJSON(cmd.OutOrStdout(), struct {
			Slots int `json:"slots"`
			Files int `json:"files"`
			Dirs  int `json:"dirs"`
		}{n, files, dirs})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "骨架已建立：%d 个槽位（文件 %d，目录 %d）\n", n, files, dirs)
	return nil
}

func newSkeletonShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "查看骨架槽位与绑定状态",
		Args:  noArgs,
		RunE:  runSkeletonShow,
	}
}

func runSkeletonShow(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}

	if e.json {
		return emitJSON(cmd.OutOrStdout(), e.sess.Skeleton)
	}

	out := cmd.OutOrStdout()
	if e.sess.Skeleton.Len() == 0 {
		fmt.Fprintln(out, "骨架为空。先用 dirtool skeleton build 建立。")
		return nil
	}
	for _, sl := range e.sess.Skeleton.Slots() {
		label, c := slotStatusLabel(sl)
		c.Fprintf(out, "%-14s", label)
		fmt.Fprintf(out, " %s", sl.RelPath)
		if sl.Bound() {
			colDim.Fprintf(out, "  <- %s", sl.Source)
		}
		fmt.Fprintln(out)
	}
	comp := e.sess.Completion()
	fmt.Fprintf(out, "完成度：%d/%d（%.1f%%）\n", comp.MatchedFiles, comp.TotalFiles, comp.Percent)
	return nil
}

func newSkeletonClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear [PATH... | --all]",
		Short: "清除槽位绑定（不动磁盘上的文件）",
		RunE:  runSkeletonClear,
	}
	cmd.Flags().Bool("all", false, "清除全部绑定")
	return cmd
}

func runSkeletonClear(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	if all && len(args) > 0 {
		return usagef("--all 不能与 PATH 同时给出")
	}
	if !all && len(args) == 0 {
		return usagef("需要至少一个 PATH，或用 --all 清除全部")
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	unlock, err := e.lock()
	if err != nil {
		return err
	}
	defer unlock()

	n, err := e.sess.ClearAssignments(args, all)
	if err != nil {
		return err
	}
	if e.json {
		return emitJSON(cmd.OutOrStdout(), struct {
			Cleared int `json:"cleared"`
		}{n})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "已清除 %d 个绑定\n", n)
	return nil
}
