package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jigar48949/Files-and-folder-directory/internal/fileset"
)

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats DIR",
		Short: "统计目录下的文件数、目录数与总大小",
		Args:  exactArgs(1),
		RunE:  runStats,
	}
}

func runStats(cmd *cobra.Command, args []string) error {
	dir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("无法访问 %s：%w", dir, err)
	}
	if !info.IsDir() {
		return usagef("%s 不是目录", dir)
	}

	jsonOut, _ := cmd.Flags().GetBool("json")
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		color.NoColor = true
	}

	st, err := fileset.Stats(cmd.Context(), dir)
	if err != nil {
		return err
	}
	if jsonOut {
		return emitJSON(cmd.OutOrStdout(), st)
	}
	out := cmd.OutOrStdout()
	colHead.Fprintf(out, "%s\n", st.Dir)
	fmt.Fprintf(out, "文件 %d，目录 %d，共 %s\n", st.Files, st.Dirs, humanize.Bytes(uint64(st.TotalBytes)))
	return nil
}

func newCleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup DIR",
		Short: "自底向上删除目录下的空目录",
		Long: `删除 DIR 下所有空目录。自底向上处理，子目录删空后父目录
跟着一起删。DIR 自身永远保留。`,
		Args: exactArgs(1),
		RunE: runCleanup,
	}
}

func runCleanup(cmd *cobra.Command, args []string) error {
	dir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("无法访问 %s：%w", dir, err)
	}
	if !info.IsDir() {
		return usagef("%s 不是目录", dir)
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

	removed, warnings, err := fileset.CleanupEmptyDirs(cmd.Context(), dir)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		colWarn.Fprintf(cmd.ErrOrStderr(), "警告：%s\n", w)
	}
	if e.json {
		return emitJSON(cmd.OutOrStdout(), struct {
			Removed  int      `json:"removed"`
			Warnings []string `json:"warnings"`
		}{removed, append([]string{}, warnings...)})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "已删除 %d 个空目录\n", removed)
	return nil
}
