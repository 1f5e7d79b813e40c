package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "暂存区：等待指派的源文件（命中后被消耗）",
	}
	cmd.AddCommand(newStageAddCommand())
	cmd.AddCommand(newStageListCommand())
	cmd.AddCommand(newStageClearCommand())
	return cmd
}

func newStageAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [PATH... | --dir D [-r]]",
		Short: "把文件加入暂存区（保序、去重）",
		RunE:  runStageAdd,
	}
	cmd.Flags().String("dir", "", "扫描该目录并把结果加入暂存区")
	cmd.Flags().BoolP("recursive", "r", false, "递归扫描子目录")
	cmd.Flags().StringSlice("exclude", nil, "扫描时跳过的目录名（覆盖配置 exclude_dirs）")
	return cmd
}

func runStageAdd(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	recursive, _ := cmd.Flags().GetBool("recursive")
	if dir == "" && len(args) == 0 {
		return usagef("需要至少一个 PATH，或用 --dir 指定要扫描的目录")
	}
	if dir != "" && len(args) > 0 {
		return usagef("--dir 不能与 PATH 同时给出")
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

	var added int
	if dir != "" {
		added, err = e.sess.StageAddDir(cmd.Context(), dir, recursive, e.eff.ExcludeDirs)
		if err != nil {
			return err
		}
	} else {
		var skipped []string
		added, skipped, err = e.sess.StageAdd(args)
		if err != nil {
			return err
		}
		for _, s := range skipped {
			colWarn.Fprintf(cmd.ErrOrStderr(), "跳过 %s\n", s)
		}
	}

	if e.json {
		return emitJSON(cmd.OutOrStdout(), struct {
			Added int `json:"added"`
			Total int `json:"total"`
		}{added, e.sess.Staged.Len()})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "新增 %d 个，暂存区共 %d 个\n", added, e.sess.Staged.Len())
	return nil
}

func newStageListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "列出暂存区内容",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if e.json {
				return emitJSON(cmd.OutOrStdout(), e.sess.Staged)
			}
			out := cmd.OutOrStdout()
			for i, p := range e.sess.Staged.Paths() {
				fmt.Fprintf(out, "%3d  %s\n", i+1, p)
			}
			fmt.Fprintf(out, "共 %d 个\n", e.sess.Staged.Len())
			return nil
		},
	}
}

func newStageClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "清空暂存区",
		Args:  noArgs,
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

			n, err := e.sess.StageClear()
			if err != nil {
				return err
			}
			if e.json {
				return emitJSON(cmd.OutOrStdout(), struct {
					Cleared int `json:"cleared"`
				}{n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已清空暂存区（%d 个）\n", n)
			return nil
		},
	}
}
