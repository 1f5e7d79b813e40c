package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPoolCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "候选池：自动匹配的源文件（命中后仍保留）",
	}
	cmd.AddCommand(newPoolLoadCommand())
	cmd.AddCommand(newPoolListCommand())
	cmd.AddCommand(newPoolClearCommand())
	return cmd
}

func newPoolLoadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load --dir D [-r]",
		Short: "扫描目录并整体替换候选池",
		Args:  noArgs,
		RunE:  runPoolLoad,
	}
	cmd.Flags().String("dir", "", "要扫描的目录")
	cmd.Flags().BoolP("recursive", "r", false, "递归扫描子目录")
	cmd.Flags().StringSlice("exclude", nil, "扫描时跳过的目录名（覆盖配置 exclude_dirs）")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func runPoolLoad(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	recursive, _ := cmd.Flags().GetBool("recursive")

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	unlock, err := e.lock()
	if err != nil {
		return err
	}
	defer unlock()

	n, err := e.sess.PoolLoad(cmd.Context(), dir, recursive, e.eff.ExcludeDirs)
	if err != nil {
		return err
	}
	if e.json {
		return emitJSON(cmd.OutOrStdout(), struct {
			Loaded int `json:"loaded"`
		}{n})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "候选池已载入 %d 个文件\n", n)
	return nil
}

func newPoolListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "列出候选池内容",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd)
			if err != nil {
				return err
			}
			if e.json {
				return emitJSON(cmd.OutOrStdout(), e.sess.Pool)
			}
			out := cmd.OutOrStdout()
			for i, p := range e.sess.Pool.Paths() {
				fmt.Fprintf(out, "%3d  %s\n", i+1, p)
			}
			fmt.Fprintf(out, "共 %d 个\n", e.sess.Pool.Len())
			return nil
		},
	}
}

func newPoolClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "清空候选池",
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

			n, err := e.sess.PoolClear()
			if err != nil {
				return err
			}
			if e.json {
				return emitJSON(cmd.OutOrStdout(), struct {
					Cleared int `json:"cleared"`
				}{n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已清空候选池（%d 个）\n", n)
			return nil
		},
	}
}
