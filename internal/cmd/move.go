package cmd

import (
	"github.com/spf13/cobra"
)

func newMoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move --to DIR SOURCE...",
		Short: "把若干文件移动到目标目录",
		Long: `把给定源文件移动到已存在的目标目录下（保留文件名）。
目标重名时自动追加 _1、_2 这样的序号，绝不覆盖。
整批会记录进操作历史，可用 dirtool history undo 撤销。`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return usagef("至少需要一个 SOURCE")
			}
			return nil
		},
		RunE: runMove,
	}
	cmd.Flags().String("to", "", "目标目录")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func runMove(cmd *cobra.Command, args []string) error {
	dest, _ := cmd.Flags().GetString("to")

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	unlock, err := e.lock()
	if err != nil {
		return err
	}
	defer unlock()

	rep, err := e.sess.MoveFiles(cmd.Context(), dest, args)
	if err != nil {
		return err
	}
	return emitReport(cmd, e.json, rep)
}
