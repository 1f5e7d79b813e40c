package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jigar48949/Files-and-folder-directory/internal/domain"
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "查看与撤销操作历史",
		Long: `每次 create / organize / move / package 都会记录一条操作，
最多保留最近若干条（history_limit 配置）。undo 撤销最近一条：
建出来的删掉、拷过去的删掉、移走的移回来。打包不可撤销。`,
		Args: noArgs,
		RunE: runHistoryShow,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "列出操作历史（最近的在前）",
		Args:  noArgs,
		RunE:  runHistoryShow,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "undo",
		Short: "撤销最近一次操作",
		Args:  noArgs,
		RunE:  runHistoryUndo,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "清空操作历史",
		Args:  noArgs,
		RunE:  runHistoryClear,
	})
	return cmd
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	recs, err := e.hist.Load()
	if err != nil {
		return err
	}
	if e.json {
		if recs == nil {
			recs = []domain.OperationRecord{}
		}
		return emitJSON(cmd.OutOrStdout(), recs)
	}
	out := cmd.OutOrStdout()
	if len(recs) == 0 {
		fmt.Fprintln(out, "操作历史为空。")
		return nil
	}
	for i := len(recs) - 1; i >= 0; i-- {
		rec := recs[i]
		colDim.Fprintf(out, "%-10s", shortID(rec.ID))
		colHead.Fprintf(out, "%-18s", string(rec.Kind))
		fmt.Fprintf(out, "%4d 个动作  %s", len(rec.Actions), humanize.Time(rec.Time))
		if rec.BaseDir != "" {
			colDim.Fprintf(out, "  %s", rec.BaseDir)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "共 %d 条记录\n", len(recs))
	return nil
}

// shortID 取 UUID 前 8 位做展示；历史记录的定位靠位置（最近一条），
// 短 ID 只为肉眼对照。
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runHistoryUndo(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	unlock, err := e.lock()
	if err != nil {
		return err
	}
	defer unlock()

	res, err := e.sess.Undo()
	if err != nil {
		return err
	}
	for _, w := range res.Warnings {
		colWarn.Fprintf(cmd.ErrOrStderr(), "警告：%s\n", w)
	}
	if e.json {
		return emitJSON(cmd.OutOrStdout(), res)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "已撤销 %s（%s）：还原 %d/%d 个动作\n",
		string(res.Op), shortID(res.ID), res.Reversed, res.Total)
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	unlock, err := e.lock()
	if err != nil {
		return err
	}
	defer unlock()

	recs, err := e.hist.Load()
	if err != nil {
		return err
	}
	if err := e.hist.Clear(); err != nil {
		return err
	}
	if e.json {
		return emitJSON(cmd.OutOrStdout(), map[string]int{"cleared": len(recs)})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "已清空操作历史（%d 条）\n", len(recs))
	return nil
}
