package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jigar48949/Files-and-folder-directory/internal/domain"
)

var (
	colOK   = color.New(color.FgGreen)
	colWarn = color.New(color.FgYellow)
	colFail = color.New(color.FgRed)
	colHead = color.New(color.FgCyan, color.Bold)
	colDim  = color.New(color.FgHiBlack)
)

// exactArgs 等价于 cobra.ExactArgs，但报 UsageError（退出码 2）。
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("%s 需要 %d 个参数，收到 %d 个", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usagef("%s 不接受位置参数：%q", cmd.CommandPath(), args[0])
	}
	return nil
}

// emitJSON 把 v 编码到 stdout（一行一个 JSON 值，机器消费）。
func emitJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	return enc.Encode(v)
}

// emitReport 输出一次落盘操作的结果并决定命令的最终错误：
// - --json：stdout 仅输出 Report JSON，摘要走 stderr
// - 否则：stdout 摘要一行，失败/跳过明细与警告走 stderr
// 取消优先于失败（退出码 3 > 1）。
func emitReport(cmd *cobra.Command, jsonOut bool, rep domain.Report) error {
	out := cmd.OutOrStdout()
	errW := cmd.ErrOrStderr()

	if jsonOut {
		if err := emitJSON(out, rep); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "完成：processed=%d skipped=%d failed=%d total=%d\n",
			rep.Summary.Processed, rep.Summary.Skipped, rep.Summary.Failed, rep.Summary.Total)
		for _, it := range rep.Items {
			if it.Status == domain.ItemProcessed {
				continue
			}
			printItemLine(errW, it)
		}
	}
	for _, w := range rep.Warnings {
		colWarn.Fprintf(errW, "警告：%s\n", w)
	}

	if rep.Cancelled {
		return ErrCancelled
	}
	if rep.Summary.Failed > 0 {
		return fmt.Errorf("%d 个条目失败", rep.Summary.Failed)
	}
	return nil
}

func printItemLine(w io.Writer, it domain.ItemResult) {
	label := strings.ToUpper(it.Status)
	c := colDim
	switch it.Status {
	case domain.ItemSkipped:
		label, c = "SKIP", colWarn
	case domain.ItemFailed:
		label, c = "FAIL", colFail
	case domain.ItemRolledBack:
		label, c = "ROLLBACK", colFail
	}
	c.Fprintf(w, "%s", label)
	if it.Src != "" {
		fmt.Fprintf(w, " %s ->", it.Src)
	}
	fmt.Fprintf(w, " %s", it.Dst)
	if it.ErrorCode != "" {
		fmt.Fprintf(w, " [%s]", it.ErrorCode)
	}
	if it.Note != "" {
		fmt.Fprintf(w, "：%s", it.Note)
	}
	fmt.Fprintln(w)
}

// emitMatchOutcome 输出一轮自动匹配的结果。
func emitMatchOutcome(cmd *cobra.Command, jsonOut bool, out domain.MatchOutcome) error {
	w := cmd.OutOrStdout()
	if jsonOut {
		if err := emitJSON(w, out); err != nil {
			return err
		}
	} else {
		for _, p := range out.Pairs {
			colOK.Fprintf(w, "匹配")
			fmt.Fprintf(w, " %s <- %s", p.RelPath, p.Source)
			colDim.Fprintf(w, "（分值 %d）\n", p.Score)
		}
		fmt.Fprintf(w, "命中 %d 个槽位\n", out.Matched)
	}
	if out.Cancelled {
		return ErrCancelled
	}
	return nil
}

// slotStatusLabel 返回槽位状态的展示文本与颜色。
func slotStatusLabel(s *domain.Slot) (string, *color.Color) {
	switch s.Status {
	case domain.SlotOrganized:
		return "已整理", colOK
	case domain.SlotAssigned:
		return "已指派", colOK
	case domain.SlotAutoMatched:
		return fmt.Sprintf("自动匹配 %d%%", s.Confidence), colWarn
	default:
		if s.Kind == domain.KindDirectory {
			return "目录", colDim
		}
		return "缺失", colFail
	}
}
