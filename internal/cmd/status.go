package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jigar48949/Files-and-folder-directory/internal/domain"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "查看当前会话状态",
		Args:  noArgs,
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}

	files, dirs := 0, 0
	byStatus := map[string]int{}
	for _, sl := range e.sess.Skeleton.Slots() {
		if sl.Kind == domain.KindDirectory {
			dirs++
			continue
		}
		files++
		byStatus[sl.Status]++
	}
	comp := e.sess.Completion()

	if e.json {
		return emitJSON(cmd.OutOrStdout(), struct {
			DataDir     string            `json:"data_dir"`
			BaseDir     string            `json:"base_dir,omitempty"`
			Slots       int               `json:"slots"`
			Files       int               `json:"files"`
			Dirs        int               `json:"dirs"`
			SlotsByStat map[string]int    `json:"slots_by_status"`
			Staged      int               `json:"staged"`
			Pool        int               `json:"pool"`
			Completion  domain.Completion `json:"completion"`
		}{
			DataDir:     e.st.Dir(),
			BaseDir:     e.sess.BaseDir,
			Slots:       e.sess.Skeleton.Len(),
			Files:       files,
			Dirs:        dirs,
			SlotsByStat: byStatus,
			Staged:      e.sess.Staged.Len(),
			Pool:        e.sess.Pool.Len(),
			Completion:  comp,
		})
	}

	out := cmd.OutOrStdout()
	colDim.Fprintf(out, "数据目录  ")
	fmt.Fprintln(out, e.st.Dir())
	colDim.Fprintf(out, "基础目录  ")
	if e.sess.BaseDir != "" {
		fmt.Fprintln(out, e.sess.BaseDir)
	} else {
		fmt.Fprintln(out, "（未设置）")
	}

	if e.sess.Skeleton.Len() == 0 {
		fmt.Fprintln(out, "骨架为空。先用 dirtool skeleton build 建立。")
	} else {
		fmt.Fprintf(out, "骨架：%d 个槽位（文件 %d，目录 %d）\n", e.sess.Skeleton.Len(), files, dirs)
		fmt.Fprint(out, "  ")
		colFail.Fprintf(out, "缺失 %d", byStatus[domain.SlotMissing])
		fmt.Fprint(out, "  ")
		colWarn.Fprintf(out, "自动匹配 %d", byStatus[domain.SlotAutoMatched])
		fmt.Fprint(out, "  ")
		colOK.Fprintf(out, "已指派 %d", byStatus[domain.SlotAssigned])
		fmt.Fprint(out, "  ")
		colOK.Fprintf(out, "已整理 %d", byStatus[domain.SlotOrganized])
		fmt.Fprintln(out)
		fmt.Fprintf(out, "完成度：%d/%d（%.1f%%）\n", comp.MatchedFiles, comp.TotalFiles, comp.Percent)
	}

	fmt.Fprintf(out, "暂存区：%d 个文件\n", e.sess.Staged.Len())
	fmt.Fprintf(out, "候选池：%d 个文件\n", e.sess.Pool.Len())
	return nil
}
