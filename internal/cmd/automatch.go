package cmd

import (
	"github.com/spf13/cobra"
)

func newAutoMatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "automatch --stage | --pool",
		Short: "按名称相似度自动匹配未绑定的文件槽位",
		Long: `对每个未绑定的文件槽位，在候选集中找相似度最高的文件：
  --stage  候选来自暂存区（阈值 75，命中的候选被消耗）
  --pool   候选来自候选池（阈值 70，池保持不变，可反复重跑）

相似度 = 归一化 Levenshtein×100，扩展名相同再加 15；并列取先到者。`,
		Args: noArgs,
		RunE: runAutoMatch,
	}
	cmd.Flags().Bool("stage", false, "从暂存区匹配")
	cmd.Flags().Bool("pool", false, "从候选池匹配")
	return cmd
}

func runAutoMatch(cmd *cobra.Command, args []string) error {
	fromStage, _ := cmd.Flags().GetBool("stage")
	fromPool, _ := cmd.Flags().GetBool("pool")
	if fromStage == fromPool {
		return usagef("--stage 与 --pool 必须二选一")
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

	if fromStage {
		out, err := e.sess.AutoAssign(cmd.Context())
		if err != nil {
			return err
		}
		return emitMatchOutcome(cmd, e.json, out)
	}
	out, err := e.sess.AutoMatch(cmd.Context())
	if err != nil {
		return err
	}
	return emitMatchOutcome(cmd, e.json, out)
}
