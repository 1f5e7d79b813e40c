package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jigar48949/Files-and-folder-directory/internal/domain"
)

func newAssignCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign SOURCE TARGET | assign --staged N TARGET...",
		Short: "手动把源文件绑定到骨架槽位（置信度 100）",
		Long: `两种形式：
  assign SOURCE TARGET      把单个文件绑定到 TARGET 槽位
  assign --staged N TARGET...
                            取暂存区最前面的 N 个文件做批量指派：
                            N 与 TARGET 数相等时一一对应；N=1 时扇出到全部 TARGET。
                            成功的源会从暂存区移除。`,
		RunE: runAssign,
	}
	cmd.Flags().Int("staged", 0, "取暂存区前 N 个作为源")
	return cmd
}

func runAssign(cmd *cobra.Command, args []string) error {
	staged, _ := cmd.Flags().GetInt("staged")
	if staged > 0 {
		return runAssignStaged(cmd, staged, args)
	}
	if len(args) != 2 {
		return usagef("需要 SOURCE 与 TARGET 两个参数（或用 --staged N）")
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

	source, target := args[0], args[1]
	if abs, err := filepath.Abs(source); err == nil {
		source = abs
	}
	if _, err := os.Stat(source); err != nil {
		colWarn.Fprintf(cmd.ErrOrStderr(), "源文件当前不存在，整理时会按缺失跳过：%s\n", source)
	}

	if err := e.sess.Assign(target, source); err != nil {
		return err
	}
	if e.json {
		return emitJSON(cmd.OutOrStdout(), struct {
			Assigned int `json:"assigned"`
		}{1})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "已指派 %s -> %s\n", source, target)
	return nil
}

func runAssignStaged(cmd *cobra.Command, n int, targets []string) error {
	if len(targets) == 0 {
		return usagef("--staged 形式需要至少一个 TARGET")
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

	all := e.sess.Staged.Paths()
	if len(all) < n {
		return usagef("暂存区只有 %d 个文件，取不出前 %d 个", len(all), n)
	}
	sources := append([]string(nil), all[:n]...)

	ok, failures, err := e.sess.BatchAssign(sources, targets)
	if err != nil {
		if domain.IsArity(err) {
			return usagef("%v", err)
		}
		return err
	}

	for _, f := range failures {
		colFail.Fprintf(cmd.ErrOrStderr(), "%s\n", f)
	}
	if e.json {
		res := struct {
			Assigned int      `json:"assigned"`
			Failures []string `json:"failures"`
		}{ok, failures}
		if res.Failures == nil {
			res.Failures = []string{}
		}
		if err := emitJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "指派成功 %d 对\n", ok)
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d 对指派失败", len(failures))
	}
	return nil
}
