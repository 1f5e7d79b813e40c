package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jigar48949/Files-and-folder-directory/internal/config"
	"github.com/jigar48949/Files-and-folder-directory/internal/organize"
)

func newOrganizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "organize --base DIR [--mode copy|move] [--on-conflict skip|overwrite]",
		Short: "把已绑定的文件按骨架落盘（复制或移动）",
		Long: `把每个已绑定且未整理的文件槽位落盘到基础目录：
先处理文件（copy 保留源文件，move 移走并把槽位标记为已整理，重复执行不会再搬），
再创建骨架中的目录槽位。目标已存在时默认跳过，绝不静默覆盖。

已生效的动作写入操作历史，可用 dirtool history undo 撤销。`,
		Args: noArgs,
		RunE: runOrganize,
	}
	cmd.Flags().String("base", "", "基础目录（缺省用上次用过的目录）")
	cmd.Flags().String("mode", "", "整理方式：copy 或 move（缺省读配置 default_mode）")
	cmd.Flags().String("on-conflict", "skip", "目标已存在时的策略：skip 或 overwrite")
	return cmd
}

func runOrganize(cmd *cobra.Command, args []string) error {
	conflict, _ := cmd.Flags().GetString("on-conflict")

	var policy organize.ConflictPolicy
	switch conflict {
	case "skip":
		policy = organize.SkipExisting{}
	case "overwrite":
		policy = organize.OverwriteExisting{}
	default:
		return usagef("--on-conflict 只能是 skip 或 overwrite，实际是 %q", conflict)
	}

	// --mode 的合并与校验在配置层（openEnv 把它并进 CLIArgs）。
	// 这里只提前拦截明显写错的 flag 值，给出比配置错误更直白的提示。
	if modeFlag, _ := cmd.Flags().GetString("mode"); cmd.Flags().Changed("mode") &&
		modeFlag != string(organize.ModeCopy) && modeFlag != string(organize.ModeMove) {
		return usagef("--mode 只能是 copy 或 move，实际是 %q", modeFlag)
	}

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	mode := e.eff.DefaultMode

	base, err := resolveBaseDir(cmd, e)
	if err != nil {
		return err
	}

	unlock, err := e.lock()
	if err != nil {
		return err
	}
	defer unlock()

	rep, err := e.sess.Organize(cmd.Context(), base, organize.Mode(mode), policy)
	if err != nil {
		return err
	}
	if err := config.SaveLastDirectory(e.cfgDir, base); err != nil {
		colWarn.Fprintf(cmd.ErrOrStderr(), "警告：记录 last_directory 失败：%v\n", err)
	}
	return emitReport(cmd, e.json, rep)
}

// resolveBaseDir 确定基础目录：--base > 会话里的 > 配置里的 last_directory。
func resolveBaseDir(cmd *cobra.Command, e *runEnv) (string, error) {
	base, _ := cmd.Flags().GetString("base")
	base = strings.TrimSpace(base)
	if base == "" {
		base = e.sess.BaseDir
	}
	if base == "" {
		base = e.eff.LastDirectory
	}
	if base == "" {
		return "", usagef("需要 --base DIR（没有可用的历史基础目录）")
	}
	return base, nil
}
