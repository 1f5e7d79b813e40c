package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/jigar48949/Files-and-folder-directory/internal/app"
	"github.com/jigar48949/Files-and-folder-directory/internal/config"
	"github.com/jigar48949/Files-and-folder-directory/internal/history"
	"github.com/jigar48949/Files-and-folder-directory/internal/store"
)

// Version 由构建时 -ldflags 注入。
var Version = "dev"

// ErrCancelled 表示操作被用户取消（SIGINT）。main 据此映射退出码 3。
var ErrCancelled = errors.New("操作被取消")

// UsageError 表示参数/用法错误，映射退出码 2。
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string { return e.Msg }

func usagef(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// ExitCode 把命令返回的错误映射为进程退出码：
// 0 成功；1 操作失败；2 参数/配置错误；3 被取消。
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
		return 3
	}
	var ue *UsageError
	if errors.As(err, &ue) {
		return 2
	}
	if config.Code(err) != "" {
		return 2
	}
	return 1
}

// NewRootCommand 组装 dirtool 的命令树。
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dirtool",
		Short: "按结构定义整理文件的命令行工具",
		Long: `dirtool 用缩进或树状符号（├── └── │）描述目标目录结构，
把散落的文件按名称相似度匹配到结构中的槽位，然后复制/移动落盘、
铺设空骨架或打成 zip 包。每次落盘操作都可撤销。

状态（结构文本、骨架、暂存区、候选池）保存在数据目录的 session.json 里，
跨多次调用连续使用。`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usagef("未知命令：%q", args[0])
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().String("data-dir", "", "数据目录（默认 $DIRTOOL_HOME 或 ~/.dirtool）")
	cmd.PersistentFlags().Bool("json", false, "stdout 输出机器可读的 JSON 报告")
	cmd.PersistentFlags().Bool("no-color", false, "禁用彩色输出")

	// flag 解析失败也是用法错误（退出码 2）。
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &UsageError{Msg: err.Error()}
	})

	cmd.AddCommand(newParseCommand())
	cmd.AddCommand(newSkeletonCommand())
	cmd.AddCommand(newStageCommand())
	cmd.AddCommand(newPoolCommand())
	cmd.AddCommand(newAssignCommand())
	cmd.AddCommand(newAutoMatchCommand())
	cmd.AddCommand(newOrganizeCommand())
	cmd.AddCommand(newPackageCommand())
	cmd.AddCommand(newCreateCommand())
	cmd.AddCommand(newMoveCommand())
	cmd.AddCommand(newTemplateCommand())
	cmd.AddCommand(newHistoryCommand())
	cmd.AddCommand(newStatsCommand())
	cmd.AddCommand(newCleanupCommand())
	cmd.AddCommand(newStatusCommand())

	return cmd
}

// runEnv 是一次命令执行用到的全部依赖。
type runEnv struct {
	cfgDir string // config.json 所在目录（last_directory 写回用）
	eff    config.EffectiveConfig
	st     *store.Store
	hist   *history.Store
	sess   *app.Session
	json   bool
}

// openEnv 解析全局 flag、加载配置、打开数据目录并恢复会话状态。
// 不取文件锁；需要互斥的命令自己调 lock。
func openEnv(cmd *cobra.Command) (*runEnv, error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	jsonOut, _ := cmd.Flags().GetBool("json")
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		color.NoColor = true
	}

	cli := config.CLIArgs{DataDir: dataDir}
	// mode 与 exclude 是部分子命令的局部 flag；有就合并进配置优先级。
	if f := cmd.Flags().Lookup("mode"); f != nil {
		cli.Mode = f.Value.String()
		cli.ModeSet = f.Changed
	}
	if f := cmd.Flags().Lookup("exclude"); f != nil {
		if v, err := cmd.Flags().GetStringSlice("exclude"); err == nil {
			cli.ExcludeDirs = v
		}
		cli.ExcludeDirsSet = f.Changed
	}

	cfgDir, err := store.DefaultDir()
	if err != nil {
		return nil, err
	}
	eff, err := config.LoadEffective(cfgDir, cli)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(dataDir) != "" {
		cfgDir = eff.DataDir
	}

	st, err := store.Open(eff.DataDir)
	if err != nil {
		return nil, err
	}
	hist := history.NewStore(st.Dir(), eff.HistoryLimit)

	sess := app.New(st, hist, pickObserver(jsonOut))
	if err := sess.Load(); err != nil {
		return nil, err
	}

	return &runEnv{
		cfgDir: cfgDir,
		eff:    eff,
		st:     st,
		hist:   hist,
		sess:   sess,
		json:   jsonOut,
	}, nil
}

// lock 取数据目录的跨进程文件锁；返回解锁函数。
func (e *runEnv) lock() (func(), error) {
	if err := e.st.Lock(); err != nil {
		return nil, err
	}
	return func() { _ = e.st.Unlock() }, nil
}

// pickObserver 决定进度输出去向：只在交互终端启用，默认 stderr。
// --json 时 stdout 必须保持纯 JSON，绝不退化到 stdout。
func pickObserver(jsonOut bool) app.Observer {
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return newProgressUI(os.Stderr)
	}
	if !jsonOut && (isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())) {
		return newProgressUI(os.Stdout)
	}
	return nil
}
