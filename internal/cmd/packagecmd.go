package cmd

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newPackageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "package --out FILE.zip",
		Short: "把骨架与已绑定的文件打成一个 zip 包",
		Long: `先在临时暂存区按骨架复制已绑定的文件并铺好全部目录槽位，
再整体压缩为 zip（DEFLATE）。空目录会作为显式条目写入。
源文件不动；打包本身不可撤销。`,
		Args: noArgs,
		RunE: runPackage,
	}
	cmd.Flags().String("out", "", "输出 zip 文件路径")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runPackage(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")
	out = strings.TrimSpace(out)
	if !strings.EqualFold(filepath.Ext(out), ".zip") {
		return usagef("--out 必须以 .zip 结尾，实际是 %q", out)
	}
	abs, err := filepath.Abs(out)
	if err != nil {
		return usagef("--out 路径无效：%v", err)
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

	rep, err := e.sess.Package(cmd.Context(), abs)
	if err != nil {
		return err
	}
	return emitReport(cmd, e.json, rep)
}
