package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/jigar48949/Files-and-folder-directory/internal/cmd"
)

func main() {
	_ = godotenv.Load()

	// Ctrl-C / SIGTERM 走 context 取消：批处理循环在条目边界停下，
	// 报告里带 cancelled 标记，退出码 3。
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cmd.NewRootCommand()
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "错误：%v\n", err)
	}
	os.Exit(cmd.ExitCode(err))
}
