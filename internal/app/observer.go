package app

import "time"

// 长操作的名字（进度展示与进程内互斥共用）。
const (
	opAutoAssign = "auto_assign"
	opAutoMatch  = "auto_match"
	opUndo       = "undo"
)

// Observer 把长操作的进度从核心流程解耦出来。
//
// 约束：
// - 核心包只发事件，不做任何输出（stdout 的 JSON 契约不能被污染）
// - 实现必须并发安全：进度回调和 CLI 的 keepalive ticker 来自不同 goroutine
type Observer interface {
	// OnStart 在操作开始时调用（尽量早，保证用户 1 秒内看到输出）。
	OnStart(op string)
	// OnProgress 每处理完一个条目调用一次。
	OnProgress(done, total int)
	// OnFinish 在操作结束时调用（无论成败/取消）。
	OnFinish(op string, dur time.Duration)
}
