package domain

import (
	"errors"
	"fmt"
)

// TargetNotFoundError 表示骨架中不存在该 RelPath。
type TargetNotFoundError struct {
	RelPath string
}

func (e *TargetNotFoundError) Error() string {
	return fmt.Sprintf("骨架中不存在目标：%q", e.RelPath)
}

func IsTargetNotFound(err error) bool {
	var e *TargetNotFoundError
	return errors.As(err, &e)
}

// TargetIsDirectoryError 表示把文件指派到了目录槽位。
type TargetIsDirectoryError struct {
	RelPath string
}

func (e *TargetIsDirectoryError) Error() string {
	return fmt.Sprintf("目标是目录槽位，不能绑定文件：%q", e.RelPath)
}

func IsTargetIsDirectory(err error) bool {
	var e *TargetIsDirectoryError
	return errors.As(err, &e)
}

// ArityError 表示批量指派的数量关系不被支持：
// 仅允许 len(sources)==len(targets) 的一一对应，或单源扇出到多目标。
type ArityError struct {
	Sources int
	Targets int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("不支持的选择数量：%d 个源对 %d 个目标（仅支持一一对应或单源扇出）", e.Sources, e.Targets)
}

func IsArity(err error) bool {
	var e *ArityError
	return errors.As(err, &e)
}

// OpInProgressError 表示已有长操作在执行，拒绝并发进入。
type OpInProgressError struct {
	Name string
}

func (e *OpInProgressError) Error() string {
	return fmt.Sprintf("已有操作正在执行：%s", e.Name)
}

func IsOpInProgress(err error) bool {
	var e *OpInProgressError
	return errors.As(err, &e)
}

// NotUndoableError 表示该操作类型没有撤销策略（例如 zip 打包）。
type NotUndoableError struct {
	Kind OpKind
}

func (e *NotUndoableError) Error() string {
	return fmt.Sprintf("该操作不支持撤销：%s", e.Kind)
}

func IsNotUndoable(err error) bool {
	var e *NotUndoableError
	return errors.As(err, &e)
}
