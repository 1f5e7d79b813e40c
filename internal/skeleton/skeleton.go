package skeleton

import (
	"github.com/jigar48949/Files-and-folder-directory/internal/domain"
)

// Build 把解析出的条目序列变成全新骨架（纯函数，不做 I/O）。
//
// 约束：
// - 槽位顺序 = 条目顺序（也就是结构文本的行顺序）
// - 所有槽位初始为 missing、未绑定、置信度 0
// - 重建是破坏性的：旧骨架的绑定不迁移，提醒用户是调用方的责任
func Build(entries []domain.StructureEntry) (*domain.Skeleton, error) {
	sk := domain.NewSkeleton()
	for _, e := range entries {
		slot := &domain.Slot{
			RelPath:    e.RelPath,
			Kind:       e.Kind,
			Name:       e.Name,
			Status:     domain.SlotMissing,
			Confidence: 0,
		}
		if err := sk.Add(slot); err != nil {
			return nil, err
		}
	}
	return sk, nil
}

// Completion 统计完成度：只看文件槽位，目录不参与。
// 空骨架或纯目录骨架的百分比恒为 0。
func Completion(sk *domain.Skeleton) domain.Completion {
	var c domain.Completion
	if sk == nil {
		return c
	}
	for _, s := range sk.Slots() {
		if s.Kind != domain.KindFile {
			continue
		}
		c.TotalFiles++
		if s.Status != domain.SlotMissing && s.Bound() {
			c.MatchedFiles++
		}
	}
	if c.TotalFiles > 0 {
		c.Percent = float64(c.MatchedFiles) * 100 / float64(c.TotalFiles)
	}
	return c
}
