package match

import (
	"math"
	"path/filepath"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	lru "github.com/hashicorp/golang-lru/v2"
)

// 匹配阈值与加成（原始分，先比阈值再入库取模）。
const (
	// StageThreshold 是暂存区自动指派的最低命中分（含）。
	StageThreshold = 75
	// PoolThreshold 是文件池自动匹配的最低命中分（含）。
	PoolThreshold = 70
	// ExtBonus 在目标扩展名非空且与候选扩展名一致（忽略大小写）时加到相似度上。
	ExtBonus = 15
)

const defaultCacheSize = 4096

// Scorer 计算目标名与候选名的匹配分，范围 0..115。
//
// 分数 = 归一化 Levenshtein 相似度（双方转小写后计算，0..100）
//        + 扩展名加成（ExtBonus，条件见上）。
//
// 不变量：
// - Score(a, a) 恒为 100（有扩展名时 115）
// - Score(a, b) == Score(b, a)
// - 名字差异增大时分数单调不升
// - 只读：Scorer 不持有也不修改任何骨架/列表状态
type Scorer struct {
	lev   *metrics.Levenshtein
	cache *lru.Cache[string, int]
}

// NewScorer 创建带 LRU 备忘的打分器；cacheSize < 1 时用默认容量。
func NewScorer(cacheSize int) *Scorer {
	if cacheSize < 1 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, int](cacheSize)
	if err != nil {
		// 容量已钳位为正数，理论不可达；保底为无缓存直算。
		cache = nil
	}
	return &Scorer{
		lev:   metrics.NewLevenshtein(),
		cache: cache,
	}
}

// Score 返回 target 与 candidate 的匹配分（0..115）。
// 调用方不得假设上限是 100：扩展名加成会越过它。
func (s *Scorer) Score(target, candidate string) int {
	key := target + "\x00" + candidate
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return v
		}
	}

	tl := strings.ToLower(target)
	cl := strings.ToLower(candidate)

	score := int(math.Round(strutil.Similarity(tl, cl, s.lev) * 100))

	if ext := filepath.Ext(tl); ext != "" && ext == filepath.Ext(cl) {
		score += ExtBonus
	}

	if s.cache != nil {
		s.cache.Add(key, score)
	}
	return score
}
