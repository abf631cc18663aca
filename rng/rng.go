// Package rng 提供由调用方持有的可复现随机数生成器。
//
// 引擎内部从不使用全局随机源：每次模拟都显式接收一个 *rand.Rand。
// 同一 seed 产生逐位相同的序列；并发任务须各自通过 Derive 获得独立 seed，
// 多个 goroutine 共享同一个生成器既破坏可复现性也会引入交叉相关。
package rng

import (
	"math/rand/v2"

	"github.com/wyfcoding/optionpricing/cast"
)

const (
	golden   = 0x9E3779B97F4A7C15
	pcgOrder = 0xDA3E39CB94B95BDB
)

// New 基于 PCG 创建一个确定性的生成器。
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^pcgOrder))
}

// Derive 从基础 seed 派生第 index 个独立流的 seed (splitmix64)。
func Derive(base uint64, index int) uint64 {
	z := base + (cast.IntToUint64(index)+1)*golden
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Stream 等价于 New(Derive(base, index))。
func Stream(base uint64, index int) *rand.Rand {
	return New(Derive(base, index))
}
