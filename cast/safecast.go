// Package cast 提供整数类型之间的按位转换，用于把任务下标折算为随机流 seed。
package cast

import "unsafe"

// As 通过 unsafe 直接按位读取内存完成转换。
// 仅限用于物理布局兼容的类型 (如 int -> uint64)。
func As[T any, F any](from F) T {
	return *(*T)(unsafe.Pointer(&from))
}

// IntToUint64 按位转换，负数保留补码位模式。
func IntToUint64(i int) uint64 { return As[uint64](i) }
