package math

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MeanStdErr 返回样本均值与均值的标准误差 (无偏样本标准差 / √n)。
// 全部样本相同时标准误差精确为 0。
func MeanStdErr(x []float64) (mean, stdErr float64) {
	switch len(x) {
	case 0:
		return 0, 0
	case 1:
		return x[0], 0
	}
	if constant(x) {
		return x[0], 0
	}
	mean, std := stat.MeanStdDev(x, nil)
	return mean, std / math.Sqrt(float64(len(x)))
}

func constant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}

// NormCDF 标准正态分布累积分布函数。
func NormCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormPDF 标准正态分布概率密度函数。
func NormPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}

// PoissonPMF 返回 Poisson(lambda) 在 k 处的概率。
func PoissonPMF(lambda float64, k int) float64 {
	if lambda <= 0 {
		if k == 0 {
			return 1
		}
		return 0
	}
	return distuv.Poisson{Lambda: lambda}.Prob(float64(k))
}
