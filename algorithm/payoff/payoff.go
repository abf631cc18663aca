// Package payoff 定义期权到期收益。
//
// 所有变体共享同一个值类型 Payoff，由 Style 区分如何把一条路径归约为一个统计量
// (终值、算术均值、极值)，再由 Type 决定看涨或看跌的内在价值。收益始终非负。
package payoff

import (
	"fmt"

	"github.com/wyfcoding/optionpricing/algorithm/types"
	"gonum.org/v1/gonum/mat"
)

// Style 路径归约方式。
type Style int

const (
	// Vanilla 只使用终值。
	Vanilla Style = iota
	// Asian 使用路径算术平均。
	Asian
	// Lookback 看涨取路径最大值，看跌取路径最小值。
	Lookback
)

func (s Style) String() string {
	switch s {
	case Vanilla:
		return "vanilla"
	case Asian:
		return "asian"
	case Lookback:
		return "lookback"
	default:
		return fmt.Sprintf("style(%d)", int(s))
	}
}

// Payoff 无状态收益函数。
type Payoff struct {
	Style  Style
	Type   types.OptionType
	Strike float64
}

func NewCall(strike float64) Payoff { return Payoff{Vanilla, types.OptionTypeCall, strike} }
func NewPut(strike float64) Payoff  { return Payoff{Vanilla, types.OptionTypePut, strike} }

func NewAsianCall(strike float64) Payoff { return Payoff{Asian, types.OptionTypeCall, strike} }
func NewAsianPut(strike float64) Payoff  { return Payoff{Asian, types.OptionTypePut, strike} }

func NewLookbackCall(strike float64) Payoff { return Payoff{Lookback, types.OptionTypeCall, strike} }
func NewLookbackPut(strike float64) Payoff  { return Payoff{Lookback, types.OptionTypePut, strike} }

// New 按风格与期权类型构造收益，期权类型非法时返回错误。
func New(style Style, typ types.OptionType, strike float64) (Payoff, error) {
	if err := typ.Validate(); err != nil {
		return Payoff{}, err
	}
	return Payoff{Style: style, Type: typ, Strike: strike}, nil
}

// PathDependent 收益是否依赖整条路径。
func (p Payoff) PathDependent() bool {
	return p.Style != Vanilla
}

// Exercise 对已归约的统计量 (或单个标的价格) 计算内在价值。
func (p Payoff) Exercise(x float64) float64 {
	return p.Type.Intrinsic(x, p.Strike)
}

// Reduce 将一条路径归约为收益所依赖的统计量。
func (p Payoff) Reduce(path []float64) float64 {
	switch p.Style {
	case Asian:
		var sum float64
		for _, s := range path {
			sum += s
		}
		return sum / float64(len(path))
	case Lookback:
		ext := path[0]
		for _, s := range path[1:] {
			if p.Type.IsCall() && s > ext || !p.Type.IsCall() && s < ext {
				ext = s
			}
		}
		return ext
	default:
		return path[len(path)-1]
	}
}

// Evaluate 对路径矩阵 (paths × (steps+1)) 逐行计算收益。
func (p Payoff) Evaluate(paths *mat.Dense) []float64 {
	rows, _ := paths.Dims()
	out := make([]float64, rows)
	for i := range rows {
		out[i] = p.Exercise(p.Reduce(paths.RawRowView(i)))
	}
	return out
}

// EvaluateTerminal 对一维价格向量计算收益，向量视为已归约的统计量。
func (p Payoff) EvaluateTerminal(spots []float64) []float64 {
	out := make([]float64, len(spots))
	for i, s := range spots {
		out[i] = p.Exercise(s)
	}
	return out
}

func (p Payoff) String() string {
	return fmt.Sprintf("%s-%s(K=%g)", p.Style, p.Type, p.Strike)
}
