// Package types 定义定价引擎共享的基础类型。
package types

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/optionpricing/xerrors"
)

// OptionType 定义期权类型。
type OptionType string

const (
	OptionTypeCall OptionType = "call"
	OptionTypePut  OptionType = "put"
)

// ParseOptionType 解析期权类型，大小写不敏感。无法识别时返回 ErrInvalidOptionType。
func ParseOptionType(s string) (OptionType, error) {
	t := OptionType(strings.ToLower(strings.TrimSpace(s)))
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

// Validate 校验期权类型。
func (t OptionType) Validate() error {
	switch t {
	case OptionTypeCall, OptionTypePut:
		return nil
	default:
		return xerrors.ErrInvalidOptionType.WithDetail("got %q, supported: call, put", string(t))
	}
}

// IsCall 是否为看涨期权。
func (t OptionType) IsCall() bool { return t == OptionTypeCall }

// Intrinsic 返回给定标的价格下的内在价值，始终非负。
func (t OptionType) Intrinsic(spot, strike float64) float64 {
	if t == OptionTypeCall {
		return math.Max(spot-strike, 0)
	}
	return math.Max(strike-spot, 0)
}

// Estimate 蒙特卡洛估计结果：点估计及其标准误差。
type Estimate struct {
	Price  float64
	StdErr float64
}

// ConfidenceInterval 返回 price ± z·stderr 区间。
func (e Estimate) ConfidenceInterval(z float64) (lo, hi float64) {
	return e.Price - z*e.StdErr, e.Price + z*e.StdErr
}

// Quote 将估计值按指定小数位四舍五入为 decimal，供报表与外部展示使用。
func (e Estimate) Quote(places int32) (price, stdErr decimal.Decimal) {
	return decimal.NewFromFloat(e.Price).Round(places), decimal.NewFromFloat(e.StdErr).Round(places)
}

func (e Estimate) String() string {
	return fmt.Sprintf("%.6f ± %.6f", e.Price, e.StdErr)
}
