package xerrors

var (
	// ErrInvalidInput 输入参数错误 (路径数、步数、到期时间等)。
	ErrInvalidInput = New(ErrInvalidArg, 400002, "invalid input", "check your input parameters", nil)
	// ErrInvalidOptionType 无效的期权类型。
	ErrInvalidOptionType = New(ErrInvalidArg, 400004, "invalid option type", "supported types: call, put", nil)
	// ErrDimMismatch 维度不匹配.
	ErrDimMismatch = New(ErrInvalidArg, 400007, "dimension mismatch", "matrix or vector dimensions do not match", nil)
	// ErrInvalidConfig 配置错误。
	ErrInvalidConfig = New(ErrInvalidArg, 400005, "invalid config", "engine configuration failed validation", nil)
	// ErrPathDependentPayoff 美式定价器不支持路径依赖收益。
	ErrPathDependentPayoff = New(ErrUnsupported, 422001, "path-dependent payoff", "american pricers accept vanilla payoffs only", nil)
	// ErrUnsupportedModel 模型不满足定价器所需能力。
	ErrUnsupportedModel = New(ErrUnsupported, 422002, "unsupported model", "model lacks the capability required by this pricer", nil)
	// ErrMathConvergence 数学计算未收敛。
	ErrMathConvergence = New(ErrInternal, 500002, "math convergence failed", "algorithm failed to converge", nil)
)
