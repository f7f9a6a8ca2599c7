package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Recommender 错误：NOT_REGISTERED, ALREADY_REGISTERED
//   - Evaluator 错误：INVALID_INPUT, SEQUENCE_CONSUMED
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "NOT_REGISTERED"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "recommender", "evaluator"）
	Err     error  // 底层错误（可选）
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is 按 Module + Code 判等，便于 errors.Is 匹配预定义错误。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Module == t.Module && e.Code == t.Code
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取错误链上的 DomainError，如果不存在则返回 nil
func GetDomainError(err error) *DomainError {
	for err != nil {
		if domainErr, ok := err.(*DomainError); ok {
			return domainErr
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil
		}
		err = u.Unwrap()
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// WrapDomainError 创建携带底层错误的领域错误
func WrapDomainError(module, code, message string, err error) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	// 推荐器注册状态
	ErrorCodeNotRegistered     = "NOT_REGISTERED"     // 用户/物品未注册
	ErrorCodeAlreadyRegistered = "ALREADY_REGISTERED" // 用户/物品重复注册

	// 增量评估序列
	ErrorCodeSequenceConsumed = "SEQUENCE_CONSUMED" // 惰性序列只能遍历一次
)

// 模块名称常量
const (
	ModuleStore       = "store"       // 存储模块
	ModuleRecommender = "recommender" // 推荐器模块
	ModuleEvaluator   = "evaluator"   // 评估模块
	ModuleDataset     = "dataset"     // 数据集模块
	ModuleConfig      = "config"      // 配置模块
)

// 通用错误检查函数

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	return hasCode(err, ErrorCodeNotSupported)
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return hasCode(err, ErrorCodeInvalidInput)
}

// IsNotRegistered 检查错误是否为 NOT_REGISTERED（调用方绕过 Evaluator 直接使用未注册的用户/物品）
func IsNotRegistered(err error) bool {
	return hasCode(err, ErrorCodeNotRegistered)
}

// IsAlreadyRegistered 检查错误是否为 ALREADY_REGISTERED
func IsAlreadyRegistered(err error) bool {
	return hasCode(err, ErrorCodeAlreadyRegistered)
}

// IsSequenceConsumed 检查错误是否为 SEQUENCE_CONSUMED
func IsSequenceConsumed(err error) bool {
	return hasCode(err, ErrorCodeSequenceConsumed)
}
