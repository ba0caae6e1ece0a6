package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有“可预期的降级条件”（空目录、冷启动、未知用户）都使用此类型，调用方据此选择下一级兜底
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX），可穿透 fmt.Errorf("%w") 包装
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "UNKNOWN_USER"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "content", "collab"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is 让 errors.Is 按 Module + Code 比较，便于与包级哨兵错误比较。
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

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
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

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误

	// 推荐信号相关
	ErrorCodeEmptyCatalog      = "EMPTY_CATALOG"      // 目录为空
	ErrorCodeNoSignal          = "NO_SIGNAL"          // 没有可用信号
	ErrorCodeUnknownUser       = "UNKNOWN_USER"       // 协同模型未见过的用户
	ErrorCodeUnknownItem       = "UNKNOWN_ITEM"       // 协同模型未见过的物品
	ErrorCodeMalformedArtifact = "MALFORMED_ARTIFACT" // 持久化产物无法解析
)

// 模块名称常量
const (
	ModuleStore     = "store"     // 存储模块
	ModuleFeature   = "feature"   // 特征模块
	ModuleCatalog   = "catalog"   // 目录
	ModuleContent   = "content"   // 内容索引
	ModuleCollab    = "collab"    // 协同过滤
	ModuleBlend     = "blend"     // 混合排序
	ModuleDiscovery = "discovery" // 外部发现接口
	ModuleHistory   = "history"   // 用户收藏历史
	ModuleArtifact  = "artifact"  // 模型产物
)

// 通用错误检查函数

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return hasCode(err, ErrorCodeNotFound) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool { return hasCode(err, ErrorCodeNotSupported) }

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool { return hasCode(err, ErrorCodeUnavailable) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool { return hasCode(err, ErrorCodeInvalidInput) }

// IsEmptyCatalog 检查错误是否为 EMPTY_CATALOG
func IsEmptyCatalog(err error) bool { return hasCode(err, ErrorCodeEmptyCatalog) }

// IsNoSignal 检查错误是否为 NO_SIGNAL
func IsNoSignal(err error) bool { return hasCode(err, ErrorCodeNoSignal) }

// IsUnknownUser 检查错误是否为 UNKNOWN_USER
func IsUnknownUser(err error) bool { return hasCode(err, ErrorCodeUnknownUser) }

// IsUnknownItem 检查错误是否为 UNKNOWN_ITEM
func IsUnknownItem(err error) bool { return hasCode(err, ErrorCodeUnknownItem) }

// IsMalformedArtifact 检查错误是否为 MALFORMED_ARTIFACT
func IsMalformedArtifact(err error) bool { return hasCode(err, ErrorCodeMalformedArtifact) }

// IsMissingSignal 判断错误是否属于“缺失信号”类：空目录、无信号、未知用户/物品、产物损坏。
// 这类错误不应中断请求，而是触发下一级兜底。
func IsMissingSignal(err error) bool {
	domainErr := GetDomainError(err)
	if domainErr == nil {
		return false
	}
	switch domainErr.Code {
	case ErrorCodeEmptyCatalog, ErrorCodeNoSignal, ErrorCodeUnknownUser,
		ErrorCodeUnknownItem, ErrorCodeMalformedArtifact, ErrorCodeNotFound:
		return true
	}
	return false
}
