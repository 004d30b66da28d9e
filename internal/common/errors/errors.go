// Package errors provides the classified error model shared by the router,
// data layer and recovery manager.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// ==========================
// 1. Categories & Severities
// ==========================

// Category identifies where a failure originated.
type Category string

const (
	CategoryNetwork    Category = "NETWORK"
	CategoryAPI        Category = "API"
	CategoryDataSource Category = "DATA_SOURCE"
	CategoryAgent      Category = "AGENT"
	CategoryClassifier Category = "CLASSIFIER"
	CategoryValidation Category = "VALIDATION"
	CategoryTimeout    Category = "TIMEOUT"
	CategoryUnknown    Category = "UNKNOWN"
)

// Severity ranks how bad a failure is. It selects the user-facing template
// when several handlers fail; it never changes control flow.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// defaultSeverity assigns each category a baseline severity.
var defaultSeverity = map[Category]Severity{
	CategoryNetwork:    SeverityMedium,
	CategoryAPI:        SeverityMedium,
	CategoryDataSource: SeverityHigh,
	CategoryAgent:      SeverityHigh,
	CategoryClassifier: SeverityLow,
	CategoryValidation: SeverityLow,
	CategoryTimeout:    SeverityMedium,
	CategoryUnknown:    SeverityMedium,
}

// retryableByCategory marks categories whose failures are transient and
// worth retrying through failover or cooldown recovery.
var retryableByCategory = map[Category]bool{
	CategoryNetwork:    true,
	CategoryAPI:        true,
	CategoryDataSource: true,
	CategoryAgent:      false,
	CategoryClassifier: true,
	CategoryValidation: false,
	CategoryTimeout:    true,
	CategoryUnknown:    false,
}

// ==========================
// 2. AgentError
// ==========================

// AgentError is the structured error carried across component boundaries.
type AgentError struct {
	Category  Category               `json:"category"`
	Severity  Severity               `json:"severity"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("AgentError[%s/%s]: %s", e.Category, e.Severity, e.Message)
}

// UserMessage returns the safe, templated message for this error's category.
func (e *AgentError) UserMessage() string {
	return UserMessageFor(e.Category)
}

// Remediation returns the suggested follow-up action for this error's category.
func (e *AgentError) Remediation() string {
	return RemediationFor(e.Category)
}

// WithContext attaches a key/value pair for logging; it never reaches users.
func (e *AgentError) WithContext(key string, value interface{}) *AgentError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func newError(category Category, message, details string) *AgentError {
	return &AgentError{
		Category:  category,
		Severity:  defaultSeverity[category],
		Message:   message,
		Details:   details,
		Retryable: retryableByCategory[category],
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Constructors
// ==========================

// NewNetworkError wraps a connectivity failure reaching an external system.
func NewNetworkError(target string, err error) *AgentError {
	return newError(CategoryNetwork, "network failure reaching "+target, errDetails(err))
}

// NewAPIError wraps a well-formed but unsuccessful response from an external API.
func NewAPIError(service string, statusCode int, details string) *AgentError {
	e := newError(CategoryAPI, fmt.Sprintf("%s returned status %d", service, statusCode), details)
	return e.WithContext("status_code", statusCode)
}

// NewDataSourceError reports that a query could not be satisfied by a backend.
func NewDataSourceError(details string) *AgentError {
	return newError(CategoryDataSource, "data source unavailable", details)
}

// NewAllSourcesFailedError reports exhaustion of every configured backend.
func NewAllSourcesFailedError(queryType string, attempted int) *AgentError {
	e := newError(CategoryDataSource,
		fmt.Sprintf("all %d sources failed for query type %s", attempted, queryType), "")
	e.Severity = SeverityCritical
	return e.WithContext("query_type", queryType)
}

// NewHandlerError wraps a failure inside a query handler.
func NewHandlerError(handlerID string, err error) *AgentError {
	e := newError(CategoryAgent, "handler "+handlerID+" failed", errDetails(err))
	return e.WithContext("handler_id", handlerID)
}

// NewClassifierError wraps a failure of the external intent classifier.
// These never surface to users; the router degrades to rule matching.
func NewClassifierError(err error) *AgentError {
	return newError(CategoryClassifier, "intent classifier unavailable", errDetails(err))
}

// NewValidationError reports malformed input.
func NewValidationError(field, reason string) *AgentError {
	e := newError(CategoryValidation, "invalid request: "+reason, "")
	return e.WithContext("field", field)
}

// NewTimeoutError reports an operation abandoned at its deadline.
func NewTimeoutError(operation string, budget time.Duration) *AgentError {
	e := newError(CategoryTimeout, operation+" timed out", "")
	return e.WithContext("budget_ms", budget.Milliseconds())
}

// NewUnknownError wraps anything that resisted classification.
func NewUnknownError(err error) *AgentError {
	return newError(CategoryUnknown, "unexpected error", errDetails(err))
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 4. Classification
// ==========================

// Classify normalizes an arbitrary error into an AgentError. Existing
// AgentErrors pass through unchanged so categories assigned at the point of
// failure survive wrapping.
func Classify(err error) *AgentError {
	if err == nil {
		return nil
	}

	var agentErr *AgentError
	if stderrors.As(err, &agentErr) {
		return agentErr
	}

	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return newError(CategoryTimeout, "operation timed out", err.Error())
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		if netErr.Timeout() {
			return newError(CategoryTimeout, "network operation timed out", err.Error())
		}
		return newError(CategoryNetwork, "network failure", err.Error())
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "dial tcp"),
		strings.Contains(msg, "broken pipe"):
		return newError(CategoryNetwork, "network failure", err.Error())
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"):
		return newError(CategoryTimeout, "operation timed out", err.Error())
	}

	return NewUnknownError(err)
}

// MostSevere picks the error whose severity is highest; ties keep the
// earlier error. Returns nil for an empty slice.
func MostSevere(errs []*AgentError) *AgentError {
	var worst *AgentError
	for _, e := range errs {
		if e == nil {
			continue
		}
		if worst == nil || e.Severity > worst.Severity {
			worst = e
		}
	}
	return worst
}

// ==========================
// 5. User-facing templates
// ==========================

var userTemplates = map[Category]string{
	CategoryNetwork:    "网络连接出现问题，请稍后重试",
	CategoryAPI:        "外部服务暂时不可用，请稍后重试",
	CategoryDataSource: "数据暂时无法获取，请稍后重试",
	CategoryAgent:      "该功能暂时不可用，正在自动恢复",
	CategoryClassifier: "没能准确理解你的问题，换个说法试试",
	CategoryValidation: "请求格式有误，请检查后重试",
	CategoryTimeout:    "查询超时了，请稍后重试",
	CategoryUnknown:    "出现了未知错误，请稍后重试",
}

var remediations = map[Category]string{
	CategoryNetwork:    "check network connectivity to upstream services",
	CategoryAPI:        "inspect upstream API status and credentials",
	CategoryDataSource: "verify source health and priority configuration",
	CategoryAgent:      "wait for the cooldown window or reset the handler",
	CategoryClassifier: "verify classifier endpoint; rule fallback is active",
	CategoryValidation: "correct the request payload",
	CategoryTimeout:    "retry with a larger deadline or fewer handlers",
	CategoryUnknown:    "check service logs for the underlying cause",
}

// UserMessageFor is total over categories: an unrecognized category maps to
// the unknown-error template instead of failing.
func UserMessageFor(category Category) string {
	if msg, ok := userTemplates[category]; ok {
		return msg
	}
	return userTemplates[CategoryUnknown]
}

// RemediationFor returns the operator-facing suggested action for a category.
func RemediationFor(category Category) string {
	if msg, ok := remediations[category]; ok {
		return msg
	}
	return remediations[CategoryUnknown]
}

// Categories lists every known category, in taxonomy order.
func Categories() []Category {
	return []Category{
		CategoryNetwork,
		CategoryAPI,
		CategoryDataSource,
		CategoryAgent,
		CategoryClassifier,
		CategoryValidation,
		CategoryTimeout,
		CategoryUnknown,
	}
}
