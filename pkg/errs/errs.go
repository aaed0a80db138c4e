package errs

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/to404hanga/submission_controller/pkg/option"
)

// Kind 错误分类
type Kind int8

const (
	KindInternal   Kind = iota // 未分类的内部错误
	KindValidation             // 项目结构或 AUTHORS 文件不合法, 可恢复
	KindPolicy                 // 冷却期, 存在未完成的提交, 非小组成员, 无权限
	KindNotFound               // 实体不存在
	KindStorage                // 文件系统或对象存储失败
	KindGit                    // git 克隆或拉取失败
	KindArchive                // 压缩包打包或解包失败
	KindExecution              // 构建执行失败
	KindConflict               // git 对账冲突
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPolicy:
		return "policy"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	case KindGit:
		return "git"
	case KindArchive:
		return "archive"
	case KindExecution:
		return "execution"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Reason 同一 Kind 下的细分原因
type Reason string

const (
	ReasonNone Reason = ""

	ReasonStructure         Reason = "structure"
	ReasonAuthorsMissing    Reason = "authors_missing"
	ReasonAuthorsMalformed  Reason = "authors_malformed"
	ReasonAuthorsUnreadable Reason = "authors_unreadable"
	ReasonAuthorsEmpty      Reason = "authors_empty"
	ReasonInvalidInput      Reason = "invalid_input"

	ReasonCooloff           Reason = "cooloff"
	ReasonPendingSubmission Reason = "pending_submission"
	ReasonNotGroupMember    Reason = "not_group_member"
	ReasonAccessDenied      Reason = "access_denied"
	ReasonAssignmentClosed  Reason = "assignment_closed"
	ReasonWrongMethod       Reason = "wrong_submission_method"
	ReasonImmutableField    Reason = "immutable_field"
	ReasonInvalidState      Reason = "invalid_state"

	ReasonEmptyRepository  Reason = "empty_repository"
	ReasonAlreadyConnected Reason = "already_connected"
)

type Error struct {
	Kind    Kind
	Reason  Reason
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is 同 Kind 且同 Reason (目标 Reason 为空时只比较 Kind) 视为相等
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == ReasonNone || t.Reason == e.Reason
}

func newError(kind Kind, reason Reason, msg string, cause error, details []string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: msg, Err: cause, Details: details}
}

func ValidationError(reason Reason, msg string, details ...string) *Error {
	return newError(KindValidation, reason, msg, nil, details)
}

func PolicyViolation(reason Reason, msg string) *Error {
	return newError(KindPolicy, reason, msg, nil, nil)
}

func NotFound(what string, id any) *Error {
	return newError(KindNotFound, ReasonNone, fmt.Sprintf("%s %v not found", what, id), nil, nil)
}

func StorageFailure(msg string, cause error) *Error {
	return newError(KindStorage, ReasonNone, msg, cause, nil)
}

func GitFailure(reason Reason, msg string, cause error) *Error {
	return newError(KindGit, reason, msg, cause, nil)
}

func ArchiveFailure(msg string, cause error) *Error {
	return newError(KindArchive, ReasonNone, msg, cause, nil)
}

func ExecutionFault(msg string, cause error) *Error {
	return newError(KindExecution, ReasonNone, msg, cause, nil)
}

func Conflict(reason Reason, msg string) *Error {
	return newError(KindConflict, reason, msg, nil, nil)
}

// Sentinel 值, 用于 errors.Is 判断
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrPolicy     = &Error{Kind: KindPolicy}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrStorage    = &Error{Kind: KindStorage}
	ErrGit        = &Error{Kind: KindGit}
	ErrArchive    = &Error{Kind: KindArchive}
	ErrExecution  = &Error{Kind: KindExecution}
	ErrConflict   = &Error{Kind: KindConflict}

	ErrPendingSubmission = &Error{Kind: KindPolicy, Reason: ReasonPendingSubmission}
	ErrCooloff           = &Error{Kind: KindPolicy, Reason: ReasonCooloff}
	ErrEmptyRepository   = &Error{Kind: KindGit, Reason: ReasonEmptyRepository}
)

// KindOf 返回错误链上第一个 *Error 的 Kind
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Details 返回错误链上第一个 *Error 的明细列表
func Details(err error) []string {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}

// HTTPStatus 将错误映射为响应码
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindPolicy:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindGit, KindExecution:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Found 将仓储查询结果转换为值, 不存在时返回 NotFound 错误
func Found[T any](opt option.Option[T], what string, id any) (T, error) {
	v, ok := opt.Get()
	if !ok {
		return v, NotFound(what, id)
	}
	return v, nil
}
