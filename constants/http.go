package constants

const (
	HeaderRequestIDKey    = "X-Request-ID"
	HeaderLoginTokenKey   = "X-Submission-JWT-Token"
	HeaderRefreshTokenKey = "X-Submission-Refresh-Token"
	// HeaderInternalToken 构建回调携带的内部令牌, 与 model.BuildCallbackParam 的 header 标签一致
	HeaderInternalToken = "X-Internal-Token"
)

const (
	ContextUserClaimsKey = "X-Submission-User-Claims"
)

// MultipartFileField 上传接口中压缩包的表单字段名
const MultipartFileField = "file"
