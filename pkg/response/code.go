package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 用户模块错误 100xx
	ErrUserExists   = 10001
	ErrUserNotFound = 10002
	ErrAuthFailed   = 10003
	ErrTokenInvalid = 10004
	ErrNoPermission = 10005
	ErrUserBanned   = 10006
	ErrSelfFollow   = 10007

	// 互动模块错误 200xx
	ErrTargetNotFound  = 20001
	ErrRateLimited     = 20002
	ErrCooldownActive  = 20003
	ErrAlreadyExists   = 20004
	ErrMarkedSpam      = 20005
	ErrFilteredComment = 20006

	// 社区模块错误 300xx
	ErrCommunityNotFound = 30001
	ErrNotMember         = 30002
	ErrCreatorLeave      = 30003

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
)
