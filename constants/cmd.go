package constants

const (
	UploadSubmissionPath         = "/UploadSubmission"         // 上传压缩包提交
	SubmitFromGitPath            = "/SubmitFromGit"            // 从已连接的 git 仓库提交
	RebuildSubmissionPath        = "/RebuildSubmission"        // 重新构建提交
	RebuildFullSubmissionPath    = "/RebuildFullSubmission"    // 从原始文件重新规范化并构建
	DeleteSubmissionPath         = "/DeleteSubmission"         // 删除提交
	GetSubmissionPath            = "/GetSubmission"            // 获取提交
	GetLatestSubmissionPath      = "/GetLatestSubmission"      // 获取小组最近一次提交
	ListGroupSubmissionsPath     = "/ListGroupSubmissions"     // 获取小组提交列表
	GetSubmissionSummaryPath     = "/GetSubmissionSummary"     // 获取提交的构建汇总
	GetNextSubmissionTimePath    = "/GetNextSubmissionTime"    // 获取冷却期结束时间
	GetSubmissionDownloadURLPath = "/GetSubmissionDownloadURL" // 获取原始压缩包下载地址
	BuildCallbackPath            = "/internal/BuildCallback"   // 构建设施回调, 仅内部调用
)

const (
	SetupGitSubmissionPath   = "/SetupGitSubmission"   // 登记 git 仓库并生成部署密钥
	ConnectGitSubmissionPath = "/ConnectGitSubmission" // 克隆仓库并确认小组
	RefreshGitSubmissionPath = "/RefreshGitSubmission" // 拉取仓库更新
	ResetGitSubmissionPath   = "/ResetGitSubmission"   // 解除仓库连接
	GetGitSubmissionPath     = "/GetGitSubmission"     // 获取当前仓库连接
)

const (
	CreateAssignmentPath         = "/CreateAssignment"         // 创建作业
	UpdateAssignmentPath         = "/UpdateAssignment"         // 更新作业
	GetAssignmentPath            = "/GetAssignment"            // 获取作业
	GetAssignmentListPath        = "/GetAssignmentList"        // 获取作业列表
	SetAssignmentActivePath      = "/SetAssignmentActive"      // 开启或关闭作业
	UploadTeacherFilesPath       = "/UploadTeacherFiles"       // 上传教师文件
	ListAssignmentSubmissionPath = "/ListAssignmentSubmission" // 获取作业全部提交
)

const (
	MarkAsFinalPath    = "/MarkAsFinal"    // 切换最终提交
	ExportFinalPath    = "/ExportFinal"    // 导出最终提交
	GetLeaderboardPath = "/GetLeaderboard" // 获取排行榜
)

const (
	GetCurrentUserPath = "/GetCurrentUser" // 获取当前登录用户
	LogoutPath         = "/Logout"         // 退出登录
)
