package entity

type SubmissionStatus string

const (
	StatusSubmitted           SubmissionStatus = "SUBMITTED"
	StatusValidated           SubmissionStatus = "VALIDATED"
	StatusFailed              SubmissionStatus = "FAILED"
	StatusSubmittedForRebuild SubmissionStatus = "SUBMITTED_FOR_REBUILD"
	StatusRebuilding          SubmissionStatus = "REBUILDING"
	StatusValidatedRebuilt    SubmissionStatus = "VALIDATED_REBUILT"
	StatusAbortedByTimeout    SubmissionStatus = "ABORTED_BY_TIMEOUT"
	StatusTooMuchOutput       SubmissionStatus = "TOO_MUCH_OUTPUT"
	StatusIllegalAccess       SubmissionStatus = "ILLEGAL_ACCESS"
	StatusDeleted             SubmissionStatus = "DELETED"
)

var transitions = map[SubmissionStatus][]SubmissionStatus{
	StatusSubmitted: {
		StatusValidated, StatusFailed,
		StatusAbortedByTimeout, StatusTooMuchOutput, StatusIllegalAccess,
	},
	StatusSubmittedForRebuild: {
		StatusRebuilding, StatusFailed,
		StatusAbortedByTimeout, StatusTooMuchOutput, StatusIllegalAccess,
	},
	StatusRebuilding: {
		StatusValidatedRebuilt, StatusFailed,
		StatusAbortedByTimeout, StatusTooMuchOutput, StatusIllegalAccess,
	},
	StatusValidated:        {StatusSubmittedForRebuild},
	StatusValidatedRebuilt: {StatusSubmittedForRebuild},
	StatusFailed:           {StatusSubmittedForRebuild},
	StatusAbortedByTimeout: {StatusSubmittedForRebuild},
	StatusTooMuchOutput:    {StatusSubmittedForRebuild},
	StatusIllegalAccess:    {StatusSubmittedForRebuild},
}

// CanTransition 判断状态迁移是否合法, 任意状态均可迁移到 DELETED
func CanTransition(from, to SubmissionStatus) bool {
	if to == StatusDeleted {
		return from != StatusDeleted
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// InFlightStatuses 等待构建结果的状态
func InFlightStatuses() []SubmissionStatus {
	return []SubmissionStatus{StatusSubmitted, StatusSubmittedForRebuild, StatusRebuilding}
}

func (s SubmissionStatus) IsInFlight() bool {
	for _, f := range InFlightStatuses() {
		if s == f {
			return true
		}
	}
	return false
}

// IsEvaluated 构建成功完成的状态, 参与排行榜
func (s SubmissionStatus) IsEvaluated() bool {
	return s == StatusValidated || s == StatusValidatedRebuilt
}

// BuildOutcome 构建设施回调的结果
type BuildOutcome string

const (
	OutcomeSuccess          BuildOutcome = "SUCCESS"
	OutcomeFailed           BuildOutcome = "FAILED"
	OutcomeAbortedByTimeout BuildOutcome = "ABORTED_BY_TIMEOUT"
	OutcomeTooMuchOutput    BuildOutcome = "TOO_MUCH_OUTPUT"
	OutcomeIllegalAccess    BuildOutcome = "ILLEGAL_ACCESS"
)

// TargetStatus 回调结果对应的终态, rebuild 为 true 时成功对应 VALIDATED_REBUILT
func (o BuildOutcome) TargetStatus(rebuild bool) (SubmissionStatus, bool) {
	switch o {
	case OutcomeSuccess:
		if rebuild {
			return StatusValidatedRebuilt, true
		}
		return StatusValidated, true
	case OutcomeFailed:
		return StatusFailed, true
	case OutcomeAbortedByTimeout:
		return StatusAbortedByTimeout, true
	case OutcomeTooMuchOutput:
		return StatusTooMuchOutput, true
	case OutcomeIllegalAccess:
		return StatusIllegalAccess, true
	}
	return "", false
}
