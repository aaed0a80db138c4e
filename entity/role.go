package entity

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
)

// Operator 请求发起人
type Operator struct {
	StudentID string
	Role      Role
}

func (o Operator) IsTeacher() bool {
	return o.Role == RoleTeacher
}

// Models 需要迁移的全部模型
func Models() []any {
	return []any{
		&Assignment{},
		&ProjectGroup{},
		&GroupMember{},
		&Submission{},
		&BuildReport{},
		&SubmissionReport{},
		&GitSubmission{},
	}
}
