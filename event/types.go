package event

import (
	"github.com/bytedance/sonic"
)

const (
	BuildTopic       = "submission_build_topic"
	BuildResultTopic = "submission_build_result_topic"
)

// BuildRequestMessage 发往构建设施的构建任务
type BuildRequestMessage struct {
	SubmissionID  uint64 `json:"submission_id"`
	AssignmentID  string `json:"assignment_id"`
	MavenizedPath string `json:"mavenized_path"`
	AuthorLabel   string `json:"author_label"`
	Rebuild       bool   `json:"rebuild"`
	CorrelationID string `json:"correlation_id"`
}

func (m *BuildRequestMessage) Marshal() ([]byte, error) {
	return sonic.Marshal(m)
}

// BuildResultMessage 构建设施回传的构建结果
type BuildResultMessage struct {
	SubmissionID  uint64   `json:"submission_id"`
	CorrelationID string   `json:"correlation_id"`
	Outcome       string   `json:"outcome"`
	Rebuild       bool     `json:"rebuild"`
	Output        []string `json:"output"`
}

func (m *BuildResultMessage) Marshal() ([]byte, error) {
	return sonic.Marshal(m)
}

func UnmarshalBuildResult(data []byte) (*BuildResultMessage, error) {
	var m BuildResultMessage
	if err := sonic.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
