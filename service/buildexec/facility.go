package buildexec

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/to404hanga/pkg404/gotools/retry"
	"github.com/to404hanga/submission_controller/event"
)

// BuildRequest 一次构建派发
type BuildRequest struct {
	SubmissionID  uint64
	AssignmentID  string
	MavenizedPath string
	AuthorLabel   string
	Rebuild       bool
	CorrelationID string
}

// Facility 外部构建设施, Submit 不阻塞调用方
// 结果通过回调 (kafka 或 http) 回到提交生命周期
type Facility interface {
	Submit(ctx context.Context, ec *ExecContext, req BuildRequest) error
}

const (
	produceRetryTimes    = 3
	produceRetryInterval = 100 * time.Millisecond
)

// KafkaFacility 通过 kafka 将构建任务发给构建执行器
type KafkaFacility struct {
	producer event.Producer
	topic    string
}

var _ Facility = (*KafkaFacility)(nil)

func NewKafkaFacility(producer event.Producer, topic string) *KafkaFacility {
	if topic == "" {
		topic = event.BuildTopic
	}
	return &KafkaFacility{
		producer: producer,
		topic:    topic,
	}
}

func (f *KafkaFacility) Submit(ctx context.Context, ec *ExecContext, req BuildRequest) error {
	msg := event.BuildRequestMessage{
		SubmissionID:  req.SubmissionID,
		AssignmentID:  req.AssignmentID,
		MavenizedPath: req.MavenizedPath,
		AuthorLabel:   req.AuthorLabel,
		Rebuild:       req.Rebuild,
		CorrelationID: req.CorrelationID,
	}
	val, err := msg.Marshal()
	if err != nil {
		return fmt.Errorf("Submit failed at marshal message: %w", err)
	}

	ec.Go(ctx, req, func(ctx context.Context) error {
		// retry.Do 耗尽后不保留原始错误, 这里自己记下最后一次
		var lastErr error
		err := retry.Do(ctx, func() error {
			_, _, lastErr = f.producer.Produce(ctx, &sarama.ProducerMessage{
				Topic: f.topic,
				// 同一提交的消息落在同一分区
				Key:   sarama.StringEncoder(strconv.FormatUint(req.SubmissionID, 10)),
				Value: sarama.ByteEncoder(val),
			})
			return lastErr
		}, retry.WithRetryTimes(produceRetryTimes), retry.WithBaseInterval(produceRetryInterval))
		if err != nil {
			if lastErr == nil {
				lastErr = err
			}
			return fmt.Errorf("Submit failed at produce message: %w", lastErr)
		}
		return nil
	})
	return nil
}
