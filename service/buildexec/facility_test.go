package buildexec

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/to404hanga/pkg404/logger"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/event"
)

func TestKafkaFacilitySubmit(t *testing.T) {
	producer := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var msg event.BuildRequestMessage
		if err := sonic.Unmarshal(val, &msg); err != nil {
			return err
		}
		if msg.SubmissionID != 42 || !msg.Rebuild || msg.MavenizedPath != "/data/mavenized/x-mavenized" {
			return errors.New("unexpected message")
		}
		return nil
	})

	ec := NewExecContext(2, loggerv2.NewLoggerAdapter(logger.NewNopLogger()))
	facility := NewKafkaFacility(event.NewSaramaProducer(producer), "")

	err := facility.Submit(context.Background(), ec, BuildRequest{
		SubmissionID:  42,
		MavenizedPath: "/data/mavenized/x-mavenized",
		Rebuild:       true,
		CorrelationID: "c-1",
	})
	require.NoError(t, err)
	ec.Wait()

	assert.Equal(t, Stats{Dispatched: 1}, ec.Stats())
	require.NoError(t, producer.Close())
}

func TestKafkaFacilityFailureReported(t *testing.T) {
	producer := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	for i := 0; i < produceRetryTimes; i++ {
		producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	}

	ec := NewExecContext(1, loggerv2.NewLoggerAdapter(logger.NewNopLogger()))
	var (
		mu     sync.Mutex
		failed []uint64
	)
	ec.SetFailureHandler(func(ctx context.Context, req BuildRequest, err error) {
		mu.Lock()
		defer mu.Unlock()
		assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
		failed = append(failed, req.SubmissionID)
	})

	facility := NewKafkaFacility(event.NewSaramaProducer(producer), event.BuildTopic)
	require.NoError(t, facility.Submit(context.Background(), ec, BuildRequest{SubmissionID: 7}))
	ec.Wait()

	assert.Equal(t, []uint64{7}, failed)
	assert.Equal(t, int64(1), ec.Stats().Failed)
	require.NoError(t, producer.Close())
}

func TestKafkaFacilityRetriesTransientFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, mocks.NewTestConfig())
	producer.ExpectSendMessageAndFail(sarama.ErrNotLeaderForPartition)
	producer.ExpectSendMessageAndSucceed()

	ec := NewExecContext(1, loggerv2.NewLoggerAdapter(logger.NewNopLogger()))
	var failed []uint64
	ec.SetFailureHandler(func(ctx context.Context, req BuildRequest, err error) {
		failed = append(failed, req.SubmissionID)
	})

	facility := NewKafkaFacility(event.NewSaramaProducer(producer), event.BuildTopic)
	require.NoError(t, facility.Submit(context.Background(), ec, BuildRequest{SubmissionID: 9}))
	ec.Wait()

	assert.Empty(t, failed)
	assert.Equal(t, Stats{Dispatched: 1}, ec.Stats())
	require.NoError(t, producer.Close())
}

func TestExecContextBoundsConcurrency(t *testing.T) {
	ec := NewExecContext(2, loggerv2.NewLoggerAdapter(logger.NewNopLogger()))
	release := make(chan struct{})
	started := make(chan struct{}, 5)

	var (
		mu      sync.Mutex
		running int
		peak    int
	)
	for i := 0; i < 5; i++ {
		ec.Go(context.Background(), BuildRequest{SubmissionID: uint64(i)}, func(ctx context.Context) error {
			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()
			started <- struct{}{}
			<-release
			mu.Lock()
			running--
			mu.Unlock()
			return nil
		})
	}
	<-started
	<-started
	close(release)
	ec.Wait()

	assert.LessOrEqual(t, peak, 2)
	assert.Equal(t, int64(5), ec.Stats().Dispatched)
	assert.Equal(t, int64(0), ec.Stats().Active)
}
