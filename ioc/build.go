package ioc

import (
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/event"
	"github.com/to404hanga/submission_controller/service/buildexec"
)

func InitExecContext(l loggerv2.Logger) *buildexec.ExecContext {
	return buildexec.NewExecContext(pipelineConfig().MaxConcurrentDispatch, l)
}

func InitFacility(producer event.Producer) buildexec.Facility {
	return buildexec.NewKafkaFacility(producer, kafkaConfig().BuildTopic)
}
