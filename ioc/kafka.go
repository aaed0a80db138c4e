package ioc

import (
	"log"

	"github.com/IBM/sarama"
	"github.com/spf13/viper"
	loggerv2 "github.com/to404hanga/pkg404/logger/v2"
	"github.com/to404hanga/submission_controller/config"
	"github.com/to404hanga/submission_controller/event"
	"github.com/to404hanga/submission_controller/service"
)

func kafkaConfig() config.KafkaConfig {
	var cfg config.KafkaConfig
	if err := viper.UnmarshalKey(cfg.Key(), &cfg); err != nil {
		log.Panicf("unmarshal kafka config failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Panicf("invalid kafka config: %v", err)
	}
	if cfg.BuildTopic == "" {
		cfg.BuildTopic = event.BuildTopic
	}
	if cfg.ResultTopic == "" {
		cfg.ResultTopic = event.BuildResultTopic
	}
	if cfg.ConsumerGroup == "" {
		cfg.ConsumerGroup = "submission_controller"
	}
	return cfg
}

func InitSaramaClient() sarama.Client {
	cfg := kafkaConfig()
	scfg := sarama.NewConfig()
	scfg.Producer.Return.Successes = true
	scfg.Producer.RequiredAcks = sarama.WaitForAll
	scfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	client, err := sarama.NewClient(cfg.Brokers, scfg)
	if err != nil {
		log.Panicf("create kafka client failed: %v", err)
	}
	return client
}

func InitProducer(client sarama.Client) event.Producer {
	p, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		log.Panicf("create kafka producer failed: %v", err)
	}
	return event.NewSaramaProducer(p)
}

// InitResultConsumer 构建结果回写提交状态
func InitResultConsumer(client sarama.Client, submissionSvc service.SubmissionService, l loggerv2.Logger) *event.ResultConsumer {
	cfg := kafkaConfig()
	group, err := sarama.NewConsumerGroupFromClient(cfg.ConsumerGroup, client)
	if err != nil {
		log.Panicf("create kafka consumer group failed: %v", err)
	}
	return event.NewResultConsumer(group, cfg.ResultTopic, submissionSvc, l)
}
