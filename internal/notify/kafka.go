package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/metrics"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/model"
	"github.com/laitim2001/ai-document-extraction-project-sub002/pkg/logger"
)

// DefaultChangeTopic 配置变更事件默认主题
const DefaultChangeTopic = "doc.config.changes"

// KafkaConfig Kafka 生产者配置
type KafkaConfig struct {
	Brokers     []string    `yaml:"brokers"`
	Topic       string      `yaml:"topic"`
	ClientID    string      `yaml:"client_id"`
	Version     string      `yaml:"version"`
	Idempotent  bool        `yaml:"idempotent"`
	Compression string      `yaml:"compression"`
	SASL        *SASLConfig `yaml:"sasl"`
}

// SASLConfig SASL 认证配置
type SASLConfig struct {
	Enable    bool   `yaml:"enable"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	Mechanism string `yaml:"mechanism"` // PLAIN, SCRAM-SHA-256, SCRAM-SHA-512
}

// KafkaNotifier 将配置变更事件投递到 Kafka 主题
// 消息键为配置键, 保证同一配置的事件在分区内有序
type KafkaNotifier struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaNotifier 创建 Kafka 变更通知器
func NewKafkaNotifier(cfg *KafkaConfig) (*KafkaNotifier, error) {
	if cfg == nil || len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers is required")
	}

	saramaConfig, err := buildSaramaConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build sarama config failed: %w", err)
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create sync producer failed: %w", err)
	}

	topic := cfg.Topic
	if topic == "" {
		topic = DefaultChangeTopic
	}

	logger.Info("kafka notifier created",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", topic),
		zap.Bool("idempotent", cfg.Idempotent),
	)

	return &KafkaNotifier{producer: producer, topic: topic}, nil
}

// Name 通知器名称
func (n *KafkaNotifier) Name() string {
	return "kafka"
}

// Notify 发布配置变更事件
func (n *KafkaNotifier) Notify(ctx context.Context, event *model.ConfigChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		metrics.RecordConfigEventPublished(n.Name(), false)
		return fmt.Errorf("marshal change event failed: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(event.ConfigKey),
		Value: sarama.ByteEncoder(payload),
	}

	partition, offset, err := n.producer.SendMessage(msg)
	if err != nil {
		metrics.RecordConfigEventPublished(n.Name(), false)
		return fmt.Errorf("publish change event failed: %w", err)
	}

	metrics.RecordConfigEventPublished(n.Name(), true)
	logger.Debug("change event published",
		zap.String("topic", n.topic),
		zap.String("config_key", event.ConfigKey),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// Close 关闭生产者
func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}

// buildSaramaConfig 构建 Sarama 生产者配置
func buildSaramaConfig(cfg *KafkaConfig) (*sarama.Config, error) {
	saramaConfig := sarama.NewConfig()

	if cfg.Version != "" {
		version, err := sarama.ParseKafkaVersion(cfg.Version)
		if err != nil {
			return nil, fmt.Errorf("parse kafka version failed: %w", err)
		}
		saramaConfig.Version = version
	}

	if cfg.ClientID != "" {
		saramaConfig.ClientID = cfg.ClientID
	}

	// 幂等配置 (保证精确一次语义)
	if cfg.Idempotent {
		saramaConfig.Producer.Idempotent = true
		saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
		saramaConfig.Net.MaxOpenRequests = 1 // 幂等需要
	} else {
		saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	}

	switch cfg.Compression {
	case "gzip":
		saramaConfig.Producer.Compression = sarama.CompressionGZIP
	case "snappy":
		saramaConfig.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		saramaConfig.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		saramaConfig.Producer.Compression = sarama.CompressionZSTD
	default:
		saramaConfig.Producer.Compression = sarama.CompressionNone
	}

	// 同步生产者需要返回结果
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true

	if cfg.SASL != nil && cfg.SASL.Enable {
		saramaConfig.Net.SASL.Enable = true
		saramaConfig.Net.SASL.User = cfg.SASL.Username
		saramaConfig.Net.SASL.Password = cfg.SASL.Password

		switch cfg.SASL.Mechanism {
		case "SCRAM-SHA-256":
			saramaConfig.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
				return &xdgScramClient{HashGeneratorFcn: SHA256}
			}
			saramaConfig.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
		case "SCRAM-SHA-512":
			saramaConfig.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
				return &xdgScramClient{HashGeneratorFcn: SHA512}
			}
			saramaConfig.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
		default:
			saramaConfig.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		}
	}

	return saramaConfig, nil
}
