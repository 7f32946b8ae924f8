package resource

import (
	"derivative-service/pkg/config"
	"derivative-service/pkg/kafka"
	"derivative-service/pkg/manager"
)

type KafkaResource struct{}

type KafkaResourcePlugin struct{}

func (p *KafkaResourcePlugin) Name() string { return "kafka" }

func (p *KafkaResourcePlugin) Enabled(cfg *config.Config) bool {
	return cfg != nil && cfg.Kafka.Enabled
}

func (p *KafkaResourcePlugin) MustCreateResource() manager.Resource { return &KafkaResource{} }

func (r *KafkaResource) MustOpen() { kafka.DefaultClient().MustOpen() }

func (r *KafkaResource) Close() { kafka.DefaultClient().Close() }
