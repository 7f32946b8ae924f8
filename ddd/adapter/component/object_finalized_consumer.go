package component

import (
	"context"
	"errors"
	"io"
	"sync"

	kafkago "github.com/segmentio/kafka-go"

	appsvc "derivative-service/ddd/application/app"
	"derivative-service/ddd/application/cqe"
	"derivative-service/pkg/config"
	pkgkafka "derivative-service/pkg/kafka"
	"derivative-service/pkg/logger"
	"derivative-service/pkg/manager"
)

type ObjectFinalizedConsumerPlugin struct{}

func (p *ObjectFinalizedConsumerPlugin) Name() string { return "objectFinalizedConsumer" }

func (p *ObjectFinalizedConsumerPlugin) Enabled(cfg *config.Config) bool {
	return cfg != nil && cfg.Kafka.Enabled
}

func (p *ObjectFinalizedConsumerPlugin) MustCreateComponent(deps *manager.Dependencies) manager.Component {
	var app appsvc.DerivativeApp
	if deps != nil {
		if v, ok := deps.DerivativeApp.(appsvc.DerivativeApp); ok {
			app = v
		}
	}
	if app == nil {
		app = appsvc.DefaultDerivativeApp()
	}
	cfg := config.GetGlobalConfig()
	if deps != nil && deps.Config != nil {
		cfg = deps.Config
	}
	reader := pkgkafka.DefaultClient().Reader(cfg.Kafka.Topics.ObjectFinalized, cfg.Kafka.GroupID)
	return newObjectFinalizedConsumer(app, reader, cfg.Kafka)
}

// messageReader is the part of *kafka.Reader the consumer uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// objectFinalizedConsumer 逐条处理，处理完成后再提交 offset
type objectFinalizedConsumer struct {
	app                  appsvc.DerivativeApp
	reader               messageReader
	topic                string
	commitOnDecodeError  bool
	commitOnProcessError bool
	ctx                  context.Context
	cancel               context.CancelFunc
	wg                   sync.WaitGroup
}

func newObjectFinalizedConsumer(app appsvc.DerivativeApp, reader messageReader, kc config.KafkaConfig) *objectFinalizedConsumer {
	return &objectFinalizedConsumer{
		app:                  app,
		reader:               reader,
		topic:                kc.Topics.ObjectFinalized,
		commitOnDecodeError:  kc.CommitOnDecodeError,
		commitOnProcessError: kc.CommitOnProcessError,
	}
}

func (c *objectFinalizedConsumer) Start() error {
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.reader.Close()
		logger.Infof("Kafka consumer started topic=%s", c.topic)
		for {
			msg, err := c.reader.FetchMessage(c.ctx)
			if err != nil {
				if c.ctx.Err() != nil {
					return
				}
				if errors.Is(err, io.EOF) {
					logger.Debug("Kafka reader EOF")
				} else {
					logger.Warnf("Kafka read error error=%s", err.Error())
				}
				continue
			}
			if c.handle(c.ctx, msg) {
				if err := c.reader.CommitMessages(c.ctx, msg); err != nil && c.ctx.Err() == nil {
					logger.Warnf("Kafka commit failed partition=%d offset=%d error=%v", msg.Partition, msg.Offset, err)
				}
			}
		}
	}()
	return nil
}

// handle 返回是否提交该消息
func (c *objectFinalizedConsumer) handle(ctx context.Context, msg kafkago.Message) bool {
	cmd, err := cqe.DecodeObjectFinalized(msg.Value)
	if err != nil {
		logger.Warnf("Kafka message decode error partition=%d offset=%d error=%v", msg.Partition, msg.Offset, err)
		return c.commitOnDecodeError
	}
	logger.Infof("Object finalized received bucket=%s name=%s offset=%d", cmd.Bucket, cmd.Name, msg.Offset)

	out, err := c.app.Process(ctx, cmd.ToSourceObject())
	if err != nil {
		status := ""
		if out != nil {
			status = out.Status
		}
		logger.Warnf("Derivation failed name=%s status=%s error=%v", cmd.Name, status, err)
		return c.commitOnProcessError
	}
	return true
}

func (c *objectFinalizedConsumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	return nil
}

func (c *objectFinalizedConsumer) GetName() string { return "objectFinalizedConsumer" }
