package publisher_fx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"alumni/internal/config"
	"alumni/internal/infra"
	"alumni/internal/services"
)

var Module = fx.Provide(providePublisher)

// providePublisher writes domain events to Kafka when brokers are configured
// and only logs them otherwise.
func providePublisher(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) services.EventPublisher {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Warn("KAFKA_BROKERS not set, domain events will only be logged")
		return infra.NewLogPublisher(log)
	}

	publisher := infra.NewKafkaPublisher(cfg.Kafka, log)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return publisher.Close()
		},
	})
	return publisher
}
