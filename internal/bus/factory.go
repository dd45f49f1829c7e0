package bus

import (
	"fmt"
	"strings"

	"github.com/gitcards/git-cards/internal/config"
	"github.com/gitcards/git-cards/internal/pkg/errors"
)

// NewBus creates a new Bus instance based on the configuration. When
// event logging is enabled, the bus is wrapped so every published event
// is also appended to the on-disk event log.
func NewBus(cfg config.BusConfig) (Bus, error) {
	inner, err := newBus(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.EventLogEnabled {
		eventLogger, err := NewEventLogger(cfg.EventLogPath, true)
		if err != nil {
			_ = inner.Close()
			return nil, fmt.Errorf("failed to create event logger: %w", err)
		}
		return NewLoggedBus(inner, eventLogger, nil), nil
	}

	return inner, nil
}

func newBus(cfg config.BusConfig) (Bus, error) {
	switch strings.ToLower(cfg.Type) {
	case "memory", "":
		return NewMemoryBus(), nil

	case "kafka":
		brokers := ParseKafkaBrokers(cfg.KafkaBrokers)
		if len(brokers) == 0 {
			return nil, errors.New(errors.CodeValidation, "kafka brokers not configured")
		}

		consumerGroup := cfg.KafkaGroup
		if consumerGroup == "" {
			consumerGroup = "git-cards"
		}

		return NewKafkaBus(KafkaConfig{
			Brokers:       brokers,
			ConsumerGroup: consumerGroup,
			ClientID:      "git-cards-bus",
		})

	default:
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown bus type: %s", cfg.Type))
	}
}
