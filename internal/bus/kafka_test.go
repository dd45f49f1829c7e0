package bus

import (
	"context"
	"testing"
)

func TestKafkaConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     KafkaConfig
		wantErr bool
	}{
		{
			"valid config",
			KafkaConfig{Brokers: []string{"localhost:9092"}, ConsumerGroup: "git-cards"},
			false,
		},
		{
			"empty brokers",
			KafkaConfig{ConsumerGroup: "git-cards"},
			true,
		},
		{
			"empty consumer group",
			KafkaConfig{Brokers: []string{"localhost:9092"}},
			true,
		},
		{
			"invalid kafka version",
			KafkaConfig{Brokers: []string{"localhost:9092"}, ConsumerGroup: "git-cards", Version: "invalid"},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKafkaBus(tt.cfg)
			if (err != nil) != tt.wantErr {
				if !tt.wantErr && err != nil {
					t.Skip("Kafka not running:", err)
				}
				t.Errorf("NewKafkaBus() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseKafkaBrokers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"single broker", "localhost:9092", []string{"localhost:9092"}},
		{"multiple brokers", "b1:9092,b2:9092,b3:9092", []string{"b1:9092", "b2:9092", "b3:9092"}},
		{"whitespace trimmed", " b1:9092 , b2:9092 ", []string{"b1:9092", "b2:9092"}},
		{"empty string", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseKafkaBrokers(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("ParseKafkaBrokers(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("broker %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestKafkaBus_Interface(t *testing.T) {
	var _ Bus = (*KafkaBus)(nil)
}

func TestKafkaBus_ClosedBus(t *testing.T) {
	closed := &KafkaBus{
		handlers:     make(map[string][]Handler),
		consumerStop: make(chan struct{}),
		closed:       true,
	}

	if err := closed.Close(); err != nil {
		t.Errorf("Close() on a closed bus returned error: %v", err)
	}

	event := NewEvent(TopicScanStarted, "octocat")
	if err := closed.Publish(context.Background(), TopicScanStarted, event); err == nil {
		t.Error("Publish() on a closed bus should fail")
	}

	err := closed.Subscribe(context.Background(), TopicScanStarted, func(ctx context.Context, event Event) error {
		return nil
	})
	if err == nil {
		t.Error("Subscribe() on a closed bus should fail")
	}
}
