package stream

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/matt-g-everett/puppetx/motion"
	"github.com/rs/zerolog"
)

const publishTimeout = 2 * time.Second

// A Publisher sends MQTT messages. mqtt.Client satisfies it.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// An Enqueuer accepts generated sequences for playback.
type Enqueuer interface {
	Enqueue(target motion.Target, sequence *Sequence) (string, error)
}

// Streamer that streams landmark frames to renderers over MQTT.
type Streamer struct {
	client      Publisher
	frameTopic  string
	statusTopic string
	log         zerolog.Logger
}

// NewStreamer creates an instance of a Streamer.
func NewStreamer(config Config, client Publisher, logger zerolog.Logger) *Streamer {
	s := new(Streamer)
	s.client = client
	s.frameTopic = config.Mqtt.Topics.Frames
	s.statusTopic = config.Mqtt.Topics.Status
	s.log = logger.With().Str("component", "streamer").Logger()
	return s
}

// SendFrame sends a frame as binary over MQTT. The clip id is the last
// topic level.
func (s *Streamer) SendFrame(clipID string, frame Frame) error {
	b, err := frame.MarshalBinary()
	if err != nil {
		return err
	}
	return s.publish(s.frameTopic+"/"+clipID, b)
}

// SendEvent publishes a clip event as JSON on the status topic.
func (s *Streamer) SendEvent(event ClipEvent) error {
	b, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.publish(s.statusTopic, b)
}

func (s *Streamer) publish(topic string, payload []byte) error {
	token := s.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}

// Subscribe listens for animation commands and queues them on queue.
func (s *Streamer) Subscribe(client mqtt.Client, topic string, queue Enqueuer) error {
	handler := func(client mqtt.Client, msg mqtt.Message) {
		s.log.Debug().Str("topic", msg.Topic()).Int("bytes", len(msg.Payload())).Msg("command received")
		if _, err := s.HandleCommand(msg.Payload(), queue); err != nil {
			s.log.Warn().Err(err).Str("topic", msg.Topic()).Msg("command rejected")
		}
	}

	if token := client.Subscribe(topic, 0, handler); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	return nil
}

// HandleCommand decodes a JSON Request, generates it and queues the result.
func (s *Streamer) HandleCommand(payload []byte, queue Enqueuer) (string, error) {
	var req Request
	if err := json.Unmarshal(payload, &req); err != nil {
		return "", fmt.Errorf("decode command: %w", err)
	}

	seq, err := req.Generate()
	if err != nil {
		return "", err
	}

	return queue.Enqueue(req.Target, seq)
}
