package nfc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

const (
	DefaultScanTopic = "nfc/+/scan"
	// noRoom fills the room segment of a topic for scans without a room.
	noRoom = "_"
	qos    = 1
)

type BridgeConfig struct {
	BrokerURL string
	ClientID  string
	Topic     string
}

// Bridge connects the local Feed to an MQTT broker. Readers publish to
// nfc/<roomId>/scan; every server instance subscribes and republishes what it
// receives into its own feed.
type Bridge struct {
	client mqtt.Client
	feed   *Feed
	topic  string
	now    func() time.Time
}

type scanPayload struct {
	CardID    string     `json:"card_id"`
	RoomID    string     `json:"room_id,omitempty"`
	ScannedAt *time.Time `json:"scanned_at,omitempty"`
}

func NewBridge(cfg BridgeConfig, feed *Feed) *Bridge {
	if cfg.Topic == "" {
		cfg.Topic = DefaultScanTopic
	}
	b := &Bridge{feed: feed, topic: cfg.Topic, now: time.Now}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(b.onConnect)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("mqtt connection lost")
	})

	b.client = mqtt.NewClient(opts)
	return b
}

// Start connects to the broker. Subscriptions are (re)made on every connect.
func (b *Bridge) Start(ctx context.Context) error {
	token := b.client.Connect()
	if err := waitToken(ctx, token); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	log.Info().Str("topic", b.topic).Msg("mqtt bridge connected")
	return nil
}

func (b *Bridge) onConnect(c mqtt.Client) {
	token := c.Subscribe(b.topic, qos, b.handle)
	if token.Wait() && token.Error() != nil {
		log.Error().Err(token.Error()).Str("topic", b.topic).Msg("failed to subscribe to scan topic")
		return
	}
	log.Debug().Str("topic", b.topic).Msg("subscribed to scan topic")
}

func (b *Bridge) handle(_ mqtt.Client, msg mqtt.Message) {
	scan, err := b.decode(msg.Topic(), msg.Payload())
	if err != nil {
		log.Warn().Err(err).Str("topic", msg.Topic()).Msg("discarding scan message")
		return
	}
	b.feed.Publish(scan)
}

func (b *Bridge) decode(topic string, payload []byte) (Scan, error) {
	var p scanPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Scan{}, fmt.Errorf("decode scan payload: %w", err)
	}
	if p.CardID == "" {
		return Scan{}, fmt.Errorf("scan payload has no card_id")
	}
	scan := Scan{CardID: p.CardID, RoomID: p.RoomID}
	if scan.RoomID == "" {
		scan.RoomID = RoomFromTopic(topic)
	}
	if p.ScannedAt != nil {
		scan.ScannedAt = *p.ScannedAt
	} else {
		scan.ScannedAt = b.now()
	}
	return scan, nil
}

// Emit publishes a scan to the broker so every instance, this one included,
// sees it.
func (b *Bridge) Emit(ctx context.Context, s Scan) error {
	if s.ScannedAt.IsZero() {
		s.ScannedAt = b.now()
	}
	payload, err := json.Marshal(scanPayload{CardID: s.CardID, RoomID: s.RoomID, ScannedAt: &s.ScannedAt})
	if err != nil {
		return err
	}
	token := b.client.Publish(ScanTopic(s.RoomID), qos, false, payload)
	if err := waitToken(ctx, token); err != nil {
		return fmt.Errorf("failed to publish scan: %w", err)
	}
	return nil
}

func (b *Bridge) Close() {
	if b.client.IsConnected() {
		b.client.Disconnect(250)
		log.Info().Msg("mqtt bridge disconnected")
	}
}

// ScanTopic is the topic a scan for roomID is published on.
func ScanTopic(roomID string) string {
	if roomID == "" {
		roomID = noRoom
	}
	return "nfc/" + roomID + "/scan"
}

// RoomFromTopic extracts the room id from nfc/<roomId>/scan.
func RoomFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 || parts[1] == noRoom {
		return ""
	}
	return parts[1]
}

func waitToken(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
