// FilePath: internal/mqtt/mqtt.link.go
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/itsatony/hydrohub/internal/config"
	"github.com/itsatony/hydrohub/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

const (
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 250
)

// Ingestor appends readings received from devices
type Ingestor interface {
	IngestReading(ctx context.Context, reading *models.SensorReading) error
	IngestRoomReading(ctx context.Context, reading *models.RoomSensorReading) error
}

// Broadcaster announces newly ingested readings
type Broadcaster interface {
	BroadcastGlobal(event string, data interface{})
}

// Client is the part of paho.Client the link uses
type Client interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Link connects the hub to unit controllers over MQTT: readings come in,
// relay and schedule commands go out as retained messages.
type Link struct {
	client Client
	prefix string
	qos    byte
	ingest Ingestor
	bus    Broadcaster
}

// NewLink creates a link backed by a paho client built from cfg
func NewLink(cfg config.MQTTConfig, ingest Ingestor, bus Broadcaster) *Link {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = nuts.NID("hydrohub", 8)
	}
	opts.SetClientID(clientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	link := NewLinkWithClient(nil, cfg.TopicPrefix, cfg.QoS, ingest, bus)
	// subscriptions are lost on reconnect with a clean session
	opts.SetOnConnectHandler(func(paho.Client) {
		if err := link.subscribe(); err != nil {
			nuts.L.Errorf("[MQTT] %v", err)
		}
	})
	link.client = paho.NewClient(opts)
	return link
}

// NewLinkWithClient creates a link on top of an existing client
func NewLinkWithClient(client Client, prefix string, qos byte, ingest Ingestor, bus Broadcaster) *Link {
	return &Link{
		client: client,
		prefix: strings.Trim(prefix, "/"),
		qos:    qos,
		ingest: ingest,
		bus:    bus,
	}
}

// Connect dials the broker; subscriptions are made by the on-connect handler
func (l *Link) Connect() error {
	if token := l.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	nuts.L.Infof("[MQTT] Connected, topic prefix %q", l.prefix)
	return nil
}

// Disconnect closes the broker connection
func (l *Link) Disconnect() {
	l.client.Disconnect(disconnectQuiesce)
}

func (l *Link) subscribe() error {
	for _, topic := range []string{l.topic("units", "+", "sensors"), l.topic("rooms", "+", "sensors")} {
		token := l.client.Subscribe(topic, l.qos, func(_ paho.Client, msg paho.Message) {
			if err := l.HandleMessage(context.Background(), msg.Topic(), msg.Payload()); err != nil {
				nuts.L.Warnf("[MQTT] Dropping message on %s: %v", msg.Topic(), err)
			}
		})
		if token.Wait() && token.Error() != nil {
			return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
		}
	}
	return nil
}

func (l *Link) topic(parts ...string) string {
	if l.prefix == "" {
		return strings.Join(parts, "/")
	}
	return l.prefix + "/" + strings.Join(parts, "/")
}

// HandleMessage ingests one device reading published on topic
func (l *Link) HandleMessage(ctx context.Context, topic string, payload []byte) error {
	rest := strings.TrimPrefix(topic, l.prefix+"/")
	if l.prefix == "" {
		rest = topic
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[2] != "sensors" || parts[1] == "" {
		return fmt.Errorf("unexpected topic %q", topic)
	}

	var ts int64
	switch parts[0] {
	case "units":
		var reading models.SensorReading
		if err := json.Unmarshal(payload, &reading); err != nil {
			return fmt.Errorf("malformed unit reading: %w", err)
		}
		reading.UnitID = parts[1]
		if err := l.ingest.IngestReading(ctx, &reading); err != nil {
			return err
		}
		ts = reading.Timestamp
	case "rooms":
		roomID, ok := models.RoomUnitID(parts[1])
		if !ok {
			return fmt.Errorf("unknown room %q", parts[1])
		}
		var reading models.RoomSensorReading
		if err := json.Unmarshal(payload, &reading); err != nil {
			return fmt.Errorf("malformed room reading: %w", err)
		}
		reading.UnitID = roomID
		reading.SyncColumnsFromAC()
		if err := l.ingest.IngestRoomReading(ctx, &reading); err != nil {
			return err
		}
		ts = reading.Timestamp
	default:
		return fmt.Errorf("unexpected topic %q", topic)
	}

	if l.bus != nil {
		l.bus.BroadcastGlobal("sensor_update", map[string]interface{}{
			"timestamp": ts,
			"message":   "Sensor data updated",
		})
	}
	return nil
}

// PublishRelays sends the merged relay state to the unit controller
func (l *Link) PublishRelays(status *models.RelayStatus) {
	l.publish(l.topic("units", status.UnitID, "relays", "set"), status)
}

// PublishSchedule sends the schedule of record, including the control mode
func (l *Link) PublishSchedule(unitID string, schedule models.JSON) {
	l.publish(l.topic("units", unitID, "schedule"), schedule)
}

// PublishACSchedule sends the full hourly AC table to the back room controller
func (l *Link) PublishACSchedule(schedule models.ACSchedule) {
	l.publish(l.topic("rooms", "back", "ac_schedule"), map[string]interface{}{"ac_schedule": schedule})
}

// publish is fire-and-forget; delivery failures are only logged
func (l *Link) publish(topic string, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		nuts.L.Errorf("[MQTT] Failed to encode message for %s: %v", topic, err)
		return
	}
	token := l.client.Publish(topic, l.qos, true, body)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			nuts.L.Warnf("[MQTT] Publish to %s timed out", topic)
			return
		}
		if err := token.Error(); err != nil {
			nuts.L.Warnf("[MQTT] Failed to publish to %s: %v", topic, err)
		}
	}()
}
