package mapalign

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"gopkg.in/yaml.v3"
)

// BridgeConfig holds MQTT connection and topic settings for a PoseBridge.
type BridgeConfig struct {
	Broker       string `yaml:"broker" json:"broker"`
	ClientID     string `yaml:"client_id" json:"clientId"`
	Username     string `yaml:"username,omitempty" json:"username,omitempty"`
	Password     string `yaml:"password,omitempty" json:"password,omitempty"`
	PoseTopic    string `yaml:"pose_topic" json:"poseTopic"`       // robot-frame poses in
	PublishTopic string `yaml:"publish_topic" json:"publishTopic"` // reference-frame poses out
}

// LoadBridgeConfig loads a bridge configuration from a YAML file.
func LoadBridgeConfig(path string) (*BridgeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("bridge config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading bridge config file: %w", err)
	}

	var cfg BridgeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing bridge config YAML: %w", err)
	}

	if cfg.Broker == "" {
		return nil, fmt.Errorf("broker is required")
	}
	if cfg.PoseTopic == "" {
		return nil, fmt.Errorf("pose_topic is required")
	}
	if cfg.PublishTopic == "" {
		return nil, fmt.Errorf("publish_topic is required")
	}

	return &cfg, nil
}

// Pose is a robot pose on the wire. Theta is a heading in radians, positive
// counter-clockwise.
type Pose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// PoseBridge subscribes to robot-frame poses and republishes them in
// reference-map coordinates through a loaded Transformer. Queries are
// read-only, so the bridge can share the transformer with other readers; the
// transformer must stay loaded for the lifetime of the bridge.
type PoseBridge struct {
	client      mqtt.Client
	transformer *Transformer
	cfg         BridgeConfig

	mu        sync.RWMutex
	connected bool
}

// NewPoseBridge creates a pose bridge for the given configuration and
// transformer. Call Start to connect and begin bridging.
func NewPoseBridge(cfg BridgeConfig, transformer *Transformer) *PoseBridge {
	b := &PoseBridge{transformer: transformer, cfg: cfg}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "mapalign"
	}
	opts.SetClientID(clientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetCleanSession(false) // preserve the pose subscription across reconnects
	opts.SetConnectionLostHandler(b.onConnectionLost)

	b.client = mqtt.NewClient(opts)
	return b
}

// newPoseBridgeWithClient injects a client, used by tests with a mock.
func newPoseBridgeWithClient(client mqtt.Client, cfg BridgeConfig, transformer *Transformer) *PoseBridge {
	return &PoseBridge{client: client, transformer: transformer, cfg: cfg}
}

// Start connects to the broker and subscribes to the pose topic.
func (b *PoseBridge) Start() error {
	token := b.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("timeout connecting to MQTT broker %s", b.cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connecting to MQTT broker: %w", err)
	}
	b.setConnected(true)

	sub := b.client.Subscribe(b.cfg.PoseTopic, 0, b.handlePose)
	if sub.WaitTimeout(5*time.Second) && sub.Error() != nil {
		return fmt.Errorf("subscribing to %s: %w", b.cfg.PoseTopic, sub.Error())
	}

	log.Printf("Pose bridge subscribed to %s, publishing to %s", b.cfg.PoseTopic, b.cfg.PublishTopic)
	return nil
}

// handlePose transforms one robot-frame pose and republishes it. The heading
// is adjusted by the global map rotation only; the piecewise correction does
// not carry a rotation of its own.
func (b *PoseBridge) handlePose(client mqtt.Client, msg mqtt.Message) {
	var pose Pose
	if err := json.Unmarshal(msg.Payload(), &pose); err != nil {
		log.Printf("Discarding malformed pose on %s: %v", msg.Topic(), err)
		return
	}

	mapped, err := b.transformer.ToRef(Point{X: pose.X, Y: pose.Y})
	if err != nil {
		log.Printf("Cannot transform pose: %v", err)
		return
	}
	mt, err := b.transformer.MapTransform()
	if err != nil {
		log.Printf("Cannot transform pose: %v", err)
		return
	}

	payload, err := json.Marshal(Pose{X: mapped.X, Y: mapped.Y, Theta: pose.Theta + mt.Rotation})
	if err != nil {
		log.Printf("Marshaling transformed pose: %v", err)
		return
	}

	token := client.Publish(b.cfg.PublishTopic, 0, false, payload)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		log.Printf("Publishing transformed pose: %v", token.Error())
	}
}

// onConnectionLost is called when the MQTT connection drops. Auto-reconnect
// is enabled, so this is typically transient.
func (b *PoseBridge) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("Pose bridge connection interrupted (%v), auto-reconnect will retry", err)
	b.setConnected(false)
}

// IsConnected reports whether the bridge currently has a broker connection.
func (b *PoseBridge) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

func (b *PoseBridge) setConnected(connected bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = connected
}

// Stop disconnects from the broker.
func (b *PoseBridge) Stop() {
	if b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(250) // 250ms quiesce time
	}
	b.setConnected(false)
}
