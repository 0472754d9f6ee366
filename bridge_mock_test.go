package mapalign

import (
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// mockToken implements mqtt.Token for tests
type mockToken struct {
	err error
}

func (t *mockToken) Wait() bool                     { return true }
func (t *mockToken) WaitTimeout(time.Duration) bool { return true }
func (t *mockToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *mockToken) Error() error { return t.err }

// mockClient implements mqtt.Client for tests. It records published messages
// and lets tests inject incoming messages on subscribed topics.
type mockClient struct {
	mu             sync.RWMutex
	connected      bool
	connectError   error
	subscribeError error
	handlers       map[string]mqtt.MessageHandler
	published      []mockPublished
}

type mockPublished struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

func newMockClient() *mockClient {
	return &mockClient{handlers: make(map[string]mqtt.MessageHandler)}
}

func (c *mockClient) publishedMessages() []mockPublished {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]mockPublished, len(c.published))
	copy(result, c.published)
	return result
}

// simulateMessage delivers a payload to the handler subscribed on topic.
func (c *mockClient) simulateMessage(topic string, payload []byte) {
	c.mu.RLock()
	handler := c.handlers[topic]
	c.mu.RUnlock()

	if handler != nil {
		handler(c, &mockMessage{topic: topic, payload: payload})
	}
}

func (c *mockClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *mockClient) IsConnectionOpen() bool { return c.IsConnected() }

func (c *mockClient) Connect() mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connectError != nil {
		return &mockToken{err: c.connectError}
	}
	c.connected = true
	return &mockToken{}
}

func (c *mockClient) Disconnect(quiesce uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
}

func (c *mockClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return &mockToken{err: mqtt.ErrNotConnected}
	}

	var payloadBytes []byte
	switch v := payload.(type) {
	case []byte:
		payloadBytes = v
	case string:
		payloadBytes = []byte(v)
	}

	c.published = append(c.published, mockPublished{
		Topic:   topic,
		Payload: payloadBytes,
		QoS:     qos,
		Retain:  retained,
	})
	return &mockToken{}
}

func (c *mockClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return &mockToken{err: mqtt.ErrNotConnected}
	}
	if c.subscribeError != nil {
		return &mockToken{err: c.subscribeError}
	}

	c.handlers[topic] = callback
	return &mockToken{}
}

func (c *mockClient) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return &mockToken{err: mqtt.ErrNotConnected}
	}
	for topic := range filters {
		c.handlers[topic] = callback
	}
	return &mockToken{}
}

func (c *mockClient) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, topic := range topics {
		delete(c.handlers, topic)
	}
	return &mockToken{}
}

func (c *mockClient) AddRoute(topic string, callback mqtt.MessageHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = callback
}

func (c *mockClient) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

// mockMessage implements mqtt.Message for tests
type mockMessage struct {
	topic   string
	payload []byte
}

func (m *mockMessage) Duplicate() bool     { return false }
func (m *mockMessage) Qos() byte           { return 0 }
func (m *mockMessage) Retained() bool      { return false }
func (m *mockMessage) Topic() string       { return m.topic }
func (m *mockMessage) MessageID() uint16   { return 0 }
func (m *mockMessage) Payload() []byte     { return m.payload }
func (m *mockMessage) Ack()                {}
func (m *mockMessage) AutoAckOff()         {}
func (m *mockMessage) AutoAckOn()          {}
func (m *mockMessage) SetAutoAck(bool)     {}
func (m *mockMessage) SetRetained(bool)    {}
func (m *mockMessage) SetQoS(byte)         {}
func (m *mockMessage) SetDuplicate(bool)   {}
func (m *mockMessage) SetMessageID(uint16) {}
