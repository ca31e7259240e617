package mqtt

import (
	"fmt"
	"strings"
)

// Subscribe registers handler for topic (wildcards allowed). The
// subscription is tracked and restored after reconnects.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.mu.Lock()
	c.subs[topic] = subscription{qos: qos, handler: handler}
	c.mu.Unlock()

	token := c.client.Subscribe(topic, qos, c.wrapHandler(handler))
	var err error
	switch {
	case !token.WaitTimeout(defaultPublishTimeout):
		err = fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultPublishTimeout)
	case token.Error() != nil:
		err = fmt.Errorf("%w: %w", ErrSubscribeFailed, token.Error())
	}
	if err != nil {
		c.mu.Lock()
		delete(c.subs, topic)
		c.mu.Unlock()
	}
	return err
}

// SubscriptionCount returns the number of tracked subscriptions.
func (c *Client) SubscriptionCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.subs)
}

// SignalWriter writes a control token into the control document.
type SignalWriter interface {
	WriteSignal(token string) error
}

// ForwardControl subscribes to the control topic and writes each received
// token through w.
func (c *Client) ForwardControl(w SignalWriter) error {
	return c.Subscribe(c.topics.Control(), byte(c.cfg.QoS), ControlHandler(w, c.log()))
}

// ControlHandler returns a handler that forwards a trimmed token to w.
// Invalid tokens are rejected by w and reported as handler errors.
func ControlHandler(w SignalWriter, logger Logger) MessageHandler {
	if logger == nil {
		logger = noopLogger{}
	}
	return func(topic string, payload []byte) error {
		token := strings.TrimSpace(string(payload))
		if err := w.WriteSignal(token); err != nil {
			return fmt.Errorf("forwarding control token: %w", err)
		}
		logger.Info("remote control token received", "topic", topic, "token", strings.ToUpper(token))
		return nil
	}
}
