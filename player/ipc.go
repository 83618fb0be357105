package player

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/teamg-play/mpvhost/log"
)

const (
	connectRetryDelay = 300 * time.Millisecond
	dialTimeout       = 1 * time.Second
	readBufSize       = 4096
	readDeadline      = 5 * time.Second
)

// ipcCommand is the JSON structure sent to the player's control endpoint.
type ipcCommand struct {
	Command []interface{} `json:"command"`
}

// channelEvent is the shape of inbound control channel lines we care about.
type channelEvent struct {
	Event string      `json:"event"`
	Name  string      `json:"name"`
	Data  interface{} `json:"data"`
}

// EventCallback receives asynchronous notifications from the control channel.
// For property-change events name is the property name; for every other event
// it is the event identifier itself.
type EventCallback func(name string, data interface{})

// Client is a connection to the player's control endpoint. Commands are
// processed by the player in FIFO order over the single connection.
type Client struct {
	endpoint Endpoint
	conn     net.Conn
	callback EventCallback

	writeMu sync.Mutex

	stopOnce sync.Once
	stopCh   chan struct{}
}

// Connect opens the control channel. The endpoint may not be accepting
// connections right after spawn, so refused or missing-endpoint dials are
// retried until the deadline; giveUp aborts the attempt early (process died,
// playback superseded). A persistent read loop is started on success.
func Connect(endpoint Endpoint, deadline time.Duration, giveUp <-chan struct{}, callback EventCallback) (*Client, error) {
	var lastErr error
	limit := time.Now().Add(deadline)

	for {
		select {
		case <-giveUp:
			return nil, &ChannelConnectError{Endpoint: endpoint, Err: fmt.Errorf("aborted: %w", errAborted(lastErr))}
		default:
		}

		conn, err := dialEndpoint(endpoint, dialTimeout)
		if err == nil {
			c := &Client{
				endpoint: endpoint,
				conn:     conn,
				callback: callback,
				stopCh:   make(chan struct{}),
			}
			go c.readLoop()
			log.Infof("control channel connected: %s", endpoint)
			return c, nil
		}
		lastErr = err

		if time.Now().After(limit) {
			return nil, &ChannelConnectError{Endpoint: endpoint, Err: lastErr}
		}
		time.Sleep(connectRetryDelay)
	}
}

func errAborted(last error) error {
	if last != nil {
		return last
	}
	return fmt.Errorf("connect cancelled")
}

// Send serializes a command as newline-terminated JSON and writes it.
// Fire-and-forget: replies are not awaited.
func (c *Client) Send(command ...interface{}) error {
	payload, err := json.Marshal(ipcCommand{Command: command})
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.conn.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}

// ObserveProperty registers for asynchronous change notifications of the
// named property under the given observer id.
func (c *Client) ObserveProperty(id int, name string) error {
	return c.Send("observe_property", id, name)
}

// SetProperty assigns a player property.
func (c *Client) SetProperty(name string, value interface{}) error {
	return c.Send("set_property", name, value)
}

// Close tears down the connection. Idempotent: closing an already-closed
// client is a no-op.
func (c *Client) Close() {
	c.stopOnce.Do(func() {
		close(c.stopCh)
		_ = c.conn.Close()
	})
}

// readLoop continuously drains the control channel. The player sends
// newline-delimited JSON in arbitrary-sized chunks, so lines are reassembled
// by a lineBuffer before parsing.
func (c *Client) readLoop() {
	buf := make([]byte, readBufSize)
	var frames lineBuffer

	for {
		select {
		case <-c.stopCh:
			return
		default:
		}

		if err := c.conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
			return
		}

		n, err := c.conn.Read(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-c.stopCh:
			default:
				log.Warnf("control channel read: %v", err)
			}
			return
		}

		for _, line := range frames.Feed(buf[:n]) {
			c.processLine(line)
		}
	}
}

// processLine parses and dispatches a single inbound line. Malformed lines
// are dropped without aborting the connection.
func (c *Client) processLine(line []byte) {
	var event channelEvent
	if err := json.Unmarshal(line, &event); err != nil {
		log.Debugf("skipping malformed control channel line: %.80s", line)
		return
	}

	if event.Event == "" || c.callback == nil {
		return
	}

	switch event.Event {
	case "property-change":
		if event.Name != "" {
			c.callback(event.Name, event.Data)
		}
	default:
		c.callback(event.Event, event.Data)
	}
}

// lineBuffer splits a chunked byte stream on newline boundaries. A partial
// line spanning chunk boundaries is buffered until its terminator arrives,
// so the emitted sequence is identical to splitting the fully buffered
// stream in one pass.
type lineBuffer struct {
	remainder []byte
}

// Feed consumes one chunk and returns the complete lines it finished.
func (b *lineBuffer) Feed(chunk []byte) [][]byte {
	data := append(b.remainder, chunk...)
	b.remainder = nil

	var lines [][]byte
	for {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		line := bytes.TrimSpace(data[:idx])
		if len(line) > 0 {
			lines = append(lines, line)
		}
		data = data[idx+1:]
	}

	if len(data) > 0 {
		b.remainder = append([]byte(nil), data...)
	}
	return lines
}
