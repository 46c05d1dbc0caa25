package report

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/specialistvlad/fraudgrid/internal/ctxlog"
	"github.com/specialistvlad/fraudgrid/internal/model"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultConnectTimeout bounds the socket.io handshake.
const DefaultConnectTimeout = 15 * time.Second

// SocketPublisher emits the final report to a socket.io server.
type SocketPublisher struct {
	URL                string
	Namespace          string
	Event              string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}

// Publish connects, emits the report under p.Event and disconnects.
func (p *SocketPublisher) Publish(ctx context.Context, report model.Report) error {
	if p.Event == "" {
		return errors.New("socket.io publisher has no event name")
	}
	payload, err := Payload(report)
	if err != nil {
		return err
	}

	io, err := p.connect(ctx)
	if err != nil {
		return err
	}
	defer io.Disconnect()

	logger := ctxlog.FromContext(ctx).With("url", p.URL, "sid", io.Id())
	if err := io.Emit(p.Event, payload); err != nil {
		return fmt.Errorf("emit %s: %w", p.Event, err)
	}
	logger.Info("Report published.", "event", p.Event)
	return nil
}

// Payload converts the report into plain maps and slices, the form the
// socket.io encoder serialises.
func Payload(report model.Report) (map[string]any, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return out, nil
}

func (p *SocketPublisher) connect(ctx context.Context) (*socket.Socket, error) {
	logger := ctxlog.FromContext(ctx).With("url", p.URL)

	parsedURL, err := url.Parse(p.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("socket.io url %q needs a scheme and host", p.URL)
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	if p.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))
	opts.SetReconnection(false)

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(p.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("Connected to socket.io server.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("%v", errs[0])
		}
		connectChan <- err
	})

	io.Connect()

	timeout := p.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return io, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(timeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", timeout)
	}
}
