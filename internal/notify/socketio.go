package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/AreTor/labaug/internal/ctxlog"
	"github.com/AreTor/labaug/internal/experiment"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Event is the socket.io event name every transition is emitted under.
const Event = "experiment.state"

// DefaultConnectTimeout bounds Dial when the context has no earlier deadline.
const DefaultConnectTimeout = 15 * time.Second

// Options configure the monitor connection.
type Options struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	ConnectTimeout     time.Duration
}

// SocketIO emits transitions on a connected socket.io client.
type SocketIO struct {
	io     *socket.Socket
	logger *slog.Logger
}

// Dial connects to the monitor at opts.URL. The URL path selects the
// socket.io endpoint path, e.g. "http://monitor:3000/socket.io/".
func Dial(ctx context.Context, opts Options) (*SocketIO, error) {
	logger := ctxlog.FromContext(ctx).With("notifier", "socketio", "url", opts.URL)

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse monitor URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("monitor URL %q needs a scheme and a host", opts.URL)
	}

	sopts := socket.DefaultOptions()
	sopts.SetPath(parsedURL.Path)
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		sopts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sopts.SetTransports(types.NewSet(transports.WebSocket))

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	connectChan := make(chan error, 1)
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sopts)
	io := manager.Socket(opts.Namespace, sopts)

	io.Once(types.EventName("connect"), func(...any) {
		select {
		case connectChan <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connectChan <- err:
		default:
		}
	})

	logger.Debug("Connecting to monitor...")
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("waiting for socket.io connection: %w", ctx.Err())
	}

	logger.Info("Connected to monitor.", "sid", io.Id())
	return &SocketIO{io: io, logger: logger}, nil
}

// Transition implements experiment.Observer.
func (s *SocketIO) Transition(_ context.Context, t experiment.Transition) {
	s.logger.Debug("Emitting transition.", "event", Event, "state", t.State.String())
	s.io.Emit(Event, Payload(t))
}

// Close disconnects from the monitor.
func (s *SocketIO) Close() error {
	s.logger.Debug("Disconnecting from monitor.")
	s.io.Disconnect()
	return nil
}

// Payload is the JSON-friendly body of one emitted event.
func Payload(t experiment.Transition) map[string]any {
	p := map[string]any{
		"run_id":  t.RunID,
		"dataset": t.Dataset,
		"exp":     t.Exp,
		"state":   t.State.String(),
		"at":      t.At.UTC().Format(time.RFC3339Nano),
	}
	if t.Stage != nil {
		p["stage"] = t.Stage.String()
	}
	if t.Err != nil {
		p["error"] = t.Err.Error()
	}
	return p
}
