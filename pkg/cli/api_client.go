package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/trellisfw/trellis-monitor/pkg/monitor"
)

const (
	APIActionStatus  = "status"
	APIActionTrigger = "trigger"
)

type APIClient struct {
	apiAddress string
	token      string
	timeout    time.Duration
}

func NewAPIClient(apiAddress, token string, timeout time.Duration) *APIClient {
	return &APIClient{
		apiAddress: apiAddress,
		token:      token,
		timeout:    timeout,
	}
}

func (api *APIClient) CallAction(ctx context.Context, action string) *TypedAPIResponse[monitor.GlobalStatus] {
	switch action {
	case APIActionStatus:
		return api.Status(ctx)
	case APIActionTrigger:
		return api.Trigger(ctx)
	default:
		return &TypedAPIResponse[monitor.GlobalStatus]{
			StatusCode: http.StatusBadRequest,
			Error:      fmt.Errorf("unknown action %s", action),
		}
	}
}

// Status fetches the current status.
func (api *APIClient) Status(ctx context.Context) *TypedAPIResponse[monitor.GlobalStatus] {
	return api.get(ctx, "/")
}

// Trigger requests a run and returns the resulting status.
func (api *APIClient) Trigger(ctx context.Context) *TypedAPIResponse[monitor.GlobalStatus] {
	return api.get(ctx, "/trigger")
}

func (api *APIClient) get(ctx context.Context, path string) *TypedAPIResponse[monitor.GlobalStatus] {
	parse := NewTypedAPIResponse(monitor.GlobalStatus{})

	client, u, err := api.buildHTTPClientAndURL(path)
	if err != nil {
		return parse(nil, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return parse(nil, err)
	}
	req.Header.Set("Authorization", "Bearer "+api.token)

	res, err := client.Do(req)
	if err != nil {
		return parse(nil, err)
	}
	defer res.Body.Close()

	return parse(res, nil)
}

// Watch calls handler with every status pushed by the server until ctx is
// done, the server closes the stream or handler returns an error.
func (api *APIClient) Watch(ctx context.Context, handler func(monitor.GlobalStatus) error) error {
	dialer, u, err := api.buildWebsocketURL("/watch")
	if err != nil {
		return err
	}

	header := http.Header{"Authorization": []string{"Bearer " + api.token}}
	conn, res, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if res != nil && res.StatusCode == http.StatusUnauthorized {
			return ErrUnauthorized
		}
		return errors.Wrapf(err, "error dialing to %s", u.String())
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var status monitor.GlobalStatus
		if err := conn.ReadJSON(&status); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if err := handler(status); err != nil {
			return err
		}
	}
}
