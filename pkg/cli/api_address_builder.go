package cli

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// baseURL accepts host:port, http(s):// URLs and unix:///path.sock.
func (api *APIClient) baseURL() (*url.URL, error) {
	addr := api.apiAddress
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return url.Parse(addr)
}

func (api *APIClient) buildHTTPClientAndURL(path string) (*http.Client, *url.URL, error) {
	u, err := api.baseURL()
	if err != nil {
		return nil, nil, err
	}
	if u.Scheme != "unix" {
		u.Path = strings.TrimRight(u.Path, "/") + path
		return &http.Client{Timeout: api.timeout}, u, nil
	}

	socketPath := u.Path
	u.Scheme = "http"
	u.Host = "unix"
	u.Path = path
	return &http.Client{
		Timeout: api.timeout,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		},
	}, u, nil
}

func (api *APIClient) buildWebsocketURL(path string) (*websocket.Dialer, *url.URL, error) {
	u, err := api.baseURL()
	if err != nil {
		return nil, nil, err
	}
	if u.Scheme != "unix" {
		if u.Scheme == "https" {
			u.Scheme = "wss"
		} else {
			u.Scheme = "ws"
		}
		u.Path = strings.TrimRight(u.Path, "/") + path
		return websocket.DefaultDialer, u, nil
	}
	socketPath := u.Path

	dialer := &websocket.Dialer{
		NetDial: func(network, addr string) (net.Conn, error) {
			return net.Dial("unix", socketPath)
		},
	}

	u.Scheme = "ws"
	u.Host = "unix"
	u.Path = path
	return dialer, u, nil
}
