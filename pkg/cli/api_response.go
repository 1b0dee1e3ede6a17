package cli

import (
	"io"

	"github.com/pkg/errors"
	"github.com/tidwall/pretty"
)

// ErrUnauthorized is returned when the server rejects the token.
var ErrUnauthorized = errors.New("unauthorized: the server rejected the api token")

type APIResponse interface {
	Print(w io.Writer) error
	Err() error
}

// PrintJSON writes indented and colorized JSON.
func PrintJSON(w io.Writer, body []byte) error {
	out := pretty.Color(pretty.PrettyOptions(body, &pretty.Options{Width: 80, Indent: "    "}), nil)
	_, err := w.Write(out)
	return err
}
