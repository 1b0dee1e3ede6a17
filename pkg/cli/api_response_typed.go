package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

var _ APIResponse = &TypedAPIResponse[struct{}]{}

type TypedAPIResponse[TBody any] struct {
	StatusCode  int   `json:"statusCode"`
	Body        TBody `json:"body"`
	Error       error `json:"error"`
	contentType string
}

func NewTypedAPIResponse[TBody any](body TBody) func(resp *http.Response, err error) *TypedAPIResponse[TBody] {
	return func(resp *http.Response, err error) *TypedAPIResponse[TBody] {
		apiRes := TypedAPIResponse[TBody]{
			Error: err,
		}
		if resp == nil {
			return &apiRes
		}

		apiRes.StatusCode = resp.StatusCode
		apiRes.contentType = resp.Header.Get("Content-Type")

		if resp.StatusCode == http.StatusUnauthorized {
			apiRes.Error = ErrUnauthorized
			return &apiRes
		}

		out, err := io.ReadAll(resp.Body)
		if err != nil {
			apiRes.Error = fmt.Errorf("failed to parse body: %s", err.Error())
			return &apiRes
		}

		switch strings.Split(apiRes.contentType, ";")[0] {
		case "application/json":
			if err := json.Unmarshal(out, &body); err != nil {
				apiRes.Error = errors.Wrapf(err, "failed to parse body as JSON")
				return &apiRes
			}
		case "text/plain":
			apiRes.Error = errors.New(strings.TrimSpace(string(out)))
			return &apiRes
		default:
			apiRes.Error = fmt.Errorf("unknown content type %q (status %d)", apiRes.contentType, resp.StatusCode)
			return &apiRes
		}

		apiRes.Body = body

		return &apiRes
	}
}

func (resp *TypedAPIResponse[TBody]) Err() error {
	return resp.Error
}

func (resp *TypedAPIResponse[TBody]) Print(w io.Writer) error {
	if resp.Error != nil {
		_, err := fmt.Fprintln(w, resp.Error.Error())
		return err
	}

	jsonBody, err := json.Marshal(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal body as JSON")
	}
	return PrintJSON(w, jsonBody)
}
