package notify

import (
	"bytes"
	"os"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pkg/errors"
	"github.com/trellisfw/trellis-monitor/pkg/monitor"
)

// DefaultTitle is the headline of a failure message.
const DefaultTitle = "*{{ .Server }} detected failure*"

type templateData struct {
	Server  string
	Status  monitor.GlobalStatus
	Failing []string
	Env     map[string]string
}

func parseTitle(text string) (*template.Template, error) {
	if text == "" {
		text = DefaultTitle
	}
	tpl, err := template.New("title").Funcs(sprig.TxtFuncMap()).Parse(text)
	if err != nil {
		return nil, errors.Wrap(err, "invalid notification title template")
	}
	return tpl, nil
}

func renderTitle(tpl *template.Template, server string, status monitor.GlobalStatus) (string, error) {
	data := templateData{
		Server:  server,
		Status:  status,
		Failing: status.Failing(),
		Env:     make(map[string]string),
	}

	for _, e := range os.Environ() {
		e := strings.SplitN(e, "=", 2)
		if len(e) > 1 {
			data.Env[e[0]] = e[1]
		}
	}

	var out bytes.Buffer
	if err := tpl.Execute(&out, &data); err != nil {
		return "", err
	}
	return out.String(), nil
}
