package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/trellisfw/trellis-monitor/pkg/monitor"
	"github.com/trellisfw/trellis-monitor/pkg/probe"
)

var colorSuccess = lipgloss.Color("#00B785")
var colorFailure = lipgloss.Color("#E1244C")

var (
	StyleSuccess   = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	StyleFailure   = lipgloss.NewStyle().Foreground(colorFailure).Bold(true)
	StyleHighlight = lipgloss.NewStyle().Foreground(lipgloss.Color("#407FF8")).Bold(true)
	StyleNotSet    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5D689C"))
)

var styleStatusMainLine = lipgloss.NewStyle().Margin(1, 0, 0, 0)
var styleStatusLeftColumn = lipgloss.NewStyle().Width(28)
var styleListItem = lipgloss.NewStyle().Padding(0, 2)
var styleStatusAddendum = lipgloss.NewStyle().PaddingLeft(4).Width(96)

// RenderStatus renders the global status followed by one line per test.
func RenderStatus(status monitor.GlobalStatus) string {
	lines := []string{styleStatusMainLine.Render(globalLine(status)), ""}

	names := make([]string, 0, len(status.Tests))
	for name := range status.Tests {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		lines = append(lines, styleListItem.Render(testLine(name, status.Tests[name])))
		if detail := testDetail(status.Tests[name]); detail != "" {
			lines = append(lines, styleStatusAddendum.Render(detail))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func globalLine(status monitor.GlobalStatus) string {
	state := StyleSuccess.Render("all probes passing")
	if failing := status.Failing(); len(failing) > 0 {
		state = StyleFailure.Render(fmt.Sprintf("%d of %d probes failing", len(failing), len(status.Tests)))
	} else if !status.OK() {
		state = StyleFailure.Render(string(status.Global.Status))
	}

	server := status.Global.Server
	if server == "" {
		server = StyleNotSet.Render("<unnamed>")
	}
	return lipgloss.JoinHorizontal(lipgloss.Left,
		StyleHighlight.Render(server), ": ", state,
		" (last run: ", StyleHighlight.Render(status.Global.LastRunTime), ")",
	)
}

func testLine(name string, res probe.Result) string {
	if res.OK() {
		return lipgloss.JoinHorizontal(lipgloss.Left,
			StyleSuccess.Render("✔"), " ", styleStatusLeftColumn.Render(name), StyleSuccess.Render("success"),
		)
	}
	return lipgloss.JoinHorizontal(lipgloss.Left,
		StyleFailure.Render("✘"), " ", styleStatusLeftColumn.Render(name), StyleFailure.Render("failure"),
	)
}

func testDetail(res probe.Result) string {
	var parts []string
	if res.Message != "" {
		parts = append(parts, res.Message)
	}
	if !res.OK() && res.Description != "" {
		parts = append(parts, StyleNotSet.Render(res.Description))
	}

	keys := make([]string, 0, len(res.Extra))
	for k := range res.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, res.Extra[k]))
	}
	return strings.Join(parts, "\n")
}
