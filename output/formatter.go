// Package output renders requests and responses for human reading,
// with optional color when the destination is a terminal.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	nethttp "net/http"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/riposte-dev/riposte/http"
)

// Formatter renders requests and responses as indented text blocks.
type Formatter struct {
	// Verbose adds header and timing detail to responses
	Verbose bool

	// NoColor disables all coloring
	NoColor bool

	scheme *ColorScheme
}

// NewFormatter creates a formatter. With noColor set, output is plain
// text suitable for logs and pipes.
func NewFormatter(verbose, noColor bool) *Formatter {
	scheme := DefaultColorScheme()
	if noColor {
		scheme = NoColorScheme()
	}
	return &Formatter{
		Verbose: verbose,
		NoColor: noColor,
		scheme:  scheme,
	}
}

// NewAutoFormatter creates a formatter whose color setting follows the
// writer: color for terminals, plain text otherwise.
func NewAutoFormatter(verbose bool, w io.Writer) *Formatter {
	return NewFormatter(verbose, !IsTerminal(w))
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// FormatRequest renders a built request: method, URI, the headers as
// they will go on the wire, and the payload when it is replayable.
func (f *Formatter) FormatRequest(req *http.Request) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("▶ REQUEST: %s %s\n",
		f.scheme.Method.Sprint(req.Method()),
		f.scheme.URL.Sprint(req.URL())))

	raw := req.Raw()
	if len(raw.Header) > 0 {
		buf.WriteString("  Headers:\n")
		for _, key := range sortedHeaderNames(raw.Header) {
			for _, value := range raw.Header[key] {
				buf.WriteString(fmt.Sprintf("    %s: %s\n", f.scheme.HeaderKey.Sprint(key), value))
			}
		}
	}

	if body, ok := requestBody(raw); ok {
		buf.WriteString("  Body:\n")
		buf.WriteString(indentBlock(prettyJSON(body)))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatRequestConfig builds the configuration and renders the result.
// Configurations that fail to build render as a single error line.
func (f *Formatter) FormatRequestConfig(cfg http.RequestConfig) string {
	req, err := http.BuildRequest(cfg)
	if err != nil {
		return fmt.Sprintf("▶ REQUEST: %s\n", err)
	}
	return f.FormatRequest(req)
}

// FormatResponse renders a response: status line with total time, then
// timing and header detail when verbose, then the body. Stream bodies
// are left unread.
func (f *Formatter) FormatResponse(resp *http.Response) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("◀ RESPONSE: %s (%dms)\n",
		f.statusColor(resp).Sprint(statusLine(resp.Status)),
		resp.GetTotalTimeMillis()))

	if f.Verbose {
		buf.WriteString("  Timing:\n")
		buf.WriteString(fmt.Sprintf("    DNS Lookup:         %dms\n", resp.Timing.DNSLookupTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    TCP Connection:     %dms\n", resp.Timing.TCPConnectTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    TLS Handshake:      %dms\n", resp.Timing.TLSHandshakeTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    Time to First Byte: %dms\n", resp.Timing.TimeToFirstByte.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    Content Transfer:   %dms\n", resp.Timing.ContentTransferTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    Total:              %dms\n", resp.Timing.TotalTime.Milliseconds()))
	}

	if f.Verbose && len(resp.Headers) > 0 {
		buf.WriteString("  Headers:\n")
		names := make([]string, 0, len(resp.Headers))
		for name := range resp.Headers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, value := range resp.Headers[name] {
				buf.WriteString(fmt.Sprintf("    %s: %s\n", f.scheme.HeaderKey.Sprint(name), value))
			}
		}
	}

	if resp.Mode == http.ModeStream {
		buf.WriteString("  Body: (stream)\n")
		return buf.String()
	}

	body, err := resp.GetBodyAsString()
	if err == nil && body != "" {
		buf.WriteString("  Body:\n")
		buf.WriteString(indentBlock(prettyJSON(body)))
		buf.WriteString("\n")
	}

	return buf.String()
}

func (f *Formatter) statusColor(resp *http.Response) *color.Color {
	switch {
	case resp.IsSuccess():
		return f.scheme.StatusOK
	case resp.IsRedirect():
		return f.scheme.StatusWarn
	default:
		return f.scheme.StatusError
	}
}

func statusLine(status int) string {
	text := nethttp.StatusText(status)
	if text == "" {
		return fmt.Sprintf("%d", status)
	}
	return fmt.Sprintf("%d %s", status, text)
}

// requestBody reads the payload through GetBody so the request stays
// sendable. Stream payloads have no GetBody and render as a marker.
func requestBody(raw *nethttp.Request) (string, bool) {
	if raw.Body == nil {
		return "", false
	}
	if raw.GetBody == nil {
		return "(stream)", true
	}
	rc, err := raw.GetBody()
	if err != nil {
		return "", false
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

// prettyJSON indents JSON input and returns anything else unchanged.
func prettyJSON(s string) string {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, []byte(s), "", "  "); err != nil {
		return s
	}
	return pretty.String()
}

func indentBlock(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "    " + line
	}
	return strings.Join(lines, "\n")
}

func sortedHeaderNames(h nethttp.Header) []string {
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
