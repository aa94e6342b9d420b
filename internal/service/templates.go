package service

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/nao1215/hitsz-autonet/internal/model"
)

// plistTemplate is a launchd LaunchAgent. KeepAlive restarts the monitor on
// crashes and network changes but not after a clean exit.
const plistTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{xml .Label}}</string>

    <key>ProgramArguments</key>
    <array>
        <string>{{xml .Program}}</string>
{{- range .Arguments}}
        <string>{{xml .}}</string>
{{- end}}
    </array>

    <key>RunAtLoad</key>
    <true/>

    <key>StartInterval</key>
    <integer>{{seconds .StartInterval}}</integer>

    <key>KeepAlive</key>
    <dict>
        <key>SuccessfulExit</key>
        <false/>
        <key>Crashed</key>
        <true/>
        <key>NetworkState</key>
        <true/>
    </dict>

    <key>StandardOutPath</key>
    <string>{{xml .StdoutPath}}</string>
    <key>StandardErrorPath</key>
    <string>{{xml .StderrPath}}</string>

    <key>EnvironmentVariables</key>
    <dict>
        <key>PATH</key>
        <string>{{xml .Path}}</string>
        <key>HOME</key>
        <string>{{xml .Home}}</string>
    </dict>

    <key>WorkingDirectory</key>
    <string>{{xml .WorkingDirectory}}</string>

    <key>ProcessType</key>
    <string>Background</string>

    <key>ThrottleInterval</key>
    <integer>{{seconds .ThrottleInterval}}</integer>
</dict>
</plist>
`

// unitTemplate is a systemd user unit. Restart=on-failure matches the
// launchd policy: restart after crashes, stay down after a clean exit.
const unitTemplate = `[Unit]
Description=HITSZ campus network auto-login
Wants=network-online.target
After=network-online.target

[Service]
Type=simple
ExecStart={{unitQuote .Program}}{{range .Arguments}} {{unitQuote .}}{{end}}
WorkingDirectory={{unitQuote .WorkingDirectory}}
Environment={{unitQuote (printf "HOME=%s" .Home)}}
Environment={{unitQuote (printf "PATH=%s" .Path)}}
Restart=on-failure
RestartSec={{seconds .ThrottleInterval}}
StandardOutput=append:{{.StdoutPath}}
StandardError=append:{{.StderrPath}}

[Install]
WantedBy=default.target
`

var funcs = template.FuncMap{
	"xml":       xmlEscape,
	"unitQuote": unitQuote,
	"seconds":   func(d time.Duration) int64 { return int64(d / time.Second) },
}

var (
	plist = template.Must(template.New("plist").Funcs(funcs).Parse(plistTemplate))
	unit  = template.Must(template.New("unit").Funcs(funcs).Parse(unitTemplate))
)

// render executes tmpl with reg.
func render(tmpl *template.Template, reg model.ServiceRegistration) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, reg); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", tmpl.Name(), err)
	}
	return buf.Bytes(), nil
}

// xmlEscape escapes s for use as XML character data.
func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// unitQuote quotes s as a single systemd word.
func unitQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\"'\\$%") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `$$`, `%`, `%%`)
	return `"` + r.Replace(s) + `"`
}
