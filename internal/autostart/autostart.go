// Package autostart registers the recorder with the host's service manager
// so that it starts at boot.
package autostart

import (
	"strings"
	"text/template"
)

const (
	serviceName        = "flightrec"
	serviceLabel       = "io.flightrec.recorder"
	serviceDisplay     = "Flight Recorder"
	serviceDescription = "Records vehicle telemetry into a timestamped key-figure timeline"
)

// Manager provides platform-specific autostart installation.
type Manager interface {
	IsInstalled() (bool, error)
	// Install registers execPath, started with args, and starts it.
	Install(execPath string, args ...string) error
	Uninstall() error
	ServiceName() string
}

var unitTemplate = template.Must(template.New("unit").Parse(`[Unit]
Description={{.Description}}
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart={{.Command}}
Restart=on-failure
RestartSec=5
StandardOutput=journal
StandardError=journal
SyslogIdentifier={{.Name}}

# Security hardening
NoNewPrivileges=true
ProtectSystem=strict
ProtectHome=read-only
PrivateTmp=true

[Install]
WantedBy=multi-user.target
`))

var plistTemplate = template.Must(template.New("plist").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>{{.Label}}</string>
    <key>ProgramArguments</key>
    <array>
{{- range .Args}}
        <string>{{.}}</string>
{{- end}}
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <dict>
        <key>SuccessfulExit</key>
        <false/>
    </dict>
    <key>StandardOutPath</key>
    <string>{{.LogDir}}/{{.Name}}.stdout.log</string>
    <key>StandardErrorPath</key>
    <string>{{.LogDir}}/{{.Name}}.stderr.log</string>
</dict>
</plist>
`))

// renderUnit returns the systemd unit for execPath started with args.
func renderUnit(execPath string, args []string) string {
	var b strings.Builder
	_ = unitTemplate.Execute(&b, struct {
		Name, Description, Command string
	}{serviceName, serviceDescription, commandLine(execPath, args)})
	return b.String()
}

// renderPlist returns the launchd property list for execPath started with
// args, logging to logDir.
func renderPlist(execPath string, args []string, logDir string) string {
	var b strings.Builder
	_ = plistTemplate.Execute(&b, struct {
		Label, Name, LogDir string
		Args                []string
	}{serviceLabel, serviceName, logDir, append([]string{execPath}, args...)})
	return b.String()
}

// commandLine joins execPath and args for a systemd ExecStart line,
// quoting words that contain whitespace.
func commandLine(execPath string, args []string) string {
	words := append([]string{execPath}, args...)
	for i, w := range words {
		if strings.ContainsAny(w, " \t\"") {
			words[i] = `"` + strings.ReplaceAll(w, `"`, `\"`) + `"`
		}
	}
	return strings.Join(words, " ")
}
