// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - System status command.
//
// Handles "kidus status": gateway reachability, configuration summary,
// conversation store statistics, and pending analytics.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// statusReport is the collected status, also the --json output shape.
type statusReport struct {
	GatewayURL    string `json:"gateway_url"`
	Online        bool   `json:"online"`
	ProbeMillis   int64  `json:"probe_ms"`
	Conversations int    `json:"conversations"`
	PendingEvents int    `json:"pending_events"`
	Analytics     bool   `json:"analytics_enabled"`
	Theme         string `json:"theme"`
	Version       string `json:"version"`
}

// collectStatus probes the gateway and gathers store statistics.
func collectStatus(deps Deps) statusReport {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	online := deps.Client.Health(ctx)
	probe := time.Since(start)

	return statusReport{
		GatewayURL:    deps.Client.BaseURL(),
		Online:        online,
		ProbeMillis:   probe.Milliseconds(),
		Conversations: deps.History.Len(),
		PendingEvents: deps.Recorder.Pending(),
		Analytics:     deps.Config.Analytics.Enabled,
		Theme:         deps.Config.UI.Theme,
		Version:       Version,
	}
}

// HandleStatus prints the status report.
func HandleStatus(deps Deps, args Args) error {
	report := collectStatus(deps)

	if args.JSON {
		return json.NewEncoder(os.Stdout).Encode(report)
	}

	state := "offline"
	if report.Online {
		state = fmt.Sprintf("online (%dms)", report.ProbeMillis)
	}

	fmt.Println("kidus status")
	fmt.Println()
	fmt.Printf("  Gateway:        %s - %s\n", report.GatewayURL, state)
	fmt.Printf("  Conversations:  %d saved\n", report.Conversations)
	if report.Analytics {
		fmt.Printf("  Analytics:      enabled, %d events pending\n", report.PendingEvents)
	} else {
		fmt.Printf("  Analytics:      disabled\n")
	}
	fmt.Printf("  Theme:          %s\n", report.Theme)
	fmt.Printf("  Version:        %s\n", report.Version)
	return nil
}
