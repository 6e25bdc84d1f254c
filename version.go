/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cloudadapter

import (
	"fmt"
	"runtime"

	"github.com/suparena/cloudadapter/config"
)

// Set with -ldflags "-X github.com/suparena/cloudadapter.GitCommit=...".
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// VersionInfo describes the build and the service types it can open.
type VersionInfo struct {
	Version   string   `json:"version"`
	GitCommit string   `json:"gitCommit"`
	BuildDate string   `json:"buildDate"`
	GoVersion string   `json:"goVersion"`
	Providers []string `json:"providers"`
}

func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Providers: []string{config.TypeDynamoDB, config.TypeSimpleDB, config.TypeS3, config.TypeSNS},
	}
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("cloudadapter %s (commit %s, built %s, %s)", v.Version, v.GitCommit, v.BuildDate, v.GoVersion)
}
