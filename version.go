/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddbquery

import (
	"runtime"
	"runtime/debug"
)

// ModulePath is the import path of this module.
const ModulePath = "github.com/suparena/ddbquery"

const dynamoDBModule = "github.com/aws/aws-sdk-go-v2/service/dynamodb"

// Overridden with -ldflags "-X github.com/suparena/ddbquery.Version=...".
var (
	Version   = "0.1.0"
	GitCommit = ""
	BuildDate = ""
)

// VersionInfo describes the running build and the DynamoDB client it was linked against.
type VersionInfo struct {
	Module          string `json:"module"`
	Version         string `json:"version"`
	GitCommit       string `json:"gitCommit"`
	BuildDate       string `json:"buildDate"`
	GoVersion       string `json:"goVersion"`
	Platform        string `json:"platform"`
	DynamoDBVersion string `json:"dynamodbSdkVersion"`
}

// GetVersionInfo reports ldflags values, filling commit and date from the
// embedded VCS stamp when they were not set.
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Module:          ModulePath,
		Version:         Version,
		GitCommit:       GitCommit,
		BuildDate:       BuildDate,
		GoVersion:       runtime.Version(),
		Platform:        runtime.GOOS + "/" + runtime.GOARCH,
		DynamoDBVersion: "unknown",
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range bi.Deps {
			if dep.Path == dynamoDBModule {
				info.DynamoDBVersion = dep.Version
			}
		}
		for _, s := range bi.Settings {
			switch {
			case s.Key == "vcs.revision" && info.GitCommit == "":
				info.GitCommit = s.Value
			case s.Key == "vcs.time" && info.BuildDate == "":
				info.BuildDate = s.Value
			}
		}
	}

	if info.GitCommit == "" {
		info.GitCommit = "unknown"
	}
	if info.BuildDate == "" {
		info.BuildDate = "unknown"
	}
	return info
}
