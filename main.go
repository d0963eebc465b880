package main

import (
	"github.com/user-dev-arch/MarketSentimentApp/cmd"
	"github.com/user-dev-arch/MarketSentimentApp/internal/version"
)

// Version may be set at build time via -ldflags "-X main.Version=...".
// If left as "dev", we will attempt to derive a version from Go build info.
var Version = "dev"

func main() {
	cmd.SetVersion(version.Effective(Version))
	cmd.Execute()
}
