// Package version reports the build version of varconv.
//
// Version, git commit, branch and build time are set at compile time:
//
//	go build -ldflags "-X github.com/kbukum/varconv/version.Version=1.4.0" ./cmd/varconv
//
// Missing values fall back to the module build info.
package version
