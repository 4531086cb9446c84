// Package version exposes the shadowkit build version.
//
//	go build -ldflags "-X github.com/kbukum/shadowkit/version.Version=1.0.0"
package version
