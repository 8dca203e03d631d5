//go:build !darwin

package eventcatcher

// sleep notifications are only available on macOS
func sleeper(listen chan bool) {}
