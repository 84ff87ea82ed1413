package util

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func ReadIntFromFile(path string) (value int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return -1, err
	}
	text := string(data)
	if len(text) <= 0 {
		return -1, fmt.Errorf("file is empty: %s", path)
	}
	text = strings.TrimSpace(text)
	value, err = strconv.Atoi(text)
	return value, err
}

// WriteStringToFile writes the given text to a file path, creating it if needed.
func WriteStringToFile(text string, path string) error {
	return os.WriteFile(path, []byte(text), 0644)
}

// WaitForFile polls until path exists or the timeout elapses. Kernel attribute
// files can take a moment to appear after a pin is exported.
func WaitForFile(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		_, err := os.Stat(path)
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for %s: %w", path, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
