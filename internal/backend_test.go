package internal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/kevinboone/pi-servo/internal/configuration"
	"github.com/kevinboone/pi-servo/internal/gpio"
	"github.com/kevinboone/pi-servo/internal/persistence"
	"github.com/kevinboone/pi-servo/internal/pwm"
	"github.com/stretchr/testify/assert"
)

func createFileOutputConfig(t *testing.T) configuration.OutputConfig {
	return configuration.OutputConfig{
		ID:          "servo",
		CycleLength: 20000,
		Duty:        0.5,
		File: &configuration.FileOutputConfig{
			Path: filepath.Join(t.TempDir(), "pin"),
		},
	}
}

func createPersistence(t *testing.T) persistence.Persistence {
	pers := persistence.NewPersistence(filepath.Join(t.TempDir(), "pi-servo.db"))
	assert.NoError(t, pers.Init())
	return pers
}

// waitForDuty polls the output until it reports the expected duty or the
// deadline passes, returning the last observed value.
func waitForDuty(output *pwm.Pwm, expected float64) float64 {
	deadline := time.Now().Add(1 * time.Second)
	for time.Now().Before(deadline) {
		if output.Duty() == expected {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	return output.Duty()
}

func TestRunOutputRestoresPersistedDuty(t *testing.T) {
	// GIVEN a persisted duty differing from the configured one
	config := createFileOutputConfig(t)
	pers := createPersistence(t)
	assert.NoError(t, pers.SaveDuty(config.ID, 0.125))

	pin, err := gpio.NewPin(config)
	assert.NoError(t, err)
	output := pwm.New(config.ID, pin)

	// WHEN
	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		result <- runOutput(ctx, output, config, pers)
	}()

	// THEN the persisted duty wins over the configured one
	assert.Equal(t, 0.125, waitForDuty(output, 0.125))

	cancel()
	assert.NoError(t, <-result)
	assert.False(t, output.Running())
}

func TestRunOutputUsesConfiguredDuty(t *testing.T) {
	// GIVEN no persisted duty for the output
	config := createFileOutputConfig(t)
	pers := createPersistence(t)

	pin, err := gpio.NewPin(config)
	assert.NoError(t, err)
	output := pwm.New(config.ID, pin)

	// WHEN
	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		result <- runOutput(ctx, output, config, pers)
	}()

	// THEN the configured duty applies
	assert.Equal(t, 0.5, waitForDuty(output, 0.5))

	cancel()
	assert.NoError(t, <-result)
	assert.False(t, output.Running())
}
