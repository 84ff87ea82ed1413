package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kevinboone/pi-servo/internal/api"
	"github.com/kevinboone/pi-servo/internal/configuration"
	"github.com/kevinboone/pi-servo/internal/gpio"
	"github.com/kevinboone/pi-servo/internal/persistence"
	"github.com/kevinboone/pi-servo/internal/pwm"
	"github.com/kevinboone/pi-servo/internal/statistics"
	"github.com/kevinboone/pi-servo/internal/ui"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RunDaemon starts every configured output and keeps it running until the
// process receives SIGINT or SIGTERM. Shutdown always stops each output
// before exiting, so no pin is left claimed or stuck high.
func RunDaemon() {
	config := configuration.CurrentConfig

	if len(config.Outputs) == 0 {
		ui.Fatal("No valid output configurations, exiting.")
	}

	pers := persistence.NewPersistence(config.DbPath)
	if err := pers.Init(); err != nil {
		ui.Fatal("Unable to initialize persistence: %v", err)
	}

	outputs := InitializeOutputs()

	ctx, cancel := context.WithCancel(context.Background())

	var g run.Group
	{
		if config.Statistics.Enabled {
			// === Prometheus Exporter
			outputList := make([]*pwm.Pwm, 0, len(outputs))
			for _, output := range outputs {
				outputList = append(outputList, output)
			}
			statistics.Register(statistics.NewOutputCollector(outputList))

			port := config.Statistics.Port
			addr := fmt.Sprintf(":%d", port)
			server := &http.Server{Addr: addr, Handler: promhttp.Handler()}

			g.Add(func() error {
				err := server.ListenAndServe()
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					ui.Error("Cannot start prometheus metrics endpoint (%s)", err.Error())
					return err
				}
				return nil
			}, func(err error) {
				ui.Info("Stopping statistics server...")
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer timeoutCancel()
				_ = server.Shutdown(timeoutCtx)
			})
		}
	}
	{
		if config.Api.Enabled {
			// === REST api
			restService := api.CreateRestService(outputs, func(outputId string, duty float64) {
				if err := pers.SaveDuty(outputId, duty); err != nil {
					ui.Warning("Unable to persist duty of %s: %v", outputId, err)
				}
			})

			g.Add(func() error {
				addr := fmt.Sprintf("%s:%d", config.Api.Host, config.Api.Port)
				err := restService.Start(addr)
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					ui.Error("Cannot start REST api endpoint (%s)", err.Error())
					return err
				}
				return nil
			}, func(err error) {
				ui.Info("Stopping REST api...")
				timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer timeoutCancel()
				_ = restService.Shutdown(timeoutCtx)
			})
		}
	}
	{
		// === output controllers
		for _, outputConfig := range config.Outputs {
			output := outputs[outputConfig.ID]
			outputConfig := outputConfig

			g.Add(func() error {
				err := runOutput(ctx, output, outputConfig, pers)
				ui.Info("Controller for output %s stopped.", output.Id())
				return err
			}, func(err error) {
				if err != nil {
					ui.Warning("Something went wrong: %v", err)
				}
			})
		}
	}
	{
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

		g.Add(func() error {
			<-sig
			ui.Info("Received SIGTERM signal, exiting...")
			return nil
		}, func(err error) {
			defer close(sig)
			cancel()
		})
	}

	if err := g.Run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	} else {
		ui.Info("Done.")
		os.Exit(0)
	}
}

// InitializeOutputs builds a PWM instance for each configured output. No
// hardware is touched here; pins are claimed when the controllers start.
func InitializeOutputs() map[string]*pwm.Pwm {
	outputs := map[string]*pwm.Pwm{}
	for _, outputConfig := range configuration.CurrentConfig.Outputs {
		pin, err := gpio.NewPin(outputConfig)
		if err != nil {
			ui.Fatal("Unable to create pin for output %s: %v", outputConfig.ID, err)
		}

		output := pwm.New(outputConfig.ID, pin)
		if len(outputConfig.FailurePolicy) > 0 {
			output.FailurePolicy = outputConfig.FailurePolicy
		}
		outputs[outputConfig.ID] = output
	}
	return outputs
}

// runOutput starts one output, restores its duty fraction and parks until the
// daemon shuts down. The deferred Stop joins the timing loop and releases the
// pin before this function returns.
func runOutput(ctx context.Context, output *pwm.Pwm, config configuration.OutputConfig, pers persistence.Persistence) error {
	cycleLength := time.Duration(config.CycleLength) * time.Microsecond
	if err := output.Start(cycleLength); err != nil {
		return err
	}
	defer output.Stop()

	duty := config.Duty
	if saved, err := pers.LoadDuty(output.Id()); err == nil {
		ui.Info("Restoring persisted duty %f for output %s", saved, output.Id())
		duty = saved
	}
	output.SetDuty(duty)

	<-ctx.Done()
	return nil
}
