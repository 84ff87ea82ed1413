package configuration

import (
	"os"

	"github.com/kevinboone/pi-servo/internal/ui"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

type Configuration struct {
	DbPath string `json:"dbPath"`

	Statistics StatisticsConfig `json:"statistics"`
	Api        ApiConfig        `json:"api"`

	// CycleTimeWindowSize is the number of measured cycles kept for the
	// rolling cycle-time average exposed by statistics.
	CycleTimeWindowSize int `json:"cycleTimeWindowSize"`

	Outputs []OutputConfig `json:"outputs"`
}

type StatisticsConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port"`
}

type ApiConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

var CurrentConfig Configuration

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) {
	viper.SetConfigName("pi-servo")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			ui.Error("Couldn't detect home directory: %v", err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath("/etc/pi-servo/")
	}

	viper.AutomaticEnv() // read in environment variables that match

	setDefaultValues()
}

func setDefaultValues() {
	viper.SetDefault("dbpath", "/etc/pi-servo/pi-servo.db")
	viper.SetDefault("statistics.enabled", false)
	viper.SetDefault("statistics.port", 9400)
	viper.SetDefault("api.enabled", false)
	viper.SetDefault("api.host", "localhost")
	viper.SetDefault("api.port", 9401)
	viper.SetDefault("cycletimewindowsize", 50)

	viper.SetDefault("outputs", []OutputConfig{})
}

// ReadConfigFile reads the config file detected by viper. The config file is
// required for the daemon and output commands, so missing files are fatal here.
func ReadConfigFile() {
	if err := viper.ReadInConfig(); err != nil {
		ui.Fatal("Error reading config file, %s", err)
	}
	// this is only populated _after_ ReadInConfig()
	ui.Info("Using configuration file at: %s", viper.ConfigFileUsed())

	LoadConfig()

	if err := Validate(&CurrentConfig); err != nil {
		ui.Fatal("Config validation failed: %v", err)
	}
}

func LoadConfig() {
	err := viper.Unmarshal(&CurrentConfig)
	if err != nil {
		ui.Fatal("unable to decode into struct, %v", err)
	}
}
