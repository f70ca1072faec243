package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/ValentinKolb/povms/rpc/common"
	"github.com/ValentinKolb/povms/rpc/serializer"
	"github.com/joho/godotenv"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Logger = logger.GetLogger("cli")

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupContextFlags adds the flags every command opening contexts shares
func SetupContextFlags(cmd *cobra.Command) {
	key := "timeout"
	cmd.PersistentFlags().Int64(key, 10, WrapString("Default timeout in seconds of synchronous sends"))

	key = "queue-capacity"
	cmd.PersistentFlags().Int(key, common.DefaultQueueCapacity, WrapString("Number of units a context queue buffers before senders get QueueFull"))

	key = "poll-interval"
	cmd.PersistentFlags().Duration(key, common.DefaultPollInterval, WrapString("Longest a worker blocks waiting for a unit before checking for shutdown"))

	key = "metrics"
	cmd.PersistentFlags().Bool(key, false, WrapString("Collect per context counters and print them in Prometheus text format at the end"))
}

// InitConfig loads .env files and enables POVMS_ prefixed environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("povms")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetContextConfig reads a context configuration from viper
func GetContextConfig(name string) common.ContextConfig {
	config := common.ContextConfig{
		Name:          name,
		QueueCapacity: viper.GetInt("queue-capacity"),
		TimeoutSecond: viper.GetInt64("timeout"),
		PollInterval:  viper.GetDuration("poll-interval"),
		Metrics:       viper.GetBool("metrics"),
		LogLevel:      viper.GetString("log-level"),
	}
	return config.WithDefaults()
}

// GetSerializer creates the object serializer with the given name
func GetSerializer(name string) (serializer.IObjectSerializer, error) {
	switch name {
	case "json":
		return serializer.NewJSONSerializer(true), nil
	case "gob":
		return serializer.NewGOBSerializer(), nil
	case "binary":
		return serializer.NewBinarySerializer(), nil
	default:
		return nil, fmt.Errorf("invalid serializer %s", name)
	}
}

// Elapsed formats d with millisecond precision
func Elapsed(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
