package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Context configuration struct
// --------------------------------------------------------------------------

const (
	// DefaultQueueCapacity is the number of units a context queue buffers
	DefaultQueueCapacity = 1024
	// DefaultPollInterval bounds a single blocking ProcessMessages call
	DefaultPollInterval = 100 * time.Millisecond
)

// ContextConfig holds the parameters of one messaging context
type ContextConfig struct {
	// Name labels the context in logs and metrics
	Name string

	// QueueCapacity bounds the inbound queue, Send fails with QueueFull beyond it
	QueueCapacity int

	// TimeoutSecond applies to WaitReply sends whose message has no TOUT key
	TimeoutSecond int64

	// PollInterval is the longest a blocking ProcessMessages waits for a unit
	PollInterval time.Duration

	// Metrics enables the per context counters
	Metrics bool

	// Logging configuration
	LogLevel string
}

// DefaultContextConfig returns a config with every field set to its default
func DefaultContextConfig(name string) ContextConfig {
	return ContextConfig{
		Name:          name,
		QueueCapacity: DefaultQueueCapacity,
		TimeoutSecond: int64(DefaultTimeout / time.Second),
		PollInterval:  DefaultPollInterval,
		LogLevel:      "info",
	}
}

// WithDefaults returns a copy of c with unset fields filled in
func (c ContextConfig) WithDefaults() ContextConfig {
	def := DefaultContextConfig(c.Name)
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = def.QueueCapacity
	}
	if c.TimeoutSecond <= 0 {
		c.TimeoutSecond = def.TimeoutSecond
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	return c
}

// Timeout returns TimeoutSecond as a duration
func (c ContextConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecond) * time.Second
}

// String returns a formatted string representation of the configuration
func (c ContextConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Context")
	addField("Name", c.Name)
	addField("Queue Capacity", strconv.Itoa(c.QueueCapacity))
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Poll Interval", c.PollInterval.String())
	addField("Metrics", strconv.FormatBool(c.Metrics))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
