// internal/logger/config.go
package logger

type Config struct {
	LogFile     string
	MaxSize     int // megabytes
	MaxAge      int // days
	MaxBackups  int // number of rotated files
	Compress    bool
	Development bool
}

// DefaultConfig returns the configuration used when none is provided.
func DefaultConfig() *Config {
	return &Config{
		LogFile:     "agent.log",
		MaxSize:     100,
		MaxAge:      7,
		MaxBackups:  3,
		Compress:    true,
		Development: false,
	}
}
