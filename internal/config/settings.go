package config

import (
	"time"

	"turtleblocks/internal/logger"
	"turtleblocks/internal/turtle"
)

// Settings is the typed view of a Config that the binaries use.
type Settings struct {
	Width, Height float64
	Margin        float64
	Steps         int
	Speed         int
	GridCell      float64

	Addr           string
	AllowedOrigins []string
	ReadBuffer     int
	WriteBuffer    int
	PingPeriod     time.Duration

	LogLevel logger.Level
}

// DefaultConfig is the settings file written by `turtleblocks config`.
func DefaultConfig() *Config {
	c := New()
	c.Set("Canvas", "width", "600")
	c.Set("Canvas", "height", "400")
	c.Set("Canvas", "margin", "10")
	c.Set("Canvas", "grid_cell", "0")
	c.Set("Turtle", "steps", "20")
	c.Set("Turtle", "speed", "6")
	c.Set("Server", "addr", "127.0.0.1:8080")
	c.Set("Server", "allowed_origins", "http://localhost:8080,http://127.0.0.1:8080")
	c.Set("Server", "read_buffer_size", "4096")
	c.Set("Server", "write_buffer_size", "4096")
	c.Set("Server", "ping_period_seconds", "30")
	c.Set("Logging", "level", "INFO")
	return c
}

// Settings resolves every known key, falling back to defaults.
func (c *Config) Settings() Settings {
	level, err := logger.ParseLevel(c.GetString("Logging", "level", "INFO"))
	if err != nil {
		level = logger.LevelInfo
	}
	return Settings{
		Width:    c.GetFloat("Canvas", "width", turtle.DefaultWidth),
		Height:   c.GetFloat("Canvas", "height", turtle.DefaultHeight),
		Margin:   c.GetFloat("Canvas", "margin", turtle.DefaultMargin),
		GridCell: c.GetFloat("Canvas", "grid_cell", 0),
		Steps:    c.GetInt("Turtle", "steps", turtle.DefaultSteps),
		Speed:    c.GetInt("Turtle", "speed", turtle.DefaultSpeed),

		Addr:           c.GetString("Server", "addr", "127.0.0.1:8080"),
		AllowedOrigins: c.GetList("Server", "allowed_origins", []string{"http://localhost:8080", "http://127.0.0.1:8080"}),
		ReadBuffer:     c.GetInt("Server", "read_buffer_size", 4096),
		WriteBuffer:    c.GetInt("Server", "write_buffer_size", 4096),
		PingPeriod:     time.Duration(c.GetInt("Server", "ping_period_seconds", 30)) * time.Second,

		LogLevel: level,
	}
}
