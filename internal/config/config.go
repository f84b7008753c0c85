// Package config reads the INI-style settings file:
//
//	[Canvas]
//	width = 600
//	height = 400
//
// Sections and keys are case-sensitive; lines starting with ';' or '#' are
// comments. Every getter takes a default used when the key is missing or
// does not parse.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Config holds section -> key -> raw value.
type Config struct {
	mu       sync.RWMutex
	settings map[string]map[string]string
	filePath string
}

// New returns an empty config; all getters return their defaults.
func New() *Config {
	return &Config{settings: make(map[string]map[string]string)}
}

// Load reads path. A missing file yields an empty config, not an error.
func Load(path string) (*Config, error) {
	c := New()
	c.filePath = path
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := c.read(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse reads settings from r.
func Parse(r io.Reader) (*Config, error) {
	c := New()
	if err := c.read(r); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) read(r io.Reader) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	scanner := bufio.NewScanner(r)
	currentSection := ""
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.TrimSpace(line[1 : len(line)-1])
			if c.settings[currentSection] == nil {
				c.settings[currentSection] = make(map[string]string)
			}
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("line %d: expected key = value", lineNo)
		}
		if currentSection == "" {
			return fmt.Errorf("line %d: key %q outside of a section", lineNo, strings.TrimSpace(key))
		}
		c.settings[currentSection][strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return scanner.Err()
}

// Path is the file the config was loaded from, if any.
func (c *Config) Path() string { return c.filePath }

func (c *Config) lookup(section, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.settings[section][key]
	return v, ok
}

// Set overrides a single value.
func (c *Config) Set(section, key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.settings[section] == nil {
		c.settings[section] = make(map[string]string)
	}
	c.settings[section][key] = value
}

func (c *Config) GetString(section, key, def string) string {
	if v, ok := c.lookup(section, key); ok {
		return v
	}
	return def
}

func (c *Config) GetInt(section, key string, def int) int {
	if v, ok := c.lookup(section, key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func (c *Config) GetFloat(section, key string, def float64) float64 {
	if v, ok := c.lookup(section, key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func (c *Config) GetBool(section, key string, def bool) bool {
	if v, ok := c.lookup(section, key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// GetList splits a comma separated value, dropping empty items.
func (c *Config) GetList(section, key string, def []string) []string {
	v, ok := c.lookup(section, key)
	if !ok {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// WriteTo writes the config back in INI form, sections and keys sorted.
func (c *Config) WriteTo(w io.Writer) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var b strings.Builder
	sections := make([]string, 0, len(c.settings))
	for s := range c.settings {
		sections = append(sections, s)
	}
	sort.Strings(sections)
	for i, s := range sections {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[%s]\n", s)
		keys := make([]string, 0, len(c.settings[s]))
		for k := range c.settings[s] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "%s = %s\n", k, c.settings[s][k])
		}
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
