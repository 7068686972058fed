package blockchain

import (
	"encoding"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/NethermindEth/blockvault/validator"
	"github.com/spf13/pflag"
)

var ErrUnknownMode = errors.New("unknown init mode (known: strict, fast)")

// Mode selects how much of the stored chain is checked when it is opened.
type Mode uint8

var (
	_ pflag.Value              = (*Mode)(nil)
	_ encoding.TextUnmarshaler = (*Mode)(nil)
)

const (
	// Strict decodes and validates every stored block and rebuilds the hash index.
	Strict Mode = iota
	// Fast trusts the hash index and only validates blocks it has not indexed yet.
	Fast
)

func (m Mode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Fast:
		return "fast"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

func (m Mode) Valid() bool {
	return m == Strict || m == Fast
}

func (m *Mode) Set(s string) error {
	switch s {
	case "strict", "STRICT":
		*m = Strict
	case "fast", "FAST":
		*m = Fast
	default:
		return ErrUnknownMode
	}
	return nil
}

func (m *Mode) Type() string {
	return "Mode"
}

func (m *Mode) UnmarshalText(text []byte) error {
	return m.Set(string(text))
}

const indexDirName = "index"

type Config struct {
	// Directory holding the block store files
	Directory string `mapstructure:"directory" validate:"required"`
	Mode      Mode   `mapstructure:"mode" validate:"enum"`
	// Where the hash index lives, defaults to an "index" directory inside Directory
	IndexDirectory string `mapstructure:"index-directory"`
	// Keep the hash index in memory instead of on disk
	InMemoryIndex bool `mapstructure:"in-memory-index"`
	IndexCacheMB  uint `mapstructure:"index-cache-mb"`
	// Maximum number of files pebble keeps open, 0 keeps pebble's default
	IndexMaxOpenFiles int `mapstructure:"index-max-open-files" validate:"gte=0"`
}

func (c *Config) Validate() error {
	return validator.Validator().Struct(c)
}

func (c *Config) indexDirectory() string {
	if c.IndexDirectory != "" {
		return c.IndexDirectory
	}
	return filepath.Join(c.Directory, indexDirName)
}
