//nolint:dupl
package utils_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/NethermindEth/blockvault/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

var levelStrings = map[*utils.LogLevel]string{
	utils.NewLogLevel(utils.DEBUG): "debug",
	utils.NewLogLevel(utils.INFO):  "info",
	utils.NewLogLevel(utils.WARN):  "warn",
	utils.NewLogLevel(utils.ERROR): "error",
	utils.NewLogLevel(utils.FATAL): "fatal",
}

func TestLogLevelString(t *testing.T) {
	for level, str := range levelStrings {
		t.Run("level "+str, func(t *testing.T) {
			assert.Equal(t, str, level.String())
		})
	}
}

// Tests are similar for LogLevel and crypto.Algorithm since they
// both implement the pflag.Value and encoding.TextUnmarshaller interfaces.
func TestLogLevelSet(t *testing.T) {
	for level, str := range levelStrings {
		t.Run("level "+str, func(t *testing.T) {
			l := utils.NewLogLevel(utils.FATAL)
			require.NoError(t, l.Set(str))
			assert.Equal(t, *level, *l)
		})
		uppercase := strings.ToUpper(str)
		t.Run("level "+uppercase, func(t *testing.T) {
			l := utils.NewLogLevel(utils.FATAL)
			require.NoError(t, l.Set(uppercase))
			assert.Equal(t, *level, *l)
		})
	}

	t.Run("unknown log level", func(t *testing.T) {
		l := new(utils.LogLevel)
		require.ErrorIs(t, l.Set("blah"), utils.ErrUnknownLogLevel)
	})
}

func TestLogLevelUnmarshalText(t *testing.T) {
	for level, str := range levelStrings {
		t.Run("level "+str, func(t *testing.T) {
			l := utils.NewLogLevel(utils.FATAL)
			require.NoError(t, l.UnmarshalText([]byte(str)))
			assert.Equal(t, *level, *l)
		})
	}

	t.Run("unknown log level", func(t *testing.T) {
		l := new(utils.LogLevel)
		require.ErrorIs(t, l.UnmarshalText([]byte("blah")), utils.ErrUnknownLogLevel)
	})
}

func TestLogLevelMarshalJSON(t *testing.T) {
	for level, str := range levelStrings {
		t.Run("level "+str, func(t *testing.T) {
			lb, err := json.Marshal(level)
			require.NoError(t, err)

			expectedStr := `"` + str + `"`
			assert.Equal(t, expectedStr, string(lb))
		})
	}
}

func TestLogLevelType(t *testing.T) {
	assert.Equal(t, "LogLevel", new(utils.LogLevel).Type())
}

func TestZapWithColour(t *testing.T) {
	for level, str := range levelStrings {
		t.Run("level: "+str, func(t *testing.T) {
			_, err := utils.NewZapLogger(level, true)
			assert.NoError(t, err)
		})
	}
}

func TestZapWithoutColour(t *testing.T) {
	for level, str := range levelStrings {
		t.Run("level: "+str, func(t *testing.T) {
			_, err := utils.NewZapLogger(level, false)
			assert.NoError(t, err)
		})
	}
}

func TestMarshalYAML(t *testing.T) {
	tests := []struct {
		name     string
		logLevel utils.LogLevel
		expected string
	}{
		{"InfoLevel", *utils.NewLogLevel(utils.INFO), "info"},
		{"DebugLevel", *utils.NewLogLevel(utils.DEBUG), "debug"},
		{"ErrorLevel", *utils.NewLogLevel(utils.ERROR), "error"},
		{"WarnLevel", *utils.NewLogLevel(utils.WARN), "warn"},
		{"FatalLevel", *utils.NewLogLevel(utils.FATAL), "fatal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := yaml.Marshal(tt.logLevel)
			assert.NoError(t, err)
			assert.Contains(t, string(data), tt.expected)
		})
	}
}

func TestZapLoggerWithCore(t *testing.T) {
	var buf bytes.Buffer
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(&buf),
		utils.INFO.Level(),
	)
	logger := utils.NewZapLoggerWithCore(core)

	logger.Debugw("hidden")
	logger.Infow("block stored", "height", 3)
	logger.Warningf("store %s", "locked")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "block stored")
	assert.Contains(t, out, "height")
	assert.Contains(t, out, "store locked")
}
