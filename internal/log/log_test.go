package log

import (
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestLevelOf(t *testing.T) {
	assert.Equal(t, zerolog.TraceLevel, levelOf("development"))
	assert.Equal(t, zerolog.InfoLevel, levelOf("production"))
	assert.Equal(t, zerolog.InfoLevel, levelOf(""))
}

func TestNewWriter(t *testing.T) {
	assert.Equal(t, os.Stdout, newWriter("", "production"))
	assert.IsType(t, zerolog.ConsoleWriter{}, newWriter("", "development"))
	assert.Implements(t, (*zerolog.LevelWriter)(nil), newWriter(t.TempDir()+"/app.log", "production"))
}
