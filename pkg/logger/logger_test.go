package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/pkg/logger"
)

func TestNew_JSONConServicioYComponente(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "info", Service: "migrate_batches", Out: &buf})

	c := l.Component("migrator")
	c.Warn().Str("product_id", "P1").Msg("contador desalineado")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "migrate_batches", line["service"])
	assert.Equal(t, "migrator", line["component"])
	assert.Equal(t, "P1", line["product_id"])
	assert.Equal(t, "contador desalineado", line["message"])
}

func TestNew_NivelFiltra(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "WARNING", Out: &buf})

	l.Info().Msg("no debe salir")
	assert.Zero(t, buf.Len())

	l.Error().Msg("sí")
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestNew_NivelDesconocidoEsInfo(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Level: "verbose", Out: &buf})

	l.Debug().Msg("oculto")
	l.Info().Msg("visible")
	assert.NotContains(t, buf.String(), "oculto")
	assert.Contains(t, buf.String(), "visible")
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		c := logger.Nop().Component("x")
		c.Info().Msg("nada")
	})
}
