package legacycsv_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/pharma-ledger/internal/infrastructure/legacycsv"
)

const sample = `id,name,price,stock,lot_number,expiration_date,requires_prescription
B2,Amoxicilina 500mg,12.5,40,AMX-01,2025-06-30,si
A1,Jarabe D'Leche,3,0,,,no
`

func TestParse_OrdenaYConvierte(t *testing.T) {
	items, err := legacycsv.Parse(strings.NewReader(sample), legacycsv.CharsetUTF8)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "A1", items[0].ID)
	assert.Nil(t, items[0].ExpirationDate)
	assert.False(t, items[0].RequiresPrescription)

	b := items[1]
	assert.Equal(t, "Amoxicilina 500mg", b.Name)
	assert.Equal(t, int64(40), b.Stock)
	assert.Equal(t, "12.5", b.Price.String())
	assert.True(t, b.RequiresPrescription)
	require.NotNil(t, b.ExpirationDate)
	assert.Equal(t, "2025-06-30", b.ExpirationDate.Format("2006-01-02"))
}

func TestParse_Latin1(t *testing.T) {
	// "Acetaminofén" codificado en ISO-8859-1 (é = 0xE9)
	raw := []byte("id,name\nX1,Acetaminof\xe9n\n")
	items, err := legacycsv.Parse(bytes.NewReader(raw), legacycsv.CharsetLatin1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Acetaminofén", items[0].Name)
}

func TestParse_Errores(t *testing.T) {
	_, err := legacycsv.Parse(strings.NewReader("name\nX\n"), "")
	assert.Error(t, err, "falta columna id")

	_, err = legacycsv.Parse(strings.NewReader("id,name,stock\nA,X,-1\n"), "")
	assert.Error(t, err, "stock negativo")

	_, err = legacycsv.Parse(strings.NewReader("id,name\nA,X\nA,Y\n"), "")
	assert.Error(t, err, "id duplicado")

	_, err = legacycsv.Parse(strings.NewReader("id,name\n"), "ebcdic")
	assert.Error(t, err)
}

func TestWriteSQL_EscapaYEsIdempotente(t *testing.T) {
	items, err := legacycsv.Parse(strings.NewReader(sample), "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, legacycsv.WriteSQL(&buf, items, "catalogo.csv"))
	out := buf.String()

	assert.Contains(t, out, "-- Generado desde catalogo.csv")
	assert.Contains(t, out, "'Jarabe D''Leche'")
	assert.Contains(t, out, "'2025-06-30'")
	assert.Contains(t, out, "12.50, true, 40")
	assert.Equal(t, 2, strings.Count(out, "ON CONFLICT (id) DO UPDATE SET"))
}
