// Package legacycsv lee la exportación CSV del catálogo plano heredado y genera el script SQL que
// puebla legacy_catalog_items.
package legacycsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/pharma-ledger/internal/domain/entity"
)

// Codificaciones aceptadas para el archivo de entrada.
const (
	CharsetUTF8   = "utf-8"
	CharsetLatin1 = "iso-8859-1"
)

var columns = []string{
	"id", "name", "description", "manufacturer", "category", "price",
	"requires_prescription", "stock", "lot_number", "expiration_date",
}

// Parse lee el CSV (con cabecera) y devuelve los ítems ordenados por ID. Las columnas se ubican por
// nombre; id y name son obligatorias.
func Parse(r io.Reader, charset string) ([]*entity.LegacyCatalogItem, error) {
	switch strings.ToLower(charset) {
	case "", CharsetUTF8, "utf8":
	case CharsetLatin1, "iso8859-1", "latin1":
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	default:
		return nil, fmt.Errorf("codificación no soportada: %s", charset)
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("leer cabecera: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, req := range []string{"id", "name"} {
		if _, ok := idx[req]; !ok {
			return nil, fmt.Errorf("falta la columna %q", req)
		}
	}

	seen := make(map[string]bool)
	var items []*entity.LegacyCatalogItem
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		item, err := toItem(get)
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		if seen[item.ID] {
			return nil, fmt.Errorf("línea %d: id duplicado %s", line, item.ID)
		}
		seen[item.ID] = true
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func toItem(get func(string) string) (*entity.LegacyCatalogItem, error) {
	item := &entity.LegacyCatalogItem{
		ID:           get("id"),
		Name:         get("name"),
		Description:  get("description"),
		Manufacturer: get("manufacturer"),
		Category:     get("category"),
		LotNumber:    get("lot_number"),
		Price:        decimal.Zero,
	}
	if item.ID == "" || item.Name == "" {
		return nil, errors.New("id y name son requeridos")
	}
	if s := get("price"); s != "" {
		p, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("price %q: %w", s, err)
		}
		item.Price = p
	}
	if s := get("requires_prescription"); s != "" {
		b, err := parseBool(s)
		if err != nil {
			return nil, err
		}
		item.RequiresPrescription = b
	}
	if s := get("stock"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("stock %q: %w", s, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("stock negativo: %d", n)
		}
		item.Stock = n
	}
	if s := get("expiration_date"); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("expiration_date %q: %w", s, err)
		}
		item.ExpirationDate = &d
	}
	return item, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "t", "si", "sí", "s", "yes", "y":
		return true, nil
	case "0", "false", "f", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("requires_prescription %q no es booleano", s)
}

// WriteSQL escribe un INSERT ... ON CONFLICT por ítem. El script es idempotente.
func WriteSQL(w io.Writer, items []*entity.LegacyCatalogItem, source string) error {
	var b strings.Builder
	b.WriteString("-- Catálogo plano heredado\n")
	if source != "" {
		fmt.Fprintf(&b, "-- Generado desde %s\n", source)
	}
	b.WriteString("\n")
	for _, it := range items {
		expiry := "NULL"
		if it.ExpirationDate != nil {
			expiry = "'" + it.ExpirationDate.Format("2006-01-02") + "'"
		}
		fmt.Fprintf(&b, "INSERT INTO legacy_catalog_items (%s)\n", strings.Join(columns, ", "))
		fmt.Fprintf(&b, "VALUES ('%s', '%s', '%s', '%s', '%s', %s, %t, %d, '%s', %s)\n",
			escapeSQL(it.ID), escapeSQL(it.Name), escapeSQL(it.Description), escapeSQL(it.Manufacturer),
			escapeSQL(it.Category), it.Price.StringFixed(2), it.RequiresPrescription, it.Stock,
			escapeSQL(it.LotNumber), expiry)
		b.WriteString("ON CONFLICT (id) DO UPDATE SET ")
		sets := make([]string, 0, len(columns))
		for _, c := range columns[1:] {
			sets = append(sets, c+" = EXCLUDED."+c)
		}
		sets = append(sets, "updated_at = now()")
		b.WriteString(strings.Join(sets, ", "))
		b.WriteString(";\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
