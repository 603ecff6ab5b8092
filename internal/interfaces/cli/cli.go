// Package cli implementa las herramientas de línea de comandos del ledger (migración, rollback,
// respaldo y siembra del catálogo heredado). Los binarios en cmd/ solo cargan configuración y
// delegan aquí.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Códigos de salida comunes a todas las herramientas.
const (
	ExitOK      = 0 // ejecución completa sin fallos
	ExitFatal   = 1 // no se pudo conectar, leer la entrada o escribir la salida
	ExitPartial = 2 // terminó con fallos por producto, desajustes o lotes rezagados
)

// writeSummary escribe v como JSON indentado en out y, si path no está vacío, también en ese archivo.
func writeSummary(out io.Writer, path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("serializar resumen: %w", err)
	}
	raw = append(raw, '\n')
	if out != nil {
		if _, err := out.Write(raw); err != nil {
			return fmt.Errorf("escribir resumen: %w", err)
		}
	}
	if path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("crear directorio del resumen: %w", err)
		}
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("escribir %s: %w", path, err)
	}
	return nil
}
