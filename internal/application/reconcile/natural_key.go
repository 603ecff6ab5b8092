package reconcile

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NaturalKey normaliza un nombre de producto para emparejar el catálogo heredado con el canónico:
// NFKC, sin espacios extremos, espacios internos colapsados y plegado de mayúsculas Unicode.
func NaturalKey(name string) string {
	n := norm.NFKC.String(name)
	n = strings.Join(strings.Fields(n), " ")
	// Caser guarda estado: uno por llamada.
	return cases.Fold().String(n)
}
