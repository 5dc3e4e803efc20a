// seed_catalog genera el script SQL que puebla la tabla products a partir de un CSV
// exportado del sistema de catálogo (sku;nombre;precio;costo[;activo]).
//
// Uso: go run ./cmd/seed_catalog [ruta/catalogo.csv]
// Por defecto busca catalogo.csv en el directorio actual. Acepta UTF-8 o ISO-8859-1
// (exportaciones de Excel) y separador ';' o ','.
// Escribe: migrations/002_seed_catalog.sql
package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// catalogNamespace espacio para derivar IDs estables desde el SKU: re-ejecutar el seed no cambia IDs.
var catalogNamespace = uuid.MustParse("6f1c1c52-4c1e-4b8e-9d0a-2f57b1d0c0de")

type catalogRow struct {
	ID     uuid.UUID
	SKU    string
	Name   string
	Price  decimal.Decimal
	Cost   decimal.Decimal
	Active bool
}

func main() {
	csvPath := "catalogo.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	raw, err := os.ReadFile(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}

	rows, err := parseCatalog(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer catálogo: %v\n", err)
		os.Exit(1)
	}

	outPath := filepath.Join(findModuleRoot(), "migrations", "002_seed_catalog.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := writeSQL(out, rows); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d productos\n", outPath, len(rows))
}

// parseCatalog decodifica el CSV. Un SKU repetido conserva la última fila.
func parseCatalog(raw []byte) ([]catalogRow, error) {
	var src io.Reader = bytes.NewReader(raw)
	if !utf8.Valid(raw) {
		src = transform.NewReader(src, charmap.ISO8859_1.NewDecoder())
	}
	r := csv.NewReader(src)
	r.Comma = detectComma(raw)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV vacío")
	}

	bySKU := make(map[string]catalogRow)
	for i, rec := range records[1:] { // encabezado
		line := i + 2
		if len(rec) < 4 {
			return nil, fmt.Errorf("línea %d: se esperaban al menos 4 columnas", line)
		}
		sku := strings.TrimSpace(rec[0])
		name := strings.TrimSpace(rec[1])
		if sku == "" || name == "" {
			return nil, fmt.Errorf("línea %d: sku y nombre son obligatorios", line)
		}
		price, err := parseAmount(rec[2])
		if err != nil {
			return nil, fmt.Errorf("línea %d: precio: %w", line, err)
		}
		cost, err := parseAmount(rec[3])
		if err != nil {
			return nil, fmt.Errorf("línea %d: costo: %w", line, err)
		}
		active := true
		if len(rec) > 4 && strings.TrimSpace(rec[4]) != "" {
			active, err = strconv.ParseBool(strings.TrimSpace(rec[4]))
			if err != nil {
				return nil, fmt.Errorf("línea %d: activo: %w", line, err)
			}
		}
		bySKU[sku] = catalogRow{
			ID:     uuid.NewSHA1(catalogNamespace, []byte(sku)),
			SKU:    sku,
			Name:   name,
			Price:  price,
			Cost:   cost,
			Active: active,
		}
	}

	rows := make([]catalogRow, 0, len(bySKU))
	for _, row := range bySKU {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].SKU < rows[j].SKU })
	return rows, nil
}

// parseAmount acepta coma decimal ("1500,50"); no admite separador de miles.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if v.IsNegative() {
		return decimal.Zero, fmt.Errorf("valor negativo %s", s)
	}
	return v, nil
}

func detectComma(raw []byte) rune {
	header, _, _ := bytes.Cut(raw, []byte("\n"))
	if bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		return ';'
	}
	return ','
}

func writeSQL(w io.Writer, rows []catalogRow) error {
	var b strings.Builder
	b.WriteString("-- Catálogo de productos (solo lectura para el ledger de stock)\n")
	b.WriteString("-- Generado por cmd/seed_catalog\n\n")
	if len(rows) == 0 {
		_, err := io.WriteString(w, b.String())
		return err
	}
	b.WriteString("INSERT INTO products (id, sku, name, price, cost, active) VALUES\n")
	for i, row := range rows {
		fmt.Fprintf(&b, "  ('%s', '%s', '%s', %s, %s, %t)",
			row.ID, escapeSQL(row.SKU), escapeSQL(row.Name), row.Price.String(), row.Cost.String(), row.Active)
		if i < len(rows)-1 {
			b.WriteString(",\n")
		} else {
			b.WriteString("\n")
		}
	}
	b.WriteString("ON CONFLICT (sku) DO UPDATE SET\n")
	b.WriteString("  name = EXCLUDED.name, price = EXCLUDED.price, cost = EXCLUDED.cost,\n")
	b.WriteString("  active = EXCLUDED.active, updated_at = now();\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
