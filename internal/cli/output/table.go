package output

import (
	"fmt"
	"io"
	"reflect"
	"strings"
	"text/tabwriter"
	"time"
)

// TableFormatter formats data as an aligned table.
type TableFormatter struct {
	Wide      bool
	NoHeaders bool
}

// Format renders a *Table, a slice of structs (one row per element) or a
// single struct (one row per field). Other values fall back to YAML.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if data == nil {
		return nil
	}
	switch t := data.(type) {
	case *Table:
		return t.RenderWithOptions(w, f.NoHeaders)
	case Table:
		return t.RenderWithOptions(w, f.NoHeaders)
	}

	table, err := toTable(data, f.Wide)
	if err != nil {
		return (&YAMLFormatter{}).Format(w, data)
	}
	return table.RenderWithOptions(w, f.NoHeaders)
}

type column struct {
	index int
	name  string
}

// columns lists the visible fields of a struct type.
func columns(t reflect.Type, wide bool) []column {
	var cols []column
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(field.Tag.Get("table"), ",")
		if name == "-" || (opts == "wide" && !wide) {
			continue
		}
		if name == "" {
			name = toSnakeCase(field.Name)
		}
		cols = append(cols, column{index: i, name: strings.ToUpper(name)})
	}
	return cols
}

func toTable(data any, wide bool) (*Table, error) {
	v := indirect(reflect.ValueOf(data))
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		elem := v.Type().Elem()
		if elem.Kind() == reflect.Ptr {
			elem = elem.Elem()
		}
		if elem.Kind() != reflect.Struct {
			return nil, fmt.Errorf("unsupported element type: %s", elem)
		}
		cols := columns(elem, wide)
		table := &Table{}
		if v.Len() == 0 {
			return table, nil
		}
		for _, c := range cols {
			table.Headers = append(table.Headers, c.name)
		}
		for i := 0; i < v.Len(); i++ {
			row := indirect(v.Index(i))
			cells := make([]string, len(cols))
			for j, c := range cols {
				if row.IsValid() {
					cells[j] = formatValue(row.Field(c.index))
				}
			}
			table.AddRow(cells...)
		}
		return table, nil
	case reflect.Struct:
		table := &Table{Headers: []string{"FIELD", "VALUE"}}
		for _, c := range columns(v.Type(), wide) {
			table.AddRow(c.name, formatValue(v.Field(c.index)))
		}
		return table, nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", v.Kind())
	}
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
)

// formatValue formats a field for a table cell. Empty values print as "-".
func formatValue(v reflect.Value) string {
	v = indirect(v)
	if !v.IsValid() {
		return "-"
	}

	if v.Type() == timeType {
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return "-"
		}
		return t.UTC().Format(time.RFC3339)
	}
	if v.Type().Implements(stringerType) && v.CanInterface() {
		return orDash(v.Interface().(fmt.Stringer).String())
	}

	switch v.Kind() {
	case reflect.String:
		return orDash(v.String())
	case reflect.Bool:
		return fmt.Sprintf("%t", v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return fmt.Sprintf("%d", v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("%d", v.Uint())
	case reflect.Slice, reflect.Array:
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = formatValue(v.Index(i))
		}
		return orDash(strings.Join(parts, ","))
	case reflect.Struct, reflect.Map:
		if v.IsZero() {
			return "-"
		}
		return fmt.Sprintf("%v", v.Interface())
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// toSnakeCase converts CamelCase to snake_case, keeping acronyms together.
func toSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			prevUpper := runes[i-1] >= 'A' && runes[i-1] <= 'Z'
			if prevLower || (prevUpper && nextLower) {
				b.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Table represents tabular data.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Render renders the table to the writer.
func (t *Table) Render(w io.Writer) error {
	return t.RenderWithOptions(w, false)
}

// RenderWithOptions renders the table, optionally without the header row.
func (t *Table) RenderWithOptions(w io.Writer, noHeaders bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if !noHeaders && len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// SetHeaders sets the table headers.
func (t *Table) SetHeaders(headers ...string) {
	t.Headers = headers
}
