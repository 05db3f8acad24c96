package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON, false).(*JSONFormatter); !ok {
		t.Error("expected JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML, false).(*YAMLFormatter); !ok {
		t.Error("expected YAMLFormatter")
	}
	tf, ok := NewFormatter(FormatTable, true).(*TableFormatter)
	if !ok || !tf.Wide {
		t.Errorf("NewFormatter(table, wide) = %#v", tf)
	}
	if _, ok := NewFormatter("unknown", false).(*TableFormatter); !ok {
		t.Error("unknown format should default to table")
	}
}

type endpoint struct {
	Name      string   `json:"name" yaml:"name"`
	Address   string   `json:"address" yaml:"address"`
	Protocols []string `json:"protocols,omitempty" yaml:"protocols,omitempty"`
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(&buf, endpoint{Name: "Primary", Address: "http://127.0.0.1:5000"}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"name": "Primary"`) || !strings.Contains(out, `"address": "http://127.0.0.1:5000"`) {
		t.Errorf("Format() = %s", out)
	}
	if strings.Contains(out, "protocols") {
		t.Errorf("omitempty field rendered: %s", out)
	}
}

func TestYAMLFormatter_Format(t *testing.T) {
	data := struct {
		Strategy  string     `yaml:"strategy"`
		Endpoints []endpoint `yaml:"endpoints"`
	}{
		Strategy:  "UseExplicitEndpoints",
		Endpoints: []endpoint{{Name: "Primary", Address: "https://127.0.0.1:5001", Protocols: []string{"h2"}}},
	}

	var buf bytes.Buffer
	if err := (&YAMLFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := `strategy: UseExplicitEndpoints
endpoints:
  - name: Primary
    address: https://127.0.0.1:5001
    protocols:
      - h2
`
	if buf.String() != want {
		t.Errorf("Format() =\n%s\nwant\n%s", buf.String(), want)
	}
}
