package api

import (
	"bytes"
	"testing"
)

type row struct {
	ID   string `json:"id" yaml:"id"`
	Page int    `json:"page" yaml:"page"`
}

func TestOutputTo(t *testing.T) {
	rows := []row{{ID: "SLK_1.1", Page: 9}, {ID: "SLK_1.2", Page: 10}}

	tests := []struct {
		name   string
		format OutputFormat
		data   any
		want   string
	}{
		{
			name:   "yaml",
			format: OutputFormatYAML,
			data:   rows[0],
			want:   "id: SLK_1.1\npage: 9\n",
		},
		{
			name:   "json",
			format: OutputFormatJSON,
			data:   rows[0],
			want:   "{\n  \"id\": \"SLK_1.1\",\n  \"page\": 9\n}\n",
		},
		{
			name:   "jsonl slice",
			format: OutputFormatJSONL,
			data:   rows,
			want:   "{\"id\":\"SLK_1.1\",\"page\":9}\n{\"id\":\"SLK_1.2\",\"page\":10}\n",
		},
		{
			name:   "jsonl single value",
			format: OutputFormatJSONL,
			data:   rows[1],
			want:   "{\"id\":\"SLK_1.2\",\"page\":10}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := OutputTo(&buf, tt.format, tt.data); err != nil {
				t.Fatalf("OutputTo() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("OutputTo() = %q, want %q", buf.String(), tt.want)
			}
		})
	}

	if err := OutputTo(&bytes.Buffer{}, "xml", rows); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": OutputFormatYAML, "json": OutputFormatJSON, "jsonl": OutputFormatJSONL} {
		got, err := ParseOutputFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseOutputFormat("table"); err == nil {
		t.Error("expected error for table")
	}

	SetOutputFormat("jsonl")
	defer SetOutputFormat("yaml")
	if GetOutputFormat() != OutputFormatJSONL || !IsStructuredOutput() {
		t.Errorf("SetOutputFormat(jsonl) not applied: %s", GetOutputFormat())
	}
}
