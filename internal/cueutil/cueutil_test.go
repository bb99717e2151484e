// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

const testSchema = `
#Scan: {
	pattern?:   string
	recursive?: bool
	extra?: [...string]
}
`

type scan struct {
	Pattern   string   `json:"pattern"`
	Recursive bool     `json:"recursive"`
	Extra     []string `json:"extra"`
}

func TestParseAndDecode(t *testing.T) {
	t.Parallel()

	res, err := ParseAndDecode[scan]([]byte(testSchema), []byte(`pattern: "*.so", recursive: true, extra: ["libvulkan"]`), "#Scan",
		WithFilename("scan.cue"))
	if err != nil {
		t.Fatalf("ParseAndDecode() error: %v", err)
	}
	if res.Value.Pattern != "*.so" || !res.Value.Recursive || len(res.Value.Extra) != 1 {
		t.Errorf("decoded %+v", *res.Value)
	}
}

func TestParseAndDecode_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		opts    []Option
		wantSub string
	}{
		{name: "type mismatch", data: `recursive: "yes"`, wantSub: "recursive"},
		{name: "unknown field", data: `colour: "red"`, wantSub: "colour"},
		{name: "syntax", data: `pattern: `, wantSub: "scan.cue"},
		{name: "too large", data: `pattern: "*.so"`, opts: []Option{WithMaxFileSize(4)}, wantSub: "exceeds maximum"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			opts := append([]Option{WithFilename("scan.cue")}, tt.opts...)
			_, err := ParseAndDecode[scan]([]byte(testSchema), []byte(tt.data), "#Scan", opts...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestParseAndDecode_MissingDefinition(t *testing.T) {
	t.Parallel()

	_, err := ParseAndDecode[scan]([]byte(testSchema), []byte(`{}`), "#Nope")
	if err == nil || !strings.Contains(err.Error(), "#Nope") {
		t.Errorf("error = %v", err)
	}
}

func TestFormatError(t *testing.T) {
	t.Parallel()

	if FormatError(nil, "x.cue") != nil {
		t.Error("FormatError(nil) != nil")
	}
	err := FormatError(errors.New("plain failure"), "config.cue")
	if !strings.HasPrefix(err.Error(), "config.cue: ") || !strings.Contains(err.Error(), "plain failure") {
		t.Errorf("FormatError() = %q", err)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path []string
		want string
	}{
		{nil, ""},
		{[]string{"scan"}, "scan"},
		{[]string{"scan", "extra_system_libraries", "0"}, "scan.extra_system_libraries[0]"},
		{[]string{"0"}, "0"},
		{[]string{"paths", "mods_dir"}, "paths.mods_dir"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.path); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 10), 10, "a.cue"); err != nil {
		t.Errorf("at limit: %v", err)
	}
	if err := CheckFileSize(make([]byte, 11), 10, "a.cue"); err == nil {
		t.Error("over limit accepted")
	}
}
