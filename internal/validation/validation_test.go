package validation

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		valid   bool
		wantMsg string
	}{
		{"valid https", "https://example.com", true, ""},
		{"valid http", "http://example.com", true, ""},
		{"valid with path", "https://example.com/videos/run.mp4", true, ""},
		{"valid with query", "https://example.com?foo=bar", true, ""},
		{"valid with port", "https://example.com:8080", true, ""},
		{"empty string", "", false, "URL is required"},
		{"javascript scheme", "javascript:alert(1)", false, "URL must use http:// or https:// scheme"},
		{"data scheme", "data:text/html,<script>alert(1)</script>", false, "URL must use http:// or https:// scheme"},
		{"ftp scheme", "ftp://example.com/file", false, "URL must use http:// or https:// scheme"},
		{"no host", "https://", false, "URL must have a valid host"},
		{"relative path", "/videos/run.mp4", false, "URL must use http:// or https:// scheme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, msg := ValidateURL(tt.url)
			if valid != tt.valid {
				t.Errorf("ValidateURL(%q) valid = %v, want %v", tt.url, valid, tt.valid)
			}
			if msg != tt.wantMsg {
				t.Errorf("ValidateURL(%q) msg = %q, want %q", tt.url, msg, tt.wantMsg)
			}
		})
	}
}

func TestValidateID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"primary", true},
		{"early-childhood", true},
		{"team_sports2", true},
		{"", false},
		{"../etc", false},
		{"a/b", false},
		{"Primary", false},
		{"-leading", false},
		{string(make([]byte, 101)), false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := ValidateID(tt.id); got != tt.want {
				t.Errorf("ValidateID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestFileExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"lesson.PDF", "pdf"},
		{"clip.mp4", "mp4"},
		{"archive.tar.gz", "gz"},
		{"noext", "bin"},
		{"weird.ex$e", "bin"},
		{"", "bin"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := FileExtension(tt.filename); got != tt.want {
				t.Errorf("FileExtension(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestStruct(t *testing.T) {
	type input struct {
		Title string `json:"title" validate:"required,max=5"`
		Type  string `json:"type" validate:"oneof=image video"`
	}

	tests := []struct {
		name      string
		in        input
		wantField string
	}{
		{"valid", input{Title: "run", Type: "video"}, ""},
		{"missing title", input{Type: "video"}, "title"},
		{"title too long", input{Title: "running", Type: "video"}, "title"},
		{"bad type", input{Title: "run", Type: "audio"}, "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Struct() error = %v, want nil", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Struct() error = %v, want *ValidationError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Struct() field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestIsValidationError(t *testing.T) {
	ve := NewError("url", "is required")
	if !IsValidationError(ve) {
		t.Error("IsValidationError(ve) = false")
	}
	if !IsValidationError(fmt.Errorf("submit: %w", ve)) {
		t.Error("IsValidationError(wrapped) = false")
	}
	if IsValidationError(errors.New("boom")) {
		t.Error("IsValidationError(plain) = true")
	}
	if ve.Error() != "url: is required" {
		t.Errorf("Error() = %q", ve.Error())
	}
}
