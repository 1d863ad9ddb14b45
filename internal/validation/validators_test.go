package validation

import (
	"strings"
	"testing"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "ssh", false},
		{"underscore", "zone_lan", false},
		{"alphanumeric", "ssh-2", false},

		{"empty", "", true},
		{"space", "my service", true},
		{"dot", "my.service", true},
		{"semicolon", "service;drop", true},
		{"long", strings.Repeat("a", 256), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIdentifier(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	allowedDirs := []string{"/etc/firewalld/services", "/usr/lib/firewalld/services"}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"relative", "ssh.xml", false},
		{"allowed absolute", "/etc/firewalld/services/ssh-2.xml", false},
		{"allowed subdir", "/usr/lib/firewalld/services/ssh.xml", false},

		{"empty", "", true},
		{"path traversal", "../../../etc/passwd", true},
		{"absolute not allowed", "/etc/passwd", true},
		{"null byte", "/etc/firewalld/services/ssh\x00.xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path, allowedDirs)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}
