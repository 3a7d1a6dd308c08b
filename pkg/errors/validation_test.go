package errors

import "testing"

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "desk", false},
		{"dotted", "desk.top", false},
		{"namespaced", "monitor:screen", false},
		{"with dash", "monitor-arm_1", false},

		{"empty", "", true},
		{"too long", "a" + string(make([]byte, 200)), true},
		{"starts with digit", "1desk", true},
		{"space", "desk top", true},
		{"slash", "desk/top", true},
		{"control char", "desk\x01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidID) {
				t.Errorf("ValidateID(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "scenes/desk.toml", false},
		{"absolute", "/home/user/desk.toml", false},
		{"dotted name", "v1.2/scene.toml", false},
		{"double dot in name", "desk..toml", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"traversal", "../../etc/passwd", true},
		{"traversal middle", "scenes/../x.toml", true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}
