package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFilePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"empty", "", true},
		{"nul byte", "data\x00.db", true},
		{"traversal", "../../etc/passwd", true},
		{"hidden traversal", "data/../../secrets", true},
		{"relative", "data/omnichannel.db", false},
		{"absolute", "/var/lib/omnichannel/omnichannel.db", false},
		{"dot segment collapses", "data/./omnichannel.db", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateFilePathWithBase(t *testing.T) {
	assert.NoError(t, ValidateFilePathWithBase("omnichannel.db", "/var/lib/omnichannel"))
	assert.Error(t, ValidateFilePathWithBase("../outside.db", "/var/lib/omnichannel"))
}
