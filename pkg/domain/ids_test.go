package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "relieflink/pkg/domain-errors"
)

func TestParseURID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid uppercase hex", "A3F09B12CC04D8E7", false},
		{"all digits", "1234567890123456", false},
		{"lowercase rejected", "a3f09b12cc04d8e7", true},
		{"too short", "A3F09B12", true},
		{"too long", "A3F09B12CC04D8E7FF", true},
		{"empty", "", true},
		{"non-hex characters", "A3F09B12CC04D8EZ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseURID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestParseCommitment(t *testing.T) {
	valid := strings.Repeat("ab12", 16)

	t.Run("valid lowercase hex", func(t *testing.T) {
		got, err := ParseCommitment(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, got.String())
	})

	t.Run("uppercase rejected", func(t *testing.T) {
		_, err := ParseCommitment(strings.ToUpper(valid))
		require.Error(t, err)
	})

	t.Run("wrong length rejected", func(t *testing.T) {
		_, err := ParseCommitment(valid[:63])
		require.Error(t, err)
	})
}

func TestParseNullifier(t *testing.T) {
	t.Run("non-empty accepted", func(t *testing.T) {
		n, err := ParseNullifier("volunteer-nullifier-1")
		require.NoError(t, err)
		assert.False(t, n.IsNil())
	})

	t.Run("blank rejected", func(t *testing.T) {
		_, err := ParseNullifier("   ")
		require.Error(t, err)
	})
}
