package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-c", "vault.toml", "-driver", "pgx"},
			allowed: []string{"-c"},
			want:    []string{"-c", "vault.toml"},
		},
		{
			name:    "equals form",
			args:    []string{"-config=vault.yaml", "-log-level", "debug"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-config=vault.yaml"},
		},
		{
			name:    "nothing allowed present",
			args:    []string{"-x", "1", "positional"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "trailing flag without value",
			args:    []string{"-c"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "next token is a flag, not a value",
			args:    []string{"-c", "-config=alt.json"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-c", "-config=alt.json"},
		},
		{
			name:    "repeated flag keeps order",
			args:    []string{"-c", "one.json", "-c", "two.json"},
			allowed: []string{"-c"},
			want:    []string{"-c", "one.json", "-c", "two.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigFileFlag(t *testing.T) {
	assert.Equal(t, "/etc/fk.toml", ConfigFileFlag([]string{"-c", "/etc/fk.toml"}))
	assert.Equal(t, "fk.yaml", ConfigFileFlag([]string{"-log-level", "debug", "-config", "fk.yaml"}))
	assert.Equal(t, "2.json", ConfigFileFlag([]string{"-c", "1.json", "-config=2.json"}))
	assert.Empty(t, ConfigFileFlag([]string{"-x", "1"}))
	assert.Empty(t, ConfigFileFlag(nil))
}
