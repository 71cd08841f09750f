package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInferType(t *testing.T) {
	tests := []struct {
		name   string
		sample any
		want   string
	}{
		{"integer", int64(42), "INTEGER"},
		{"bool", true, "INTEGER"},
		{"whole-valued float", 10.0, "INTEGER"},
		{"negative whole-valued float", -3.0, "INTEGER"},
		{"fractional float", 10.5, "REAL"},
		{"datetime", time.Now(), "TEXT"},
		{"string", "hello", "TEXT"},
		{"nil", nil, "TEXT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inferType(tt.sample))
		})
	}
}

func TestBindValue(t *testing.T) {
	assert.Equal(t, "2024-01-01T00:00:00.000Z", bindValue(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(1), bindValue(true))
	assert.Equal(t, int64(0), bindValue(false))
	assert.Equal(t, int64(7), bindValue(int64(7)))
	assert.Equal(t, 2.5, bindValue(2.5))
	assert.Nil(t, bindValue(nil))
}
