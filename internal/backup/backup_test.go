package backup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKeyJoinsPrefixAndBasename(t *testing.T) {
	assert.Equal(t, "runs/2026-01-01.json", objectKey("runs", "/tmp/data/runs/2026-01-01.json"))
	assert.Equal(t, "2026-01-01.json", objectKey("", "/tmp/data/runs/2026-01-01.json"))
}
