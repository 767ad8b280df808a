package hostmetrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultWorkerCountLeavesOneCoreFree(t *testing.T) {
	assert.Equal(t, 3, DefaultWorkerCount(Snapshot{LogicalCPUs: 4}))
}

func TestDefaultWorkerCountFloorsAtOne(t *testing.T) {
	assert.Equal(t, 1, DefaultWorkerCount(Snapshot{LogicalCPUs: 1}))
	assert.Equal(t, 1, DefaultWorkerCount(Snapshot{LogicalCPUs: 0}))
}
