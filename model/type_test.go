package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewSnapshotPreSizesEverything(t *testing.T) {
	s := NewSnapshot(8, 12)

	assert.Len(t, s.RxCnt.CPU, 8)
	assert.Len(t, s.RedirErr.CPU, 8)
	assert.Len(t, s.Kthread.CPU, 8)
	assert.Len(t, s.Enq, 12)
	for i := range s.Enq {
		assert.Len(t, s.Enq[i].CPU, 8)
	}
}

func TestNewSnapshotStartsAllZero(t *testing.T) {
	s := NewSnapshot(4, 2)

	assert.Equal(t, uint64(0), s.RxCnt.Timestamp)
	assert.Equal(t, DataRec{}, s.RxCnt.Total)
	for _, d := range s.RxCnt.CPU {
		assert.Equal(t, DataRec{}, d)
	}
}
