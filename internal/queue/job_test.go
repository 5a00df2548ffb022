package queue

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExamineJob(t *testing.T) {
	payload, job, err := newExamineJob(17)
	require.NoError(t, err)

	var decoded ExamineJob
	require.NoError(t, json.Unmarshal(payload, &decoded))

	assert.Equal(t, int64(17), decoded.WithdrawalID)
	assert.Equal(t, job.JobID, decoded.JobID)
	_, err = uuid.Parse(decoded.JobID)
	assert.NoError(t, err)
}

func TestNewExamineJob_DistinctJobIDs(t *testing.T) {
	_, a, err := newExamineJob(1)
	require.NoError(t, err)
	_, b, err := newExamineJob(1)
	require.NoError(t, err)

	assert.NotEqual(t, a.JobID, b.JobID)
}
