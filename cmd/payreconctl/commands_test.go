package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcilePendingFlags(t *testing.T) {
	cmd := reconcilePendingCmd()

	olderThan, err := cmd.Flags().GetDuration("older-than")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, olderThan)

	limit, err := cmd.Flags().GetInt("limit")
	require.NoError(t, err)
	assert.Equal(t, 100, limit)
}

func TestReconcilePendingRejectsNonPositiveLimit(t *testing.T) {
	cmd := reconcilePendingCmd()
	cmd.SetArgs([]string{"--limit", "0"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--limit")
}

func TestRedeliverFlags(t *testing.T) {
	cmd := redeliverCmd()

	id, err := cmd.Flags().GetString("id")
	require.NoError(t, err)
	assert.Empty(t, id)

	limit, err := cmd.Flags().GetInt("limit")
	require.NoError(t, err)
	assert.Equal(t, 50, limit)
}

func TestPrintJSON(t *testing.T) {
	cmd := redeliverCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, printJSON(cmd, map[string]int{"delivered": 2}))
	assert.JSONEq(t, `{"delivered":2}`, out.String())
}
