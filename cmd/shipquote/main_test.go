package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hapkiduki/shipping-quote/internal/application/dto"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestQuoteCommand_JSON(t *testing.T) {
	out, _, err := execute(t, "quote",
		"--weight", "2.5", "--dims", "30x20x15",
		"--from", "10001", "--to", "90210",
		"--service", "express", "--output", "json",
	)
	require.NoError(t, err)

	var resp dto.QuoteResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "express", resp.ServiceType)
	assert.Equal(t, int64(1613), resp.BaseRateCents)
	assert.Equal(t, int64(242), resp.FuelSurchargeCents)
	assert.Equal(t, int64(1855), resp.TotalCostCents)
	assert.Equal(t, 5, resp.EstimatedDays)
}

func TestQuoteCommand_TextDefaultsToStandard(t *testing.T) {
	out, _, err := execute(t, "quote",
		"--weight", "2.5", "--dims", "30x20x15",
		"--from", "10001", "--to", "90210",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "Standard Ground (standard)")
	assert.Contains(t, out, "$10.75")
	assert.Contains(t, out, "$1.61")
	assert.Contains(t, out, "$12.36")
}

func TestQuoteCommand_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shipment.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
weight_kg: 2.5
dimensions_cm:
  length: 30
  width: 20
  height: 15
origin_postal_code: "10001"
destination_postal_code: "90210"
service_type: overnight
declared_value_cents: 100000
`), 0o600))

	out, _, err := execute(t, "quote", "--file", path, "-o", "json")
	require.NoError(t, err)

	var resp dto.QuoteResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "overnight", resp.ServiceType)
	assert.Equal(t, int64(1000), resp.InsuranceFeeCents)
	assert.Equal(t, int64(3225+484+1000), resp.TotalCostCents)
}

func TestQuoteCommand_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shipment.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"weight_kg": 2.5,
		"dimensions_cm": {"length": 30, "width": 20, "height": 15},
		"origin_postal_code": "10001",
		"destination_postal_code": "90210",
		"service_type": "overnight"
	}`), 0o600))

	out, _, err := execute(t, "quote", "--file", path, "--service", "standard", "-o", "json")
	require.NoError(t, err)

	var resp dto.QuoteResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, int64(1236), resp.TotalCostCents)
}

func TestCompareCommand(t *testing.T) {
	out, _, err := execute(t, "compare",
		"--weight", "2.5", "--dims", "30x20x15",
		"--from", "10001", "--to", "90210",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "SERVICE")
	assert.Contains(t, out, "$12.36")
	assert.Contains(t, out, "$18.55")
	assert.Contains(t, out, "$37.09")
	assert.Contains(t, out, "Cheapest: standard  Fastest: overnight")
}

func TestCommands_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "missing origin",
			args: []string{"quote", "--weight", "1", "--dims", "10x10x10", "--to", "90210"},
			want: "origin_postal_code",
		},
		{
			name: "invalid postal code",
			args: []string{"quote", "--weight", "1", "--dims", "10x10x10", "--from", "1000", "--to", "90210"},
			want: "invalid origin_postal_code",
		},
		{
			name: "overweight",
			args: []string{"quote", "--weight", "60", "--dims", "10x10x10", "--from", "10001", "--to", "90210"},
			want: "exceeds",
		},
		{
			name: "oversized dims",
			args: []string{"quote", "--weight", "1", "--dims", "400x10x10", "--from", "10001", "--to", "90210"},
			want: "per-side limit",
		},
		{
			name: "malformed dims",
			args: []string{"quote", "--weight", "1", "--dims", "10x10", "--from", "10001", "--to", "90210"},
			want: "--dims",
		},
		{
			name: "unknown output",
			args: []string{"quote", "--output", "xml"},
			want: "unknown output format",
		},
		{
			name: "missing file",
			args: []string{"compare", "--file", "/does/not/exist.yaml"},
			want: "read shipment file",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRootCommand_ErrorsWithoutUsage(t *testing.T) {
	stdout, stderr, err := execute(t, "quote", "--weight", "60", "--dims", "10x10x10", "--from", "10001", "--to", "90210")
	require.Error(t, err)

	assert.Contains(t, stderr, "Error:")
	assert.NotContains(t, stdout+stderr, "Usage:")

	root := newRootCmd(&bytes.Buffer{}, &bytes.Buffer{})
	assert.Equal(t, "shipquote", root.Use)
	assert.True(t, root.SilenceUsage)
}
