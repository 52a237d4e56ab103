package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/FloFRCD/nutrition-app-sub001/nutrition"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNutricalcText(t *testing.T) {
	out, err := run(t, "--sex", "male", "--age", "30", "--weight", "80", "--height", "180", "--activity", "moderate", "--goal", "lose")
	require.NoError(t, err)
	assert.Regexp(t, `BMR:\s+1780 kcal`, out)
	assert.Regexp(t, `Target:\s+2345 kcal`, out)
	assert.Regexp(t, `lunch\s+821 kcal`, out)
}

func TestNutricalcJSON(t *testing.T) {
	out, err := run(t, "--sex", "male", "--age", "30", "--weight", "80", "--height", "180", "--activity", "moderate", "--goal", "lose", "--json")
	require.NoError(t, err)

	var needs nutrition.Needs
	require.NoError(t, json.Unmarshal([]byte(out), &needs))
	assert.InDelta(t, 1780, needs.BMR, 1e-6)
	assert.InDelta(t, 2345.15, needs.Calories, 1e-6)
	assert.InDelta(t, needs.Calories, needs.Meals.Total(), 1e-6)
}

func TestNutricalcRejectsBadInput(t *testing.T) {
	_, err := run(t, "--sex", "other", "--age", "30", "--weight", "80", "--height", "180")
	assert.Error(t, err)

	_, err = run(t, "--sex", "female", "--age", "3", "--weight", "80", "--height", "180")
	assert.ErrorIs(t, err, nutrition.ErrInvalidProfile)

	_, err = run(t, "--sex", "female", "--age", "30")
	assert.Error(t, err)
}
