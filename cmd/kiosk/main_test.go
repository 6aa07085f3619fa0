package main

import (
	"testing"

	"github.com/JudyMarie-Snts/CAPSTONE-WEBSITE/posclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItems(t *testing.T) {
	items, err := parseItems([]string{"Pork=2", "Rice=1", "Kimchi=0"})
	require.NoError(t, err)
	assert.Equal(t, []posclient.RefillItem{
		{Name: "Pork", Quantity: 2},
		{Name: "Rice", Quantity: 1},
		{Name: "Kimchi", Quantity: 0},
	}, items)

	_, err = parseItems([]string{"Pork"})
	assert.Error(t, err)

	_, err = parseItems([]string{"Pork=-1"})
	assert.Error(t, err)
}
