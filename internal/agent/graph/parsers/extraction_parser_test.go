package parsers

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/shipchat-core/server/internal/core/error"
)

const completeExtraction = `{
	"dateOfShipment": "2026-09-01",
	"fromAddress": {"addressLine1":"545 Market St","cityTown":"San Francisco","stateProvince":"CA","postalCode":"94105"},
	"toAddress": {"addressLine1":"1 Main St","cityTown":"New York","stateProvince":"NY","postalCode":"10001"},
	"parcel": {"length":10,"width":6,"height":4,"dimUnit":"IN","weight":2,"weightUnit":"LB"},
	"infoComplete": true,
	"missingFieldsExplanation": ""
}`

func TestParseExtractionPlainJSON(t *testing.T) {
	result, err := ParseExtraction(completeExtraction)
	require.NoError(t, err)

	assert.True(t, result.InfoComplete)
	assert.False(t, result.NeedsClarification())
	assert.Equal(t, "San Francisco", result.FromAddress.CityTown)
	assert.Equal(t, "10001", result.ToAddress.PostalCode)
	assert.Equal(t, 2.0, result.Parcel.Weight)
}

func TestParseExtractionFencedJSON(t *testing.T) {
	fenced := "```json\n" + completeExtraction + "\n```"
	result, err := ParseExtraction(fenced)
	require.NoError(t, err)
	assert.True(t, result.InfoComplete)
}

func TestParseExtractionSurroundingProse(t *testing.T) {
	noisy := "Here is the analysis you asked for:\n" + completeExtraction + "\nLet me know if you need anything else."
	result, err := ParseExtraction(noisy)
	require.NoError(t, err)
	assert.Equal(t, "CA", result.FromAddress.StateProvince)
}

func TestParseExtractionIncompleteShipment(t *testing.T) {
	result, err := ParseExtraction(`{
		"fromAddress": {"cityTown":"Austin"},
		"infoComplete": false,
		"missingFieldsExplanation": "I still need the destination address and the parcel weight."
	}`)
	require.NoError(t, err)

	assert.False(t, result.InfoComplete)
	assert.True(t, result.NeedsClarification())
	assert.Contains(t, result.MissingFieldsExplanation, "destination address")
}

func TestParseExtractionNoJSON(t *testing.T) {
	_, err := ParseExtraction("I'm sorry, I can't help with that.")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errx.ErrExtractionParse))
}

func TestParseExtractionMalformedJSON(t *testing.T) {
	_, err := ParseExtraction(`{"infoComplete": true,`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errx.ErrExtractionParse))
}

func TestParseExtractionOversizedContent(t *testing.T) {
	// A huge preamble followed by a JSON object past the cap must not parse
	padded := strings.Repeat("x", maxContentLen) + completeExtraction
	_, err := ParseExtraction(padded)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errx.ErrExtractionParse))
}
