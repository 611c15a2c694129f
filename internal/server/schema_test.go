package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateJSONAgainstSchema(t *testing.T) {
	schema := BuildDocumentJSONSchema()

	valid := []string{
		`{}`,
		`{"title": "A", "author": null}`,
		`{"num_pages": 0, "total_words": 500}`,
		`{"creation_date": "2024-01-15T09:30:45Z"}`,
	}
	for _, body := range valid {
		assert.NoError(t, ValidateJSONAgainstSchema(schema, []byte(body)), "body %s", body)
	}

	invalid := []string{
		`{"unknown_field": 1}`,
		`{"num_pages": -1}`,
		`{"title": 42}`,
		`{"num_pages": "three"}`,
		`[]`,
	}
	for _, body := range invalid {
		assert.Error(t, ValidateJSONAgainstSchema(schema, []byte(body)), "body %s", body)
	}
}

func TestValidateJSONAgainstSchema_MalformedInput(t *testing.T) {
	err := ValidateJSONAgainstSchema(BuildDocumentJSONSchema(), []byte(`{broken`))
	require.Error(t, err)
}
