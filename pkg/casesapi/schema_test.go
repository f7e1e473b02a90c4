package casesapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayloadValidatesSchema(t *testing.T) {
	validator := NewJSONSchemaValidator()

	values, err := decodePayload(validator, SchemaHistorical, []byte(`{"2020-10-01": 0.1, "10-02-2020": 0.2}`))
	require.NoError(t, err)
	assert.Len(t, values, 2)

	_, err = decodePayload(validator, SchemaHistorical, []byte(`{"october": 0.1}`))
	assert.Error(t, err)

	_, err = decodePayload(validator, SchemaLatest, []byte(`[1, 2]`))
	assert.Error(t, err)

	values, err = decodePayload(validator, SchemaLatest, []byte(`{}`))
	require.NoError(t, err)
	assert.NotNil(t, values)
}

func TestValidatorUnknownSchema(t *testing.T) {
	err := NewJSONSchemaValidator().Validate("missing", map[string]any{})
	assert.Error(t, err)
}
