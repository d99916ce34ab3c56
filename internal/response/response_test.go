package response

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourname/aquaguide/internal"
)

func TestSuccess_NullDataIsExplicit(t *testing.T) {
	b, err := json.Marshal(Success(nil, nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":null}`, string(b))
}

func TestFailureEnvelope(t *testing.T) {
	b, err := json.Marshal(Failure(404, internal.KindNotFound, "no active batch"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":null,"error":{"code":404,"kind":"not_found","message":"no active batch"}}`, string(b))

	b, err = json.Marshal(Unauthorized("unauthorized"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":null,"error":{"code":401,"kind":"unauthorized","message":"unauthorized"}}`, string(b))
}
