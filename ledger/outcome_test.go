package ledger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeObjectResponse(t *testing.T) {
	var o Outcome
	err := json.Unmarshal([]byte(`{"Result":200,"Response":{"ID":"abc","BlockID":"1024","Status":"Executed","Nonce":3}}`), &o)
	require.NoError(t, err)

	assert.True(t, o.IsOK())
	assert.Equal(t, "1024", o.BlockID())
	assert.Equal(t, StatusExecuted, o.Status())
	assert.Equal(t, "abc", o.TxID())

	fields, ok := o.Fields()
	require.True(t, ok)
	assert.Equal(t, float64(3), fields["Nonce"])

	_, ok = o.Message()
	assert.False(t, ok)

	var decoded struct {
		BlockID string `json:"BlockID"`
	}
	require.NoError(t, o.Decode(&decoded))
	assert.Equal(t, "1024", decoded.BlockID)
}

func TestOutcomeNumericBlockID(t *testing.T) {
	o := &Outcome{Result: ResultOK, Response: json.RawMessage(`{"BlockID":2048}`)}
	assert.Equal(t, "2048", o.BlockID())
}

func TestOutcomeMessageResponse(t *testing.T) {
	o := NewMessageOutcome(ResultOK, MessageNotFound)

	msg, ok := o.Message()
	require.True(t, ok)
	assert.Equal(t, MessageNotFound, msg)

	_, ok = o.Fields()
	assert.False(t, ok)
	assert.Equal(t, "", o.Status())
	assert.Equal(t, "", o.BlockID())
}

func TestOutcomeNil(t *testing.T) {
	var o *Outcome

	assert.False(t, o.IsOK())
	assert.Equal(t, "", o.Status())
	assert.Equal(t, "<nil>", o.String())
	assert.Error(t, o.Decode(&struct{}{}))
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "Result=500", (&Outcome{Result: 500}).String())
	assert.Equal(t, `Result=200 Response="ok"`, NewMessageOutcome(200, "ok").String())
}
