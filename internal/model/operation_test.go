package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOperationRequestOmitsUnusedFields(t *testing.T) {
	b, err := json.Marshal(OperationRequest{Op: OpSwap, Pool: "x", Account: "0x01", Amount: "5"})
	require.NoError(t, err)
	require.JSONEq(t, `{"op":"swap","pool":"x","account":"0x01","amount":"5"}`, string(b))
}

func TestOperationResultExecutedFlag(t *testing.T) {
	executed := false
	b, err := json.Marshal(OperationResult{Seq: 3, Op: OpArbitrage, OK: true, Executed: &executed})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.Equal(t, false, decoded["executed"])
	require.NotContains(t, decoded, "profit")
}
