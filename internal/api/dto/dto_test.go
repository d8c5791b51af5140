package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/course-assistant/pkg/util/errorutil"
)

func TestFlexBool(t *testing.T) {
	tests := []struct {
		body string
		want bool
	}{
		{body: `{"course":"Go","simulateSuccess":true}`, want: true},
		{body: `{"course":"Go","simulateSuccess":"true"}`, want: true},
		{body: `{"course":"Go","simulateSuccess":false}`, want: false},
		{body: `{"course":"Go","simulateSuccess":"false"}`, want: false},
		{body: `{"course":"Go","simulateSuccess":"nope"}`, want: false},
		{body: `{"course":"Go"}`, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			var req OrderRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.SimulateSuccess.Bool())
		})
	}

	var req OrderRequest
	assert.Error(t, json.Unmarshal([]byte(`{"simulateSuccess":[1]}`), &req))
}

func TestChatRequestRejectsNonListHistory(t *testing.T) {
	var req ChatRequest
	assert.Error(t, json.Unmarshal([]byte(`{"prompt":"hi","history":"oops"}`), &req))
	assert.Error(t, json.Unmarshal([]byte(`{"prompt":"hi","history":[1,2]}`), &req))
	require.NoError(t, json.Unmarshal([]byte(`{"prompt":"hi","history":[{"role":"user","content":"x"}]}`), &req))
	assert.Len(t, req.History, 1)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(LoginRequest{Email: "a@b.c"}))

	err := Validate(LoginRequest{Email: "   "})
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidationFailed, de.Code)
	assert.Equal(t, "email cannot be blank", de.Details["email"])

	err = Validate(ChatRequest{History: []ChatTurn{{Role: "user"}, {Role: "robot"}}})
	require.Error(t, err)
	de = apperrors.ToDomainError(err)
	assert.Contains(t, de.Details, "history[1].role")
	assert.NotContains(t, de.Details, "history[0].role")

	assert.NoError(t, Validate(ChatRequest{}))
}
