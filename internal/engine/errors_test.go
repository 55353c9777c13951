package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/ecosoul/internal/resource"
)

func TestErrorInfo_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	info := &ErrorInfo{Code: CodeRead, Message: "could not read state", Cause: cause}

	assert.Equal(t, "READ: could not read state", info.Error())
	assert.ErrorIs(t, info, cause)
}

func TestIsCode_Wrapped(t *testing.T) {
	err := fmt.Errorf("cycle: %w", errInProgress())

	assert.True(t, IsCode(err, CodeInProgress))
	assert.True(t, IsInProgress(err))
	assert.False(t, IsCode(err, CodeRead))
	assert.False(t, IsCode(errors.New("plain"), CodeRead))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"not connected", &resource.SubmissionError{Reason: resource.ReasonNotConnected}, CodeConnection},
		{"wrong network", &resource.SubmissionError{Reason: resource.ReasonWrongNetwork}, CodeNetworkMismatch},
		{"invalid payload", &resource.SubmissionError{Reason: resource.ReasonInvalidPayload}, CodeValidation},
		{"rejected", &resource.SubmissionError{Reason: resource.ReasonRejected}, CodeSubmission},
		{"reverted", &resource.ConfirmationError{Reason: "token 9 does not exist"}, CodeConfirmation},
		{"read", &resource.ReadError{Identifier: 7, Err: errors.New("unreachable")}, CodeRead},
		{"unknown", errors.New("mystery"), CodeSubmission},
		{"already classified", errInProgress(), CodeInProgress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := classify(tt.err)
			assert.Equal(t, tt.want, info.Code)
			assert.True(t, errors.Is(info, tt.err) || info == tt.err)
		})
	}
}

func TestClassify_KeepsMessages(t *testing.T) {
	info := classify(&resource.SubmissionError{
		Reason:  resource.ReasonWrongNetwork,
		Message: "please switch to Sepolia; current network: Ethereum",
	})
	assert.Equal(t, "please switch to Sepolia; current network: Ethereum", info.Message)

	info = classify(&resource.ReadError{Identifier: 7, Err: errors.New("unreachable")})
	assert.Equal(t, "could not read state: unreachable", info.Message)
}
