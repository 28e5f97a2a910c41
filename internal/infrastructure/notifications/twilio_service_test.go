package notifications

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/aquadic/souq4u/internal/logutil"
)

type fakeCreator struct {
	params *twilioApi.CreateMessageParams
	err    error
}

func (f *fakeCreator) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM123"
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

func TestTwilioService_SendSMS(t *testing.T) {
	tests := []struct {
		name        string
		from        string
		apiErr      error
		expectSent  bool
		expectError bool
	}{
		{name: "unconfigured logs only", from: ""},
		{name: "sends through api", from: "+15005550006", expectSent: true},
		{name: "api failure", from: "+15005550006", apiErr: errors.New("invalid number"), expectSent: true, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creator := &fakeCreator{err: tt.apiErr}
			svc := &TwilioServiceImpl{api: creator, fromNumber: tt.from, logger: logutil.Discard()}

			err := svc.SendSMS("201012345678", "Your code is 123456")
			if tt.expectError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			if !tt.expectSent {
				assert.Nil(t, creator.params)
				return
			}
			require.NotNil(t, creator.params)
			assert.Equal(t, "+201012345678", *creator.params.To)
			assert.Equal(t, tt.from, *creator.params.From)
			assert.Equal(t, "Your code is 123456", *creator.params.Body)
		})
	}
}

func TestNewTwilioService(t *testing.T) {
	svc := NewTwilioService("AC123", "token", "", nil)
	assert.NotNil(t, svc.api)
	assert.NoError(t, svc.SendSMS("201012345678", "hi"))
}
