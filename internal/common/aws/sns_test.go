package aws

import (
	"context"
	stderrors "errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	input *sns.PublishInput
	err   error
}

func (f *fakePublisher) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: awssdk.String("msg-1")}, nil
}

func TestSendSMS(t *testing.T) {
	pub := &fakePublisher{}
	sender := NewSMSSenderWithClient(pub, "Onboard")

	id, err := sender.SendSMS(context.Background(), "+12345678900", "hello")
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)

	require.NotNil(t, pub.input)
	assert.Equal(t, "+12345678900", awssdk.ToString(pub.input.PhoneNumber))
	assert.Equal(t, "hello", awssdk.ToString(pub.input.Message))
	assert.Equal(t, "Transactional", awssdk.ToString(pub.input.MessageAttributes["AWS.SNS.SMS.SMSType"].StringValue))
	assert.Equal(t, "Onboard", awssdk.ToString(pub.input.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))
}

func TestSendSMS_Error(t *testing.T) {
	sender := NewSMSSenderWithClient(&fakePublisher{err: stderrors.New("throttled")}, "")

	_, err := sender.SendSMS(context.Background(), "+12345678900", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
}
