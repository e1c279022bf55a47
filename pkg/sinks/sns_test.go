package sinks

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSNSSinkSendSuccess(t *testing.T) {
	client := &fakeSNSClient{}
	sink := &snsSink{
		id:       "topic",
		typ:      TypeSNS,
		topicARN: "arn:aws:sns:::deletes",
		client:   client,
		log:      noopLogger{},
	}

	err := sink.Send(context.Background(), DeletionEvent{
		Table:     "Orders",
		RecordIDs: []string{"rec1"},
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:::deletes" {
		t.Fatalf("TopicArn = %s", got)
	}
	attr, ok := client.input.MessageAttributes["table"]
	if !ok || attr.StringValue == nil || aws.ToString(attr.StringValue) != "Orders" {
		t.Fatalf("table attribute missing or wrong: %#v", attr)
	}
}

func TestSNSSinkSendFailure(t *testing.T) {
	client := &fakeSNSClient{err: errors.New("topic gone")}
	sink := &snsSink{
		id:       "topic",
		typ:      TypeSNS,
		topicARN: "arn:aws:sns:::deletes",
		client:   client,
		log:      noopLogger{},
	}

	if err := sink.Send(context.Background(), DeletionEvent{}); err == nil {
		t.Fatalf("expected error from failing client")
	}
}
