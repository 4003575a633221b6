// Package camundatest provides a JobClient that records the commands a handler sends, so
// worker tests can assert on complete, fail and throw without a broker.
package camundatest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"google.golang.org/grpc"
)

// Completed is a sent complete command.
type Completed struct {
	JobKey    int64
	Variables map[string]interface{}
}

// Failed is a sent fail command.
type Failed struct {
	JobKey       int64
	Retries      int32
	ErrorMessage string
	Variables    map[string]interface{}
}

// Thrown is a sent throw-error command.
type Thrown struct {
	JobKey       int64
	ErrorCode    string
	ErrorMessage string
	Variables    map[string]interface{}
}

// JobClient implements worker.JobClient on top of a recording gateway.
type JobClient struct {
	gateway *gateway
}

func NewJobClient() *JobClient {
	return &JobClient{gateway: &gateway{}}
}

func (c *JobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(c.gateway, neverRetry)
}

func (c *JobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(c.gateway, neverRetry)
}

func (c *JobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c.gateway, neverRetry)
}

func (c *JobClient) Completed() []Completed {
	c.gateway.mu.Lock()
	defer c.gateway.mu.Unlock()
	return append([]Completed(nil), c.gateway.completed...)
}

func (c *JobClient) Failed() []Failed {
	c.gateway.mu.Lock()
	defer c.gateway.mu.Unlock()
	return append([]Failed(nil), c.gateway.failed...)
}

func (c *JobClient) Thrown() []Thrown {
	c.gateway.mu.Lock()
	defer c.gateway.mu.Unlock()
	return append([]Thrown(nil), c.gateway.thrown...)
}

// NewJob builds an activated job carrying the given variables.
func NewJob(key int64, taskType string, retries int32, variables interface{}) entities.Job {
	raw, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               taskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "user-onboarding",
		ElementId:          "Activity_" + taskType,
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            retries,
		Variables:          string(raw),
	}}
}

func neverRetry(context.Context, error) bool { return false }

type gateway struct {
	pb.GatewayClient

	mu        sync.Mutex
	completed []Completed
	failed    []Failed
	thrown    []Thrown
}

func (g *gateway) CompleteJob(_ context.Context, in *pb.CompleteJobRequest, _ ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completed = append(g.completed, Completed{JobKey: in.GetJobKey(), Variables: decode(in.GetVariables())})
	return &pb.CompleteJobResponse{}, nil
}

func (g *gateway) FailJob(_ context.Context, in *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failed = append(g.failed, Failed{
		JobKey:       in.GetJobKey(),
		Retries:      in.GetRetries(),
		ErrorMessage: in.GetErrorMessage(),
		Variables:    decode(in.GetVariables()),
	})
	return &pb.FailJobResponse{}, nil
}

func (g *gateway) ThrowError(_ context.Context, in *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.thrown = append(g.thrown, Thrown{
		JobKey:       in.GetJobKey(),
		ErrorCode:    in.GetErrorCode(),
		ErrorMessage: in.GetErrorMessage(),
		Variables:    decode(in.GetVariables()),
	})
	return &pb.ThrowErrorResponse{}, nil
}

func decode(raw string) map[string]interface{} {
	if raw == "" {
		return nil
	}
	vars := map[string]interface{}{}
	_ = json.Unmarshal([]byte(raw), &vars)
	return vars
}
