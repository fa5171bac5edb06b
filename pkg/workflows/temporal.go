// Package workflows connects the process to Temporal. Durable background
// work (retrying a cart clear the checkout could not finish) runs as
// Temporal workflows on the task queue configured by TemporalTaskQueue.
package workflows

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	"go.temporal.io/sdk/interceptor"
	temporallog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	"github.com/ghuser/storefront/pkg/config"
	"github.com/ghuser/storefront/pkg/logger"
)

// maxConcurrentActivities bounds the cart clears one worker runs at once.
const maxConcurrentActivities = 16

// Options locate the Temporal frontend and the storefront task queue.
type Options struct {
	HostPort  string
	Namespace string
	TaskQueue string
}

// OptionsFromConfig reads the Temporal settings of cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
		TaskQueue: cfg.TemporalTaskQueue,
	}
}

// TemporalClient starts storefront workflows and hosts their workers.
type TemporalClient struct {
	client    client.Client
	taskQueue string
	log       logger.Logger
}

// Dial connects to Temporal with tracing propagated into workflows and
// activities. Call Close on shutdown.
func Dial(ctx context.Context, opts Options, log logger.Logger) (*TemporalClient, error) {
	tracing, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{
		Tracer: otel.Tracer("storefront/workflows"),
	})
	if err != nil {
		return nil, fmt.Errorf("temporal tracing interceptor: %w", err)
	}

	c, err := client.DialContext(ctx, client.Options{
		HostPort:     opts.HostPort,
		Namespace:    opts.Namespace,
		Logger:       temporallog.NewStructuredLogger(log.With("component", "temporal").ToSlog()),
		Interceptors: []interceptor.ClientInterceptor{tracing},
	})
	if err != nil {
		return nil, fmt.Errorf("dial temporal %s: %w", opts.HostPort, err)
	}

	log.InfoContext(ctx, "temporal connected", "host_port", opts.HostPort, "namespace", opts.Namespace, "task_queue", opts.TaskQueue)
	return &TemporalClient{client: c, taskQueue: opts.TaskQueue, log: log}, nil
}

// Start launches workflow under id. A run already using id is returned
// instead of starting a second one.
func (tc *TemporalClient) Start(ctx context.Context, id string, workflow any, args ...any) (client.WorkflowRun, error) {
	run, err := tc.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                       id,
		TaskQueue:                tc.taskQueue,
		WorkflowIDConflictPolicy: enumspb.WORKFLOW_ID_CONFLICT_POLICY_USE_EXISTING,
	}, workflow, args...)
	if err != nil {
		return nil, fmt.Errorf("start workflow %s: %w", id, err)
	}
	return run, nil
}

// NewWorker returns a worker polling the storefront task queue.
func (tc *TemporalClient) NewWorker() worker.Worker {
	return worker.New(tc.client, tc.taskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: maxConcurrentActivities,
	})
}

func (tc *TemporalClient) Ping(ctx context.Context) error {
	if _, err := tc.client.CheckHealth(ctx, &client.CheckHealthRequest{}); err != nil {
		return fmt.Errorf("temporal health: %w", err)
	}
	return nil
}

func (tc *TemporalClient) Close() {
	tc.client.Close()
	tc.log.Info("temporal connection closed")
}
