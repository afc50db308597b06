// Package activity provides shared infrastructure for Temporal activity
// implementations: context extraction, safe logging, and heartbeats that work
// both inside a Temporal worker and in plain test contexts.
package activity

import (
	"context"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
)

// WorkflowContext carries the workflow execution identifiers an activity may
// attach to its logs and reports.
type WorkflowContext struct {
	WorkflowID string
	RunID      string
	ActivityID string
}

// BaseActivities is embedded by domain activity structs for the shared
// context and logging helpers.
type BaseActivities struct{}

// NewBaseActivities returns the shared activity infrastructure.
func NewBaseActivities() BaseActivities { return BaseActivities{} }

// GetWorkflowContext extracts workflow execution details from the activity
// context. Outside a Temporal activity (plain tests), activity.GetInfo
// panics; the recover path substitutes synthetic identifiers instead.
func (b BaseActivities) GetWorkflowContext(ctx context.Context) WorkflowContext {
	var wfCtx WorkflowContext

	func() {
		defer func() {
			if recover() != nil {
				wfCtx.WorkflowID = "test-workflow"
				wfCtx.RunID = "test-run-" + uuid.New().String()[:8]
				wfCtx.ActivityID = "test-activity"
			}
		}()

		info := activity.GetInfo(ctx)
		wfCtx.WorkflowID = info.WorkflowExecution.ID
		wfCtx.RunID = info.WorkflowExecution.RunID
		wfCtx.ActivityID = info.ActivityID
	}()

	return wfCtx
}

// RecordHeartbeat safely records an activity heartbeat; ignored outside an
// activity context.
func (b BaseActivities) RecordHeartbeat(ctx context.Context, details ...any) {
	RecordHeartbeat(ctx, details...)
}

// SafeLog logs at INFO through the activity logger, silently ignoring
// non-activity contexts.
func SafeLog(ctx context.Context, msg string, keyvals ...any) {
	defer func() {
		if recover() != nil {
			// Not an activity context, ignore.
		}
	}()
	activity.GetLogger(ctx).Info(msg, keyvals...)
}

// SafeLogError logs at ERROR through the activity logger, silently ignoring
// non-activity contexts.
func SafeLogError(ctx context.Context, msg string, keyvals ...any) {
	defer func() {
		if recover() != nil {
			// Not an activity context, ignore.
		}
	}()
	activity.GetLogger(ctx).Error(msg, keyvals...)
}

// RecordHeartbeat safely records an activity heartbeat; ignored outside an
// activity context.
func RecordHeartbeat(ctx context.Context, details ...any) {
	defer func() {
		if recover() != nil {
			// Not an activity context, ignore.
		}
	}()
	activity.RecordHeartbeat(ctx, details...)
}
