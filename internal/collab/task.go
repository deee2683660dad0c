package collab

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/conclave-hq/conclave/internal/bus"
	"github.com/conclave-hq/conclave/internal/models"
)

// AssignTaskOpts holds parameters for assigning a task. Tasks are always
// directed at a specific agent, never broadcast.
type AssignTaskOpts struct {
	SessionID    string
	FromAgent    string
	ToAgent      string
	Title        string
	Description  string
	Priority     string // defaults to medium
	DueAt        *time.Time
	Requirements map[string]any
}

// AssignTask persists a task in the assigned state and appends a
// task-typed message from assigner to assignee as its ledger record.
func (e *Engine) AssignTask(ctx context.Context, opts AssignTaskOpts) (*models.Task, error) {
	unlock := e.lockSession(opts.SessionID)
	defer unlock()

	if opts.FromAgent == "" {
		return nil, validationf("task assigner is required")
	}
	if opts.ToAgent == "" {
		return nil, validationf("task assignee is required")
	}
	if opts.Title == "" {
		return nil, validationf("task title is required")
	}
	if opts.Description == "" {
		return nil, validationf("task description is required")
	}
	priority := opts.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	if !models.ValidPriority(priority) {
		return nil, validationf("unknown task priority %q", priority)
	}

	session, err := e.loadSession(ctx, opts.SessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionActive {
		return nil, conflictf("session %s is %s", session.ID, session.Status)
	}

	ok, err := e.isParticipant(ctx, opts.SessionID, opts.ToAgent)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, conflictf("agent %s is not a participant of session %s", opts.ToAgent, opts.SessionID)
	}

	reqs, err := marshalJSON(opts.Requirements)
	if err != nil {
		return nil, fmt.Errorf("collab: marshal task requirements: %w", err)
	}

	now := time.Now()
	task := models.Task{
		ID:           uuid.NewString(),
		SessionID:    opts.SessionID,
		FromAgent:    opts.FromAgent,
		ToAgent:      opts.ToAgent,
		Title:        opts.Title,
		Description:  opts.Description,
		Priority:     priority,
		DueAt:        opts.DueAt,
		Requirements: reqs,
		Status:       models.TaskAssigned,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := e.db.WithContext(ctx).Create(&task).Error; err != nil {
		return nil, fmt.Errorf("collab: assign task: %w", err)
	}

	// The ledger record for the assignment, distinct from the task row.
	if _, err := e.sendMessageLocked(ctx, SendMessageOpts{
		SessionID: opts.SessionID,
		FromAgent: opts.FromAgent,
		ToAgent:   opts.ToAgent,
		Content:   "Task assigned: " + opts.Title,
		Type:      models.MessageTask,
		Metadata:  map[string]any{"task_id": task.ID, "priority": priority},
	}); err != nil {
		return nil, fmt.Errorf("collab: task assignment message: %w", err)
	}

	e.writeEvent(ctx, opts.SessionID, models.EventTaskAssigned,
		fmt.Sprintf("task %q assigned to %s", task.Title, task.ToAgent),
		map[string]any{"task_id": task.ID})
	e.broadcast(bus.SessionRoom(opts.SessionID), models.EventTaskAssigned, &task)
	e.forward(sinkEvent(models.EventTaskAssigned, task.ID, session.OwnerUserID, map[string]any{
		"session_id": task.SessionID,
		"from":       task.FromAgent,
		"to":         task.ToAgent,
		"title":      task.Title,
	}))

	return &task, nil
}

// UpdateTaskStatus transitions a task. Completion stamps CompletedAt,
// stores the result, and emits a result-typed message from assignee back
// to assigner. Terminal tasks accept no further transitions.
func (e *Engine) UpdateTaskStatus(ctx context.Context, taskID, status string, result map[string]any) (*models.Task, error) {
	if !models.ValidTaskStatus(status) {
		return nil, validationf("unknown task status %q", status)
	}

	var task models.Task
	err := e.db.WithContext(ctx).First(&task, "id = ?", taskID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Entity: "task", ID: taskID}
	}
	if err != nil {
		return nil, fmt.Errorf("collab: load task %s: %w", taskID, err)
	}

	unlock := e.lockSession(task.SessionID)
	defer unlock()

	// Re-read under the lock so a concurrent transition cannot be lost.
	if err := e.db.WithContext(ctx).First(&task, "id = ?", taskID).Error; err != nil {
		return nil, fmt.Errorf("collab: load task %s: %w", taskID, err)
	}
	if models.TerminalTaskStatus(task.Status) {
		return nil, conflictf("task %s is already %s", taskID, task.Status)
	}
	if !models.LegalTaskTransition(task.Status, status) {
		return nil, conflictf("task %s cannot move from %s to %s", taskID, task.Status, status)
	}

	updates := map[string]any{
		"status":     status,
		"updated_at": time.Now(),
	}
	if status == models.TaskCompleted {
		res, err := marshalJSON(result)
		if err != nil {
			return nil, fmt.Errorf("collab: marshal task result: %w", err)
		}
		now := time.Now()
		updates["completed_at"] = &now
		updates["result"] = res
	}

	if err := e.db.WithContext(ctx).Model(&task).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("collab: update task %s: %w", taskID, err)
	}
	if err := e.db.WithContext(ctx).First(&task, "id = ?", taskID).Error; err != nil {
		return nil, fmt.Errorf("collab: reload task %s: %w", taskID, err)
	}

	if status == models.TaskCompleted {
		if _, err := e.sendMessageLocked(ctx, SendMessageOpts{
			SessionID: task.SessionID,
			FromAgent: task.ToAgent,
			ToAgent:   task.FromAgent,
			Content:   "Task completed: " + task.Title,
			Type:      models.MessageResult,
			Metadata:  map[string]any{"task_id": task.ID},
		}); err != nil {
			return nil, fmt.Errorf("collab: task result message: %w", err)
		}
	}

	e.writeEvent(ctx, task.SessionID, models.EventTaskUpdated,
		fmt.Sprintf("task %q is now %s", task.Title, status),
		map[string]any{"task_id": task.ID, "status": status})
	e.broadcast(bus.SessionRoom(task.SessionID), models.EventTaskUpdated, &task)
	e.forward(sinkEvent(models.EventTaskUpdated, task.ID, "", map[string]any{
		"session_id": task.SessionID,
		"status":     status,
	}))

	return &task, nil
}
