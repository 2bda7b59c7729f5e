package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/skosovsky/tutorkit"
	"github.com/skosovsky/tutorkit/action"
	"github.com/skosovsky/tutorkit/board"
	"github.com/skosovsky/tutorkit/code"
	"github.com/skosovsky/tutorkit/internal/config"
	"github.com/skosovsky/tutorkit/lesson"
	"github.com/skosovsky/tutorkit/tools"
	"github.com/skosovsky/tutorkit/workspace"
)

// workbench is the workspace of one tutoring session and the tools over it.
type workbench struct {
	board    *board.Board
	gate     *action.Gate
	queue    *action.Queue
	editor   *code.Editor
	notes    *lesson.Store
	toolset  *tools.Toolset
	registry *tutorkit.Registry
}

func limits(cfg config.SyncConfig) workspace.Limits {
	return workspace.Limits{Shapes: cfg.MaxShapes, Clusters: cfg.MaxClusters, Selected: cfg.MaxSelected}
}

// newWorkbench builds the workspace. conv may be nil when no conversation is attached.
func newWorkbench(cfg *config.Config, log *slog.Logger, conv func() tools.Conversation) (*workbench, error) {
	kinds := make([]action.Kind, 0, len(cfg.Tools.Approval))
	for _, k := range cfg.Tools.Approval {
		if !slices.Contains(action.Kinds(), action.Kind(k)) {
			return nil, fmt.Errorf("tools.approval: unknown action kind %q", k)
		}
		kinds = append(kinds, action.Kind(k))
	}

	wb := &workbench{
		board: board.New(board.WithLogger(log), board.WithLimits(limits(cfg.Sync))),
		gate: action.NewGate(kinds, action.OnApprovalRequested(func(a action.Approval) {
			log.Warn("approval requested", "id", a.ID, "kind", a.Kind, "summary", a.Summary)
		})),
		editor: code.NewEditor(code.WithFile(workspace.CodeFile{Name: "main.py", Language: code.DefaultLanguage})),
		notes:  lesson.NewStore(lesson.EmptyTemplate),
	}

	d := action.NewDispatcher(wb.board, action.WithGate(wb.gate), action.WithLogger(log))
	var actions tools.Dispatcher = d
	if cfg.Tools.Ordered {
		wb.queue = action.NewQueue(d, 0)
		actions = wb.queue
	}

	wb.registry = tutorkit.NewRegistry(
		tutorkit.WithDefaultTimeout(cfg.Tools.Timeout),
		tutorkit.WithMaxConcurrency(cfg.Tools.MaxConcurrency),
		tutorkit.WithRecoverPanics(true),
	)
	obs := tutorkit.NewObserver(
		tutorkit.WithObserverLogger(log),
		tutorkit.WithLogLimit(cfg.Tools.LogLines),
	)
	wb.toolset = tools.New(tools.Deps{
		Actions:      actions,
		Viewer:       wb.board,
		Editor:       wb.editor,
		Sandbox:      code.NewExecSandbox(cfg.Sandbox.Command, cfg.Sandbox.Args, cfg.Sandbox.Timeout, log),
		Notes:        wb.notes,
		Conversation: conv,
	}, tools.WithObserver(obs), tools.WithLogger(log))
	if err := wb.toolset.Register(wb.registry); err != nil {
		wb.closeQueue()
		return nil, err
	}
	return wb, nil
}

func (wb *workbench) closeQueue() {
	if wb.queue != nil {
		wb.queue.Close()
	}
}

// Close waits for running tools and stops the action queue.
func (wb *workbench) Close(ctx context.Context) error {
	err := wb.registry.Shutdown(ctx)
	wb.closeQueue()
	return err
}
