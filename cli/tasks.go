// ABOUTME: Task and project CLI commands
// ABOUTME: Quick todos plus lightweight project grouping
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/DouniaBN/aieve-creator-crm-sub000/models"
	"github.com/DouniaBN/aieve-creator-crm-sub000/session"
)

// AddTaskCommand creates a task from the remaining arguments.
func AddTaskCommand(ctx context.Context, scope *session.Scope, args []string) error {
	content := strings.TrimSpace(strings.Join(args, " "))
	if content == "" {
		return fmt.Errorf("task content is required")
	}

	task, err := scope.CreateTask(ctx, content)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	fmt.Printf("✓ Task created (ID: %s)\n", task.ID)
	return nil
}

// ListTasksCommand prints the recent task history.
func ListTasksCommand(ctx context.Context, scope *session.Scope) error {
	tasks, err := scope.Store.Tasks.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	if len(tasks) == 0 {
		fmt.Println("No tasks found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, task := range tasks {
		mark := " "
		if task.Completed {
			mark = "x"
		}
		_, _ = fmt.Fprintf(w, "[%s]\t%s\t%s\n", mark, task.Content, task.ID)
	}
	return w.Flush()
}

// ToggleTaskCommand flips a task's completed flag.
func ToggleTaskCommand(ctx context.Context, scope *session.Scope, args []string) error {
	fs := flag.NewFlagSet("toggle-task", flag.ExitOnError)
	id := fs.String("id", "", "Task ID (required)")
	_ = fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	task, err := scope.ToggleTask(ctx, *id)
	if err != nil {
		return fmt.Errorf("failed to toggle task: %w", err)
	}

	state := "open"
	if task.Completed {
		state = "done"
	}
	fmt.Printf("✓ Task marked %s\n", state)
	return nil
}

// DeleteTaskCommand removes a task.
func DeleteTaskCommand(ctx context.Context, scope *session.Scope, args []string) error {
	fs := flag.NewFlagSet("delete-task", flag.ExitOnError)
	id := fs.String("id", "", "Task ID (required)")
	_ = fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	if err := scope.DeleteTask(ctx, *id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	fmt.Println("✓ Task deleted")
	return nil
}

// AddProjectCommand creates a project.
func AddProjectCommand(ctx context.Context, scope *session.Scope, args []string) error {
	fs := flag.NewFlagSet("add-project", flag.ExitOnError)
	name := fs.String("name", "", "Project name (required)")
	description := fs.String("description", "", "Project description")
	_ = fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("--name is required")
	}

	project, err := scope.CreateProject(ctx, models.Project{Name: *name, Description: *description})
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	fmt.Printf("✓ Project created: %s (ID: %s)\n", project.Name, project.ID)
	return nil
}

// ListProjectsCommand lists projects.
func ListProjectsCommand(ctx context.Context, scope *session.Scope) error {
	projects, err := scope.Store.Projects.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	if len(projects) == 0 {
		fmt.Println("No projects found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tSTATUS\tID")
	_, _ = fmt.Fprintln(w, "----\t------\t--")
	for _, p := range projects {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.Status, p.ID)
	}
	return w.Flush()
}

// ArchiveProjectCommand marks a project archived.
func ArchiveProjectCommand(ctx context.Context, scope *session.Scope, args []string) error {
	fs := flag.NewFlagSet("archive-project", flag.ExitOnError)
	id := fs.String("id", "", "Project ID (required)")
	_ = fs.Parse(args)

	if *id == "" {
		return fmt.Errorf("--id is required")
	}

	project, err := scope.UpdateProject(ctx, *id, map[string]any{"status": models.ProjectArchived})
	if err != nil {
		return fmt.Errorf("failed to archive project: %w", err)
	}

	fmt.Printf("✓ Project archived: %s\n", project.Name)
	return nil
}
