package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/openlearn/courseware/internal/session"
)

type CoursesCmd struct {
	Server string `help:"Server URL override" default:""`
}

func (c *CoursesCmd) Run(ctx context.Context, globals *Globals) error {
	stack, err := buildStack(globals, c.Server)
	if err != nil {
		return err
	}

	// The catalog is public; no session needed
	courses, err := stack.client.Courses(ctx)
	if err != nil {
		return fmt.Errorf("failed to list courses: %w", err)
	}

	if len(courses) == 0 {
		fmt.Println("No courses available.")
		return nil
	}
	for _, course := range courses {
		fmt.Printf("%-10s %-40s %s\n", course.Code, course.Title, course.Instructor)
	}
	return nil
}

type EnrollCmd struct {
	Server   string `help:"Server URL override" default:""`
	CourseID string `arg:"" help:"Course to enroll in"`
}

func (e *EnrollCmd) Run(ctx context.Context, globals *Globals) error {
	stack, err := buildStack(globals, e.Server)
	if err != nil {
		return err
	}
	stack.restore(ctx)

	if !stack.store.Snapshot().Authenticated() {
		return session.ErrNotAuthenticated
	}

	enrollment, err := stack.client.Enroll(ctx, e.CourseID)
	if err != nil {
		return fmt.Errorf("failed to enroll: %w", err)
	}

	fmt.Printf("Enrolled in %s (enrollment %s)\n", enrollment.CourseID, enrollment.ID)
	return nil
}

type SubmitCmd struct {
	Server   string `help:"Server URL override" default:""`
	CourseID string `arg:"" help:"Course the task belongs to"`
	TaskID   string `arg:"" help:"Task to submit for"`
	File     string `help:"File with the submission content" type:"existingfile"`
	Content  string `help:"Inline submission content"`
}

func (s *SubmitCmd) Run(ctx context.Context, globals *Globals) error {
	content, err := s.submissionContent()
	if err != nil {
		return err
	}

	stack, err := buildStack(globals, s.Server)
	if err != nil {
		return err
	}
	stack.restore(ctx)

	if !stack.store.Snapshot().Authenticated() {
		return session.ErrNotAuthenticated
	}

	submission, err := stack.client.SubmitTask(ctx, s.CourseID, s.TaskID, content)
	if err != nil {
		return fmt.Errorf("failed to submit: %w", err)
	}

	fmt.Printf("Submitted %s for task %s\n", submission.ID, submission.TaskID)
	return nil
}

func (s *SubmitCmd) submissionContent() (string, error) {
	if s.Content != "" {
		return s.Content, nil
	}
	if s.File == "" {
		return "", fmt.Errorf("either --content or --file is required")
	}
	data, err := os.ReadFile(s.File)
	if err != nil {
		return "", fmt.Errorf("failed to read submission file: %w", err)
	}
	return string(data), nil
}
