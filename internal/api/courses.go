package api

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Course is a catalog entry.
type Course struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Instructor  string `json:"instructor"`
}

// Enrollment records a user's membership in a course.
type Enrollment struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"courseId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Submission is a task submission by the current user.
type Submission struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"taskId"`
	Content     string    `json:"content"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Courses lists the public course catalog. Responses are served through
// the HTTP cache; no session is required.
func (c *Client) Courses(ctx context.Context) ([]Course, error) {
	var courses []Course
	if err := c.getJSON(ctx, c.catalogHTTP, "/v1/courses", "list courses", "", &courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// Course fetches a single catalog entry.
func (c *Client) Course(ctx context.Context, courseID string) (*Course, error) {
	var course Course
	path := "/v1/courses/" + url.PathEscape(courseID)
	if err := c.getJSON(ctx, c.catalogHTTP, path, "get course", "", &course); err != nil {
		return nil, err
	}
	return &course, nil
}

// Enroll enrolls the current user in a course. Requires a bound session.
func (c *Client) Enroll(ctx context.Context, courseID string) (*Enrollment, error) {
	client, err := c.resource()
	if err != nil {
		return nil, err
	}

	payload := struct {
		CourseID string `json:"courseId"`
	}{CourseID: courseID}

	var enrollment Enrollment
	path := fmt.Sprintf("/v1/courses/%s/enrollments", url.PathEscape(courseID))
	if err := c.postJSON(ctx, client, path, "enroll", "", payload, &enrollment); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Enrollments lists the current user's enrollments.
func (c *Client) Enrollments(ctx context.Context) ([]Enrollment, error) {
	client, err := c.resource()
	if err != nil {
		return nil, err
	}

	var enrollments []Enrollment
	if err := c.getJSON(ctx, client, "/v1/enrollments", "list enrollments", "", &enrollments); err != nil {
		return nil, err
	}
	return enrollments, nil
}

// SubmitTask submits work for a course task.
func (c *Client) SubmitTask(ctx context.Context, courseID, taskID, content string) (*Submission, error) {
	client, err := c.resource()
	if err != nil {
		return nil, err
	}

	payload := struct {
		Content string `json:"content"`
	}{Content: content}

	var submission Submission
	path := fmt.Sprintf("/v1/courses/%s/tasks/%s/submissions",
		url.PathEscape(courseID), url.PathEscape(taskID))
	if err := c.postJSON(ctx, client, path, "submit task", "", payload, &submission); err != nil {
		return nil, err
	}
	return &submission, nil
}
