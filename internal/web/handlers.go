package web

import (
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/openlearn/courseware/internal/api"
	"github.com/openlearn/courseware/internal/gate"
	"github.com/openlearn/courseware/internal/models"
	"github.com/openlearn/courseware/internal/session"
)

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}} - Courseware</title></head>
<body>
<h1>{{.Title}}</h1>
{{if .Error}}<p class="error">{{.Error}}</p>{{end}}
{{if .User}}<p>Signed in as {{.User.DisplayName}} ({{.User.Role}})</p>
<form method="post" action="/logout"><button type="submit">Sign out</button></form>{{end}}
{{block "content" .}}{{end}}
</body></html>`))

var loginTmpl = template.Must(template.Must(pageTmpl.Clone()).Parse(`{{define "content"}}
<form method="post" action="/login">
<input type="hidden" name="return_to" value="{{.ReturnTo}}">
<label>Username <input name="identifier" autocomplete="username"></label>
<label>Password <input name="secret" type="password" autocomplete="current-password"></label>
<button type="submit">Sign in</button>
</form>
{{end}}`))

var coursesTmpl = template.Must(template.Must(pageTmpl.Clone()).Parse(`{{define "content"}}
<h2>Catalog</h2>
<ul>{{range .Courses}}<li>{{.Code}}: {{.Title}}</li>{{else}}<li>No courses yet.</li>{{end}}</ul>
<h2>Your enrollments</h2>
<ul>{{range .Enrollments}}<li>{{.CourseID}}</li>{{else}}<li>You are not enrolled in any course.</li>{{end}}</ul>
{{end}}`))

type pageData struct {
	Title       string
	Error       string
	User        *models.User
	ReturnTo    string
	Courses     []api.Course
	Enrollments []api.Enrollment
}

func (s *Server) render(w http.ResponseWriter, status int, tmpl *template.Template, data pageData) {
	if data.User == nil {
		if snap := s.store.Snapshot(); snap.User != nil {
			data.User = snap.User
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		s.log.Error().Err(err).Msg("failed to render page")
	}
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	if snap.Authenticated() {
		http.Redirect(w, r, gate.LandingPath(snap.User.Role), http.StatusFound)
		return
	}
	http.Redirect(w, r, gate.LoginPath, http.StatusFound)
}

func (s *Server) loginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, loginTmpl, pageData{
		Title:    "Sign in",
		ReturnTo: safeReturnPath(r.URL.Query().Get("return_to")),
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	identifier := r.PostFormValue("identifier")
	secret := r.PostFormValue("secret")
	returnTo := safeReturnPath(r.PostFormValue("return_to"))

	err := s.store.Login(r.Context(), identifier, secret)
	switch {
	case err == nil:
		snap := s.store.Snapshot()
		target := returnTo
		if target == "" {
			target = gate.LandingPath(snap.User.Role)
		}
		http.Redirect(w, r, target, http.StatusFound)

	case errors.Is(err, session.ErrInvalidCredentials):
		s.render(w, http.StatusUnauthorized, loginTmpl, pageData{
			Title:    "Sign in",
			Error:    "Unknown username or password.",
			ReturnTo: returnTo,
		})

	case errors.Is(err, session.ErrAlreadyAuthenticated):
		http.Redirect(w, r, "/", http.StatusFound)

	case session.IsNetwork(err):
		s.render(w, http.StatusServiceUnavailable, loginTmpl, pageData{
			Title:    "Sign in",
			Error:    "Could not reach the server. Please try again.",
			ReturnTo: returnTo,
		})

	default:
		s.log.Error().Err(err).Msg("login failed")
		s.render(w, http.StatusInternalServerError, loginTmpl, pageData{
			Title:    "Sign in",
			Error:    "Something went wrong. Please try again.",
			ReturnTo: returnTo,
		})
	}
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.store.Logout(r.Context())
	http.Redirect(w, r, gate.LoginPath, http.StatusFound)
}

func (s *Server) courses(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: "Courses"}

	courses, err := s.client.Courses(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load course catalog")
		data.Error = "The course catalog is unavailable right now."
	}
	data.Courses = courses

	enrollments, err := s.client.Enrollments(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load enrollments")
	}
	data.Enrollments = enrollments

	s.render(w, http.StatusOK, coursesTmpl, data)
}

func (s *Server) instructor(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, pageTmpl, pageData{Title: "Instructor dashboard"})
}

func (s *Server) admin(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, pageTmpl, pageData{Title: "Administration"})
}

// safeReturnPath keeps post-login redirects on this site. Anything that
// is not a plain absolute path is dropped.
func safeReturnPath(path string) string {
	if strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "//") && !strings.Contains(path, "\\") {
		return path
	}
	return ""
}
