// Package apitest runs an in-memory stand-in for the memories service so the
// SDK and controllers can be exercised over real HTTP in tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/memoriesapp/memories/client/internal/types"
)

// Route names accepted by Fail and Hook.
const (
	RouteFetch  = "fetch"
	RouteSearch = "search"
	RouteLike   = "like"
	RouteDelete = "delete"
	RouteSignIn = "signin"
	RouteSignUp = "signup"
)

// PerPage matches the service's page size.
const PerPage = 8

type account struct {
	profile  types.Profile
	password string
}

type failure struct {
	status  int
	message string
}

// Server is a fake memories API. All methods are safe for concurrent use.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	posts    []types.Post // newest first
	accounts map[string]account
	tokens   map[string]string // token → user id
	failures map[string]failure
	hooks    map[string]func(*http.Request)
	calls    map[string]int
	likeLog  []string
	lastForm map[string]string
	lastPic  []byte
}

// New starts the fake server. Call Close when done.
func New() *Server {
	s := &Server{
		accounts: map[string]account{},
		tokens:   map[string]string{},
		failures: map[string]failure{},
		hooks:    map[string]func(*http.Request){},
		calls:    map[string]int{},
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/posts", s.wrap(RouteFetch, s.handleFetch)).Methods(http.MethodGet)
	r.HandleFunc("/posts/search", s.wrap(RouteSearch, s.handleSearch)).Methods(http.MethodGet)
	r.HandleFunc("/posts/{id}/likePost", s.wrap(RouteLike, s.handleLike)).Methods(http.MethodPatch)
	r.HandleFunc("/posts/{id}", s.wrap(RouteDelete, s.handleDelete)).Methods(http.MethodDelete)
	r.HandleFunc("/user/signin", s.wrap(RouteSignIn, s.handleSignIn)).Methods(http.MethodPost)
	r.HandleFunc("/user/signup", s.wrap(RouteSignUp, s.handleSignUp)).Methods(http.MethodPost)
	return r
}

// wrap counts the call, runs any hook outside the lock and applies
// injected failures before the real handler.
func (s *Server) wrap(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[route]++
		hook := s.hooks[route]
		f, failing := s.failures[route]
		s.mu.Unlock()

		if hook != nil {
			hook(r)
		}
		if failing {
			writeJSON(w, f.status, types.ErrorResponse{Message: f.message})
			return
		}
		h(w, r)
	}
}

// ------------------------- fixtures -------------------------

// AddPost stores p as the newest post, filling ID and CreatedAt if empty.
func (s *Server) AddPost(p types.Post) types.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Likes == nil {
		p.Likes = []string{}
	}
	s.posts = append([]types.Post{p.Clone()}, s.posts...)
	return p
}

// Post returns the server-side copy of a post.
func (s *Server) Post(id string) (types.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.ID == id {
			return p.Clone(), true
		}
	}
	return types.Post{}, false
}

// AddAccount registers a credential account and returns its profile.
func (s *Server) AddAccount(firstName, lastName, email, password string) types.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := types.Profile{ID: uuid.NewString(), Name: strings.TrimSpace(firstName + " " + lastName), Email: email}
	s.accounts[email] = account{profile: p, password: password}
	return p
}

// IssueToken authorizes token for userID, as the identity provider would.
func (s *Server) IssueToken(token, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = userID
}

// Fail makes route answer status with {"message": message} until cleared.
func (s *Server) Fail(route string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, message: message}
}

// Clear removes an injected failure.
func (s *Server) Clear(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, route)
}

// Hook runs fn before every request to route. fn may block.
func (s *Server) Hook(route string, fn func(*http.Request)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks[route] = fn
}

// Calls reports how many requests route received.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// LikeLog lists the post IDs of accepted like toggles in arrival order.
func (s *Server) LikeLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.likeLog)
}

// LastForm returns the text fields and picture bytes of the last auth submission.
func (s *Server) LastForm() (map[string]string, []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastForm, s.lastPic
}

// ------------------------- handlers -------------------------

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	s.mu.Lock()
	total := len(s.posts)
	start := min((page-1)*PerPage, total)
	end := min(start+PerPage, total)
	data := clonePosts(s.posts[start:end])
	s.mu.Unlock()

	pages := (total + PerPage - 1) / PerPage
	writeJSON(w, http.StatusOK, types.PostPage{Data: data, CurrentPage: page, NumberOfPages: pages})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text := strings.ToLower(q.Get("searchQuery"))
	var tags []string
	if raw := q.Get("tags"); raw != "" {
		tags = strings.Split(raw, ",")
	}

	s.mu.Lock()
	var data []types.Post
	for _, p := range s.posts {
		if (text != "" && text != "none" && strings.Contains(strings.ToLower(p.Title), text)) || anyTag(p.Tags, tags) {
			data = append(data, p.Clone())
		}
	}
	s.mu.Unlock()
	if data == nil {
		data = []types.Post{}
	}
	writeJSON(w, http.StatusOK, types.SearchResponse{Data: data})
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.authenticate(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, types.ErrorResponse{Message: "Unauthenticated"})
		return
	}
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.posts {
		if s.posts[i].ID != id {
			continue
		}
		p := &s.posts[i]
		if slices.Contains(p.Likes, uid) {
			p.Likes = slices.DeleteFunc(p.Likes, func(v string) bool { return v == uid })
		} else {
			p.Likes = append(p.Likes, uid)
		}
		s.likeLog = append(s.likeLog, id)
		writeJSON(w, http.StatusOK, p.Clone())
		return
	}
	writeJSON(w, http.StatusNotFound, types.ErrorResponse{Message: fmt.Sprintf("No post with id: %s", id)})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.authenticate(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, types.ErrorResponse{Message: "Unauthenticated"})
		return
	}
	id := mux.Vars(r)["id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.posts {
		if p.ID != id {
			continue
		}
		if p.Creator != uid {
			writeJSON(w, http.StatusForbidden, types.ErrorResponse{Message: "Not the creator"})
			return
		}
		s.posts = slices.Delete(s.posts, i, i+1)
		writeJSON(w, http.StatusOK, types.ErrorResponse{Message: "Post deleted successfully."})
		return
	}
	writeJSON(w, http.StatusNotFound, types.ErrorResponse{Message: fmt.Sprintf("No post with id: %s", id)})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	form, ok := s.readForm(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, exists := s.accounts[form["email"]]
	if !exists {
		writeJSON(w, http.StatusNotFound, types.ErrorResponse{Message: "User doesn't exist"})
		return
	}
	if acc.password != form["password"] {
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Message: "Invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, s.issueLocked(acc.profile))
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	form, ok := s.readForm(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[form["email"]]; exists {
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Message: "User already exists"})
		return
	}
	if form["password"] != form["confirmPassword"] {
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Message: "Passwords don't match"})
		return
	}
	p := types.Profile{ID: uuid.NewString(), Name: strings.TrimSpace(form["firstName"] + " " + form["lastName"]), Email: form["email"]}
	if len(s.lastPic) > 0 {
		p.ImageURL = "https://images.example/" + p.ID
	}
	s.accounts[form["email"]] = account{profile: p, password: form["password"]}
	writeJSON(w, http.StatusOK, s.issueLocked(p))
}

// ------------------------- helpers -------------------------

func (s *Server) readForm(w http.ResponseWriter, r *http.Request) (map[string]string, bool) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, types.ErrorResponse{Message: "expected multipart form"})
		return nil, false
	}
	form := map[string]string{}
	for k, v := range r.MultipartForm.Value {
		if len(v) > 0 {
			form[k] = v[0]
		}
	}
	var pic []byte
	if fh := r.MultipartForm.File["picture"]; len(fh) > 0 {
		if f, err := fh[0].Open(); err == nil {
			pic, _ = io.ReadAll(f)
			_ = f.Close()
		}
	}
	s.mu.Lock()
	s.lastForm, s.lastPic = form, pic
	s.mu.Unlock()
	return form, true
}

func (s *Server) issueLocked(p types.Profile) types.Session {
	token := "tok-" + uuid.NewString()
	s.tokens[token] = p.UserID()
	return types.Session{Result: p, Token: token}
}

func (s *Server) authenticate(r *http.Request) (string, bool) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	defer s.mu.Unlock()
	uid, ok := s.tokens[token]
	return uid, ok
}

func anyTag(have, want []string) bool {
	for _, t := range want {
		if slices.Contains(have, t) {
			return true
		}
	}
	return false
}

func clonePosts(in []types.Post) []types.Post {
	out := make([]types.Post, len(in))
	for i, p := range in {
		out[i] = p.Clone()
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
