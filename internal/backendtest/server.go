// Package backendtest はテスト用のInternLinkバックエンドのフェイク実装を提供する。
// 実バックエンド（外部コラボレータ）と同じエンドポイント形状・エラーボディを
// インメモリ状態の上で再現する。統合テストからhttptest.Serverに載せて使う。
package backendtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/internlink/internal/model"
)

// userRecord はフェイクバックエンド内のユーザー1件。
type userRecord struct {
	identity model.Identity
	password string
}

// Server はインメモリのフェイクバックエンド。
type Server struct {
	mu           sync.Mutex
	users        map[string]*userRecord        // username → user
	tokens       map[string]int64              // token → userID
	internships  map[int64]*model.Internship   // id → internship
	bookmarks    map[int64]map[int64]time.Time // userID → internshipID → 追加日時
	applications map[int64]map[int64]*model.Application
	activity     map[int64][]model.ActivityLog
	nextID       int64

	// failNextStatus が非0の場合、次の1リクエストをそのステータスで失敗させる。
	failNextStatus int

	router chi.Router
}

// NewServer はフェイクバックエンドを生成する。
func NewServer() *Server {
	s := &Server{
		users:        make(map[string]*userRecord),
		tokens:       make(map[string]int64),
		internships:  make(map[int64]*model.Internship),
		bookmarks:    make(map[int64]map[int64]time.Time),
		applications: make(map[int64]map[int64]*model.Application),
		activity:     make(map[int64][]model.ActivityLog),
	}
	s.router = s.buildRouter()
	return s
}

// Handler はフェイクバックエンドのHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// FailNext は次の1リクエストを指定ステータスで失敗させる。
// 楽観的更新の巻き戻しテスト用。
func (s *Server) FailNext(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNextStatus = status
}

// AddUser はユーザーを登録し、そのIDを返す。
func (s *Server) AddUser(username, password, email string, role model.Role) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.users[username] = &userRecord{
		identity: model.Identity{
			ID:       s.nextID,
			Username: username,
			Email:    email,
			Profile:  model.Profile{Role: role},
		},
		password: password,
	}
	return s.nextID
}

// AddInternship は求人を登録し、そのIDを返す。
func (s *Server) AddInternship(title, company string, recruiterID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.internships[s.nextID] = &model.Internship{
		ID:             s.nextID,
		Title:          title,
		Company:        company,
		Location:       "Tokyo",
		InternshipType: "remote",
		PostedOn:       time.Now().UTC(),
		Status:         model.InternshipOpen,
		RecruiterID:    recruiterID,
	}
	return s.nextID
}

// IssueToken は指定ユーザーのトークンを直接発行する。
func (s *Server) IssueToken(username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := uuid.New().String()
	s.tokens[token] = s.users[username].identity.ID
	return token
}

// RevokeToken はトークンをサーバー側で無効化する。
// 失効済みトークンの遅延検出テスト用。
func (s *Server) RevokeToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}

// RevokeAllTokens は全トークンを無効化する。
func (s *Server) RevokeAllTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]int64)
}

// IsBookmarked はサーバー側の真実としてのブックマーク状態を返す。
func (s *Server) IsBookmarked(username string, internshipID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return false
	}
	_, ok = s.bookmarks[user.identity.ID][internshipID]
	return ok
}

// HasApplied はサーバー側の真実としての応募状態を返す。
func (s *Server) HasApplied(username string, internshipID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return false
	}
	_, ok = s.applications[user.identity.ID][internshipID]
	return ok
}

// buildRouter はエンドポイントのルーティングを構成する。
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(s.failureInjection)

	// 認証不要のルート
	r.Post("/api/token/", s.handleToken)
	r.Post("/register/", s.handleRegister)
	r.Get("/internships/", s.handleListInternships)
	r.Get("/internships/{id}/view/", s.handleGetInternship)
	r.Post("/forgot-password/", s.handleForgotPassword)

	// 認証必須のルート
	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/me/", s.handleMe)
		r.Patch("/me/user/", s.handleUpdateUser)
		r.Patch("/me/profile/", s.handleUpdateProfile)
		r.Post("/api/logout/", s.handleLogout)

		r.Post("/internships/create/", s.handleCreateInternship)
		r.Get("/internships/mine/", s.handleMyInternships)
		r.Get("/internships/{id}/applicants/", s.handleApplicants)

		r.Post("/applications/apply/{id}/", s.handleApply)
		r.Get("/applications/check/{id}/", s.handleCheckApplied)
		r.Get("/applications/mine/", s.handleMyApplications)
		r.Patch("/applications/{id}/status/", s.handleUpdateApplicationStatus)

		r.Post("/bookmarks/{id}/add/", s.handleAddBookmark)
		r.Delete("/bookmarks/{id}/remove/", s.handleRemoveBookmark)
		r.Get("/bookmarks/check/{id}/", s.handleCheckBookmarked)
		r.Get("/bookmarks/list/", s.handleListBookmarks)

		r.Get("/activity_logs/", s.handleActivityLogs)
	})

	return r
}

// failureInjection はFailNextで指示された失敗を注入するミドルウェア。
func (s *Server) failureInjection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status := s.failNextStatus
		s.failNextStatus = 0
		s.mu.Unlock()

		if status != 0 {
			writeJSON(w, status, map[string]string{"detail": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth はAuthorizationヘッダーのベアラートークンを検証するミドルウェア。
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" || token == r.Header.Get("Authorization") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
			return
		}

		s.mu.Lock()
		_, ok := s.tokens[token]
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid for any token type"})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// currentUser はリクエストのトークンに対応するユーザーを返す。
func (s *Server) currentUser(r *http.Request) *userRecord {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	s.mu.Lock()
	defer s.mu.Unlock()

	userID, ok := s.tokens[token]
	if !ok {
		return nil
	}
	for _, u := range s.users {
		if u.identity.ID == userID {
			return u
		}
	}
	return nil
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid body"})
		return
	}

	s.mu.Lock()
	user, ok := s.users[req.Username]
	if !ok || user.password != req.Password {
		s.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
		return
	}
	token := uuid.New().String()
	s.tokens[token] = user.identity.ID
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"access": token})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string     `json:"username"`
		Email    string     `json:"email"`
		Password string     `json:"password"`
		Role     model.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid body"})
		return
	}

	fieldErrors := map[string][]string{}
	if req.Username == "" {
		fieldErrors["username"] = []string{"This field is required."}
	}
	if !req.Role.Valid() {
		fieldErrors["role"] = []string{"Invalid role."}
	}
	s.mu.Lock()
	if _, exists := s.users[req.Username]; exists {
		fieldErrors["username"] = []string{"A user with that username already exists."}
	}
	s.mu.Unlock()

	if len(fieldErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, fieldErrors)
		return
	}

	s.AddUser(req.Username, req.Password, req.Email, req.Role)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "created"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	writeJSON(w, http.StatusOK, user.identity)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)

	var req struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid body"})
		return
	}

	s.mu.Lock()
	if req.Username != nil {
		delete(s.users, user.identity.Username)
		user.identity.Username = *req.Username
		s.users[*req.Username] = user
	}
	if req.Email != nil {
		user.identity.Email = *req.Email
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"username": user.identity.Username,
		"email":    user.identity.Email,
	})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)

	apply := func(field, value string) {
		switch field {
		case "first_name":
			user.identity.Profile.FirstName = &value
		case "last_name":
			user.identity.Profile.LastName = &value
		case "bio":
			user.identity.Profile.Bio = value
		case "location":
			user.identity.Profile.Location = value
		}
	}

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(16 << 20); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid multipart body"})
			return
		}
		s.mu.Lock()
		for field, values := range r.MultipartForm.Value {
			if len(values) > 0 {
				apply(field, values[0])
			}
		}
		if _, ok := r.MultipartForm.File["profile_picture"]; ok {
			ref := fmt.Sprintf("/media/profiles/%d.png", user.identity.ID)
			user.identity.Profile.ProfilePicture = &ref
		}
		s.mu.Unlock()
	} else {
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid body"})
			return
		}
		s.mu.Lock()
		for field, value := range req {
			apply(field, value)
		}
		s.mu.Unlock()
	}

	writeJSON(w, http.StatusOK, user.identity)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	s.mu.Lock()
	delete(s.tokens, token)
	s.mu.Unlock()
	w.WriteHeader(http.StatusResetContent)
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	// 実在しないメールアドレスでも同じメッセージを返す
	writeJSON(w, http.StatusOK, map[string]string{"message": "If the email exists, a reset link has been sent."})
}

func (s *Server) handleListInternships(w http.ResponseWriter, r *http.Request) {
	search := strings.ToLower(r.URL.Query().Get("search"))

	s.mu.Lock()
	var list []model.Internship
	for _, in := range s.internships {
		if search != "" &&
			!strings.Contains(strings.ToLower(in.Title), search) &&
			!strings.Contains(strings.ToLower(in.Company), search) {
			continue
		}
		list = append(list, *in)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetInternship(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	s.mu.Lock()
	in, ok := s.internships[id]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	writeJSON(w, http.StatusOK, in)
}

func (s *Server) handleCreateInternship(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	if user.identity.Profile.Role != model.RoleRecruiter {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You do not have permission to perform this action."})
		return
	}

	var draft model.Internship
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid body"})
		return
	}
	if draft.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"title": {"This field is required."}})
		return
	}

	s.mu.Lock()
	s.nextID++
	draft.ID = s.nextID
	draft.RecruiterID = user.identity.ID
	draft.PostedOn = time.Now().UTC()
	draft.Status = model.InternshipOpen
	s.internships[draft.ID] = &draft
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, draft)
}

func (s *Server) handleMyInternships(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)

	s.mu.Lock()
	var list []model.Internship
	for _, in := range s.internships {
		if in.RecruiterID == user.identity.ID {
			list = append(list, *in)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	id := pathID(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.internships[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	if _, ok := s.applications[user.identity.ID][id]; ok {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"non_field_errors": {"You have already applied to this internship."}})
		return
	}

	if s.applications[user.identity.ID] == nil {
		s.applications[user.identity.ID] = make(map[int64]*model.Application)
	}
	s.nextID++
	s.applications[user.identity.ID][id] = &model.Application{
		ID:         s.nextID,
		User:       user.identity,
		Internship: *s.internships[id],
		Status:     model.ApplicationPending,
		AppliedOn:  time.Now().UTC(),
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "applied"})
}

func (s *Server) handleCheckApplied(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	id := pathID(r)

	s.mu.Lock()
	_, applied := s.applications[user.identity.ID][id]
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]bool{"applied": applied})
}

func (s *Server) handleMyApplications(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)

	s.mu.Lock()
	var list []model.Application
	for _, a := range s.applications[user.identity.ID] {
		list = append(list, *a)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleApplicants(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	id := pathID(r)

	s.mu.Lock()
	in, ok := s.internships[id]
	if !ok || in.RecruiterID != user.identity.ID {
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, []model.Application{})
		return
	}
	var list []model.Application
	for _, apps := range s.applications {
		if a, ok := apps[id]; ok {
			list = append(list, *a)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleUpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)

	var req struct {
		Status model.ApplicationStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, apps := range s.applications {
		for _, a := range apps {
			if a.ID == id {
				a.Status = req.Status
				writeJSON(w, http.StatusOK, a)
				return
			}
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
}

func (s *Server) handleAddBookmark(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	id := pathID(r)

	s.mu.Lock()
	if s.bookmarks[user.identity.ID] == nil {
		s.bookmarks[user.identity.ID] = make(map[int64]time.Time)
	}
	s.bookmarks[user.identity.ID][id] = time.Now().UTC()
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]string{"message": "bookmarked"})
}

func (s *Server) handleRemoveBookmark(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	id := pathID(r)

	s.mu.Lock()
	_, ok := s.bookmarks[user.identity.ID][id]
	if ok {
		delete(s.bookmarks[user.identity.ID], id)
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Bookmark not found."})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCheckBookmarked(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	id := pathID(r)

	s.mu.Lock()
	_, bookmarked := s.bookmarks[user.identity.ID][id]
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]bool{"bookmarked": bookmarked})
}

func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)

	s.mu.Lock()
	var list []model.Bookmark
	for id, at := range s.bookmarks[user.identity.ID] {
		in := s.internships[id]
		if in == nil {
			continue
		}
		s.nextID++
		list = append(list, model.Bookmark{
			ID:                 s.nextID,
			InternshipID:       id,
			InternshipTitle:    in.Title,
			InternshipCompany:  in.Company,
			InternshipLocation: in.Location,
			BookmarkedOn:       at,
		})
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleActivityLogs(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)

	s.mu.Lock()
	logs := append([]model.ActivityLog(nil), s.activity[user.identity.ID]...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, logs)
}

// pathID はURLパスの{id}パラメータを整数として返す。
func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
