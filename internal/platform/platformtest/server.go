// Package platformtest runs an in-memory stand-in for the hosted backend
// so tests can exercise the real client, repositories and handlers
// without a network. It implements the slice of the table and identity
// APIs this service actually uses.
package platformtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Account is one identity-provider account.
type Account struct {
	ID       string
	Email    string
	Password string
}

// Server is the fake backend. Rows and accounts live in memory behind a
// mutex; every instance is independent.
type Server struct {
	Secret string

	mu       sync.Mutex
	tables   map[string][]map[string]any
	accounts map[string]*Account // by email
	refresh  map[string]string   // refresh token -> account id
	httpSrv  *httptest.Server
}

// New starts the fake backend. Tokens it issues are HS256-signed with
// secret, so the auth service under test can verify them locally.
func New(secret string) *Server {
	s := &Server{
		Secret:   secret,
		tables:   map[string][]map[string]any{},
		accounts: map[string]*Account{},
		refresh:  map[string]string{},
	}
	s.httpSrv = httptest.NewServer(http.HandlerFunc(s.route))
	return s
}

// URL returns the base URL to hand to platform.NewClient.
func (s *Server) URL() string { return s.httpSrv.URL }

// Close shuts the server down.
func (s *Server) Close() { s.httpSrv.Close() }

// Seed inserts a row directly, bypassing HTTP.
func (s *Server) Seed(table string, row map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append(s.tables[table], row)
}

// SeedAccount registers a provider account directly and returns it.
func (s *Server) SeedAccount(email, password string) *Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &Account{ID: uuid.NewString(), Email: email, Password: password}
	s.accounts[email] = a
	return a
}

// Rows returns a copy of a table's rows for assertions.
func (s *Server) Rows(table string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.tables[table]...)
}

// Token issues an access token for the account, exactly as the identity
// endpoints would.
func (s *Server) Token(a *Account) string {
	return s.signToken(a.ID, a.Email)
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasPrefix(r.URL.Path, "/rest/v1/"):
		s.handleTable(w, r, strings.TrimPrefix(r.URL.Path, "/rest/v1/"))
	case r.URL.Path == "/auth/v1/signup":
		s.handleSignUp(w, r)
	case r.URL.Path == "/auth/v1/token":
		s.handleToken(w, r)
	case r.URL.Path == "/auth/v1/logout":
		w.WriteHeader(http.StatusNoContent)
	case r.URL.Path == "/auth/v1/recover":
		writeJSON(w, http.StatusOK, map[string]any{})
	case r.URL.Path == "/auth/v1/user":
		s.handleUser(w, r)
	case strings.HasPrefix(r.URL.Path, "/auth/v1/admin/users/"):
		writeJSON(w, http.StatusOK, map[string]any{})
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "no such route"})
	}
}

// --- table API ---

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request, table string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filters, limit, offset, orderBy, desc := parseQuery(r.URL.Query())
	rows := s.tables[table]

	switch r.Method {
	case http.MethodGet:
		out := filterRows(rows, filters)
		out = orderRows(out, orderBy, desc)
		out = pageRows(out, offset, limit)
		writeJSON(w, http.StatusOK, out)

	case http.MethodPost:
		var row map[string]any
		if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"code": "PGRST116", "message": "invalid body"})
			return
		}
		pk := pkOf(table)
		if id, ok := row[pk]; ok {
			for _, existing := range rows {
				if existing[pk] == id {
					writeJSON(w, http.StatusConflict, map[string]any{
						"code": "23505", "message": "duplicate key value violates unique constraint",
					})
					return
				}
			}
		}
		now := time.Now().UTC().Format(time.RFC3339)
		if _, ok := row["created_at"]; !ok {
			row["created_at"] = now
		}
		if _, ok := row["updated_at"]; !ok {
			row["updated_at"] = now
		}
		s.tables[table] = append(rows, row)
		writeJSON(w, http.StatusCreated, []map[string]any{row})

	case http.MethodPatch:
		var patch map[string]any
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"code": "PGRST116", "message": "invalid body"})
			return
		}
		var updated []map[string]any
		for _, row := range rows {
			if matches(row, filters) {
				for k, v := range patch {
					row[k] = v
				}
				updated = append(updated, row)
			}
		}
		if updated == nil {
			updated = []map[string]any{}
		}
		writeJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		kept := rows[:0]
		for _, row := range rows {
			if !matches(row, filters) {
				kept = append(kept, row)
			}
		}
		s.tables[table] = kept
		writeJSON(w, http.StatusOK, []map[string]any{})

	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"message": "method not allowed"})
	}
}

func pkOf(table string) string {
	switch table {
	case "users":
		return "user_id"
	case "properties":
		return "property_id"
	case "units":
		return "unit_id"
	case "maintenance_requests":
		return "request_id"
	}
	return "id"
}

func parseQuery(q url.Values) (filters map[string]string, limit, offset int, orderBy string, desc bool) {
	filters = map[string]string{}
	for key, vals := range q {
		if len(vals) == 0 {
			continue
		}
		v := vals[0]
		switch key {
		case "select":
		case "limit":
			limit, _ = strconv.Atoi(v)
		case "offset":
			offset, _ = strconv.Atoi(v)
		case "order":
			orderBy = v
			if strings.HasSuffix(v, ".desc") {
				orderBy = strings.TrimSuffix(v, ".desc")
				desc = true
			} else {
				orderBy = strings.TrimSuffix(v, ".asc")
			}
		default:
			if cut, ok := strings.CutPrefix(v, "eq."); ok {
				filters[key] = cut
			}
		}
	}
	return filters, limit, offset, orderBy, desc
}

func matches(row map[string]any, filters map[string]string) bool {
	for col, want := range filters {
		if fmt.Sprintf("%v", row[col]) != want {
			return false
		}
	}
	return true
}

func filterRows(rows []map[string]any, filters map[string]string) []map[string]any {
	out := []map[string]any{}
	for _, row := range rows {
		if matches(row, filters) {
			out = append(out, row)
		}
	}
	return out
}

func orderRows(rows []map[string]any, orderBy string, desc bool) []map[string]any {
	if orderBy == "" {
		return rows
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a := fmt.Sprintf("%v", rows[i][orderBy])
		b := fmt.Sprintf("%v", rows[j][orderBy])
		if desc {
			return a > b
		}
		return a < b
	})
	return rows
}

func pageRows(rows []map[string]any, offset, limit int) []map[string]any {
	if offset >= len(rows) {
		return []map[string]any{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// --- identity API ---

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"msg": "invalid request"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[req.Email]; ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"msg": "User already registered"})
		return
	}
	a := &Account{ID: uuid.NewString(), Email: req.Email, Password: req.Password}
	s.accounts[req.Email] = a
	writeJSON(w, http.StatusOK, s.sessionFor(a))
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch r.URL.Query().Get("grant_type") {
	case "password":
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		a, ok := s.accounts[req.Email]
		if !ok || a.Password != req.Password {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": "invalid_grant", "error_description": "Invalid login credentials",
			})
			return
		}
		writeJSON(w, http.StatusOK, s.sessionFor(a))
	case "refresh_token":
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		id, ok := s.refresh[req.RefreshToken]
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": "invalid_grant", "error_description": "Invalid Refresh Token",
			})
			return
		}
		delete(s.refresh, req.RefreshToken)
		for _, a := range s.accounts {
			if a.ID == id {
				writeJSON(w, http.StatusOK, s.sessionFor(a))
				return
			}
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_grant"})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unsupported_grant_type"})
	}
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(s.Secret), nil
	})
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"msg": "invalid token"})
		return
	}
	now := time.Now().UTC().Format(time.RFC3339)
	writeJSON(w, http.StatusOK, map[string]any{
		"id":                 claims["sub"],
		"email":              claims["email"],
		"email_confirmed_at": now,
		"last_sign_in_at":    now,
	})
}

func (s *Server) sessionFor(a *Account) map[string]any {
	rt := uuid.NewString()
	s.refresh[rt] = a.ID
	return map[string]any{
		"access_token":  s.signToken(a.ID, a.Email),
		"refresh_token": rt,
		"token_type":    "bearer",
		"expires_in":    3600,
		"user":          map[string]any{"id": a.ID, "email": a.Email},
	}
}

func (s *Server) signToken(sub, email string) string {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := t.SignedString([]byte(s.Secret))
	if err != nil {
		panic(err)
	}
	return signed
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
