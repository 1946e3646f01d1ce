package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"finance_tracker/internal/domain"
	"finance_tracker/internal/utils"

	"github.com/gin-gonic/gin"
)

func TestRegister_Validation(t *testing.T) {
	r := newTestRouter(setupDB(t), setupRedis(t))

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing name", gin.H{"email": "a@b.com", "password": "secret1"}},
		{"missing email", gin.H{"name": "A", "password": "secret1"}},
		{"missing password", gin.H{"name": "A", "email": "a@b.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("got status %d, want 400", w.Code)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	r := newTestRouter(setupDB(t), setupRedis(t))

	body := gin.H{"name": "Alice", "email": "alice@example.com", "password": "secret1"}
	if w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", body); w.Code != http.StatusCreated {
		t.Fatalf("first register: got status %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", body); w.Code != http.StatusConflict {
		t.Errorf("duplicate register: got status %d, want 409", w.Code)
	}
}

func TestRegister_RoleCoercion(t *testing.T) {
	db := setupDB(t)
	r := newTestRouter(db, setupRedis(t))

	tests := []struct {
		name      string
		requested string
		want      string
	}{
		{"absent role defaults to user", "", domain.RoleUser},
		{"invalid role coerced to user", "superadmin", domain.RoleUser},
		{"admin kept", domain.RoleAdmin, domain.RoleAdmin},
		{"read-only kept", domain.RoleReadOnly, domain.RoleReadOnly},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email := "user" + string(rune('a'+i)) + "@example.com"
			w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
				"name": "U", "email": email, "password": "secret1", "role": tt.requested,
			})
			if w.Code != http.StatusCreated {
				t.Fatalf("register: got status %d", w.Code)
			}
			var u domain.User
			if err := db.Where("email = ?", email).First(&u).Error; err != nil {
				t.Fatalf("loading user: %v", err)
			}
			if u.Role != tt.want {
				t.Errorf("stored role %q, want %q", u.Role, tt.want)
			}
		})
	}
}

func TestLogin_TokenCarriesStoredRole(t *testing.T) {
	r := newTestRouter(setupDB(t), setupRedis(t))

	// Requested role is invalid, so the token must carry the coerced one.
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Bob", "email": "bob@example.com", "password": "secret1", "role": "root",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: got status %d", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "bob@example.com", "password": "secret1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: got status %d", w.Code)
	}
	var resp AuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	claims, err := utils.ParseJWT(resp.Token, testSecret)
	if err != nil {
		t.Fatalf("parsing issued token: %v", err)
	}
	if claims.Role != domain.RoleUser {
		t.Errorf("token role %q, want %q", claims.Role, domain.RoleUser)
	}
	if claims.Email != "bob@example.com" {
		t.Errorf("token email %q, want bob@example.com", claims.Email)
	}
	if resp.User.Role != domain.RoleUser {
		t.Errorf("profile role %q, want %q", resp.User.Role, domain.RoleUser)
	}
}

func TestLogin_NeverLeaksPasswordHash(t *testing.T) {
	r := newTestRouter(setupDB(t), setupRedis(t))
	registerAndLogin(t, r, "Carol", "carol@example.com", "secret1", "")

	w := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "carol@example.com", "password": "secret1",
	})
	var raw struct {
		User map[string]any `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if _, ok := raw.User["password"]; ok {
		t.Error("login response contains a password field")
	}
}

func TestLogin_InvalidCredentialsIndistinguishable(t *testing.T) {
	r := newTestRouter(setupDB(t), setupRedis(t))
	registerAndLogin(t, r, "Dave", "dave@example.com", "secret1", "")

	wrongPassword := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "dave@example.com", "password": "nope",
	})
	noSuchUser := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "ghost@example.com", "password": "secret1",
	})
	if wrongPassword.Code != http.StatusUnauthorized || noSuchUser.Code != http.StatusUnauthorized {
		t.Fatalf("got statuses %d and %d, want 401 for both", wrongPassword.Code, noSuchUser.Code)
	}
	// Identical bodies so accounts cannot be enumerated
	if wrongPassword.Body.String() != noSuchUser.Body.String() {
		t.Errorf("wrong-password body %q differs from no-such-user body %q",
			wrongPassword.Body.String(), noSuchUser.Body.String())
	}
}
