package saveserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"solartycoon/internal/persistence"
)

func newTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&User{}, &PlayerSave{}))

	r := NewEngine()
	NewHandler(NewRepository(db), zap.NewNop()).RegisterRoutes(r)
	return r, db
}

func post(t *testing.T, r http.Handler, path string, body any) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]json.RawMessage
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func register(t *testing.T, r http.Handler, username string) persistence.User {
	t.Helper()
	w, out := post(t, r, "/auth", persistence.AuthRequest{Action: persistence.ActionRegister, Username: username, Password: "pw"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var u persistence.User
	require.NoError(t, json.Unmarshal(out["user"], &u))
	return u
}

func TestRegisterThenLogin(t *testing.T) {
	r, db := newTestServer(t)

	u := register(t, r, "ada")
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "ada", u.Username)

	var stored User
	require.NoError(t, db.Where("username = ?", "ada").Take(&stored).Error)
	assert.NotEqual(t, "pw", stored.PasswordHash)

	w, out := post(t, r, "/auth", persistence.AuthRequest{Action: persistence.ActionLogin, Username: "ada", Password: "pw"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", string(out["saveData"]))
}

func TestRegisterDuplicate(t *testing.T) {
	r, _ := newTestServer(t)
	register(t, r, "ada")

	w, out := post(t, r, "/auth", persistence.AuthRequest{Action: persistence.ActionRegister, Username: "ada", Password: "other"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `"Username already taken"`, string(out["error"]))
}

func TestAuthRejections(t *testing.T) {
	r, _ := newTestServer(t)
	register(t, r, "ada")

	cases := []struct {
		name string
		req  persistence.AuthRequest
		code int
	}{
		{"wrong password", persistence.AuthRequest{Action: persistence.ActionLogin, Username: "ada", Password: "nope"}, http.StatusUnauthorized},
		{"unknown user", persistence.AuthRequest{Action: persistence.ActionLogin, Username: "bob", Password: "pw"}, http.StatusUnauthorized},
		{"missing password", persistence.AuthRequest{Action: persistence.ActionLogin, Username: "ada"}, http.StatusBadRequest},
		{"bad action", persistence.AuthRequest{Action: "delete", Username: "ada", Password: "pw"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, out := post(t, r, "/auth", tc.req)
			assert.Equal(t, tc.code, w.Code)
			assert.Contains(t, out, "error")
		})
	}
}

func TestSaveUpsertsOneRowPerUser(t *testing.T) {
	r, db := newTestServer(t)
	u := register(t, r, "ada")

	for _, money := range []int{10, 20} {
		w, out := post(t, r, "/save", map[string]any{"userId": u.ID, "gameState": map[string]any{"schemaVersion": 2, "money": money}})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "true", string(out["success"]))
	}

	var rows int64
	require.NoError(t, db.Model(&PlayerSave{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	_, out := post(t, r, "/auth", persistence.AuthRequest{Action: persistence.ActionLogin, Username: "ada", Password: "pw"})
	assert.JSONEq(t, `{"schemaVersion":2,"money":20}`, string(out["saveData"]))
}

func TestSaveRejections(t *testing.T) {
	r, _ := newTestServer(t)

	w, _ := post(t, r, "/save", map[string]any{"userId": "ghost", "gameState": map[string]any{"money": 1}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = post(t, r, "/save", map[string]any{"userId": "ghost"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = post(t, r, "/save", map[string]any{"gameState": map[string]any{"money": 1}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSAndMethods(t *testing.T) {
	r, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/save", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))

	req = httptest.NewRequest(http.MethodGet, "/auth", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRemoteClientAgainstServer(t *testing.T) {
	r, _ := newTestServer(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	client := persistence.NewRemoteClient(srv.URL, time.Second)
	ctx := context.Background()

	reg, err := client.Register(ctx, "ada", "pw")
	require.NoError(t, err)
	assert.Nil(t, reg.SaveData)

	require.NoError(t, client.Save(ctx, reg.User.ID, []byte(`{"schemaVersion":2,"money":64}`)))

	res, err := client.Login(ctx, "ada", "pw")
	require.NoError(t, err)
	assert.Equal(t, reg.User, res.User)
	assert.JSONEq(t, `{"schemaVersion":2,"money":64}`, string(res.SaveData))

	_, err = client.Register(ctx, "ada", "pw")
	assert.ErrorIs(t, err, persistence.ErrRejected)
}
