package saveserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"solartycoon/internal/persistence"
)

type Handler struct {
	repo *Repository
	log  *zap.Logger
}

func NewHandler(repo *Repository, log *zap.Logger) *Handler {
	return &Handler{repo: repo, log: log.Named("saveserver")}
}

// RegisterRoutes mounts /save and /auth with permissive CORS.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
	})

	for path, handle := range map[string]gin.HandlerFunc{
		"/save": h.Save,
		"/auth": h.Auth,
	} {
		r.OPTIONS(path, cors, func(c *gin.Context) { c.Status(http.StatusOK) })
		r.POST(path, cors, handle)
	}
}

func cors(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type")
	c.Next()
}

func (h *Handler) Save(c *gin.Context) {
	var req persistence.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" || len(req.GameState) == 0 || string(req.GameState) == "null" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing userId or gameState"})
		return
	}

	ctx := c.Request.Context()
	ok, err := h.repo.UserExists(ctx, req.UserID)
	if err != nil {
		h.fail(c, "save lookup", err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown user"})
		return
	}
	if err := h.repo.UpsertSave(ctx, req.UserID, req.GameState); err != nil {
		h.fail(c, "save", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) Auth(c *gin.Context) {
	var req persistence.AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing credentials"})
		return
	}

	switch req.Action {
	case persistence.ActionRegister:
		h.register(c, req)
	case persistence.ActionLogin:
		h.login(c, req)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action"})
	}
}

func (h *Handler) register(c *gin.Context, req persistence.AuthRequest) {
	hash, err := HashPassword(req.Password)
	if err != nil {
		h.fail(c, "hash password", err)
		return
	}
	u, err := h.repo.CreateUser(c.Request.Context(), req.Username, hash)
	if errors.Is(err, ErrUsernameTaken) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username already taken"})
		return
	}
	if err != nil {
		h.fail(c, "register", err)
		return
	}
	h.log.Info("user registered", zap.String("user_id", u.ID))
	c.JSON(http.StatusOK, persistence.AuthResult{
		User:     persistence.User{ID: u.ID, Username: u.Username},
		SaveData: json.RawMessage("null"),
	})
}

func (h *Handler) login(c *gin.Context, req persistence.AuthRequest) {
	ctx := c.Request.Context()
	u, err := h.repo.FindUserByName(ctx, req.Username)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		h.fail(c, "login lookup", err)
		return
	}
	if err != nil || !VerifyPassword(req.Password, u.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	data, err := h.repo.FindSave(ctx, u.ID)
	if err != nil {
		h.fail(c, "load save", err)
		return
	}
	saveData := json.RawMessage("null")
	if len(data) > 0 {
		saveData = json.RawMessage(data)
	}
	c.JSON(http.StatusOK, persistence.AuthResult{
		User:     persistence.User{ID: u.ID, Username: u.Username},
		SaveData: saveData,
	})
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	h.log.Error(op+" failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
}
