package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/user/papertrade/internal/auth"
	"github.com/user/papertrade/internal/models"
)

// SignupRequest defines the expected JSON body for signup.
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest defines the expected JSON body for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse defines the JSON response for successful auth.
type AuthResponse struct {
	Token    string       `json:"token"`
	User     *models.User `json:"user"`
	IssuedAt time.Time    `json:"issued_at"`
}

// Signup registers a user and opens their account with the starting
// balance, both in one transaction.
func (h *Handler) Signup(c *fiber.Ctx) error {
	req := new(SignupRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	existing, err := h.users.ByUsername(c.Context(), req.Username)
	if err != nil {
		h.log.Error("check username", zap.String("username", req.Username), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error checking username"})
	}
	if existing != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Username already taken"})
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process password"})
	}

	tx, err := h.pool.Begin(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error starting transaction"})
	}
	defer tx.Rollback(c.Context())

	user, err := h.users.Create(c.Context(), tx, req.Username, hashed)
	if err != nil {
		h.log.Error("create user", zap.String("username", req.Username), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create user"})
	}
	if err := h.accounts.Create(c.Context(), tx, user.ID, h.startingBalance); err != nil {
		h.log.Error("create account", zap.String("username", req.Username), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create account"})
	}
	if err := tx.Commit(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error finalizing signup"})
	}

	token, err := h.issuer.Generate(user.ID, user.Username)
	if err != nil {
		h.log.Error("generate token", zap.String("username", user.Username), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "User created, but failed to generate token"})
	}

	user.Password = ""
	return c.Status(fiber.StatusCreated).JSON(AuthResponse{
		Token:    token,
		User:     user,
		IssuedAt: time.Now(),
	})
}

// Login authenticates an existing user.
func (h *Handler) Login(c *fiber.Ctx) error {
	req := new(LoginRequest)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	user, err := h.users.ByUsername(c.Context(), req.Username)
	if err != nil {
		h.log.Error("find user", zap.String("username", req.Username), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error finding user"})
	}
	if user == nil || !auth.CheckPasswordHash(req.Password, user.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid username or password"})
	}

	token, err := h.issuer.Generate(user.ID, user.Username)
	if err != nil {
		h.log.Error("generate token", zap.String("username", user.Username), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate token"})
	}

	user.Password = ""
	return c.Status(fiber.StatusOK).JSON(AuthResponse{
		Token:    token,
		User:     user,
		IssuedAt: time.Now(),
	})
}
