package handlers

import (
	"net/http"

	"medeasy-api-server/internal/service"

	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	Accounts *service.Accounts
}

type SignupRequest struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Role      string   `json:"role"`
	StoreName string   `json:"storeName"`
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func sessionBody(message string, s *service.Session) gin.H {
	body := gin.H{
		"message": message,
		"userId":  s.UserID,
		"role":    s.Role,
		"token":   s.Token,
	}
	if s.PartyID != "" {
		body["partyId"] = s.PartyID
	}
	return body
}

// Signup handles POST /api/signup.
func (h *AccountHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if !bindJSON(c, &req) {
		return
	}
	s, err := h.Accounts.Signup(c.Request.Context(), service.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
		StoreName: req.StoreName,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionBody("User created successfully", s))
}

// Login handles POST /api/login for customers.
func (h *AccountHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	s, err := h.Accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionBody("Login successful", s))
}

// PartnerLogin handles POST /api/partner-login for retailers and wholesalers.
func (h *AccountHandler) PartnerLogin(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	s, err := h.Accounts.PartnerLogin(c.Request.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionBody("Login successful", s))
}
