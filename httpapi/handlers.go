package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	rentauth "github.com/raananp/bike-rent-docer-v3-sub000"
)

type signupRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type mfaVerifyRequest struct {
	Code      string `json:"code" binding:"required"`
	TempToken string `json:"tempToken" binding:"required"`
}

type mfaConfirmRequest struct {
	Code string `json:"code" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

func (s *Server) handleSignup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, rentauth.ErrBadInput)
		return
	}

	result, err := s.engine.Signup(c.Request.Context(), rentauth.SignupRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"ok":      true,
		"message": "account created, check your email to verify your address",
		"id":      result.AccountID,
	})
}

func (s *Server) handleVerifyEmail(c *gin.Context) {
	payload, err := s.engine.VerifyEmail(c.Request.Context(), c.Query("token"))
	if err != nil {
		s.fail(c, err)
		return
	}

	s.cookies.Attach(c, payload.Tokens.RefreshToken)
	c.JSON(http.StatusOK, gin.H{
		"ok":    true,
		"token": payload.Tokens.AccessToken,
		"user":  payload.User,
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, rentauth.ErrBadInput)
		return
	}

	result, err := s.engine.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}

	if result.MFARequired {
		c.JSON(http.StatusOK, gin.H{
			"mfa_required": true,
			"tempToken":    result.ChallengeToken,
		})
		return
	}

	s.cookies.Attach(c, result.Auth.Tokens.RefreshToken)
	c.JSON(http.StatusOK, gin.H{
		"token": result.Auth.Tokens.AccessToken,
		"user":  result.Auth.User,
	})
}

func (s *Server) handleMFAVerify(c *gin.Context) {
	var req mfaVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, rentauth.ErrBadInput)
		return
	}

	payload, err := s.engine.ConfirmMFA(c.Request.Context(), req.TempToken, req.Code)
	if err != nil {
		s.fail(c, err)
		return
	}

	s.cookies.Attach(c, payload.Tokens.RefreshToken)
	c.JSON(http.StatusOK, gin.H{
		"token": payload.Tokens.AccessToken,
		"user":  payload.User,
	})
}

func (s *Server) handleRefresh(c *gin.Context) {
	payload, err := s.engine.Refresh(c.Request.Context(), s.cookies.Read(c))
	if err != nil {
		s.fail(c, err)
		return
	}

	s.cookies.Attach(c, payload.Tokens.RefreshToken)
	c.JSON(http.StatusOK, gin.H{
		"token": payload.Tokens.AccessToken,
		"user":  payload.User,
	})
}

func (s *Server) handleLogout(c *gin.Context) {
	s.engine.Logout(c.Request.Context(), s.cookies.Read(c))
	s.cookies.Clear(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleMFASetup(c *gin.Context) {
	identity := callerIdentity(c)
	if identity == nil {
		s.fail(c, rentauth.ErrTokenInvalid)
		return
	}

	enrollment, err := s.engine.SetupTOTP(c.Request.Context(), identity.AccountID)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"otpauth":   enrollment.URI,
		"qrDataUrl": enrollment.QRCode,
	})
}

func (s *Server) handleMFAConfirm(c *gin.Context) {
	identity := callerIdentity(c)
	if identity == nil {
		s.fail(c, rentauth.ErrTokenInvalid)
		return
	}

	var req mfaConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, rentauth.ErrBadInput)
		return
	}

	if err := s.engine.ConfirmTOTP(c.Request.Context(), identity.AccountID, req.Code); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleMFADisable(c *gin.Context) {
	identity := callerIdentity(c)
	if identity == nil {
		s.fail(c, rentauth.ErrTokenInvalid)
		return
	}

	if err := s.engine.DisableTOTP(c.Request.Context(), identity.AccountID); err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleChangePassword(c *gin.Context) {
	identity := callerIdentity(c)
	if identity == nil {
		s.fail(c, rentauth.ErrTokenInvalid)
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, rentauth.ErrBadInput)
		return
	}

	err := s.engine.ChangePassword(c.Request.Context(), identity.AccountID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
