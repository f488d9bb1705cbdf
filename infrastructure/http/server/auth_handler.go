package server

import (
	"chat-dm/auth"
	"chat-dm/services"
	"net/http"

	"github.com/gin-gonic/gin"
)

type signupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateProfileRequest struct {
	ProfilePic string `json:"profilePic"`
}

func (s *Server) signup(c *gin.Context) {
	var body signupRequest
	if err := s.bindJSON(c, &body); err != nil {
		s.fail(c, err)
		return
	}

	session, err := s.auth.Signup(body.FullName, body.Email, body.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.startSession(c, session)
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "data": session.User})
}

func (s *Server) login(c *gin.Context) {
	var body loginRequest
	if err := s.bindJSON(c, &body); err != nil {
		s.fail(c, err)
		return
	}

	session, err := s.auth.Login(body.Email, body.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.startSession(c, session)
	c.JSON(http.StatusOK, gin.H{"message": "User logged in successfully", "data": session.User})
}

func (s *Server) logout(c *gin.Context) {
	auth.ClearSessionCookie(c, s.config.SecureCookies)
	c.JSON(http.StatusOK, gin.H{"message": "User logged out successfully"})
}

func (s *Server) updateProfile(c *gin.Context) {
	var body updateProfileRequest
	if err := s.bindJSON(c, &body); err != nil {
		s.fail(c, err)
		return
	}

	user, err := s.auth.UpdateProfile(c.Request.Context(), auth.UserID(c), body.ProfilePic)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "data": gin.H{"profilePic": user.ProfilePic}})
}

func (s *Server) check(c *gin.Context) {
	user, err := s.auth.Check(auth.UserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}

func (s *Server) startSession(c *gin.Context, session services.Session) {
	maxAge := int(s.issuer.Duration().Seconds())
	auth.SetSessionCookie(c, session.Token, maxAge, s.config.SecureCookies)
}
