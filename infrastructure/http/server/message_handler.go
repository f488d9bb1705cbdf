package server

import (
	"chat-dm/auth"
	"chat-dm/domain"
	"net/http"

	"github.com/gin-gonic/gin"
)

type sendMessageRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

func (s *Server) contacts(c *gin.Context) {
	contacts, err := s.chat.Contacts(auth.UserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": contacts})
}

func (s *Server) chatPartners(c *gin.Context) {
	partners, err := s.chat.ChatPartnerProfiles(auth.UserID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": partners})
}

func (s *Server) conversation(c *gin.Context) {
	messages, err := s.chat.GetConversation(domain.GetConversationCommand{
		UserID:        auth.UserID(c),
		CounterpartID: c.Param("id"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": messages})
}

// send persists the message and answers with the stored record,
// whether or not the receiver is connected.
func (s *Server) send(c *gin.Context) {
	var body sendMessageRequest
	if err := s.bindJSON(c, &body); err != nil {
		s.fail(c, err)
		return
	}

	message, err := s.delivery.Send(c.Request.Context(), domain.SendMessageCommand{
		SenderID:   auth.UserID(c),
		ReceiverID: c.Param("id"),
		Text:       body.Text,
		Image:      body.Image,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": message})
}
