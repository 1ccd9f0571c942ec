package api

import (
	"errors"
	"log"
	"net/http"

	"agropulse/internal/services/community"

	"github.com/gin-gonic/gin"
)

type postRequest struct {
	Name     string `json:"name" binding:"required"`
	Location string `json:"location"`
	Message  string `json:"message" binding:"required"`
}

type replyRequest struct {
	Name    string `json:"name" binding:"required"`
	Message string `json:"message" binding:"required"`
}

type contactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// communityError maps service errors to a status; unexpected ones are logged.
func communityError(c *gin.Context, err error) {
	var fe *community.FieldError
	switch {
	case errors.As(err, &fe):
		respondError(c, http.StatusBadRequest, fe.Error())
	case errors.Is(err, community.ErrPostNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	default:
		log.Printf("[api] community: %v", err)
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}

func (h *APIHandler) ListPosts(c *gin.Context) {
	if h.Community == nil {
		unavailable(c, "community")
		return
	}
	posts, err := h.Community.Posts(c.Request.Context(), queryInt(c, "limit", 50))
	if err != nil {
		communityError(c, err)
		return
	}
	respondOK(c, posts)
}

func (h *APIHandler) CreatePost(c *gin.Context) {
	if h.Community == nil {
		unavailable(c, "community")
		return
	}
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "name and message are required")
		return
	}
	post, err := h.Community.CreatePost(c.Request.Context(), req.Name, req.Location, req.Message)
	if err != nil {
		communityError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": 201, "msg": "posted", "data": post})
}

func (h *APIHandler) CreateReply(c *gin.Context) {
	if h.Community == nil {
		unavailable(c, "community")
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "name and message are required")
		return
	}
	reply, err := h.Community.Reply(c.Request.Context(), id, req.Name, req.Message)
	if err != nil {
		communityError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": 201, "msg": "replied", "data": reply})
}

func (h *APIHandler) Contact(c *gin.Context) {
	if h.Community == nil {
		unavailable(c, "community")
		return
	}
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "name, email and message are required")
		return
	}
	msg, err := h.Community.Contact(c.Request.Context(), req.Name, req.Email, req.Message)
	if err != nil {
		communityError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": 201, "msg": "message received", "data": gin.H{"id": msg.ID}})
}
