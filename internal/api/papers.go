package api

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"agropulse/internal/services/papers"

	"github.com/gin-gonic/gin"
)

func paperError(c *gin.Context, err error) {
	var fe *papers.FieldError
	switch {
	case errors.As(err, &fe):
		respondError(c, http.StatusBadRequest, fe.Error())
	case errors.Is(err, papers.ErrInvalidPDF):
		respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, papers.ErrTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, papers.ErrNotFound):
		respondError(c, http.StatusNotFound, err.Error())
	default:
		log.Printf("[api] papers: %v", err)
		respondError(c, http.StatusInternalServerError, "internal error")
	}
}

// ListPapers searches by ?q= over title and topic.
func (h *APIHandler) ListPapers(c *gin.Context) {
	if h.Papers == nil {
		unavailable(c, "papers")
		return
	}
	list, err := h.Papers.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		paperError(c, err)
		return
	}
	respondOK(c, list)
}

// multipartSlack covers the form fields and part headers around the file.
const multipartSlack = 1 << 20

// UploadPaper takes a multipart form: file, title, topic, uploader.
func (h *APIHandler) UploadPaper(c *gin.Context) {
	if h.Papers == nil {
		unavailable(c, "papers")
		return
	}
	limit := h.Papers.MaxSize()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartSlack)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || c.Request.ContentLength > limit+multipartSlack {
			paperError(c, fmt.Errorf("%w: limit %d", papers.ErrTooLarge, limit))
			return
		}
		respondError(c, http.StatusBadRequest, "file is required")
		return
	}
	if fh.Size > limit {
		paperError(c, fmt.Errorf("%w: %d bytes, limit %d", papers.ErrTooLarge, fh.Size, limit))
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "unreadable upload")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		respondError(c, http.StatusBadRequest, "unreadable upload")
		return
	}

	paper, err := h.Papers.Save(c.Request.Context(), papers.Upload{
		Title:    c.PostForm("title"),
		Topic:    c.PostForm("topic"),
		Uploader: c.PostForm("uploader"),
		Filename: fh.Filename,
		Data:     data,
	})
	if err != nil {
		paperError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"code": 201, "msg": "uploaded", "data": paper})
}

func (h *APIHandler) GetPaper(c *gin.Context) {
	if h.Papers == nil {
		unavailable(c, "papers")
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	paper, err := h.Papers.Get(c.Request.Context(), id)
	if err != nil {
		paperError(c, err)
		return
	}
	respondOK(c, paper)
}

func (h *APIHandler) DownloadPaper(c *gin.Context) {
	if h.Papers == nil {
		unavailable(c, "papers")
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	paper, data, err := h.Papers.Content(c.Request.Context(), id)
	if err != nil {
		paperError(c, err)
		return
	}
	name := paper.Filename
	if name == "" {
		name = fmt.Sprintf("paper_%d.pdf", paper.ID)
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, name))
	c.Data(http.StatusOK, "application/pdf", data)
}

// PaperBase64 returns the document for embedding in a data URI.
func (h *APIHandler) PaperBase64(c *gin.Context) {
	if h.Papers == nil {
		unavailable(c, "papers")
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	b64, err := h.Papers.Base64(c.Request.Context(), id)
	if err != nil {
		paperError(c, err)
		return
	}
	respondOK(c, gin.H{"id": id, "content_type": "application/pdf", "base64": b64})
}
