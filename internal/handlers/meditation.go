package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"moodadmin/api/internal/repository"
	"moodadmin/api/internal/service"
)

func (h HandlerSet) ListMeditations(c *gin.Context) {
	entries, err := h.meditations.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"meditations": entries})
}

// UpdateMeditation accepts a multipart form: heading, body, and an
// optional audio file. Omitting the file keeps the stored audio.
func (h HandlerSet) UpdateMeditation(c *gin.Context) {
	id := c.Param("id")
	heading := c.PostForm("heading")
	body := c.PostForm("body")

	var upload *service.AudioUpload
	fileHeader, err := c.FormFile("audio")
	if err == nil {
		f, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()
		upload = &service.AudioUpload{
			Filename: fileHeader.Filename,
			Size:     fileHeader.Size,
			Reader:   f,
		}
	}

	if err := h.meditations.Update(c.Request.Context(), id, heading, body, upload); err != nil {
		switch {
		case errors.Is(err, repository.ErrMeditationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "meditation_not_found"})
		case errors.Is(err, service.ErrUnsupportedAudio):
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported_audio"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "meditation_updated"})
}
