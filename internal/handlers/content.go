package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"moodadmin/api/internal/models"
	"moodadmin/api/internal/repository"
	"moodadmin/api/internal/service"
)

type tabResponse struct {
	Name            string `json:"name"`
	MultiText       bool   `json:"multiText"`
	AllowsVoice     bool   `json:"allowsVoice"`
	HeadingOptional bool   `json:"headingOptional"`
}

// ListTabs exposes the fixed editor tab set so clients render the same
// capability flags the server validates against.
func (h HandlerSet) ListTabs(c *gin.Context) {
	tabs := make([]tabResponse, 0, len(models.AllTabs))
	for _, spec := range models.AllTabs {
		tabs = append(tabs, tabResponse{
			Name:            string(spec.Tab),
			MultiText:       spec.MultiText,
			AllowsVoice:     spec.AllowsVoice,
			HeadingOptional: spec.HeadingOptional,
		})
	}
	c.JSON(http.StatusOK, gin.H{"tabs": tabs})
}

// ListVersions serves the live catalog view. An empty mood returns the
// merged view across all moods.
func (h HandlerSet) ListVersions(c *gin.Context) {
	mood := c.Query("mood")
	if mood != "" && !models.ValidMood(mood) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_mood"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"versions": h.catalog.List(mood)})
}

func (h HandlerSet) NextVersionName(c *gin.Context) {
	mood := models.Mood(c.Query("mood"))
	if !models.ValidMood(string(mood)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_mood"})
		return
	}

	name, err := h.content.NextVersionName(c.Request.Context(), mood)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"name": name})
}

func (h HandlerSet) CreateVersion(c *gin.Context) {
	mood := models.Mood(c.PostForm("mood"))
	name := c.PostForm("name")
	live := c.PostForm("live") == "true"

	forms, closers, err := h.parseTabForms(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer closeAll(closers)

	if err := h.content.CreateVersion(c.Request.Context(), mood, name, live, forms); err != nil {
		h.writeContentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "version_created", "name": name})
}

func (h HandlerSet) UpdateVersion(c *gin.Context) {
	mood := models.Mood(c.PostForm("mood"))
	name := c.Param("name")
	live := c.PostForm("live") == "true"

	forms, closers, err := h.parseTabForms(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer closeAll(closers)

	if err := h.content.UpdateVersion(c.Request.Context(), mood, name, live, forms); err != nil {
		h.writeContentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "version_updated", "name": name})
}

func (h HandlerSet) DeleteVersion(c *gin.Context) {
	mood := models.Mood(c.Query("mood"))
	name := c.Param("name")

	if err := h.content.DeleteVersion(c.Request.Context(), mood, name); err != nil {
		h.writeContentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "version_deleted", "name": name})
}

// parseTabForms reads the per-tab multipart fields. Field names are
// prefixed with the tab name: <tab>_heading, <tab>_text, <tab>_voiceUrl,
// <tab>_voiceName, and an attached file under <tab>_audio. Multi-text tabs
// send repeated <tab>_texts values instead of <tab>_text.
func (h HandlerSet) parseTabForms(c *gin.Context) (map[models.Tab]service.TabForm, []io.Closer, error) {
	var closers []io.Closer

	forms := make(map[models.Tab]service.TabForm, len(models.AllTabs))
	for _, spec := range models.AllTabs {
		prefix := string(spec.Tab) + "_"

		form := service.TabForm{
			Heading:   c.PostForm(prefix + "heading"),
			VoiceURL:  c.PostForm(prefix + "voiceUrl"),
			VoiceName: c.PostForm(prefix + "voiceName"),
		}
		if spec.MultiText {
			form.Affirmations = c.PostFormArray(prefix + "texts")
		} else {
			form.Text = c.PostForm(prefix + "text")
		}

		if spec.AllowsVoice {
			fileHeader, err := c.FormFile(prefix + "audio")
			if err == nil {
				f, err := fileHeader.Open()
				if err != nil {
					closeAll(closers)
					return nil, nil, err
				}
				closers = append(closers, f)
				form.Upload = &service.AudioUpload{
					Filename: fileHeader.Filename,
					Size:     fileHeader.Size,
					Reader:   f,
				}
			}
		}

		forms[spec.Tab] = form
	}

	return forms, closers, nil
}

func closeAll(closers []io.Closer) {
	for _, cl := range closers {
		_ = cl.Close()
	}
}

func (h HandlerSet) writeContentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownMood), errors.Is(err, service.ErrBadVersionName):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrVersionExists):
		c.JSON(http.StatusConflict, gin.H{"error": "version_exists"})
	case errors.Is(err, service.ErrUnsupportedAudio):
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "unsupported_audio"})
	case errors.Is(err, repository.ErrVersionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "version_not_found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
