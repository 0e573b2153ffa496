package handlers_about

import (
	"errors"
	"net/http"
	"strconv"

	"clearsite/internal/models/csabout"
	"clearsite/internal/models/csimages"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// maxImageWidth bounds uploaded section images before storage.
const maxImageWidth = 1280

type AboutHandler struct {
	manager *csabout.Manager
}

func NewAboutHandler(manager *csabout.Manager) *AboutHandler {
	return &AboutHandler{
		manager: manager,
	}
}

// Get retourne toutes les sections dans l'ordre d'affichage.
func (ah *AboutHandler) Get(c *gin.Context) {
	sections, err := ah.manager.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve sections"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sections": sections})
}

type insertRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	ImageData string `json:"imageData"`
	Position  *int   `json:"position"`
}

// Insert crée une section à la position demandée (ou en fin de liste).
func (ah *AboutHandler) Insert(c *gin.Context) {
	var req insertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	imageData, err := csimages.NormalizeDataURL(req.ImageData, maxImageWidth)
	if err != nil {
		log.Warn().Err(err).Msg("section image rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image data"})
		return
	}

	section, err := ah.manager.Insert(csabout.InsertParams{
		Title:     req.Title,
		Content:   req.Content,
		ImageData: imageData,
		Position:  req.Position,
	})
	if err != nil {
		var verr *csabout.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create section"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"section": section})
}

// Delete supprime une section et renumérote les survivantes.
func (ah *AboutHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid section id"})
		return
	}

	err = ah.manager.Delete(uint(id))
	if errors.Is(err, csabout.ErrSectionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Section not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete section"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Preview résout la position effective d'une insertion sans rien écrire.
func (ah *AboutHandler) Preview(c *gin.Context) {
	var position *int
	if raw := c.Query("position"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid position"})
			return
		}
		position = &p
	}

	resolved, sections, err := ah.manager.Preview(position)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to preview"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"position": resolved,
		"sections": sections,
	})
}
