package handlers_blog

import (
	"net/http"
	"strconv"
	"strings"

	"clearsite/internal/models/csposts"
	"clearsite/internal/models/cssite"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type BlogHandler struct {
	db *gorm.DB
}

func NewBlogHandler(db *gorm.DB) *BlogHandler {
	return &BlogHandler{db: db}
}

type CreatePostRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Summary  string   `json:"summary"`
	Author   string   `json:"author"`
	Tags     []string `json:"tags"`
	Category string   `json:"category"`
	Hide     bool     `json:"hide"`
}

// GetPosts liste les articles visibles, paginés, filtrables par catégorie.
func (bh *BlogHandler) GetPosts(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if err != nil || limit < 1 {
		limit = 5
	}
	if limit > 50 { // Limite maximale pour éviter les abus
		limit = 50
	}

	category := strings.ToLower(csposts.Slugify(c.DefaultQuery("category", "")))

	offset := (page - 1) * limit

	buildQuery := func() *gorm.DB {
		query := bh.db.Model(&csposts.Post{}).Where("hide = ?", false)
		if category != "" {
			query = query.Where("category = ?", category)
		}
		return query
	}

	var total int64
	buildQuery().Count(&total)

	var posts []csposts.Post
	result := buildQuery().
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&posts)

	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur serveur"})
		return
	}

	for i := range posts {
		posts[i].FillSummary()
		// Le flux de liste n'embarque pas le corps complet.
		posts[i].Content = ""
		posts[i].ContentHTML = ""
	}

	hasMore := int64(offset+limit) < total

	c.JSON(http.StatusOK, gin.H{
		"posts":   posts,
		"hasMore": hasMore,
		"total":   total,
		"page":    page,
		"perPage": limit,
	})
}

// GetPost renvoie un article par slug et incrémente son compteur de vues.
func (bh *BlogHandler) GetPost(c *gin.Context) {
	slug := c.Param("slug")

	var post csposts.Post
	result := bh.db.Where("slug = ? AND hide = ?", slug, false).First(&post)
	if result.Error != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article non trouvé"})
		return
	}

	bh.db.Model(&post).UpdateColumn("view_count", gorm.Expr("view_count + 1"))

	c.JSON(http.StatusOK, post)
}

func (bh *BlogHandler) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	author := req.Author
	if author == "" {
		session := sessions.Default(c)
		if username := session.Get("username"); username != nil {
			author = username.(string)
		} else {
			author = cssite.GetInstance().Configuration.Site.Author
		}
	}

	post := csposts.Post{
		Title:    strings.TrimSpace(req.Title),
		Content:  strings.TrimSpace(req.Content),
		Summary:  strings.TrimSpace(req.Summary),
		Author:   author,
		TagsList: req.Tags,
		Category: strings.ToLower(csposts.Slugify(req.Category)),
		Hide:     req.Hide,
	}

	if post.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le titre ne peut pas etre vide"})
		return
	}

	result := bh.db.Create(&post)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur création article"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Article créé avec succès",
		"post_id": post.ID,
		"slug":    post.Slug,
	})
}

func (bh *BlogHandler) UpdatePost(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID invalide"})
		return
	}

	var post csposts.Post
	result := bh.db.First(&post, uint(id))
	if result.Error != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article non trouvé"})
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	post.Title = strings.TrimSpace(req.Title)
	post.Content = strings.TrimSpace(req.Content)
	post.Summary = strings.TrimSpace(req.Summary)
	post.TagsList = req.Tags
	post.Category = strings.ToLower(csposts.Slugify(req.Category))
	post.Hide = req.Hide

	result = bh.db.Save(&post)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur mise à jour article"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Article mis à jour avec succès"})
}

func (bh *BlogHandler) DeletePost(c *gin.Context) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID invalide"})
		return
	}

	if err := bh.db.Delete(&csposts.Post{}, uint(id)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur suppression article"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Article supprimé avec succès"})
}
