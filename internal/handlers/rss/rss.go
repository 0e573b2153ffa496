package handlers_rss

import (
	"encoding/xml"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clearsite/internal/models/csposts"
	"clearsite/internal/models/csrss"
	"clearsite/internal/models/cssite"

	"github.com/gin-gonic/gin"
	stripmd "github.com/writeas/go-strip-markdown"
)

func getImageInfo(imagePath string) (size int64, mimeType string, err error) {
	fileInfo, err := os.Stat(imagePath)
	if err != nil {
		return 0, "", err
	}

	size = fileInfo.Size()

	// Type MIME basé sur l'extension
	ext := filepath.Ext(imagePath)
	mimeType = mime.TypeByExtension(ext)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return size, mimeType, nil
}

// RssHandler génère le flux RSS des articles
func RssHandler(c *gin.Context) {
	var posts []csposts.Post

	site := cssite.GetInstance()
	db := site.Db

	// Récupérer les 20 derniers posts
	query := db.Order("created_at desc").Limit(20)

	category := c.Param("category")
	if category != "" {
		query = query.Where("NOT hide AND category = ?", strings.ToLower(csposts.Slugify(category)))
	} else {
		query = query.Where("NOT hide")
	}

	result := query.Find(&posts)
	if result.Error != nil {
		c.XML(http.StatusInternalServerError, gin.H{"error": "Erreur récupération posts"})
		return
	}

	baseURL := site.Configuration.Site.BaseURL
	if baseURL == "" {
		scheme := "http"
		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, c.Request.Host)
	}

	rss := csrss.RSS{
		Version: "2.0",
		Channel: csrss.Channel{
			Title:         site.Configuration.Site.Name,
			Link:          baseURL,
			Description:   stripmd.Strip(site.Configuration.Site.Description),
			Language:      "en-US",
			Generator:     fmt.Sprintf("Clearsite v%s", site.Version),
			LastBuildDate: time.Now().Format(time.RFC1123Z),
			Items:         make([]csrss.Item, 0, len(posts)),
		},
	}

	rss.Channel.Copyright = fmt.Sprintf("© %d %s", time.Now().Year(), site.Configuration.Site.Name)

	for _, post := range posts {
		description := post.Summary
		if description == "" {
			if len(post.Content) > 200 {
				description = post.Content[:200] + "..."
			} else {
				description = post.Content
			}
		}

		// Category, si aucune catégorie, on prend le 1er tag
		category := ""
		if post.Category != "" {
			category = post.Category
		} else if len(post.TagsList) > 0 {
			category = post.TagsList[0] // RSS 2.0 ne supporte qu'une catégorie par item
		}

		item := csrss.Item{
			Title:       post.Title,
			Link:        fmt.Sprintf("%s/blog/%s", baseURL, post.Slug),
			Description: stripmd.Strip(description),
			Author:      post.Author,
			Category:    category,
			GUID:        fmt.Sprintf("%s/blog/%s", baseURL, post.Slug),
			PubDate:     post.CreatedAt.Format(time.RFC1123Z),
			Enclosure:   nil,
		}

		// on génère l'image dans le rss si il y en a une de présente
		if post.FirstImage != "" {
			realpath := strings.Replace(post.FirstImage, "/static", site.Configuration.StaticPath, 1)
			size, mime, err := getImageInfo(realpath)
			if err == nil {
				item.Enclosure = &csrss.Enclosure{
					URL:    post.FirstImage,
					Length: size,
					Type:   mime,
				}
			}
		}

		rss.Channel.Items = append(rss.Channel.Items, item)
	}

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")

	output, err := xml.MarshalIndent(rss, "", "  ")
	if err != nil {
		c.XML(http.StatusInternalServerError, gin.H{"error": "Erreur génération RSS"})
		return
	}

	xmlWithHeader := []byte(xml.Header + string(output))

	c.Data(http.StatusOK, "application/rss+xml; charset=utf-8", xmlWithHeader)
}
