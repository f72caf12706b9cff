package blog

import (
	"bytes"
	"crypto/md5"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"gorm.io/gorm"

	"quill/auth"
	"quill/forms"
	"quill/models"
)

// dateFormat is the human-readable date stored on a post, reset on every edit.
const dateFormat = "January 2 2006"

type BlogModule struct {
	db *gorm.DB
}

// markdown renderer configured with Goldmark and useful extensions
var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,     // tables, strikethrough, task lists, autolinks (GFM set)
		extension.Linkify, // linkify raw URLs
	),
	goldmark.WithRendererOptions(
		htmlrenderer.WithUnsafe(), // allow raw HTML passthrough in post bodies
	),
)

func NewBlogModule(db *gorm.DB) *BlogModule {
	return &BlogModule{db: db}
}

func (b *BlogModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/", b.index)
	router.GET("/post/:id", b.showPost)
	router.POST("/post/:id", b.submitComment)

	adminRoutes := router.Group("/", auth.RequireAdmin(b.db))
	{
		adminRoutes.GET("/new-post", b.newPost)
		adminRoutes.POST("/new-post", b.createPost)
		adminRoutes.GET("/edit-post/:id", b.editPost)
		adminRoutes.POST("/edit-post/:id", b.updatePost)
		adminRoutes.GET("/delete/:id", b.deletePost)
	}
}

func (b *BlogModule) index(c *gin.Context) {
	var posts []models.BlogPost
	if err := b.db.Preload("Author").Order("id ASC").Find(&posts).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"error": "Error loading posts",
		})
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"posts": posts,
		"user":  auth.CurrentUser(b.db, c),
	})
}

func (b *BlogModule) showPost(c *gin.Context) {
	post, ok := b.loadPost(c)
	if !ok {
		return
	}

	b.renderPost(c, http.StatusOK, post, nil)
}

func (b *BlogModule) submitComment(c *gin.Context) {
	post, ok := b.loadPost(c)
	if !ok {
		return
	}

	var form forms.CommentForm
	if err := c.ShouldBind(&form); err != nil {
		b.renderPost(c, http.StatusBadRequest, post, forms.FieldErrors(err))
		return
	}

	user := auth.CurrentUser(b.db, c)
	if user == nil {
		session := sessions.Default(c)
		session.AddFlash("You need to login or register to comment.")
		session.Save()
		c.Redirect(http.StatusFound, "/login")
		return
	}

	comment := models.Comment{
		AuthorID: user.ID,
		PostID:   post.ID,
		Text:     form.Text,
	}
	if err := b.db.Create(&comment).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"error": "Error saving comment",
		})
		return
	}

	b.renderPost(c, http.StatusOK, post, nil)
}

func (b *BlogModule) newPost(c *gin.Context) {
	c.HTML(http.StatusOK, "make-post.html", gin.H{
		"isEdit": false,
		"user":   c.MustGet("user"),
	})
}

func (b *BlogModule) createPost(c *gin.Context) {
	admin := c.MustGet("user").(*models.User)

	var form forms.PostForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "make-post.html", gin.H{
			"isEdit": false,
			"errors": forms.FieldErrors(err),
			"form":   postFormValues(c),
			"user":   admin,
		})
		return
	}

	post := models.BlogPost{
		AuthorID: admin.ID,
		Title:    form.Title,
		Subtitle: form.Subtitle,
		Date:     time.Now().Format(dateFormat),
		Body:     form.Body,
		ImgURL:   form.ImgURL,
	}

	// Title uniqueness is enforced by the database, so a concurrent insert
	// of the same title still surfaces here as a conflict.
	if err := b.db.Create(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.HTML(http.StatusConflict, "make-post.html", gin.H{
				"isEdit": false,
				"error":  "A post with that title already exists",
				"form":   postFormValues(c),
				"user":   admin,
			})
			return
		}
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"error": "Error creating post",
		})
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/post/%d", post.ID))
}

func (b *BlogModule) editPost(c *gin.Context) {
	post, ok := b.loadPost(c)
	if !ok {
		return
	}

	c.HTML(http.StatusOK, "make-post.html", gin.H{
		"isEdit": true,
		"post":   post,
		"form": gin.H{
			"title":    post.Title,
			"subtitle": post.Subtitle,
			"author":   post.Author.Name,
			"img_url":  post.ImgURL,
			"body":     post.Body,
		},
		"user": c.MustGet("user"),
	})
}

func (b *BlogModule) updatePost(c *gin.Context) {
	post, ok := b.loadPost(c)
	if !ok {
		return
	}
	admin := c.MustGet("user").(*models.User)

	var form forms.PostForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "make-post.html", gin.H{
			"isEdit": true,
			"post":   post,
			"errors": forms.FieldErrors(err),
			"form":   postFormValues(c),
			"user":   admin,
		})
		return
	}

	post.Title = form.Title
	post.Subtitle = form.Subtitle
	post.Body = form.Body
	post.ImgURL = form.ImgURL
	post.Date = time.Now().Format(dateFormat)

	if err := b.db.Save(post).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.HTML(http.StatusConflict, "make-post.html", gin.H{
				"isEdit": true,
				"post":   post,
				"error":  "A post with that title already exists",
				"form":   postFormValues(c),
				"user":   admin,
			})
			return
		}
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"error": "Error updating post",
		})
		return
	}

	c.Redirect(http.StatusFound, fmt.Sprintf("/post/%d", post.ID))
}

// deletePost removes the post and its comments together, so no comment is
// ever left pointing at a missing post.
func (b *BlogModule) deletePost(c *gin.Context) {
	post, ok := b.loadPost(c)
	if !ok {
		return
	}

	err := b.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(post).Error
	})
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"error": "Error deleting post",
		})
		return
	}

	c.Redirect(http.StatusFound, "/")
}

// loadPost fetches the post in the :id param and writes a 404 page itself
// when there is nothing to load.
func (b *BlogModule) loadPost(c *gin.Context) (*models.BlogPost, bool) {
	var post models.BlogPost
	if err := b.db.Preload("Author").First(&post, "id = ?", c.Param("id")).Error; err != nil {
		c.HTML(http.StatusNotFound, "error.html", gin.H{
			"error": "Post not found",
		})
		return nil, false
	}
	return &post, true
}

type commentView struct {
	AuthorName string
	AvatarURL  string
	TextHTML   template.HTML
}

func (b *BlogModule) renderPost(c *gin.Context, status int, post *models.BlogPost, commentErrors map[string]string) {
	var comments []models.Comment
	if err := b.db.Preload("Author").Where("post_id = ?", post.ID).
		Order("id ASC").Find(&comments).Error; err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"error": "Error loading comments",
		})
		return
	}

	views := make([]commentView, len(comments))
	for i, comment := range comments {
		views[i] = commentView{
			AuthorName: comment.Author.Name,
			AvatarURL:  gravatarURL(comment.Author.Email),
			TextHTML:   template.HTML(renderMarkdown(comment.Text)),
		}
	}

	c.HTML(status, "post.html", gin.H{
		"post":     post,
		"bodyHTML": template.HTML(renderMarkdown(post.Body)),
		"comments": views,
		"errors":   commentErrors,
		"user":     auth.CurrentUser(b.db, c),
	})
}

func postFormValues(c *gin.Context) gin.H {
	return gin.H{
		"title":    c.PostForm("title"),
		"subtitle": c.PostForm("subtitle"),
		"author":   c.PostForm("author"),
		"img_url":  c.PostForm("img_url"),
		"body":     c.PostForm("body"),
	}
}

// gravatarURL builds a 45px avatar URL with the retro fallback.
func gravatarURL(email string) string {
	hash := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=45&d=retro&r=g", hash)
}

func renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(content), &buf); err != nil {
		// on renderer failure, fall back to the raw content
		return content
	}
	return buf.String()
}
