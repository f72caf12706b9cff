package site

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"quill/auth"
)

// Notifier relays a contact-form submission to the operator.
type Notifier interface {
	Send(name, replyTo, message string) error
}

type SiteModule struct {
	db       *gorm.DB
	notifier Notifier
}

func NewSiteModule(db *gorm.DB, notifier Notifier) *SiteModule {
	return &SiteModule{db: db, notifier: notifier}
}

func (s *SiteModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/about", s.about)
	router.GET("/contact", s.contactPage)
	router.POST("/contact", s.contactPost)
}

func (s *SiteModule) about(c *gin.Context) {
	c.HTML(http.StatusOK, "about.html", gin.H{
		"user": auth.CurrentUser(s.db, c),
	})
}

func (s *SiteModule) contactPage(c *gin.Context) {
	c.HTML(http.StatusOK, "contact.html", gin.H{
		"msgSent": false,
		"user":    auth.CurrentUser(s.db, c),
	})
}

func (s *SiteModule) contactPost(c *gin.Context) {
	name := c.PostForm("name")
	replyTo := c.PostForm("email")
	message := c.PostForm("message")

	if err := s.notifier.Send(name, replyTo, message); err != nil {
		log.Printf("Error relaying contact message from %s: %v", replyTo, err)
		c.HTML(http.StatusOK, "contact.html", gin.H{
			"msgSent":   false,
			"sendError": "Your message could not be sent. Please try again later.",
			"user":      auth.CurrentUser(s.db, c),
		})
		return
	}

	c.HTML(http.StatusOK, "contact.html", gin.H{
		"msgSent": true,
		"user":    auth.CurrentUser(s.db, c),
	})
}
