package auth

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"quill/forms"
	"quill/models"
)

type AuthModule struct {
	db *gorm.DB
}

func NewAuthModule(db *gorm.DB) *AuthModule {
	return &AuthModule{db: db}
}

func (a *AuthModule) RegisterRoutes(router *gin.Engine) {
	router.GET("/login", a.loginPage)
	router.POST("/login", a.loginPost)
	router.GET("/register", a.registerPage)
	router.POST("/register", a.registerPost)
	router.GET("/logout", a.logout)
}

// CurrentUser resolves the session principal to a User row. Returns nil for
// anonymous requests and for stale sessions pointing at a deleted user.
func CurrentUser(db *gorm.DB, c *gin.Context) *models.User {
	session := sessions.Default(c)
	userID := session.Get("user_id")
	if userID == nil {
		return nil
	}

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return nil
	}
	return &user
}

// RequireAdmin guards the post-authoring routes. An anonymous caller is
// treated as "not admin" and never dereferenced.
func RequireAdmin(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(db, c)
		if user == nil || !user.IsAdmin {
			c.HTML(http.StatusForbidden, "error.html", gin.H{
				"error": "You are not allowed to do that",
			})
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Next()
	}
}

func (a *AuthModule) loginPage(c *gin.Context) {
	session := sessions.Default(c)
	flashes := session.Flashes()
	session.Save()

	c.HTML(http.StatusOK, "login.html", gin.H{
		"flashes": flashes,
	})
}

func (a *AuthModule) loginPost(c *gin.Context) {
	var form forms.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "login.html", gin.H{
			"errors": forms.FieldErrors(err),
			"email":  c.PostForm("email"),
		})
		return
	}

	var user models.User
	if err := a.db.Where("email = ?", form.Email).First(&user).Error; err != nil {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"error": "That email does not exist. Please try again.",
			"email": form.Email,
		})
		return
	}

	if !checkPasswordHash(form.Password, user.PasswordHash) {
		c.HTML(http.StatusUnauthorized, "login.html", gin.H{
			"error": "Password incorrect. Please try again.",
			"email": form.Email,
		})
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Save()

	c.Redirect(http.StatusFound, "/")
}

func (a *AuthModule) registerPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{})
}

func (a *AuthModule) registerPost(c *gin.Context) {
	var form forms.RegisterForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "register.html", gin.H{
			"errors": forms.FieldErrors(err),
			"email":  c.PostForm("email"),
			"name":   c.PostForm("name"),
		})
		return
	}

	var existingUser models.User
	if err := a.db.Where("email = ?", form.Email).First(&existingUser).Error; err == nil {
		session := sessions.Default(c)
		session.AddFlash("You've already signed up with that email, log in instead!")
		session.Save()
		c.Redirect(http.StatusFound, "/login")
		return
	}

	passwordHash, err := hashPassword(form.Password)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "register.html", gin.H{
			"error": "Error creating account",
			"email": form.Email,
			"name":  form.Name,
		})
		return
	}

	user := models.User{
		Email:        form.Email,
		PasswordHash: passwordHash,
		Name:         form.Name,
	}

	// The first account ever registered becomes the admin.
	err = a.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Count(&count).Error; err != nil {
			return err
		}
		user.IsAdmin = count == 0
		return tx.Create(&user).Error
	})
	if err != nil {
		// A concurrent registration with the same email loses the race on
		// the unique constraint; treat it like the lookup above.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			session := sessions.Default(c)
			session.AddFlash("You've already signed up with that email, log in instead!")
			session.Save()
			c.Redirect(http.StatusFound, "/login")
			return
		}
		c.HTML(http.StatusInternalServerError, "register.html", gin.H{
			"error": "Error creating account",
			"email": form.Email,
			"name":  form.Name,
		})
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Save()

	c.Redirect(http.StatusFound, "/")
}

func (a *AuthModule) logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()

	c.Redirect(http.StatusFound, "/")
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
