package forms

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// One struct per use case. Fields are bound from the submitted form by gin
// and checked by its binding validator, so a handler gets either a fully
// populated form or an error it can turn into field messages.

type LoginForm struct {
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type RegisterForm struct {
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required"`
	Name     string `form:"name" binding:"required"`
}

type PostForm struct {
	Title    string `form:"title" binding:"required"`
	Subtitle string `form:"subtitle" binding:"required"`
	Author   string `form:"author" binding:"required"`
	ImgURL   string `form:"img_url" binding:"required,url"`
	Body     string `form:"body" binding:"required"`
}

type CommentForm struct {
	Text string `form:"comment_text" binding:"required"`
}

// FieldErrors flattens a binding error into a field name to message map so
// the form can be re-rendered with per-field indications.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"Form": "Invalid submission"}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = "This field is required"
		case "url":
			out[fe.Field()] = "Must be a valid URL"
		default:
			out[fe.Field()] = "Invalid value"
		}
	}
	return out
}
