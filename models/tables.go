package models

type User struct {
	ID           int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"unique;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"` // json:"-" prevents password from being exposed in API
	Name         string `gorm:"not null" json:"name"`
	IsAdmin      bool   `gorm:"default:false" json:"is_admin"` // set once, at registration
}

type BlogPost struct {
	ID       int    `gorm:"primaryKey;autoIncrement" json:"id"`
	AuthorID int    `gorm:"not null;index" json:"author_id"`
	Title    string `gorm:"unique;not null" json:"title"`
	Subtitle string `gorm:"not null" json:"subtitle"`
	Date     string `gorm:"not null" json:"date"` // human-readable, e.g. "January 2 2006"
	Body     string `gorm:"type:text;not null" json:"body"`
	ImgURL   string `gorm:"not null" json:"img_url"`

	Author User `gorm:"foreignKey:AuthorID" json:"-"`
}

type Comment struct {
	ID       int    `gorm:"primaryKey;autoIncrement" json:"id"`
	AuthorID int    `gorm:"not null;index" json:"author_id"`
	PostID   int    `gorm:"not null;index" json:"post_id"`
	Text     string `gorm:"type:text;not null" json:"text"`

	Author User     `gorm:"foreignKey:AuthorID" json:"-"`
	Post   BlogPost `gorm:"foreignKey:PostID" json:"-"`
}
