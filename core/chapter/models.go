package chapter

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sistematutorias/tutorias/core"
)

type Chapter struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewChapter contains information needed to create a new Chapter.
type NewChapter struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (nc *NewChapter) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}
