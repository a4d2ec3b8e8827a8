package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Validater interface {
	Validate() map[string]string
}

type ChatParams struct {
	Query string `json:"query" validate:"required"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *ChatParams) Validate() map[string]string {
	return ValidationErrors(validate.Struct(params))
}

// ValidationErrors flattens validator output into field -> reason.
func ValidationErrors(err error) map[string]string {
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		out[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
	}
	return out
}

type ChatResponse struct {
	Answer string `json:"answer"`
}

type AudioResponse struct {
	Answer    string `json:"answer"`
	Question  string `json:"question"`
	AudioFile string `json:"audio_file"`
}

type UploadResponse struct {
	Message string `json:"message"`
}
