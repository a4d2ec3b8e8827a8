package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"voicerag/types"
)

// Answerer produces the final answer for a question.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Ingester indexes an uploaded document.
type Ingester interface {
	Ingest(ctx context.Context, doc types.Document) (int, error)
}

type ChatHandler struct {
	agent Answerer
}

func NewChatHandler(agent Answerer) *ChatHandler {
	return &ChatHandler{agent: agent}
}

func (h *ChatHandler) HandleChat(c *fiber.Ctx) error {
	var params types.ChatParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	answer, err := h.agent.Answer(c.UserContext(), params.Query)
	if err != nil {
		return err
	}
	return c.JSON(types.ChatResponse{Answer: answer})
}

type UploadHandler struct {
	ingester Ingester
}

func NewUploadHandler(ingester Ingester) *UploadHandler {
	return &UploadHandler{ingester: ingester}
}

func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrMissingFile()
	}

	typ, ok := types.DocTypeFromName(fileHeader.Filename)
	if !ok {
		return ErrUnsupportedFile("file type")
	}

	content, err := readFormFile(fileHeader)
	if err != nil {
		return err
	}

	doc := types.Document{Content: content, Type: typ, Source: fileHeader.Filename}
	if _, err := h.ingester.Ingest(c.UserContext(), doc); err != nil {
		return err
	}

	return c.JSON(types.UploadResponse{
		Message: fmt.Sprintf("File uploaded and indexed %s", fileHeader.Filename),
	})
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
