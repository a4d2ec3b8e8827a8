package api

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"voicerag/model"
	"voicerag/types"
)

var audioExtensions = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".ogg":  true,
	".m4a":  true,
	".webm": true,
}

// AudioHandler answers a spoken question with text and synthesized speech.
type AudioHandler struct {
	transcriber model.Transcriber
	synthesizer model.Synthesizer
	agent       Answerer
	uploadDir   string
	urlPrefix   string
	logger      *zap.Logger
}

func NewAudioHandler(t model.Transcriber, s model.Synthesizer, agent Answerer, uploadDir, urlPrefix string, logger *zap.Logger) *AudioHandler {
	return &AudioHandler{
		transcriber: t,
		synthesizer: s,
		agent:       agent,
		uploadDir:   uploadDir,
		urlPrefix:   urlPrefix,
		logger:      logger,
	}
}

func (h *AudioHandler) HandleAudio(c *fiber.Ctx) error {
	if h.transcriber == nil || h.synthesizer == nil {
		return NewError(fiber.StatusServiceUnavailable, "audio is not configured")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrMissingFile()
	}
	if !audioExtensions[strings.ToLower(filepath.Ext(fileHeader.Filename))] {
		return ErrUnsupportedFile("audio format")
	}

	audio, err := readFormFile(fileHeader)
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	question, err := h.transcriber.Transcribe(ctx, fileHeader.Filename, audio)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrTranscription, err)
	}
	h.logger.Info("transcribed question", zap.String("question", question))

	answer, err := h.agent.Answer(ctx, question)
	if err != nil {
		return err
	}

	speech, err := h.synthesizer.Synthesize(ctx, answer)
	if err != nil {
		return fmt.Errorf("%w: %w", types.ErrSynthesis, err)
	}

	name := uuid.New().String() + ".mp3"
	if err := os.WriteFile(filepath.Join(h.uploadDir, name), speech, 0o644); err != nil {
		return err
	}

	return c.JSON(types.AudioResponse{
		Answer:    answer,
		Question:  question,
		AudioFile: path.Join(h.urlPrefix, name),
	})
}
