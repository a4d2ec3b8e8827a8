package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"voicerag/types"
)

// ErrorHandler renders every failed request as {"code", "error"}.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var apiErr Error
		if errors.As(err, &apiErr) {
			return c.Status(apiErr.Code).JSON(apiErr)
		}
		var valErr ValidationError
		if errors.As(err, &valErr) {
			return c.Status(valErr.Status).JSON(valErr)
		}
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(NewError(fe.Code, fe.Message))
		}

		code := statusFor(err)
		logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("code", code),
			zap.Error(err))
		return c.Status(code).JSON(NewError(code, err.Error()))
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrUnsupportedType):
		return fiber.StatusBadRequest
	case errors.Is(err, types.ErrExtraction), errors.Is(err, types.ErrEncoding):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, types.ErrEmbeddingService),
		errors.Is(err, types.ErrStoreWrite),
		errors.Is(err, types.ErrStoreQuery),
		errors.Is(err, types.ErrGenerationService),
		errors.Is(err, types.ErrTranscription),
		errors.Is(err, types.ErrSynthesis):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

// Error implements the Error interface
func (e Error) Error() string {
	return e.Message
}

func NewError(code int, err string) Error {
	return Error{
		Code:    code,
		Message: err,
	}
}

type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{
		Status: fiber.StatusUnprocessableEntity,
		Errors: errors,
	}
}

func ErrBadRequest() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "invalid JSON request",
	}
}

func ErrMissingFile() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "multipart field 'file' is required",
	}
}

func ErrUnsupportedFile(kind string) Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "Unsupported " + kind,
	}
}
