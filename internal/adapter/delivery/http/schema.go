package http

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/expiry"
)

// shortenRequest represents the structure for a request to shorten a URL.
type shortenRequest struct {
	OriginalURL string `json:"original_url" validate:"required,http_url"`
	ExpiresIn   string `json:"expires_in" validate:"required,expiry_token"`
	CustomAlias string `json:"custom_alias" validate:"omitempty,min=3,max=20"`
}

// urlResponse represents a short URL as returned by create, check and list.
type urlResponse struct {
	OriginalURL string     `json:"original_url"`
	ShortURL    string     `json:"short_url"`
	IsActive    bool       `json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

func toURLResponse(url *entity.URL) urlResponse {
	return urlResponse{
		OriginalURL: url.OriginalURL,
		ShortURL:    url.ShortCode,
		IsActive:    url.IsActive,
		ExpiresAt:   url.ExpiresAt,
	}
}

// urlStatsResponse represents the statistics of a short URL.
type urlStatsResponse struct {
	OriginalURL string     `json:"original_url"`
	ShortURL    string     `json:"short_url"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at"`
	IsActive    bool       `json:"is_active"`
	ClickCount  int64      `json:"click_count"`
}

func toURLStatsResponse(url *entity.URL) urlStatsResponse {
	return urlStatsResponse{
		OriginalURL: url.OriginalURL,
		ShortURL:    url.ShortCode,
		CreatedAt:   url.CreatedAt,
		ExpiresAt:   url.ExpiresAt,
		IsActive:    url.IsActive,
		ClickCount:  url.ClickCount,
	}
}

// urlListResponse represents one page of short URLs.
type urlListResponse struct {
	URLs       []urlResponse `json:"urls"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int64         `json:"total_pages"`
}

func toURLListResponse(list *entity.URLList) urlListResponse {
	urls := make([]urlResponse, 0, len(list.URLs))
	for _, url := range list.URLs {
		urls = append(urls, toURLResponse(url))
	}

	return urlListResponse{
		URLs:       urls,
		Total:      list.Total,
		Page:       list.Page.Number,
		PageSize:   list.Page.Size,
		TotalPages: list.Page.TotalPages(list.Total),
	}
}

// validationError represents an individual validation error.
type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// errorResponse represents a structured error response.
type errorResponse struct {
	Detail string            `json:"detail"`
	Errors []validationError `json:"errors,omitempty"`
}

// Predefined error responses for common scenarios.
var (
	emptyRequestBodyResponse = errorResponse{
		Detail: "empty request body",
	}

	invalidRequestBodyResponse = errorResponse{
		Detail: "invalid request body",
	}

	invalidPagingResponse = errorResponse{
		Detail: "page and page_size must be integers",
	}

	invalidQRSizeResponse = errorResponse{
		Detail: "size must be an integer between 128 and 1024",
	}

	urlNotFoundResponse = errorResponse{
		Detail: "url not found or expired",
	}

	aliasTakenResponse = errorResponse{
		Detail: entity.ErrAliasTaken.Error(),
	}

	generationExhaustedResponse = errorResponse{
		Detail: entity.ErrGenerationExhausted.Error(),
	}

	unavailableResponse = errorResponse{
		Detail: "service temporarily unavailable",
	}

	serverErrorResponse = errorResponse{
		Detail: "server error occurred",
	}
)

var invalidInputErrors = []error{
	entity.ErrInvalidURL,
	entity.ErrInvalidAlias,
	entity.ErrReservedAlias,
	entity.ErrInvalidExpiry,
	entity.ErrInvalidPage,
}

// invalidInputResponse reports the first invalid input class found in err.
func invalidInputResponse(err error) errorResponse {
	for _, target := range invalidInputErrors {
		if errors.Is(err, target) {
			return errorResponse{Detail: target.Error()}
		}
	}

	return errorResponse{Detail: "invalid input"}
}

var expiryTokenList = func() string {
	tokens := expiry.Tokens()
	names := make([]string, 0, len(tokens))
	for _, t := range tokens {
		names = append(names, string(t))
	}
	return strings.Join(names, ", ")
}()

// messageForTag returns a user-friendly message based on the validation tag.
func messageForTag(tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	case "url", "http_url":
		return "invalid url"
	case "min":
		return "value is too short"
	case "max":
		return "value is too long"
	case "expiry_token":
		return "must be one of " + expiryTokenList
	default:
		return "invalid value"
	}
}

// getValidationErrors processes validation errors and returns a list of validationError.
func getValidationErrors(err error) []validationError {
	var validationErrs []validationError

	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		for _, e := range errs {
			validationErrs = append(validationErrs, validationError{
				Field:   e.Field(),
				Message: messageForTag(e.Tag()),
			})
		}
	}

	return validationErrs
}

// validationErrorResponse constructs an errorResponse for validation errors.
func validationErrorResponse(err error) errorResponse {
	return errorResponse{
		Detail: "validation error",
		Errors: getValidationErrors(err),
	}
}
