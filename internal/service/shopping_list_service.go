package service

import (
	"context"
	"fmt"

	"foodgram/internal/document"
	apperrors "foodgram/internal/errors"
	"foodgram/internal/metrics"
	"foodgram/internal/model"
	"foodgram/internal/repository"
)

// Shopping list download formats.
const (
	FormatPDF  = "pdf"
	FormatText = "txt"
)

// ShoppingListFile is a rendered shopping list ready to be sent.
type ShoppingListFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ShoppingListService aggregates a user's cart into a shopping list.
type ShoppingListService interface {
	Items(ctx context.Context, userID uint) ([]model.ShoppingListItem, error)
	Download(ctx context.Context, userID uint, format string) (*ShoppingListFile, error)
}

type shoppingListService struct {
	cart     repository.ShoppingCartRepository
	renderer *document.Renderer
}

// NewShoppingListService creates a new shopping list service.
func NewShoppingListService(cart repository.ShoppingCartRepository, renderer *document.Renderer) ShoppingListService {
	return &shoppingListService{cart: cart, renderer: renderer}
}

func (s *shoppingListService) Items(ctx context.Context, userID uint) ([]model.ShoppingListItem, error) {
	if userID == 0 {
		return nil, apperrors.ErrUnauthenticated
	}
	items, err := s.cart.ShoppingList(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("aggregate shopping list: %w", err)
	}
	return items, nil
}

func (s *shoppingListService) Download(ctx context.Context, userID uint, format string) (*ShoppingListFile, error) {
	if userID == 0 {
		return nil, apperrors.ErrUnauthenticated
	}
	if format == "" {
		format = FormatPDF
	}
	if format != FormatPDF && format != FormatText {
		return nil, apperrors.FieldError("format", fmt.Sprintf("Unsupported format %q; use %q or %q.", format, FormatPDF, FormatText))
	}

	items, err := s.Items(ctx, userID)
	if err != nil {
		return nil, err
	}

	file := &ShoppingListFile{}
	switch format {
	case FormatText:
		file.Filename = "shopping_list.txt"
		file.ContentType = "text/plain; charset=utf-8"
		file.Data = []byte(document.ShoppingListText(items))
	default:
		data, err := s.renderer.ShoppingListPDF(items)
		if err != nil {
			return nil, err
		}
		file.Filename = "shopping_list.pdf"
		file.ContentType = "application/pdf"
		file.Data = data
	}

	metrics.RecordShoppingList(format, len(items))
	return file, nil
}
