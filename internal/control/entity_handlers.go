package control

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerEntityRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "deleteProduct",
		Method:      http.MethodDelete,
		Path:        "/api/v1/products/{id}",
		Summary:     "Delete a product",
		Description: "Deletes remotely first, then locally. Telemetry cascades with the product.",
		Tags:        []string{"Products"},
	}, s.handleDeleteProduct)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/{id}",
		Summary:     "Delete a tag",
		Tags:        []string{"Tags"},
	}, s.handleDeleteTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBag",
		Method:      http.MethodPatch,
		Path:        "/api/v1/bags/{id}",
		Summary:     "Update a bag",
		Description: "Edits bag fields locally and mirrors the edit remotely when the bag is bound.",
		Tags:        []string{"Bags"},
	}, s.handleUpdateBag)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/bags/{id}",
		Summary:     "Delete a bag",
		Tags:        []string{"Bags"},
	}, s.handleDeleteBag)

	huma.Register(s.api, huma.Operation{
		OperationID: "addProductTag",
		Method:      http.MethodPut,
		Path:        "/api/v1/products/{id}/tags/{tagID}",
		Summary:     "Tag a product",
		Tags:        []string{"Products"},
	}, s.handleAddProductTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeProductTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/products/{id}/tags/{tagID}",
		Summary:     "Untag a product",
		Tags:        []string{"Products"},
	}, s.handleRemoveProductTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "addProductBag",
		Method:      http.MethodPut,
		Path:        "/api/v1/products/{id}/bags/{bagID}",
		Summary:     "Put a product in a bag",
		Tags:        []string{"Products"},
	}, s.handleAddProductBag)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeProductBag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/products/{id}/bags/{bagID}",
		Summary:     "Take a product out of a bag",
		Tags:        []string{"Products"},
	}, s.handleRemoveProductBag)
}

// UpdateBagRequest is the request body for updating a bag.
type UpdateBagRequest struct {
	Name  string `json:"name" doc:"Bag name"`
	Color string `json:"color,omitempty" doc:"Display color"`
	Icon  string `json:"icon,omitempty" doc:"Display icon"`
}

// UpdateBagInput wraps the update bag request for Huma.
type UpdateBagInput struct {
	ID   string `path:"id" doc:"Local bag ID"`
	Body UpdateBagRequest
}

// EntityInput identifies one local entity.
type EntityInput struct {
	ID string `path:"id" doc:"Local entity ID"`
}

// ProductTagInput identifies a product and a tag.
type ProductTagInput struct {
	ID    string `path:"id" doc:"Local product ID"`
	TagID string `path:"tagID" doc:"Local tag ID"`
}

// ProductBagInput identifies a product and a bag.
type ProductBagInput struct {
	ID    string `path:"id" doc:"Local product ID"`
	BagID string `path:"bagID" doc:"Local bag ID"`
}

func (s *Server) handleDeleteProduct(ctx context.Context, input *EntityInput) (*MessageOutput, error) {
	if err := s.orch.DeleteProduct(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Product deleted"}}, nil
}

func (s *Server) handleDeleteTag(ctx context.Context, input *EntityInput) (*MessageOutput, error) {
	if err := s.orch.DeleteTag(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Tag deleted"}}, nil
}

func (s *Server) handleUpdateBag(ctx context.Context, input *UpdateBagInput) (*MessageOutput, error) {
	if err := s.orch.UpdateBag(ctx, input.ID, input.Body.Name, input.Body.Color, input.Body.Icon); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Bag updated"}}, nil
}

func (s *Server) handleDeleteBag(ctx context.Context, input *EntityInput) (*MessageOutput, error) {
	if err := s.orch.DeleteBag(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Bag deleted"}}, nil
}

func (s *Server) handleAddProductTag(ctx context.Context, input *ProductTagInput) (*MessageOutput, error) {
	if err := s.orch.AddProductTag(ctx, input.ID, input.TagID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Tag added"}}, nil
}

func (s *Server) handleRemoveProductTag(ctx context.Context, input *ProductTagInput) (*MessageOutput, error) {
	if err := s.orch.RemoveProductTag(ctx, input.ID, input.TagID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Tag removed"}}, nil
}

func (s *Server) handleAddProductBag(ctx context.Context, input *ProductBagInput) (*MessageOutput, error) {
	if err := s.orch.AddProductBag(ctx, input.ID, input.BagID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Bag added"}}, nil
}

func (s *Server) handleRemoveProductBag(ctx context.Context, input *ProductBagInput) (*MessageOutput, error) {
	if err := s.orch.RemoveProductBag(ctx, input.ID, input.BagID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Bag removed"}}, nil
}
