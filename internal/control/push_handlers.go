package control

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerPushRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "pushTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/push/tags/{id}",
		Summary:     "Push a pending tag",
		Description: "Creates the tag remotely and binds the returned identifier. A bound tag is a no-op.",
		Tags:        []string{"Push"},
	}, s.handlePushTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "pushBag",
		Method:      http.MethodPost,
		Path:        "/api/v1/push/bags/{id}",
		Summary:     "Push a pending bag",
		Tags:        []string{"Push"},
	}, s.handlePushBag)

	huma.Register(s.api, huma.Operation{
		OperationID: "pushProduct",
		Method:      http.MethodPost,
		Path:        "/api/v1/push/products/{id}",
		Summary:     "Push a pending product",
		Description: "Creates the product remotely, binds it, then pushes bound tag/bag relationships.",
		Tags:        []string{"Push"},
	}, s.handlePushProduct)
}

// PushInput identifies the local entity to push.
type PushInput struct {
	ID string `path:"id" doc:"Local entity ID"`
}

func (s *Server) handlePushTag(ctx context.Context, input *PushInput) (*MessageOutput, error) {
	if err := s.orch.SyncTag(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Tag pushed"}}, nil
}

func (s *Server) handlePushBag(ctx context.Context, input *PushInput) (*MessageOutput, error) {
	if err := s.orch.SyncBag(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Bag pushed"}}, nil
}

func (s *Server) handlePushProduct(ctx context.Context, input *PushInput) (*MessageOutput, error) {
	if err := s.orch.SyncProduct(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Product pushed"}}, nil
}
