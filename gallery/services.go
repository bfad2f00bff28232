package gallery

import (
	"context"
	"net/http"
)

type ArtistService struct {
	client *Client
}

// List returns every artist.
func (s *ArtistService) List(ctx context.Context) ([]Artist, error) {
	var out listPayload[Artist]
	if err := s.client.get(ctx, resourcePath("artists"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one artist.
func (s *ArtistService) Get(ctx context.Context, id string) (*Artist, error) {
	out := &Artist{}
	if err := s.client.get(ctx, resourcePath("artists", id), out); err != nil {
		return nil, err
	}
	return out, nil
}

// Artworks returns the artworks of the artist with the given user id.
func (s *ArtistService) Artworks(ctx context.Context, userID string) ([]Artwork, error) {
	var out listPayload[Artwork]
	if err := s.client.get(ctx, resourcePath("artists", userID, "artworks"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Events returns the events of the artist with the given user id.
func (s *ArtistService) Events(ctx context.Context, userID string) ([]Event, error) {
	var out listPayload[Event]
	if err := s.client.get(ctx, resourcePath("artists", userID, "events"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProfileImage replaces the profile image of the artist with the
// given user id. The server only accepts it from that user.
func (s *ArtistService) UpdateProfileImage(ctx context.Context, userID string, image Upload) (*Artist, error) {
	if image.Content == nil {
		return nil, newInputError(errImageRequired)
	}

	out := &Artist{}
	if err := s.client.sendForm(ctx, http.MethodPut, resourcePath("artists", userID), nil, profileImagePart, &image, out); err != nil {
		return nil, err
	}
	return out, nil
}

type ArtworkService struct {
	client *Client
}

func (s *ArtworkService) List(ctx context.Context) ([]Artwork, error) {
	var out listPayload[Artwork]
	if err := s.client.get(ctx, resourcePath("artworks"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ArtworkService) Get(ctx context.Context, id string) (*Artwork, error) {
	out := &Artwork{}
	if err := s.client.get(ctx, resourcePath("artworks", id), out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create uploads a new artwork. An image is required.
func (s *ArtworkService) Create(ctx context.Context, in ArtworkInput) (*Artwork, error) {
	if err := in.Validate(); err != nil {
		return nil, newInputError(err)
	}
	if in.Image == nil || in.Image.Content == nil {
		return nil, newInputError(errImageRequired)
	}

	out := &Artwork{}
	if err := s.client.sendForm(ctx, http.MethodPost, resourcePath("artworks"), in.fields(), imagePart, in.Image, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the artwork fields. The image is kept when in.Image is nil.
func (s *ArtworkService) Update(ctx context.Context, id string, in ArtworkInput) (*Artwork, error) {
	if err := in.Validate(); err != nil {
		return nil, newInputError(err)
	}

	out := &Artwork{}
	if err := s.client.sendForm(ctx, http.MethodPut, resourcePath("artworks", id), in.fields(), imagePart, in.Image, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ArtworkService) Delete(ctx context.Context, id string) error {
	return s.client.delete(ctx, resourcePath("artworks", id))
}

type EventService struct {
	client *Client
}

func (s *EventService) List(ctx context.Context) ([]Event, error) {
	var out listPayload[Event]
	if err := s.client.get(ctx, resourcePath("events"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *EventService) Get(ctx context.Context, id string) (*Event, error) {
	out := &Event{}
	if err := s.client.get(ctx, resourcePath("events", id), out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create publishes a new event. An image is required.
func (s *EventService) Create(ctx context.Context, in EventInput) (*Event, error) {
	if err := in.Validate(); err != nil {
		return nil, newInputError(err)
	}
	if in.Image == nil || in.Image.Content == nil {
		return nil, newInputError(errImageRequired)
	}

	out := &Event{}
	if err := s.client.sendForm(ctx, http.MethodPost, resourcePath("events"), in.fields(), imagePart, in.Image, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update replaces the event fields. The image is kept when in.Image is nil.
func (s *EventService) Update(ctx context.Context, id string, in EventInput) (*Event, error) {
	if err := in.Validate(); err != nil {
		return nil, newInputError(err)
	}

	out := &Event{}
	if err := s.client.sendForm(ctx, http.MethodPut, resourcePath("events", id), in.fields(), imagePart, in.Image, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *EventService) Delete(ctx context.Context, id string) error {
	return s.client.delete(ctx, resourcePath("events", id))
}
