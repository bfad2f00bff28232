package auth

var TemplateUserKey = "current_user"

// TemplateHelpers returns data and functions for UI conditionals, computed
// from a single identity snapshot.
//
// Usage with a django/pongo2 style engine:
//
//	{% if is_authenticated %} ... {% endif %}
//	{% if is_artist %}<a href="/artworks/new">Upload</a>{% endif %}
//	{% if is_owner(artwork.OwnerID()) %}<a href="/artworks/{{ artwork.ID }}/edit">Edit</a>{% endif %}
func TemplateHelpers(identity Identity) map[string]any {
	helpers := map[string]any{
		"is_authenticated": identity.IsAuthenticated(),
		"is_artist":        identity.IsArtist(),
		"is_loading":       identity.IsLoading(),
		"is_owner":         identity.IsOwner,
		"can_edit": func(resource OwnedResource) bool {
			return CanEdit(identity, resource)
		},
	}

	if identity.IsAuthenticated() {
		helpers[TemplateUserKey] = map[string]any{
			"id":        identity.UserID(),
			"is_artist": identity.Claims.IsArtist,
		}
	}

	return helpers
}

// TemplateHelpersFrom is TemplateHelpers over the current identity of source.
func TemplateHelpersFrom(source IdentitySource) map[string]any {
	if source == nil {
		return TemplateHelpers(Unauthenticated())
	}
	return TemplateHelpers(source.Current())
}
