package auth

// IsAuthenticated := identity is Authenticated.
func IsAuthenticated(identity Identity) bool {
	return identity.IsAuthenticated()
}

// IsArtist := identity is Authenticated and carries the artist role.
func IsArtist(identity Identity) bool {
	return identity.IsArtist()
}

// IsOwner := identity is Authenticated and its subject equals ownerID.
func IsOwner(identity Identity, ownerID string) bool {
	return identity.IsOwner(ownerID)
}

// OwnedResource is anything that can name the account owning it.
type OwnedResource interface {
	OwnerID() string
}

// CanEdit reports whether identity may edit resource: an artist that owns it.
func CanEdit(identity Identity, resource OwnedResource) bool {
	if resource == nil {
		return false
	}
	return identity.IsArtist() && identity.IsOwner(resource.OwnerID())
}
