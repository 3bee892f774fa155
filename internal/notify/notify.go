package notify

import "context"

// Permission mirrors the three-state push permission model.
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Notification is one push message. Tag is the dedup key; a channel that
// collapses by tag merges repeats, and the dispatcher suppresses them anyway.
type Notification struct {
	Title              string `json:"title"`
	Body               string `json:"body,omitempty"`
	Icon               string `json:"icon,omitempty"`
	Tag                string `json:"tag"`
	RequireInteraction bool   `json:"require_interaction,omitempty"`
}

// Pusher is the push-notification collaborator: a permission gate plus a
// best-effort display primitive.
type Pusher interface {
	PermissionState() Permission
	RequestPermission(ctx context.Context) Permission
	Show(ctx context.Context, n Notification) error
}
