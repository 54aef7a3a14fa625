package types

// ------------------------------
// Request Types
// ------------------------------

// SearchRequest narrows the feed by free text and/or tags.
type SearchRequest struct {
	Text string
	Tags []string
}

// ImageFile is a selected profile picture.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// AuthForm carries every sign-in/sign-up field. Sign-in only reads Email and
// Password on the server, but the whole form is submitted either way.
type AuthForm struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	Picture         *ImageFile
}
