package boards

// CreateBoardInput carries the fields accepted when creating a board.
type CreateBoardInput struct {
	Slug        string
	Title       string
	Description *string
}

// UpdateBoardInput carries the patchable board fields; nil means "leave unchanged".
type UpdateBoardInput struct {
	Title       *string
	Description *string
}
