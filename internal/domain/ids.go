package domain

// SubjectID is the authenticated caller identity supplied by the auth layer.
// We model it as an opaque identifier: its format is controlled by the IdP.
type SubjectID string

// BoardID is an internal identifier for a board record.
type BoardID string

// TopicID is an internal identifier for a topic record.
type TopicID string

// CommentID is an internal identifier for a comment record.
type CommentID string
