package catalog

import "context"

// Store defines catalog persistence. Handlers load the target row first,
// consult the authorization policy, and only then mutate; the store itself
// enforces no ownership rules.
type Store interface {
	ListClassics(ctx context.Context, q ClassicQuery) ([]Classic, error)
	GetClassic(ctx context.Context, id int64) (Classic, error)
	CreateClassic(ctx context.Context, c *Classic) error

	ListNotes(ctx context.Context, q NoteQuery) ([]Note, error)
	GetNote(ctx context.Context, id int64) (Note, error)
	CreateNote(ctx context.Context, n *Note) error
	UpdateNote(ctx context.Context, id int64, content string) (Note, error)
	DeleteNote(ctx context.Context, id int64) error

	ListTranslations(ctx context.Context, q TranslationQuery) ([]Translation, error)
	GetTranslation(ctx context.Context, id int64) (Translation, error)
	CreateTranslation(ctx context.Context, tr *Translation) error
	UpdateTranslation(ctx context.Context, id int64, content string) (Translation, error)
	DeleteTranslation(ctx context.Context, id int64) error

	Like(ctx context.Context, userID, classicID int64) error
	Unlike(ctx context.Context, userID, classicID int64) error
	Liked(ctx context.Context, userID, classicID int64) (bool, error)
	LikeCount(ctx context.Context, classicID int64) (int64, error)

	Favorite(ctx context.Context, userID, classicID int64) error
	Unfavorite(ctx context.Context, userID, classicID int64) error
	Favorited(ctx context.Context, userID, classicID int64) (bool, error)
}
