package model

import (
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	err := errors.Wrap(NotFound("post %q not found", "x"), "get post")
	require.True(t, errors.Is(err, ErrNotFound))
	require.False(t, errors.Is(err, ErrConflict))

	var merr *Error
	require.True(t, errors.As(err, &merr))
	require.Equal(t, `post "x" not found`, merr.Msg)

	require.True(t, errors.Is(Conflict("dup"), ErrConflict))
	require.True(t, errors.Is(TooLarge("big"), ErrTooLarge))
}

func TestValidationError(t *testing.T) {
	verr := new(ValidationError)
	require.NoError(t, verr.Err())

	verr.Add("title", "is required")
	verr.Add("color", "must be a hex color")
	err := errors.Wrap(verr.Err(), "prepare")

	var got *ValidationError
	require.True(t, errors.As(err, &got))
	require.Len(t, got.Fields, 2)
	require.Equal(t, "title", got.Fields[0].Field)
	require.Contains(t, got.Error(), "color: must be a hex color")

	var nilErr *ValidationError
	require.NoError(t, nilErr.Err())
}

func TestPostStatusValid(t *testing.T) {
	require.True(t, PostStatusArchived.Valid())
	require.False(t, PostStatus("deleted").Valid())
	require.True(t, ContentTypeRichText.Valid())
	require.False(t, ContentType("rst").Valid())
}
