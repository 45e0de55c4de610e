package audio

import (
	"context"
	"strconv"

	"github.com/simonhull/audiometa"

	"github.com/fractalbeauty/musicopy/internal/errors"
)

// ReadTags opens path through the audiometa facade and extracts the
// comment fields and cover art the output container's tags packet needs.
// A file with no readable tags still succeeds, returning a zero-value Tags.
func ReadTags(ctx context.Context, path string) (Tags, error) {
	file, err := audiometa.OpenContext(ctx, path)
	if err != nil {
		return Tags{}, errors.Wrapf(err, errors.CodeProbe, "open %s for tag reading", path)
	}
	defer file.Close() //nolint:errcheck

	tags := Tags{
		Title:  file.Tags.Title,
		Album:  file.Tags.Album,
		Artist: file.Tags.Artist,
	}
	if file.Tags.TrackNumber > 0 {
		tags.TrackNumber = strconv.Itoa(file.Tags.TrackNumber)
	}

	artworks, err := file.ExtractArtwork()
	if err != nil || len(artworks) == 0 {
		return tags, nil
	}

	// The facade surfaces the front cover first when the source marks one,
	// so the first attachment is the preferred pick.
	tags.Picture = &Picture{Data: artworks[0].Data}

	return tags, nil
}
