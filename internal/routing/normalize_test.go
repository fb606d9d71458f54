package routing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		baseURI  string
		location string
		want     string
	}{
		{name: "suffix after base", baseURI: "/app/", location: "/app/page", want: "page"},
		{name: "nested suffix", baseURI: "/app/", location: "/app/a/b/c", want: "a/b/c"},
		{name: "base itself", baseURI: "/app/", location: "/app/", want: ""},
		{name: "base without trailing slash", baseURI: "/app/", location: "/app", want: ""},
		{name: "query and fragment", baseURI: "/app/", location: "/app/page?x=1#y", want: "page"},
		{name: "fragment before query", baseURI: "/app/", location: "/app/page#y?x=1", want: "page"},
		{name: "query only", baseURI: "/app/", location: "/app/?x=1", want: ""},
		{name: "absolute URIs", baseURI: "https://example.com/", location: "https://example.com/counter", want: "counter"},
		{name: "root base", baseURI: "/", location: "/fetchdata", want: "fetchdata"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.baseURI, tt.location)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeSuffixProperty(t *testing.T) {
	bases := []string{"/", "/app/", "https://host:8080/sub/dir/"}
	suffixes := []string{"", "a", "a/b", "x?q=1", "y#frag", "z?q#f", "?only", "#only"}

	for _, base := range bases {
		for _, suffix := range suffixes {
			got, err := Normalize(base, base+suffix)
			require.NoError(t, err)

			want := suffix
			for i, r := range suffix {
				if r == '?' || r == '#' {
					want = suffix[:i]
					break
				}
			}
			assert.Equal(t, want, got, "base=%q suffix=%q", base, suffix)
		}
	}
}

func TestNormalizeNotContained(t *testing.T) {
	tests := []struct {
		name     string
		baseURI  string
		location string
	}{
		{name: "other path", baseURI: "/app/", location: "/other/page"},
		{name: "case differs", baseURI: "/app/", location: "/APP/page"},
		{name: "prefix without boundary", baseURI: "/app/", location: "/ap"},
		{name: "empty location", baseURI: "/app/", location: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.baseURI, tt.location)
			require.Error(t, err)

			var notContained *URINotContainedError
			require.True(t, errors.As(err, &notContained))
			assert.Equal(t, tt.location, notContained.Location)
			assert.Equal(t, tt.baseURI, notContained.BaseURI)
		})
	}
}
