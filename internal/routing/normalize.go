package routing

import "strings"

// queryOrFragment marks where the path part of a location ends.
const queryOrFragment = "?#"

// Normalize converts an absolute location into a path relative to baseURI,
// without query string or fragment.
func Normalize(baseURI, location string) (string, error) {
	var relative string
	switch {
	case strings.HasPrefix(location, baseURI):
		relative = location[len(baseURI):]
	case location+"/" == baseURI:
		// "/app" is treated as "/app/"
		relative = ""
	default:
		return "", &URINotContainedError{Location: location, BaseURI: baseURI}
	}

	if i := strings.IndexAny(relative, queryOrFragment); i >= 0 {
		relative = relative[:i]
	}
	return relative, nil
}
