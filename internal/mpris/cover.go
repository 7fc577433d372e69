package mpris

import (
	"os"
	"path/filepath"
)

// coverNames lists common artwork filenames in priority order.
var coverNames = []string{
	"cover.jpg", "cover.png", "cover.jpeg",
	"folder.jpg", "folder.png", "folder.jpeg",
	"artwork.jpg", "artwork.png",
}

// FindArtwork looks for artwork next to a collection file.
// Returns the path to the art file, or empty string if not found.
func FindArtwork(collectionPath string) string {
	dir := filepath.Dir(collectionPath)
	for _, name := range coverNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
