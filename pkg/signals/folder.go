package signals

import (
	"path/filepath"
	"strings"

	"shakeassets/pkg/matcher"
)

// FolderHints inspects the base name of dir for category hints.
func FolderHints(dir string) map[matcher.FolderHint]struct{} {
	name := strings.ToLower(filepath.Base(filepath.Clean(dir)))
	set := matcher.FolderSet()
	if strings.Contains(name, "vegan") {
		set[matcher.HintVegan] = struct{}{}
	}
	if strings.Contains(name, "cone") || strings.Contains(name, "icecream") || strings.Contains(name, "ice cream") {
		set[matcher.HintCone] = struct{}{}
	}
	if strings.Contains(name, "shot") {
		set[matcher.HintShotShake] = struct{}{}
	}
	if strings.Contains(name, "straight") || strings.Contains(name, "z image") {
		set[matcher.HintStraightShake] = struct{}{}
	}
	return set
}
