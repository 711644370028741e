// Package assets holds embedded defaults shipped with the binary.
package assets

import "embed"

// Plugins contains the sample plugin definitions loaded when the user's
// plugin directory has no file of the same name.
//
//go:embed plugins
var Plugins embed.FS
