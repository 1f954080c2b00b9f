// Package file keeps user settings in ~/.kicad-lcsc/config.toml.
package file
