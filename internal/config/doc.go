// Package config loads runtime configuration for the FaceKeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config. The format follows
//     the extension: .json, .toml, or .yaml/.yml.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Durations in files are Go duration strings ("30s") or integer nanoseconds.
// The key file passphrase is never read from a file; it comes from the
// environment variable named by key_passphrase_env.
//
//	data_dir = "/home/bob/.config/facekeeper"
//	key_source = "file"
//	face_threshold = 0.5
//	disclosure_exposure = "30s"
package config
